// Package extract pulls tagged fields out of classifier responses.
//
// Responses are either the plain text produced by the model or the JSON
// envelope returned by the generateContent API, whose text lives at
// candidates[0].content.parts[0].text.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
)

// Marker names emitted by the classifier prompt.
const (
	TagMessage     = "message-for-police"
	TagResponsible = "responsible-party-or-group"
	TagPostID      = "post_id"
	TagOutput      = "output"
	TagConclusion  = "conclusion"
	TagDecision    = "electoral-propaganda-decision"
	TagCandidate   = "candidate"
	TagName        = "name"
	TagImpact      = "impact"
)

// ErrMalformedResponse marks a response that lacks the required markers or
// whose envelope cannot be navigated.
var ErrMalformedResponse = errors.New("malformed classifier response")

type envelope struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Text returns the model text inside raw. A JSON document is navigated down to
// its first candidate part; anything else is taken verbatim.
func Text(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return string(raw)
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return ""
	}
	if len(env.Candidates) == 0 || len(env.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return env.Candidates[0].Content.Parts[0].Text
}

// Tag returns the trimmed content of the first <name>...</name> pair in text.
// The search is case-sensitive and spans line breaks.
func Tag(text, name string) (string, bool) {
	value, _, ok := nextTag(text, name)
	return value, ok
}

// Tags returns every non-overlapping <name>...</name> pair in order.
func Tags(text, name string) []string {
	var out []string
	for {
		value, rest, ok := nextTag(text, name)
		if !ok {
			return out
		}
		out = append(out, value)
		text = rest
	}
}

func nextTag(text, name string) (value, rest string, ok bool) {
	open := "<" + name + ">"
	closing := "</" + name + ">"

	start := strings.Index(text, open)
	if start < 0 {
		return "", "", false
	}
	start += len(open)

	end := strings.Index(text[start:], closing)
	if end < 0 {
		return "", "", false
	}
	end += start
	return strings.TrimSpace(text[start:end]), text[end+len(closing):], true
}

// Violation extracts the police message and the responsible party from raw.
// The second return is false when either marker pair is missing or blank.
func Violation(raw []byte) (domain.ExtractedViolation, bool) {
	text := Text(raw)
	if text == "" {
		return domain.ExtractedViolation{}, false
	}

	message, ok := Tag(text, TagMessage)
	if !ok || message == "" {
		return domain.ExtractedViolation{}, false
	}
	entity, ok := Tag(text, TagResponsible)
	if !ok || entity == "" {
		return domain.ExtractedViolation{}, false
	}

	postID, _ := Tag(text, TagPostID)
	return domain.ExtractedViolation{
		Entity:    entity,
		Narrative: message,
		AdID:      postID,
	}, true
}
