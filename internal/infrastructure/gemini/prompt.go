package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Template placeholders replaced when the user prompt is rendered.
const (
	DocumentPlaceholder = "%document-data%"
	ImagePlaceholder    = "%image-data%"
)

// Prompt file names inside the prompts directory.
const (
	SystemPromptFile = "system-prompt.txt"
	UserPromptFile   = "user-prompt.txt"
)

// ErrTemplate is returned when a user template lacks a placeholder.
var ErrTemplate = errors.New("invalid prompt template")

// Fields never sent to the model: large and irrelevant to the verdict.
var droppedFields = map[string]bool{
	"demographic_distribution": true,
	"delivery_by_region":       true,
}

// Prompts holds the system instruction and the user template.
type Prompts struct {
	System string
	User   string
}

// LoadPrompts reads both prompt files from dir and validates the template.
func LoadPrompts(dir string) (Prompts, error) {
	system, err := os.ReadFile(filepath.Join(dir, SystemPromptFile))
	if err != nil {
		return Prompts{}, fmt.Errorf("read system prompt: %w", err)
	}
	user, err := os.ReadFile(filepath.Join(dir, UserPromptFile))
	if err != nil {
		return Prompts{}, fmt.Errorf("read user prompt: %w", err)
	}
	p := Prompts{System: string(system), User: string(user)}
	if _, err := RenderUser(p.User, "", ""); err != nil {
		return Prompts{}, err
	}
	return p, nil
}

// FormatDocument renders the ad as "## key:" blocks with JSON values, in
// key order.
func FormatDocument(raw map[string]any) string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		if droppedFields[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("# Post Info:\n")
	for _, k := range keys {
		value, err := json.Marshal(raw[k])
		if err != nil {
			value = []byte("null")
		}
		fmt.Fprintf(&b, "## %s:\n```\n%s\n```\n", k, value)
	}
	return b.String()
}

// RenderUser substitutes the document and the uploaded image reference into
// the template. Each placeholder must appear exactly once, document first.
func RenderUser(template, document, imageURI string) (string, error) {
	head, rest, ok := strings.Cut(template, DocumentPlaceholder)
	if !ok || strings.Contains(rest, DocumentPlaceholder) {
		return "", fmt.Errorf("%w: needs one %s", ErrTemplate, DocumentPlaceholder)
	}
	middle, tail, ok := strings.Cut(rest, ImagePlaceholder)
	if !ok || strings.Contains(tail, ImagePlaceholder) {
		return "", fmt.Errorf("%w: needs one %s after %s", ErrTemplate, ImagePlaceholder, DocumentPlaceholder)
	}

	var b strings.Builder
	b.WriteString(head)
	b.WriteString(document)
	b.WriteString(middle)
	if imageURI != "" {
		fmt.Fprintf(&b, "[Image URI: %s]", imageURI)
	}
	b.WriteString(tail)
	return b.String(), nil
}
