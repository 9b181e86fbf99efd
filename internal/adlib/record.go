// Package adlib handles Ad Library listings: parsing raw records,
// de-duplication, summaries and the results files exchanged between stages.
package adlib

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
)

// IDField is the key that identifies an ad across every stage.
const IDField = "ad_archive_id"

var boundsExpr = regexp.MustCompile(`lower_bound:\s*([\d.]+)\s*,\s*upper_bound:\s*([\d.]+)`)

// ID returns the archive ID of a raw record, or "" when absent.
func ID(raw map[string]any) string {
	return stringField(raw, IDField)
}

// FromRaw maps a scraper item or an enriched CSV record onto domain.Ad.
func FromRaw(raw map[string]any) domain.Ad {
	ad := domain.Ad{
		ArchiveID:    ID(raw),
		PageID:       stringField(raw, "page_id"),
		PageName:     stringField(raw, "page_name"),
		Query:        stringField(raw, "query"),
		Currency:     stringField(raw, "currency"),
		AudienceSize: stringField(raw, "estimated_audience_size"),
		CreatedAt:    stringField(raw, "ad_creation_time"),
		StartDate:    firstField(raw, "start_date", "ad_delivery_start_time"),
		EndDate:      firstField(raw, "end_date", "ad_delivery_stop_time"),
		Raw:          raw,
	}

	ad.Spend, ad.SpendText = boundsField(raw["spend"])
	ad.Impressions, ad.ImpressionsText = boundsField(raw["impressions"])
	if idx, ok := raw["impressions_with_index"].(map[string]any); ok {
		if text := stringField(idx, "impressions_text"); text != "" {
			ad.ImpressionsText = text
		}
	}

	if snapshot, ok := raw["snapshot"].(map[string]any); ok {
		ad.BodyText = snapshotBody(snapshot)
		ad.ImageURLs = snapshotImages(snapshot)
	}
	return ad
}

// ParseBounds reads "lower_bound: 100, upper_bound: 199" as exported by the
// Ad Library CSV reports.
func ParseBounds(s string) (domain.Bounds, bool) {
	m := boundsExpr.FindStringSubmatch(s)
	if m == nil {
		return domain.Bounds{}, false
	}
	lower, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return domain.Bounds{}, false
	}
	upper, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return domain.Bounds{}, false
	}
	return domain.NewBounds(lower, upper), true
}

// BodyText flattens ad body markup to plain text.
func BodyText(html string) string {
	if !strings.Contains(html, "<") {
		return strings.TrimSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	return strings.TrimSpace(doc.Text())
}

func snapshotBody(snapshot map[string]any) string {
	switch body := snapshot["body"].(type) {
	case string:
		return BodyText(body)
	case map[string]any:
		if markup, ok := body["markup"].(map[string]any); ok {
			if html := stringField(markup, "__html"); html != "" {
				return BodyText(html)
			}
		}
		return BodyText(stringField(body, "text"))
	}
	return ""
}

func snapshotImages(snapshot map[string]any) []string {
	images, ok := snapshot["images"].([]any)
	if !ok {
		return nil
	}
	var urls []string
	for _, item := range images {
		img, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if u := firstField(img, "resized_image_url", "original_image_url"); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func boundsField(v any) (*domain.Bounds, string) {
	switch val := v.(type) {
	case map[string]any:
		lower, okL := number(val["lower_bound"])
		upper, okU := number(val["upper_bound"])
		if !okL && !okU {
			return nil, ""
		}
		b := domain.NewBounds(lower, upper)
		return &b, fmt.Sprintf("%g-%g", lower, upper)
	case string:
		if b, ok := ParseBounds(val); ok {
			return &b, val
		}
		return nil, val
	case nil:
		return nil, ""
	default:
		return nil, stringValue(val)
	}
}

func firstField(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := stringField(raw, k); v != "" {
			return v
		}
	}
	return ""
}

func stringField(raw map[string]any, key string) string {
	return stringValue(raw[key])
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func number(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(val, ",", ""), 64)
		return f, err == nil
	case int:
		return float64(val), true
	}
	return 0, false
}
