package grading

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/adlib"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
)

// Defaults applied when an ad has no metadata entry.
const (
	DefaultReach    = "0-0"
	DefaultCurrency = "RON"
)

var rangeNumbers = regexp.MustCompile(`[\d,]+`)

// Metadata indexes enriched ad records by archive ID.
type Metadata map[string]map[string]any

// LoadMetadata reads an enriched ads file (array or results document).
func LoadMetadata(path string) (Metadata, error) {
	ads, err := adlib.LoadAds(path)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	meta := make(Metadata, len(ads))
	for _, ad := range ads {
		if id := adlib.ID(ad); id != "" {
			if _, ok := meta[id]; !ok {
				meta[id] = ad
			}
		}
	}
	return meta, nil
}

// ReachScore is the midpoint of a "lower-upper" audience range. Commas are
// thousands separators. Anything with fewer than two numbers scores zero.
func ReachScore(s string) float64 {
	nums := rangeNumbers.FindAllString(s, -1)
	var parsed []float64
	for _, n := range nums {
		n = strings.ReplaceAll(n, ",", "")
		if n == "" {
			continue
		}
		v, err := strconv.ParseFloat(n, 64)
		if err != nil {
			continue
		}
		parsed = append(parsed, v)
		if len(parsed) == 2 {
			return (parsed[0] + parsed[1]) / 2
		}
	}
	return 0
}

// Join attaches metadata to a parsed verdict. Missing metadata yields reach
// "0-0", zero spend, RON and no dates.
func Join(c domain.Conclusion, meta Metadata) Entry {
	e := Entry{
		PostID:       c.PostID,
		Party:        c.ResponsibleParty,
		IsPropaganda: c.IsPropaganda,
		Candidates:   c.Candidates,
		Reach:        ReachScore(DefaultReach),
		Currency:     DefaultCurrency,
	}

	ad, ok := meta[c.PostID]
	if !ok {
		return e
	}
	e.HasMetadata = true

	e.Reach = reachOf(ad["estimated_audience_size"])
	e.Spend = spendOf(ad["spend"])
	if cur := fieldString(ad, "currency"); cur != "" {
		e.Currency = cur
	}
	e.StartDate = optionalString(ad, "ad_delivery_start_time")
	e.EndDate = optionalString(ad, "ad_delivery_stop_time")
	return e
}

func reachOf(v any) float64 {
	switch t := v.(type) {
	case nil:
		return ReachScore(DefaultReach)
	case map[string]any:
		lo, _ := toFloat(t["lower_bound"])
		hi, _ := toFloat(t["upper_bound"])
		return (lo + hi) / 2
	default:
		return ReachScore(fmt.Sprint(t))
	}
}

func spendOf(v any) float64 {
	switch t := v.(type) {
	case map[string]any:
		if avg, ok := toFloat(t["average"]); ok {
			return avg
		}
		lo, _ := toFloat(t["lower_bound"])
		hi, _ := toFloat(t["upper_bound"])
		return (lo + hi) / 2
	case string:
		if b, ok := adlib.ParseBounds(t); ok {
			return b.Average
		}
		f, _ := toFloat(t)
		return f
	default:
		f, _ := toFloat(t)
		return f
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case interface{ Float64() (float64, error) }:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func fieldString(ad map[string]any, key string) string {
	switch t := ad[key].(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func optionalString(ad map[string]any, key string) *string {
	s := fieldString(ad, key)
	if s == "" {
		return nil
	}
	return &s
}
