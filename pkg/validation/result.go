package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode/utf8"

	"go-glow-ai/pkg/models"
)

// Defaults substituted for missing or mistyped fields.
const (
	DefaultDescription = "Анализ завершен."
	DefaultWorstColor  = "#000000"
	DefaultYogaTitle   = "Фейс-фитнес"
	DefaultYogaText    = "Выполните упражнение."
)

// DefaultBestColors returns the palette used when bestColors is unusable.
func DefaultBestColors() []string {
	return []string{"#CCCCCC", "#888888", "#444444"}
}

// ErrNotJSONObject is returned when the model output is not a JSON object.
var ErrNotJSONObject = errors.New("model output is not a JSON object")

// minSeasonRunes is the shortest season label accepted from the model.
const minSeasonRunes = 4

// placeholderMarkers show up when the model echoes the prompt template
// instead of filling it in.
var placeholderMarkers = []string{"string", "e.g.", "#hex"}

var codeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// StripCodeFences removes a surrounding Markdown code fence, if any.
func StripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if m := codeFence.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Unterminated fences are common with truncated completions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// ParseContent decodes the model's text output into a loose JSON object.
func ParseContent(content string) (map[string]any, error) {
	cleaned := StripCodeFences(content)
	if cleaned == "" {
		return nil, ErrNotJSONObject
	}
	var raw any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSONObject, err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNotJSONObject
	}
	return obj, nil
}

// PlausibleSeason reports whether s looks like a real season label rather
// than an empty value or an echoed template placeholder.
func PlausibleSeason(s string) bool {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < minSeasonRunes {
		return false
	}
	lower := strings.ToLower(s)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// IsHexColor reports whether s is a #RGB or #RRGGBB color.
func IsHexColor(s string) bool {
	return hexColor.MatchString(s)
}

// Sanitizer turns loose model output into a well-typed AnalysisResult.
type Sanitizer struct {
	// Intn picks the fallback profile index; math/rand/v2 when nil.
	Intn func(n int) int
	// Normalize maps season variants onto canonical labels.
	Normalize bool
}

// NewSanitizer returns a Sanitizer with season normalization enabled.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{Normalize: true}
}

// Sanitize builds a result from raw. Fields with the wrong type are replaced
// by defaults; an implausible season replaces the whole record with a random
// fallback profile flagged as demo. The second return value reports that
// substitution.
func (s *Sanitizer) Sanitize(raw map[string]any) (models.AnalysisResult, bool) {
	season, _ := raw["season"].(string)
	if !PlausibleSeason(season) {
		return models.RandomFallback(s.intn()), true
	}
	season = strings.TrimSpace(season)
	if s.Normalize {
		season = NormalizeSeason(season)
	}

	result := models.AnalysisResult{
		Season:      season,
		Description: stringOr(raw["description"], DefaultDescription),
		BestColors:  stringList(raw["bestColors"]),
		WorstColor:  stringOr(raw["worstColor"], DefaultWorstColor),
		YogaTitle:   stringOr(raw["yogaTitle"], DefaultYogaTitle),
		YogaText:    stringOr(raw["yogaText"], DefaultYogaText),
	}
	if demo, ok := raw["isDemo"].(bool); ok {
		result.IsDemo = demo
	}
	return result, false
}

// SanitizeContent parses and sanitizes raw model text.
func (s *Sanitizer) SanitizeContent(content string) (models.AnalysisResult, bool, error) {
	raw, err := ParseContent(content)
	if err != nil {
		return models.AnalysisResult{}, false, err
	}
	result, substituted := s.Sanitize(raw)
	return result, substituted, nil
}

func (s *Sanitizer) intn() func(int) int {
	if s == nil || s.Intn == nil {
		return rand.IntN
	}
	return s.Intn
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return DefaultBestColors()
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return DefaultBestColors()
	}
	return out
}
