package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"

	"github.com/tbourn/go-horoscope-backend/internal/domain"
)

// SectionCount is the number of narrative sections in a reading.
const SectionCount = 5

// ErrMalformedScores is returned by ParseScores for any reply that is not
// exactly {"health": n, "love": n, "career": n} with integers in [0, 100].
var ErrMalformedScores = errors.New("malformed scores")

var (
	blankLineRE = regexp.MustCompile(`\n[ \t]*\n\s*`)
	labelRE     = regexp.MustCompile(`^[^:\n]+:[ \t]*\n`)

	// bluemonday policies are safe for concurrent use once built.
	stripHTML = bluemonday.StrictPolicy()
)

// SplitSections splits model output on blank lines, trims each fragment and
// drops empty ones. The result always has SectionCount entries: missing
// sections are padded with "" (padded reports this) and extra ones dropped.
func SplitSections(text string) (sections []string, padded bool) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := lo.FilterMap(blankLineRE.Split(text, -1), func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})

	if len(parts) >= SectionCount {
		return parts[:SectionCount], false
	}
	return append(parts, lo.Times(SectionCount-len(parts), func(int) string { return "" })...), true
}

// CleanSection normalizes one section: literal "\n" escapes become newlines,
// a leading "Label:" line is dropped, HTML is stripped and the result is
// trimmed. An empty result becomes domain.Placeholder.
func CleanSection(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.TrimSpace(s)
	s = labelRE.ReplaceAllString(s, "")
	if strings.Contains(s, "<") {
		// Sanitize escapes entities; undo that so plain text stays plain.
		s = html.UnescapeString(stripHTML.Sanitize(s))
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Placeholder
	}
	return s
}

// ParseScores strictly decodes the extraction reply.
func ParseScores(raw string) (domain.Scores, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &fields); err != nil {
		return domain.Scores{}, fmt.Errorf("%w: %v", ErrMalformedScores, err)
	}
	if len(fields) != 3 {
		return domain.Scores{}, fmt.Errorf("%w: want 3 keys, got %d", ErrMalformedScores, len(fields))
	}

	var s domain.Scores
	for key, dst := range map[string]*int{"health": &s.Health, "love": &s.Love, "career": &s.Career} {
		v, ok := fields[key]
		if !ok {
			return domain.Scores{}, fmt.Errorf("%w: missing %q", ErrMalformedScores, key)
		}
		if string(v) == "null" {
			return domain.Scores{}, fmt.Errorf("%w: %q is null", ErrMalformedScores, key)
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return domain.Scores{}, fmt.Errorf("%w: %q is not an integer", ErrMalformedScores, key)
		}
	}
	if !s.Valid() {
		return domain.Scores{}, fmt.Errorf("%w: out of range %+v", ErrMalformedScores, s)
	}
	return s, nil
}
