package pipeline

import (
	"context"
	"regexp"
	"strings"

	"github.com/sandevgo/talkdata/pkg/log"
)

// Sentinel markers the query prompt instructs the model to emit.
const (
	SentinelStart = "SQL_START"
	SentinelEnd   = "SQL_END"
)

// Extraction is the result of pulling a SQL statement out of a completion.
// Raw keeps the full model output for diagnostics when nothing matched.
type Extraction struct {
	Query string
	Found bool
	Raw   string
}

// strategy tries one way of locating a statement in model output. Strategies
// run in order of decreasing strictness, the first hit wins.
type strategy struct {
	name string
	re   *regexp.Regexp
}

var strategies = []strategy{
	{name: "sentinel", re: regexp.MustCompile(`(?is)` + SentinelStart + `\s*(.*?)\s*` + SentinelEnd)},
	{name: "tag", re: regexp.MustCompile(`(?is)<sql>\s*(.*?)\s*</sql>`)},
	{name: "fence", re: regexp.MustCompile("(?is)```sql\\s*(.*?)\\s*```")},
	{name: "select_terminated", re: regexp.MustCompile(`(?is)\bselect\b.*?;`)},
	{name: "select_to_end", re: regexp.MustCompile(`(?is)\bselect\b.*$`)},
}

// Extract walks the strategy cascade over normalized model output. Models
// drift between output formats across versions and temperatures, so a strict
// marker miss falls through to progressively looser pattern matches.
func Extract(ctx context.Context, raw string) Extraction {
	text := normalize(raw)

	for _, s := range strategies {
		m := s.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := m[0]
		if len(m) > 1 {
			candidate = m[1]
		}
		candidate = cleanCandidate(candidate)
		if candidate == "" {
			continue
		}

		log.FromCtx(ctx).Debug().Str("strategy", s.name).Msg("extracted query")
		return Extraction{Query: candidate, Found: true, Raw: raw}
	}

	return Extraction{Raw: raw}
}

// normalize smooths transport artifacts before matching: CRLF line endings,
// non-breaking spaces, and a bare leading "sql" marker line some models emit
// in place of a proper fence.
func normalize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = strings.TrimSpace(text)

	if first, rest, ok := strings.Cut(text, "\n"); ok {
		if strings.EqualFold(strings.TrimSpace(first), "sql") {
			text = rest
		}
	}
	return text
}

// cleanCandidate trims a matched statement and strips a stray trailing end
// marker, which models echo when they close a sentinel block they never
// opened properly.
func cleanCandidate(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	for {
		trimmed := strings.TrimSpace(strings.TrimSuffix(candidate, SentinelEnd))
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
		if trimmed == candidate {
			return candidate
		}
		candidate = trimmed
	}
}
