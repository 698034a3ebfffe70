package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Correction maps one known mis-transcription to its canonical form. Rules
// are data, loaded from the runtime directory, and applied in file order.
type Correction struct {
	Match   string `json:"match"`
	Replace string `json:"replace"`
}

type correctionRule struct {
	re      *regexp.Regexp
	replace string
}

// Corrector fixes speech-to-text artifacts: whole-word, case-insensitive
// matches on free text, and quoted-literal-only matches on generated SQL so
// identifiers and numbers are never rewritten.
type Corrector struct {
	rules []correctionRule
}

func NewCorrector(corrections []Correction) *Corrector {
	rules := make([]correctionRule, 0, len(corrections))
	for _, c := range corrections {
		if strings.TrimSpace(c.Match) == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(c.Match) + `\b`)
		if err != nil {
			continue
		}
		rules = append(rules, correctionRule{re: re, replace: c.Replace})
	}
	return &Corrector{rules: rules}
}

// Correct applies the mapping to free text. Absence of a match is a no-op.
func (c *Corrector) Correct(text string) string {
	for _, r := range c.rules {
		text = r.re.ReplaceAllLiteralString(text, r.replace)
	}
	return text
}

// CorrectLiterals applies the mapping only inside single-quoted SQL string
// literals, leaving the rest of the statement untouched.
func (c *Corrector) CorrectLiterals(query string) string {
	var b strings.Builder
	b.Grow(len(query))

	rest := query
	for {
		open := strings.IndexByte(rest, '\'')
		if open == -1 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:open+1])
		rest = rest[open+1:]

		end := literalEnd(rest)
		if end == -1 {
			// Unterminated literal, leave it alone
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(c.Correct(rest[:end]))
		b.WriteByte('\'')
		rest = rest[end+1:]
	}
}

// literalEnd returns the index of the closing quote of a SQL string literal,
// honoring the '' escape, or -1 when unterminated.
func literalEnd(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != '\'' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			i++ // escaped quote, keep going
			continue
		}
		return i
	}
	return -1
}

// LoadCorrections reads the correction mapping from a JSON file. A missing
// file means no corrections, not an error.
func LoadCorrections(path string) ([]Correction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read corrections: %w", err)
	}

	var corrections []Correction
	if err := json.Unmarshal(data, &corrections); err != nil {
		return nil, fmt.Errorf("failed to parse corrections: %w", err)
	}
	return corrections, nil
}
