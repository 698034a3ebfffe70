package pipeline

import (
	"strings"

	"github.com/sandevgo/talkdata/internal/core"
)

// Order controls how formatted turns are arranged in a prompt. Translation
// prompts want the freshest context on top, summaries read chronologically.
type Order int

const (
	OrderChronological Order = iota
	OrderMostRecentFirst
)

// FormatTurns renders up to maxPairs of the most recent turns as prompt
// text, two lines per turn. No history renders as an empty string.
func FormatTurns(turns []core.Turn, maxPairs int, order Order) string {
	if maxPairs > 0 && len(turns) > maxPairs {
		turns = turns[len(turns)-maxPairs:]
	}
	if len(turns) == 0 {
		return ""
	}

	var b strings.Builder
	write := func(t core.Turn) {
		b.WriteString("User: ")
		b.WriteString(t.Request.Text)
		b.WriteString("\nAssistant: ")
		b.WriteString(t.Response.Text)
		b.WriteString("\n")
	}

	if order == OrderMostRecentFirst {
		for i := len(turns) - 1; i >= 0; i-- {
			write(turns[i])
		}
	} else {
		for _, t := range turns {
			write(t)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
