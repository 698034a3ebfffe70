package pipeline

import (
	"testing"

	"github.com/sandevgo/talkdata/internal/core"
)

func turn(req, resp string) core.Turn {
	return core.Turn{
		Request:  core.TurnRecord{Text: req},
		Response: core.TurnRecord{Text: resp},
	}
}

func TestFormatTurns(t *testing.T) {
	turns := []core.Turn{
		turn("first question", "SELECT 1;"),
		turn("second question", "SELECT 2;"),
		turn("third question", "SELECT 3;"),
	}

	tests := []struct {
		name     string
		turns    []core.Turn
		maxPairs int
		order    Order
		expected string
	}{
		{
			name:     "empty history",
			turns:    nil,
			maxPairs: 10,
			order:    OrderChronological,
			expected: "",
		},
		{
			name:     "chronological",
			turns:    turns[:2],
			maxPairs: 10,
			order:    OrderChronological,
			expected: "User: first question\nAssistant: SELECT 1;\nUser: second question\nAssistant: SELECT 2;",
		},
		{
			name:     "most recent first",
			turns:    turns[:2],
			maxPairs: 10,
			order:    OrderMostRecentFirst,
			expected: "User: second question\nAssistant: SELECT 2;\nUser: first question\nAssistant: SELECT 1;",
		},
		{
			name:     "window keeps the most recent pairs",
			turns:    turns,
			maxPairs: 2,
			order:    OrderChronological,
			expected: "User: second question\nAssistant: SELECT 2;\nUser: third question\nAssistant: SELECT 3;",
		},
		{
			name:     "zero maxPairs keeps everything",
			turns:    turns[:1],
			maxPairs: 0,
			order:    OrderChronological,
			expected: "User: first question\nAssistant: SELECT 1;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatTurns(tt.turns, tt.maxPairs, tt.order)
			if got != tt.expected {
				t.Errorf("FormatTurns() = %q, want %q", got, tt.expected)
			}
		})
	}
}
