package pipeline

import (
	"strings"
	"testing"
)

const summaryTemplate = "History:\n{{conversation_history}}\nQuestion: {{user_query}}\nSQL: {{sql}}\nRows: {{answer}}"

func summaryFields(history, answer string) map[string]string {
	return map[string]string{
		FieldConversationHistory: history,
		FieldUserQuery:           "how many apps",
		FieldSQL:                 "SELECT COUNT(*) FROM apps;",
		FieldAnswer:              answer,
	}
}

func TestBudgeterUnderBudget(t *testing.T) {
	b := NewBudgeter(HeuristicCounter{}, 1000)

	history := "User: hi\nAssistant: SELECT 1;"
	prompt, err := b.Build(t.Context(), summaryTemplate, summaryFields(history, "[]"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(prompt, history) {
		t.Error("prompt under budget should keep the history")
	}
	if !strings.Contains(prompt, "Rows: []") {
		t.Error("prompt under budget should keep the full answer")
	}
}

func TestBudgeterDropsHistoryFirst(t *testing.T) {
	// Budget fits the scaffold and answer but not the history.
	history := strings.Repeat("User: question\nAssistant: SELECT 1;\n", 50)
	answer := `[{"n": 1}]`
	b := NewBudgeter(HeuristicCounter{}, 60)

	prompt, err := b.Build(t.Context(), summaryTemplate, summaryFields(history, answer))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if strings.Contains(prompt, "User: question") {
		t.Error("history should have been dropped")
	}
	if !strings.Contains(prompt, answer) {
		t.Error("answer should survive the first degradation step")
	}
	if got := (HeuristicCounter{}).Count(prompt); got > 60 {
		t.Errorf("prompt counts %d tokens, budget is 60", got)
	}
}

func TestBudgeterTruncatesAnswerLast(t *testing.T) {
	history := strings.Repeat("User: q\nAssistant: a\n", 20)
	answer := strings.Repeat(`{"name": "Payroll System"},`, 200)
	budget := 50
	b := NewBudgeter(HeuristicCounter{}, budget)

	prompt, err := b.Build(t.Context(), summaryTemplate, summaryFields(history, answer))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := (HeuristicCounter{}).Count(prompt); got > budget {
		t.Errorf("prompt counts %d tokens, budget is %d", got, budget)
	}
	if !strings.Contains(prompt, "Payroll") {
		t.Error("truncated answer should keep its head")
	}
	if strings.Contains(prompt, "User: q") {
		t.Error("history should be gone before the answer is cut")
	}
}

func TestBudgeterClampsOversizedScaffold(t *testing.T) {
	// With the history dropped and the answer cut to nothing, a long current
	// question can push the scaffold alone past a small budget. The ceiling
	// must hold even then.
	fields := summaryFields(strings.Repeat("User: q\nAssistant: a\n", 10), "[]")
	fields[FieldUserQuery] = strings.Repeat("which applications run on MySQL ", 50)
	budget := 20
	b := NewBudgeter(HeuristicCounter{}, budget)

	prompt, err := b.Build(t.Context(), summaryTemplate, fields)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := (HeuristicCounter{}).Count(prompt); got > budget {
		t.Errorf("prompt counts %d tokens, budget is %d", got, budget)
	}
	if !strings.HasPrefix(prompt, "History:") {
		t.Error("clamped prompt should keep its head")
	}
}

func TestBudgeterMonotonic(t *testing.T) {
	// A larger budget never produces a smaller prompt.
	history := strings.Repeat("User: q\nAssistant: a\n", 30)
	answer := strings.Repeat("x", 2000)

	prev := -1
	for _, budget := range []int{30, 100, 300, 1000, 5000} {
		b := NewBudgeter(HeuristicCounter{}, budget)
		prompt, err := b.Build(t.Context(), summaryTemplate, summaryFields(history, answer))
		if err != nil {
			t.Fatalf("Build(budget=%d) error = %v", budget, err)
		}
		if len(prompt) < prev {
			t.Errorf("budget %d produced a shorter prompt (%d) than a smaller budget (%d)", budget, len(prompt), prev)
		}
		prev = len(prompt)
	}
}

func TestBudgeterMissingField(t *testing.T) {
	b := NewBudgeter(HeuristicCounter{}, 100)
	fields := summaryFields("", "[]")
	delete(fields, FieldSQL)

	if _, err := b.Build(t.Context(), summaryTemplate, fields); err == nil {
		t.Fatal("expected error for missing template field")
	}
}

func TestNewCounter(t *testing.T) {
	if c, err := NewCounter("heuristic", ""); err != nil {
		t.Fatalf("NewCounter(heuristic) error = %v", err)
	} else if _, ok := c.(HeuristicCounter); !ok {
		t.Errorf("NewCounter(heuristic) = %T", c)
	}

	if c, err := NewCounter("", ""); err != nil {
		t.Fatalf("NewCounter with empty name error = %v", err)
	} else if _, ok := c.(HeuristicCounter); !ok {
		t.Errorf("empty name should default to the heuristic, got %T", c)
	}

	if _, err := NewCounter("gpt", "cl100k_base"); err == nil {
		t.Error("expected an error for an unknown counter name")
	}
}

func TestTiktokenCounter(t *testing.T) {
	c, err := NewCounter("tiktoken", "cl100k_base")
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}

	got := c.Count("select name from applications where database_type = 'MySQL';")
	if got == 0 {
		t.Error("tiktoken count should be positive for non-empty text")
	}
	if c.Count("") != 0 {
		t.Error("tiktoken count of empty text should be zero")
	}
}

func TestHeuristicCounter(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 0},
		{"abc", 0},
		{"abcd", 1},
		{strings.Repeat("a", 400), 100},
	}

	for _, tt := range tests {
		if got := (HeuristicCounter{}).Count(tt.input); got != tt.expected {
			t.Errorf("Count(%d chars) = %d, want %d", len(tt.input), got, tt.expected)
		}
	}
}
