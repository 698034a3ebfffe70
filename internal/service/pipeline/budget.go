package pipeline

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/talkdata/pkg/log"
)

// Counter estimates how many tokens a prompt costs. The budgeter only needs
// a conservative estimate, not an exact count.
type Counter interface {
	Count(text string) int
}

// HeuristicCounter approximates tokens as length/4. It is model-agnostic and
// never fails, which matters more here than precision.
type HeuristicCounter struct{}

func (HeuristicCounter) Count(text string) int {
	return len(text) / 4
}

// TiktokenCounter counts with a real BPE encoding for deployments where the
// budget sits close to the model's context window.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %q: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// NewCounter selects a Counter implementation by name.
func NewCounter(name, encoding string) (Counter, error) {
	switch name {
	case "", "heuristic":
		return HeuristicCounter{}, nil
	case "tiktoken":
		return NewTiktokenCounter(encoding)
	default:
		return nil, fmt.Errorf("unknown token counter %q", name)
	}
}

// Budgeter assembles the summary prompt while keeping it under a token
// budget. When the full prompt is too large it degrades in fixed steps:
// first the conversation history is dropped, then the result payload is
// truncated to whatever room the remaining scaffold leaves.
type Budgeter struct {
	counter Counter
	budget  int
}

func NewBudgeter(counter Counter, budget int) *Budgeter {
	return &Budgeter{counter: counter, budget: budget}
}

// Build renders the summary prompt from the template and fields, degrading
// until the result fits the budget. The returned prompt never exceeds the
// budget; all degradation decisions are logged.
func (b *Budgeter) Build(ctx context.Context, template string, fields map[string]string) (string, error) {
	prompt, err := Render(template, fields)
	if err != nil {
		return "", err
	}
	if b.counter.Count(prompt) <= b.budget {
		return prompt, nil
	}

	// Step one: drop the conversation history, the answer payload is what
	// the summary is actually about.
	reduced := cloneFields(fields)
	reduced[FieldConversationHistory] = ""
	prompt, err = Render(template, reduced)
	if err != nil {
		return "", err
	}
	if b.counter.Count(prompt) <= b.budget {
		log.FromCtx(ctx).Warn().Int("budget", b.budget).Msg("summary prompt over budget, dropped history")
		return prompt, nil
	}

	// Step two: truncate the answer payload to the room the scaffold leaves.
	// The payload is sanitized before measuring so truncation cannot split a
	// placeholder escape, re-sanitizing an already sanitized value is a no-op.
	scaffold := cloneFields(reduced)
	scaffold[FieldAnswer] = ""
	rendered, err := Render(template, scaffold)
	if err != nil {
		return "", err
	}

	room := (b.budget - b.counter.Count(rendered)) * 4
	if room < 0 {
		room = 0
	}
	reduced[FieldAnswer] = truncate(sanitizeValue(fields[FieldAnswer]), room)

	prompt, err = Render(template, reduced)
	if err != nil {
		return "", err
	}

	// A template whose non-answer portions alone exceed the budget leaves no
	// room for the payload. The ceiling still holds: cut the rendered prompt
	// itself, instructional tail included.
	if b.counter.Count(prompt) > b.budget {
		prompt = truncate(prompt, b.budget*4)
		for b.counter.Count(prompt) > b.budget && len(prompt) > 0 {
			prompt = truncate(prompt, len(prompt)-4)
		}
	}

	log.FromCtx(ctx).Warn().
		Int("budget", b.budget).
		Int("answer_chars", room).
		Msg("summary prompt over budget, truncated answer payload")
	return prompt, nil
}

func cloneFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// truncate cuts a string to at most n bytes without splitting a UTF-8
// sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
