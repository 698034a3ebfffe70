package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/talkdata/internal/config"
	"github.com/sandevgo/talkdata/internal/core"
)

type fakeProvider struct {
	responses []string
	requests  []core.CompletionRequest
	err       error
}

func (p *fakeProvider) Complete(_ context.Context, req core.CompletionRequest) (string, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return "", p.err
	}
	if len(p.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

type fakeHistory struct {
	turns map[string][]core.Turn
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{turns: map[string][]core.Turn{}}
}

func (h *fakeHistory) AppendTurn(_ context.Context, sessionID string, turn core.Turn) error {
	h.turns[sessionID] = append(h.turns[sessionID], turn)
	return nil
}

func (h *fakeHistory) GetTurns(_ context.Context, sessionID string, limit int) ([]core.Turn, error) {
	turns := h.turns[sessionID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

type fakeStore struct {
	rows    []core.Row
	err     error
	queries []string
}

func (s *fakeStore) Execute(_ context.Context, query string) ([]core.Row, error) {
	s.queries = append(s.queries, query)
	return s.rows, s.err
}

type fakeSchema struct{}

func (fakeSchema) Descriptor() *core.SchemaDescriptor {
	return &core.SchemaDescriptor{
		TableName: "applications",
		Columns: []core.SchemaColumn{
			{Name: "Name", Type: "TEXT"},
			{Name: "Database_Type", Type: "TEXT"},
		},
		Descriptions: map[string]core.ColumnDescription{
			"Database_Type": {Name: "Database_Type", Purpose: "backing database product"},
		},
	}
}

func testConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		TableName:            "applications",
		HistoryWindow:        10,
		TokenBudget:          10000,
		TranslateTemperature: 0.0,
		SummaryTemperature:   0.7,
		TopP:                 1.0,
		CompletionTimeout:    time.Second,
		QueryTimeout:         time.Second,
	}
}

func newTestEngine(provider *fakeProvider, history *fakeHistory, store *fakeStore) *Engine {
	return NewEngine(testConfig(), provider, history, store, fakeSchema{},
		NewSource("", "", ""), HeuristicCounter{})
}

func TestEngineAskSuccess(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		"SQL_START SELECT COUNT(*) FROM applications; SQL_END",
		"There are three applications.",
	}}
	history := newFakeHistory()
	store := &fakeStore{rows: []core.Row{{"COUNT(*)": int64(3)}}}
	engine := newTestEngine(provider, history, store)

	answer, err := engine.Ask(t.Context(), "session-1", "how many applications are there")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if answer.Outcome.Status != core.StatusSuccess {
		t.Fatalf("Status = %q, want success", answer.Outcome.Status)
	}
	if answer.Outcome.Query != "SELECT COUNT(*) FROM applications;" {
		t.Errorf("Query = %q", answer.Outcome.Query)
	}
	if answer.Summary != "There are three applications." {
		t.Errorf("Summary = %q", answer.Summary)
	}

	turns := history.turns["session-1"]
	if len(turns) != 1 {
		t.Fatalf("expected exactly one recorded turn, got %d", len(turns))
	}
	if turns[0].Request.Text != "how many applications are there" {
		t.Errorf("recorded request = %q", turns[0].Request.Text)
	}
	if turns[0].Response.Text != "SELECT COUNT(*) FROM applications;" {
		t.Errorf("recorded response = %q", turns[0].Response.Text)
	}

	if len(provider.requests) != 2 {
		t.Fatalf("expected 2 completions, got %d", len(provider.requests))
	}
	if provider.requests[0].Temperature != 0.0 {
		t.Errorf("translation temperature = %v, want 0", provider.requests[0].Temperature)
	}
	if provider.requests[1].Temperature != 0.7 {
		t.Errorf("summary temperature = %v, want 0.7", provider.requests[1].Temperature)
	}
}

func TestEngineAskNoQueryExtracted(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		"I cannot answer that from this table.",
	}}
	history := newFakeHistory()
	store := &fakeStore{}
	engine := newTestEngine(provider, history, store)

	answer, err := engine.Ask(t.Context(), "session-1", "what is the meaning of life")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if answer.Outcome.Status != core.StatusNoQueryExtracted {
		t.Fatalf("Status = %q, want no_query_extracted", answer.Outcome.Status)
	}
	if answer.Summary != replyNoQuery {
		t.Errorf("Summary = %q", answer.Summary)
	}
	if len(history.turns["session-1"]) != 0 {
		t.Error("failed extraction must not touch the history")
	}
	if len(store.queries) != 0 {
		t.Error("nothing should have been executed")
	}
}

func TestEngineAskNoRows(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		"SQL_START SELECT * FROM applications WHERE Name = 'Nope'; SQL_END",
	}}
	history := newFakeHistory()
	store := &fakeStore{rows: nil}
	engine := newTestEngine(provider, history, store)

	answer, err := engine.Ask(t.Context(), "session-1", "show the Nope app")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if answer.Outcome.Status != core.StatusNoRowsReturned {
		t.Fatalf("Status = %q, want no_rows_returned", answer.Outcome.Status)
	}
	if answer.Summary != replyNoRows {
		t.Errorf("Summary = %q", answer.Summary)
	}
	if len(history.turns["session-1"]) != 0 {
		t.Error("empty result must not be recorded as a turn")
	}
}

func TestEngineAskExecutionFailed(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		"SQL_START SELECT nope FROM applications; SQL_END",
	}}
	history := newFakeHistory()
	store := &fakeStore{err: errors.New("no such column: nope")}
	engine := newTestEngine(provider, history, store)

	answer, err := engine.Ask(t.Context(), "session-1", "show nope")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if answer.Outcome.Status != core.StatusExecutionFailed {
		t.Fatalf("Status = %q, want execution_failed", answer.Outcome.Status)
	}
	if answer.Outcome.Message != "no such column: nope" {
		t.Errorf("Message = %q, want the store diagnostic verbatim", answer.Outcome.Message)
	}
	if answer.Summary != replyFailed {
		t.Errorf("Summary = %q", answer.Summary)
	}
	if len(history.turns["session-1"]) != 0 {
		t.Error("failed execution must not be recorded as a turn")
	}
}

func TestEngineTranslationFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	engine := newTestEngine(provider, newFakeHistory(), &fakeStore{})

	_, err := engine.Ask(t.Context(), "session-1", "how many apps")
	if err == nil {
		t.Fatal("expected an error")
	}

	var stage *StageError
	if !errors.As(err, &stage) {
		t.Fatalf("expected StageError, got %T", err)
	}
	if stage.Stage != StageTranslation {
		t.Errorf("Stage = %q, want translation", stage.Stage)
	}
}

func TestEngineSummarizationFailure(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		"SQL_START SELECT 1; SQL_END",
	}}
	history := newFakeHistory()
	store := &fakeStore{rows: []core.Row{{"1": int64(1)}}}
	engine := newTestEngine(provider, history, store)

	_, err := engine.Ask(t.Context(), "session-1", "anything")
	if err == nil {
		t.Fatal("expected an error when the summary completion fails")
	}

	var stage *StageError
	if !errors.As(err, &stage) {
		t.Fatalf("expected StageError, got %T", err)
	}
	if stage.Stage != StageSummarization {
		t.Errorf("Stage = %q, want summarization", stage.Stage)
	}

	// The query itself succeeded, so the turn is already on record.
	if len(history.turns["session-1"]) != 1 {
		t.Errorf("expected the successful turn to be recorded, got %d", len(history.turns["session-1"]))
	}
}

func TestEngineCorrectsLiterals(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		"SQL_START SELECT * FROM applications WHERE Database_Type = 'my sequel'; SQL_END",
		"One application uses MySQL.",
	}}
	history := newFakeHistory()
	store := &fakeStore{rows: []core.Row{{"Name": "Payroll"}}}
	engine := newTestEngine(provider, history, store)

	answer, err := engine.Ask(t.Context(), "session-1", "which apps use my sequel")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	want := "SELECT * FROM applications WHERE Database_Type = 'MySQL';"
	if answer.Outcome.Query != want {
		t.Errorf("Query = %q, want %q", answer.Outcome.Query, want)
	}
	if len(store.queries) != 1 || store.queries[0] != want {
		t.Errorf("executed %v, want corrected query", store.queries)
	}

	// The recorded request carries the corrected utterance.
	turns := history.turns["session-1"]
	if len(turns) != 1 || !strings.Contains(turns[0].Request.Text, "MySQL") {
		t.Errorf("recorded request = %+v, want corrected text", turns)
	}
}

func TestEngineHistoryFlowsIntoPrompt(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		"SQL_START SELECT 1; SQL_END",
		"ok",
		"SQL_START SELECT 2; SQL_END",
		"ok again",
	}}
	history := newFakeHistory()
	store := &fakeStore{rows: []core.Row{{"n": int64(1)}}}
	engine := newTestEngine(provider, history, store)

	ctx := t.Context()
	if _, err := engine.Ask(ctx, "session-1", "first question"); err != nil {
		t.Fatalf("first Ask() error = %v", err)
	}
	if _, err := engine.Ask(ctx, "session-1", "second question"); err != nil {
		t.Fatalf("second Ask() error = %v", err)
	}

	// The second translation prompt must contain the first exchange.
	second := provider.requests[2].UserPrompt
	if !strings.Contains(second, "User: first question") {
		t.Errorf("second prompt is missing the prior turn:\n%s", second)
	}
	if !strings.Contains(second, "Assistant: SELECT 1;") {
		t.Errorf("second prompt is missing the prior query:\n%s", second)
	}
}
