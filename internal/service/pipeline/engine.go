package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/talkdata/internal/config"
	"github.com/sandevgo/talkdata/internal/core"
	"github.com/sandevgo/talkdata/pkg/log"
)

// Pipeline stages, used to scope infrastructure errors so callers can tell a
// failed translation from a query that ran but could not be summarized.
const (
	StageTranslation   = "translation"
	StageSummarization = "summarization"
)

// StageError wraps an infrastructure failure with the pipeline stage it
// happened in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

const systemPrompt = "You are a careful data analyst. Follow the instructions exactly."

// Canned spoken replies for outcomes that never reach the summary model.
const (
	replyNoQuery = "I couldn't turn that into a database query. Could you rephrase the question?"
	replyNoRows  = "The query ran fine but nothing matched. Try asking with fewer constraints."
	replyFailed  = "Something went wrong while running the query against the dataset. Please try again."
)

// Engine drives one user utterance through the full pipeline: correction,
// history assembly, prompt rendering, completion, extraction, execution,
// classification and the spoken summary.
type Engine struct {
	cfg      *config.PipelineConfig
	provider core.CompletionProvider
	history  core.HistoryRepository
	schema   core.SchemaSource
	source   *Source
	executor *Executor
	budgeter *Budgeter

	// One lock per session so concurrent requests against the same session
	// serialize their read-history/append-turn window.
	locks sync.Map
}

func NewEngine(
	cfg *config.PipelineConfig,
	provider core.CompletionProvider,
	history core.HistoryRepository,
	store core.RowStore,
	schema core.SchemaSource,
	source *Source,
	counter Counter,
) *Engine {
	return &Engine{
		cfg:      cfg,
		provider: provider,
		history:  history,
		schema:   schema,
		source:   source,
		executor: NewExecutor(store, cfg.QueryTimeout),
		budgeter: NewBudgeter(counter, cfg.TokenBudget),
	}
}

// Ask answers one utterance for a session: translate it to SQL, run it, and
// turn the classified outcome into a spoken reply. Only a successful turn is
// appended to the session history.
func (e *Engine) Ask(ctx context.Context, sessionID, utterance string) (core.Answer, error) {
	mu := e.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	corrector := NewCorrector(e.source.Corrections(ctx))
	corrected := corrector.Correct(utterance)
	if corrected != utterance {
		log.FromCtx(ctx).Debug().Str("corrected", corrected).Msg("applied term corrections")
	}

	outcome, err := e.translate(ctx, sessionID, corrected, corrector)
	if err != nil {
		return core.Answer{}, err
	}

	summary, err := e.summarize(ctx, sessionID, corrected, outcome)
	if err != nil {
		return core.Answer{}, err
	}

	log.FromCtx(ctx).Info().
		Str("session_id", sessionID).
		Str("status", string(outcome.Status)).
		Int("rows", len(outcome.Rows)).
		Msg("request answered")

	return core.Answer{Outcome: outcome, Summary: summary}, nil
}

// translate turns the corrected utterance into an executed, classified
// query. Infrastructure failures come back as a translation StageError,
// everything query-related is expressed through the outcome.
func (e *Engine) translate(ctx context.Context, sessionID, utterance string, corrector *Corrector) (core.Outcome, error) {
	turns, err := e.history.GetTurns(ctx, sessionID, e.cfg.HistoryWindow)
	if err != nil {
		return core.Outcome{}, &StageError{Stage: StageTranslation, Err: err}
	}

	prompt, err := e.queryPrompt(ctx, utterance, turns)
	if err != nil {
		return core.Outcome{}, &StageError{Stage: StageTranslation, Err: err}
	}

	completion, err := e.complete(ctx, prompt, e.cfg.TranslateTemperature)
	if err != nil {
		return core.Outcome{}, &StageError{Stage: StageTranslation, Err: err}
	}

	extraction := Extract(ctx, completion)
	if !extraction.Found {
		log.FromCtx(ctx).Warn().Str("completion", extraction.Raw).Msg("no query in model output")
		return core.Outcome{Status: core.StatusNoQueryExtracted}, nil
	}

	query := corrector.CorrectLiterals(extraction.Query)
	outcome := e.executor.Execute(ctx, query)

	if outcome.Status == core.StatusSuccess {
		now := time.Now().UTC()
		turn := core.Turn{
			Request:  core.TurnRecord{Text: utterance, Time: now},
			Response: core.TurnRecord{Text: outcome.Query, Time: now},
		}
		if err := e.history.AppendTurn(ctx, sessionID, turn); err != nil {
			return core.Outcome{}, &StageError{Stage: StageTranslation, Err: err}
		}
	}

	return outcome, nil
}

// summarize produces the spoken reply for an outcome. Only a successful
// outcome is worth a model call, the rest map to fixed replies that carry no
// internal diagnostics.
func (e *Engine) summarize(ctx context.Context, sessionID, utterance string, outcome core.Outcome) (string, error) {
	switch outcome.Status {
	case core.StatusNoQueryExtracted:
		return replyNoQuery, nil
	case core.StatusNoRowsReturned:
		return replyNoRows, nil
	case core.StatusExecutionFailed:
		return replyFailed, nil
	}

	turns, err := e.history.GetTurns(ctx, sessionID, e.cfg.HistoryWindow)
	if err != nil {
		return "", &StageError{Stage: StageSummarization, Err: err}
	}

	payload, err := json.Marshal(outcome.Rows)
	if err != nil {
		return "", &StageError{Stage: StageSummarization, Err: err}
	}

	fields := map[string]string{
		FieldConversationHistory: FormatTurns(turns, e.cfg.HistoryWindow, OrderChronological),
		FieldUserQuery:           utterance,
		FieldSQL:                 outcome.Query,
		FieldAnswer:              string(payload),
	}

	prompt, err := e.budgeter.Build(ctx, e.source.SummaryTemplate(ctx), fields)
	if err != nil {
		return "", &StageError{Stage: StageSummarization, Err: err}
	}

	summary, err := e.complete(ctx, prompt, e.cfg.SummaryTemperature)
	if err != nil {
		return "", &StageError{Stage: StageSummarization, Err: err}
	}
	return strings.TrimSpace(summary), nil
}

func (e *Engine) queryPrompt(ctx context.Context, utterance string, turns []core.Turn) (string, error) {
	descriptor := e.schema.Descriptor()

	descriptions, err := json.MarshalIndent(descriptor.Descriptions, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode column descriptions: %w", err)
	}

	fields := map[string]string{
		FieldTableName:           descriptor.TableName,
		FieldSchema:              formatColumns(descriptor.Columns),
		FieldColumnDescriptions:  string(descriptions),
		FieldConversationHistory: FormatTurns(turns, e.cfg.HistoryWindow, OrderMostRecentFirst),
		FieldQuestion:            utterance,
	}
	return Render(e.source.QueryTemplate(ctx), fields)
}

func (e *Engine) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	if e.cfg.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.CompletionTimeout)
		defer cancel()
	}
	return e.provider.Complete(ctx, core.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Temperature:  temperature,
		TopP:         e.cfg.TopP,
	})
}

func formatColumns(columns []core.SchemaColumn) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%s (%s)", c.Name, c.Type)
	}
	return strings.Join(parts, ", ")
}

func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	v, _ := e.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
