package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/talkdata/internal/core"
	"github.com/sandevgo/talkdata/pkg/log"
)

type TurnsRepo struct {
	db *sql.DB
}

func NewTurnsRepo(db *sql.DB) *TurnsRepo {
	return &TurnsRepo{db: db}
}

// AppendTurn inserts a complete request/response pair as one row. A turn is
// either fully recorded or not at all, never a request without its response.
func (r *TurnsRepo) AppendTurn(ctx context.Context, sessionID string, turn core.Turn) error {
	query := `INSERT INTO turns (session_id, request_text, request_time, response_text, response_time) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		sessionID, turn.Request.Text, turn.Request.Time, turn.Response.Text, turn.Response.Time)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

func (r *TurnsRepo) GetTurns(ctx context.Context, sessionID string, limit int) ([]core.Turn, error) {
	// Fetch the LAST 'limit' turns by ordering DESC
	query := `SELECT request_text, request_time, response_text, response_time FROM turns WHERE session_id = ? ORDER BY id DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []core.Turn
	for rows.Next() {
		var t core.Turn
		if err := rows.Scan(&t.Request.Text, &t.Request.Time, &t.Response.Text, &t.Response.Time); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The query returned turns newest first. Reverse them back to insertion
	// order, callers decide on presentation order themselves.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	log.FromCtx(ctx).Debug().Int("count", len(turns)).Msg("loaded history turns")
	return turns, nil
}
