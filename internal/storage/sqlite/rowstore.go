package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sandevgo/talkdata/internal/core"
)

// RowStore executes generated queries against the ingested dataset. The
// handle is opened read-only so a bad generation can never mutate data.
type RowStore struct {
	db *sql.DB
}

func NewRowStore(dbPath string) (*RowStore, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	return &RowStore{db: db}, nil
}

func NewRowStoreFromDB(db *sql.DB) *RowStore {
	return &RowStore{db: db}
}

func (s *RowStore) Close() error {
	return s.db.Close()
}

func (s *RowStore) Execute(ctx context.Context, query string) ([]core.Row, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var result []core.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(core.Row, len(cols))
		for i, col := range cols {
			// The driver hands text columns back as []byte
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}

	return result, rows.Err()
}
