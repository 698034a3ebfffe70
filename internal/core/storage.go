package core

import "context"

// HistoryRepository stores conversation turns keyed by session identifier.
// Sessions come into existence on first append.
type HistoryRepository interface {
	AppendTurn(ctx context.Context, sessionID string, turn Turn) error
	GetTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error)
}

// RowStore executes a query against the ingested dataset.
type RowStore interface {
	Execute(ctx context.Context, query string) ([]Row, error)
}

// SchemaSource provides the table schema and column descriptions produced by
// the offline ingestion jobs.
type SchemaSource interface {
	Descriptor() *SchemaDescriptor
}
