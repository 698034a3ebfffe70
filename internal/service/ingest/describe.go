package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sandevgo/talkdata/internal/core"
	"github.com/sandevgo/talkdata/internal/service/pipeline"
	"github.com/sandevgo/talkdata/pkg/log"
	"github.com/sandevgo/talkdata/pkg/retry"
)

// sampleLimit caps how many distinct values are shown to the model per
// column.
const sampleLimit = 40

const describeSystemPrompt = "You are a data analyst documenting a dataset column by column."

const describePrompt = `The SQLite table %q has a column %q of type %s.
It holds %d distinct values across %d rows (%d empty). A sample of the most
frequent values with their counts:

%s

Describe the column as JSON with these string fields:
  "purpose": what the column records, one or two sentences
  "unique_values": the notable values a query might filter on, as prose%s

Reply with the JSON object only.`

const describeExtras = `
  "histogram": how the values are distributed
  "insights": anything unusual worth knowing before querying`

// Describer generates the per-column natural language descriptions the
// query prompt embeds. It runs offline, once per ingested dataset.
type Describer struct {
	provider core.CompletionProvider
	retrier  *retry.Retrier
	counter  pipeline.Counter

	// budget caps the combined token size of all descriptions, since every
	// one of them is pasted into each query prompt. Past 80% of it the
	// optional fields are dropped to leave room for the rest.
	budget int
}

func NewDescriber(provider core.CompletionProvider, counter pipeline.Counter, budget int) *Describer {
	return &Describer{
		provider: provider,
		retrier:  retry.NewDefaultRetrier(),
		counter:  counter,
		budget:   budget,
	}
}

// DescribeAll generates a description file for every column of the table and
// writes them into outDir, one JSON file per column. Existing files are
// overwritten.
func (d *Describer) DescribeAll(ctx context.Context, dbPath, tableName, outDir string) error {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer db.Close()

	columns, err := listColumns(ctx, db, tableName)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return fmt.Errorf("table %q has no columns, run ingest first", tableName)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create descriptions dir: %w", err)
	}

	spent := 0
	for _, col := range columns {
		compact := d.budget > 0 && spent*5 >= d.budget*4
		desc, err := d.describeColumn(ctx, db, tableName, col, compact)
		if err != nil {
			return fmt.Errorf("failed to describe column %q: %w", col.Name, err)
		}

		data, err := json.MarshalIndent(desc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode description: %w", err)
		}
		path := filepath.Join(outDir, col.Name+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		spent += d.counter.Count(string(data))
		log.FromCtx(ctx).Info().
			Str("column", col.Name).
			Bool("compact", compact).
			Int("tokens_spent", spent).
			Msg("column described")
	}

	return nil
}

func (d *Describer) describeColumn(ctx context.Context, db *sql.DB, tableName string, col core.SchemaColumn, compact bool) (core.ColumnDescription, error) {
	stats, err := columnStats(ctx, db, tableName, col.Name)
	if err != nil {
		return core.ColumnDescription{}, err
	}

	extras := describeExtras
	if compact {
		extras = ""
	}
	prompt := fmt.Sprintf(describePrompt,
		tableName, col.Name, col.Type,
		stats.distinct, stats.total, stats.empty,
		stats.sample, extras)

	// Description jobs hammer the completion endpoint column after column,
	// rate limit responses are expected and retried with backoff.
	var completion string
	err = d.retrier.Do(ctx, func() error {
		var cErr error
		completion, cErr = d.provider.Complete(ctx, core.CompletionRequest{
			SystemPrompt: describeSystemPrompt,
			UserPrompt:   prompt,
			Temperature:  0.0,
			TopP:         1.0,
		})
		return cErr
	})
	if err != nil {
		return core.ColumnDescription{}, err
	}

	desc := parseDescription(completion)
	desc.Name = col.Name
	if compact {
		desc.Histogram = ""
		desc.Insights = ""
	}
	return desc, nil
}

// parseDescription decodes the model's JSON reply, tolerating a fenced code
// block around it. Unparseable output is kept verbatim as the purpose rather
// than discarded.
func parseDescription(completion string) core.ColumnDescription {
	text := strings.TrimSpace(completion)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var desc core.ColumnDescription
	if err := json.Unmarshal([]byte(text), &desc); err != nil {
		return core.ColumnDescription{Purpose: strings.TrimSpace(completion)}
	}
	return desc
}

type colStats struct {
	total    int
	distinct int
	empty    int
	sample   string
}

func columnStats(ctx context.Context, db *sql.DB, tableName, colName string) (colStats, error) {
	var stats colStats
	table := quoteIdent(tableName)
	col := quoteIdent(colName)

	row := db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT COUNT(*), COUNT(DISTINCT %s), SUM(CASE WHEN %s IS NULL OR %s = '' THEN 1 ELSE 0 END) FROM %s`,
		col, col, col, table))
	var empty sql.NullInt64
	if err := row.Scan(&stats.total, &stats.distinct, &empty); err != nil {
		return stats, fmt.Errorf("failed to read column stats: %w", err)
	}
	stats.empty = int(empty.Int64)

	rows, err := db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s, COUNT(*) AS n FROM %s WHERE %s IS NOT NULL AND %s != '' GROUP BY %s ORDER BY n DESC LIMIT %d`,
		col, table, col, col, col, sampleLimit))
	if err != nil {
		return stats, fmt.Errorf("failed to sample column values: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var value any
		var count int
		if err := rows.Scan(&value, &count); err != nil {
			return stats, fmt.Errorf("failed to scan sample: %w", err)
		}
		if bs, ok := value.([]byte); ok {
			value = string(bs)
		}
		fmt.Fprintf(&b, "%v: %d\n", value, count)
	}
	stats.sample = strings.TrimRight(b.String(), "\n")
	return stats, rows.Err()
}

func listColumns(ctx context.Context, db *sql.DB, tableName string) ([]core.SchemaColumn, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(tableName)+")")
	if err != nil {
		return nil, fmt.Errorf("failed to read table info: %w", err)
	}
	defer rows.Close()

	var columns []core.SchemaColumn
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan table info: %w", err)
		}
		columns = append(columns, core.SchemaColumn{Name: name, Type: colType})
	}
	return columns, rows.Err()
}
