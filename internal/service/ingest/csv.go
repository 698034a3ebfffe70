// Package ingest holds the offline jobs that prepare a dataset for
// conversational querying: loading a CSV export into SQLite and generating
// the per-column descriptions the query prompt is built from.
package ingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sandevgo/talkdata/pkg/log"
)

var identRe = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// LoadCSV replaces tableName in the dataset database with the contents of a
// CSV file. The header row names the columns, types are inferred from the
// data so numeric questions can use numeric comparisons.
func LoadCSV(ctx context.Context, csvPath, dbPath, tableName string) (int, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = sanitizeIdent(h)
		if columns[i] == "" {
			columns[i] = fmt.Sprintf("column_%d", i+1)
		}
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read csv: %w", err)
		}
		records = append(records, record)
	}

	types := inferTypes(records, len(columns))

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer db.Close()

	if err := recreateTable(ctx, db, tableName, columns, types, records); err != nil {
		return 0, err
	}

	log.FromCtx(ctx).Info().
		Str("table", tableName).
		Int("columns", len(columns)).
		Int("rows", len(records)).
		Msg("dataset ingested")
	return len(records), nil
}

// sanitizeIdent turns a CSV header into a SQL identifier the model can also
// read: spaces and punctuation collapse to underscores.
func sanitizeIdent(name string) string {
	name = strings.TrimSpace(name)
	name = identRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// inferTypes picks INTEGER, REAL or TEXT per column. Empty cells are
// ignored, one non-numeric value demotes the whole column to TEXT.
func inferTypes(records [][]string, numCols int) []string {
	const (
		kindInt = iota
		kindReal
		kindText
	)
	kinds := make([]int, numCols)

	for _, record := range records {
		for i := 0; i < numCols && i < len(record); i++ {
			if kinds[i] == kindText {
				continue
			}
			v := strings.TrimSpace(record[i])
			if v == "" {
				continue
			}
			if _, err := strconv.ParseInt(v, 10, 64); err == nil {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err == nil {
				if kinds[i] == kindInt {
					kinds[i] = kindReal
				}
				continue
			}
			kinds[i] = kindText
		}
	}

	types := make([]string, numCols)
	for i, k := range kinds {
		switch k {
		case kindInt:
			types[i] = "INTEGER"
		case kindReal:
			types[i] = "REAL"
		default:
			types[i] = "TEXT"
		}
	}
	return types
}

func recreateTable(ctx context.Context, db *sql.DB, tableName string, columns, types []string, records [][]string) error {
	quoted := quoteIdent(tableName)

	defs := make([]string, len(columns))
	for i := range columns {
		defs[i] = quoteIdent(columns[i]) + " " + types[i]
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",")
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoted, placeholders)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		values := make([]any, len(columns))
		for i := range columns {
			if i < len(record) {
				values[i] = convertValue(record[i], types[i])
			}
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ingest: %w", err)
	}
	return nil
}

func convertValue(raw, colType string) any {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	switch colType {
	case "INTEGER":
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	case "REAL":
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return v
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
