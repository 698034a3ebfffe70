package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sandevgo/talkdata/internal/core"
	"github.com/sandevgo/talkdata/pkg/log"
)

// Schema loads the table layout and the offline-generated column
// descriptions once at startup and serves them as an immutable descriptor.
type Schema struct {
	descriptor *core.SchemaDescriptor
}

func (s *Schema) Descriptor() *core.SchemaDescriptor {
	return s.descriptor
}

// LoadSchema reads the column list from the dataset itself and pairs it with
// the description files produced by the describe job. Missing description
// files are tolerated, a column without prose is still queryable.
func LoadSchema(ctx context.Context, dbPath, tableName, descriptionsDir string) (*Schema, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer db.Close()

	columns, err := tableColumns(ctx, db, tableName)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q has no columns, run ingest first", tableName)
	}

	descriptions, err := loadDescriptions(ctx, descriptionsDir)
	if err != nil {
		return nil, err
	}

	log.FromCtx(ctx).Info().
		Str("table", tableName).
		Int("columns", len(columns)).
		Int("descriptions", len(descriptions)).
		Msg("schema descriptor loaded")

	return &Schema{descriptor: &core.SchemaDescriptor{
		TableName:    tableName,
		Columns:      columns,
		Descriptions: descriptions,
	}}, nil
}

func tableColumns(ctx context.Context, db *sql.DB, tableName string) ([]core.SchemaColumn, error) {
	// PRAGMA arguments cannot be bound, quote the identifier instead
	quoted := `"` + strings.ReplaceAll(tableName, `"`, `""`) + `"`
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+quoted+")")
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

func loadDescriptions(ctx context.Context, dir string) (map[string]core.ColumnDescription, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.FromCtx(ctx).Warn().Str("dir", dir).Msg("no column descriptions found, run describe first")
			return map[string]core.ColumnDescription{}, nil
		}
		return nil, fmt.Errorf("failed to read descriptions dir: %w", err)
	}

	descriptions := make(map[string]core.ColumnDescription, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}

		var desc core.ColumnDescription
		if err := json.Unmarshal(data, &desc); err != nil {
			log.FromCtx(ctx).Error().Err(err).Str("file", entry.Name()).Msg("skipping malformed description")
			continue
		}
		if desc.Name == "" {
			desc.Name = strings.TrimSuffix(entry.Name(), ".json")
		}
		descriptions[desc.Name] = desc
	}

	return descriptions, nil
}
