// Package store keeps datasets in SQLite and answers paged, filtered and
// sorted queries for server-side tables.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"grocerydesk/internal/datatable"
	"grocerydesk/internal/util/logx"
)

//go:embed schema.sql
var schema string

var ErrUnknownDataset = errors.New("unknown dataset")

type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the row store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// Import replaces dataset with rows. Rows are identified by idKey, falling
// back to their position, and keep their import order.
func (s *Store) Import(ctx context.Context, dataset string, rows []datatable.Row, idKey string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(dataset) == "" {
		return fmt.Errorf("dataset is required")
	}
	if idKey == "" {
		idKey = datatable.DefaultIDKey
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM rows WHERE dataset = ?`, dataset); err != nil {
		return fmt.Errorf("clear dataset: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO rows (dataset, row_id, position, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, r := range rows {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
		id := fmt.Sprint(i)
		if v, ok := r[idKey]; ok && v != nil {
			id = datatable.Stringify(v)
		}
		if _, err := stmt.ExecContext(ctx, dataset, id, i, string(b)); err != nil {
			return fmt.Errorf("insert row %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	logx.Infof("store: imported %d rows into %s", len(rows), dataset)
	return nil
}

type DatasetInfo struct {
	Name string
	Rows int
}

func (s *Store) Datasets(ctx context.Context) ([]DatasetInfo, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	res, err := s.sqlDB.QueryContext(ctx, `SELECT dataset, COUNT(*) FROM rows GROUP BY dataset ORDER BY dataset`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer res.Close()
	var out []DatasetInfo
	for res.Next() {
		var d DatasetInfo
		if err := res.Scan(&d.Name, &d.Rows); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		out = append(out, d)
	}
	return out, res.Err()
}

// Query returns one page of dataset under st plus the number of rows
// matching st's filters. Predicate filters cannot run in SQL and are
// skipped.
func (s *Store) Query(ctx context.Context, dataset string, st datatable.ViewState) ([]datatable.Row, int, error) {
	if err := s.ready(ctx); err != nil {
		return nil, 0, err
	}
	var exists int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM rows WHERE dataset = ?`, dataset).Scan(&exists)
	if err != nil {
		return nil, 0, fmt.Errorf("check dataset: %w", err)
	}
	if exists == 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownDataset, dataset)
	}

	where, args := whereClause(dataset, st.Filters)
	var total int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM rows WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count rows: %w", err)
	}

	q := `SELECT data FROM rows WHERE ` + where + ` ORDER BY ` + orderClause(st.Sorting) + ` LIMIT ? OFFSET ?`
	size := st.Pagination.PageSize
	if size < 1 {
		size = datatable.DefaultPageSize
	}
	page := st.Pagination.PageIndex
	if page < 0 {
		page = 0
	}
	args = append(args, size, page*size)
	res, err := s.sqlDB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query rows: %w", err)
	}
	defer res.Close()
	rows := make([]datatable.Row, 0, size)
	for res.Next() {
		var data string
		if err := res.Scan(&data); err != nil {
			return nil, 0, fmt.Errorf("scan row: %w", err)
		}
		var r datatable.Row
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, 0, fmt.Errorf("decode row: %w", err)
		}
		rows = append(rows, r)
	}
	if err := res.Err(); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// jsonPath quotes key so dotted names stay one member.
func jsonPath(key string) string {
	return `$."` + strings.ReplaceAll(key, `"`, "") + `"`
}

// whereClause mirrors the in-memory filter rules: text filters match text
// cells as case-insensitive substrings, numbers compare numerically,
// booleans match booleans.
func whereClause(dataset string, filters map[string]any) (string, []any) {
	parts := []string{"dataset = ?"}
	args := []any{dataset}
	st := datatable.ViewState{Filters: filters}
	for _, key := range st.FilterKeys() {
		p := jsonPath(key)
		switch v := filters[key].(type) {
		case string:
			parts = append(parts, `json_type(data, ?) = 'text' AND LOWER(json_extract(data, ?)) LIKE ? ESCAPE '\'`)
			args = append(args, p, p, "%"+escapeLike(strings.ToLower(v))+"%")
		case bool:
			want := "false"
			if v {
				want = "true"
			}
			parts = append(parts, `json_type(data, ?) = ?`)
			args = append(args, p, want)
		case datatable.Predicate, func(any, datatable.Row) bool:
			logx.Warnf("store: predicate filter on %q cannot run server-side; skipped", key)
		default:
			if f, ok := datatable.Number(v); ok {
				parts = append(parts, `json_type(data, ?) IN ('integer', 'real') AND json_extract(data, ?) = ?`)
				args = append(args, p, p, f)
				continue
			}
			logx.Warnf("store: filter on %q with %T unsupported; skipped", key, v)
		}
	}
	return strings.Join(parts, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// orderClause puts nulls first ascending and last descending; ties keep
// import order in both directions.
func orderClause(s datatable.Sorting) string {
	if s.SortBy == "" {
		return "position"
	}
	expr := fmt.Sprintf("json_extract(data, '%s')", strings.ReplaceAll(jsonPath(s.SortBy), "'", "''"))
	if s.Direction == datatable.SortDesc {
		return fmt.Sprintf("(%s IS NULL) ASC, %s DESC, position", expr, expr)
	}
	return fmt.Sprintf("(%s IS NULL) DESC, %s ASC, position", expr, expr)
}
