// Package graphstore keeps built graphs in SQLite, one row per table entry,
// addressed by a UUIDv7 graph id.
package graphstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"xil/internal/graph"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned by Load and Delete for an unknown graph id.
var ErrNotFound = errors.New("graphstore: graph not found")

// Meta describes one stored graph.
type Meta struct {
	ID        string    `json:"id" yaml:"id"`
	Unit      string    `json:"unit" yaml:"unit"`
	Module    string    `json:"module" yaml:"module"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Edges     int       `json:"edges" yaml:"edges"`
}

// Store is a SQLite database of graphs.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("graphstore: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("graphstore: connect %s: %w", path, err)
	}

	// SQLite допускает одного писателя
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("graphstore: %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("graphstore: apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores g in one transaction and returns its new id.
func (s *Store) Save(ctx context.Context, unit, module string, g *graph.Graph) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("graphstore: new id: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("graphstore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := s.now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO graphs (id, unit, module, created_at) VALUES (?, ?, ?, ?)`,
		id.String(), unit, module, created); err != nil {
		return "", fmt.Errorf("graphstore: insert graph: %w", err)
	}

	if err := insertRows(ctx, tx,
		`INSERT INTO edges (graph_id, seq, source, source_kind, sink, sink_kind, kind) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		len(g.Edges), func(i int) []any {
			e := g.Edges[i]
			return []any{id.String(), i, e.Source, uint8(e.SourceKind), e.Sink, uint8(e.SinkKind), uint8(e.Kind)}
		}); err != nil {
		return "", fmt.Errorf("graphstore: insert edges: %w", err)
	}
	if err := insertRows(ctx, tx,
		`INSERT INTO strings (graph_id, idx, value) VALUES (?, ?, ?)`,
		len(g.Strings), func(i int) []any {
			return []any{id.String(), i, g.Strings[i]}
		}); err != nil {
		return "", fmt.Errorf("graphstore: insert strings: %w", err)
	}
	if err := insertRows(ctx, tx,
		`INSERT INTO text_views (graph_id, idx, line, col) VALUES (?, ?, ?, ?)`,
		len(g.TextViews), func(i int) []any {
			tv := g.TextViews[i]
			return []any{id.String(), i, tv.Row, tv.Column}
		}); err != nil {
		return "", fmt.Errorf("graphstore: insert text views: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("graphstore: commit: %w", err)
	}
	return id.String(), nil
}

func insertRows(ctx context.Context, tx *sql.Tx, query string, n int, row func(int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := range n {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// Load reads the graph stored under id.
func (s *Store) Load(ctx context.Context, id string) (*graph.Graph, Meta, error) {
	meta, err := s.meta(ctx, id)
	if err != nil {
		return nil, Meta{}, err
	}
	g := graph.New()

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, source_kind, sink, sink_kind, kind FROM edges WHERE graph_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("graphstore: query edges: %w", err)
	}
	err = scanRows(rows, func() error {
		var e graph.Edge
		var sk, dk, k uint8
		if err := rows.Scan(&e.Source, &sk, &e.Sink, &dk, &k); err != nil {
			return err
		}
		e.SourceKind, e.SinkKind, e.Kind = graph.NodeKind(sk), graph.NodeKind(dk), graph.EdgeKind(k)
		g.Edges = append(g.Edges, e)
		return nil
	})
	if err != nil {
		return nil, Meta{}, fmt.Errorf("graphstore: scan edges: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT value FROM strings WHERE graph_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("graphstore: query strings: %w", err)
	}
	err = scanRows(rows, func() error {
		var v string
		if err := rows.Scan(&v); err != nil {
			return err
		}
		g.Strings = append(g.Strings, v)
		return nil
	})
	if err != nil {
		return nil, Meta{}, fmt.Errorf("graphstore: scan strings: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT line, col FROM text_views WHERE graph_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("graphstore: query text views: %w", err)
	}
	err = scanRows(rows, func() error {
		var tv graph.TextView
		if err := rows.Scan(&tv.Row, &tv.Column); err != nil {
			return err
		}
		g.TextViews = append(g.TextViews, tv)
		return nil
	})
	if err != nil {
		return nil, Meta{}, fmt.Errorf("graphstore: scan text views: %w", err)
	}
	return g, meta, nil
}

func scanRows(rows *sql.Rows, scan func() error) error {
	defer rows.Close()
	for rows.Next() {
		if err := scan(); err != nil {
			return err
		}
	}
	return rows.Err()
}

const metaQuery = `SELECT g.id, g.unit, g.module, g.created_at,
       (SELECT COUNT(*) FROM edges e WHERE e.graph_id = g.id)
FROM graphs g`

func (s *Store) meta(ctx context.Context, id string) (Meta, error) {
	row := s.db.QueryRowContext(ctx, metaQuery+` WHERE g.id = ?`, id)
	m, err := scanMeta(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Meta{}, fmt.Errorf("graphstore: read graph %s: %w", id, err)
	}
	return m, nil
}

func scanMeta(scan func(dest ...any) error) (Meta, error) {
	var m Meta
	var created string
	if err := scan(&m.ID, &m.Unit, &m.Module, &created, &m.Edges); err != nil {
		return Meta{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Meta{}, fmt.Errorf("bad created_at %q: %w", created, err)
	}
	m.CreatedAt = t
	return m, nil
}

// List returns every stored graph, optionally only those of one unit,
// oldest first.
func (s *Store) List(ctx context.Context, unit string) ([]Meta, error) {
	query, args := metaQuery, []any{}
	if unit != "" {
		query += ` WHERE g.unit = ?`
		args = append(args, unit)
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY g.created_at, g.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("graphstore: list: %w", err)
	}
	var out []Meta
	err = scanRows(rows, func() error {
		m, err := scanMeta(rows.Scan)
		if err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("graphstore: list: %w", err)
	}
	return out, nil
}

// Delete removes a graph and all its rows.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM graphs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("graphstore: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("graphstore: delete %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
