// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runstore persists extraction runs and their chosen nodes in a
// local SQLite database, and exports runs as YAML or JSON.
package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/egraph-extract/pkg/types"
)

const (
	dbFile    = "extract.db"
	exportDir = "exports"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Store manages the run database.
type Store struct {
	db      *sql.DB
	dataDir string
}

// NewStore opens or creates the run database at dataDir/extract.db and
// creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dataDir: dataDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL,
			cost_model TEXT,
			visit_order TEXT,
			rounds INTEGER,
			improvements INTEGER,
			nodes INTEGER,
			classes INTEGER,
			resolved INTEGER,
			root_cost REAL
		)`,
		`CREATE TABLE IF NOT EXISTS choices (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			class_id TEXT NOT NULL,
			node_id TEXT NOT NULL,
			op TEXT,
			total REAL,
			PRIMARY KEY (run_id, class_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores rec and its choices in one transaction and returns the
// assigned run id. A zero CreatedAt is set to the current time.
func (s *Store) SaveRun(ctx context.Context, rec types.RunRecord) (string, error) {
	id := uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, created_at, cost_model, visit_order,
			rounds, improvements, nodes, classes, resolved, root_cost)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.Source, rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(rec.CostModel), string(rec.Order),
		rec.Rounds, rec.Improvements, rec.Nodes, rec.Classes, rec.Resolved, rec.RootCost,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO choices (run_id, class_id, node_id, op, total) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range rec.Choices {
		if _, err := stmt.ExecContext(ctx, id, string(c.Class), string(c.Node), c.Op, c.Total); err != nil {
			return "", fmt.Errorf("inserting choice for class %s: %w", c.Class, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

const runColumns = `id, source, created_at, cost_model, visit_order,
	rounds, improvements, nodes, classes, resolved, root_cost`

// Runs returns the most recent runs first, without choices. A limit of
// zero or less returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]types.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []types.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Run returns one run with its choices ordered by class.
func (s *Store) Run(ctx context.Context, id string) (types.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return types.RunRecord{}, err
	}

	rec.Choices, err = s.Choices(ctx, id)
	if err != nil {
		return types.RunRecord{}, err
	}
	return rec, nil
}

// Choices returns the choices of run id ordered by class.
func (s *Store) Choices(ctx context.Context, id string) ([]types.Choice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT class_id, node_id, op, total FROM choices WHERE run_id = ? ORDER BY class_id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying choices: %w", err)
	}
	defer rows.Close()

	var out []types.Choice
	for rows.Next() {
		var (
			c          types.Choice
			class, nid string
			op         sql.NullString
		)
		if err := rows.Scan(&class, &nid, &op, &c.Total); err != nil {
			return nil, fmt.Errorf("scanning choice: %w", err)
		}
		c.Class, c.Node, c.Op = types.ClassID(class), types.NodeID(nid), op.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes run id and its choices.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (types.RunRecord, error) {
	var (
		rec                   types.RunRecord
		createdAt             string
		costModel, visitOrder sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.Source, &createdAt, &costModel, &visitOrder,
		&rec.Rounds, &rec.Improvements, &rec.Nodes, &rec.Classes, &rec.Resolved, &rec.RootCost)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scanning run: %w", err)
	}
	rec.CostModel = types.CostModel(costModel.String)
	rec.Order = types.VisitOrder(visitOrder.String)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return rec, nil
}
