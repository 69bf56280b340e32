package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/prism-mfg/prism-cli/internal/db"
	"github.com/prism-mfg/prism-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"insert_run":   `INSERT INTO runs (id, operation, input, schema_version, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"complete_run": `UPDATE runs SET status = $1, summary = $2, updated_at = $3 WHERE id = $4`,
	"get_run":      `SELECT id, operation, input, schema_version, status, summary, created_at, updated_at FROM runs WHERE id = $1`,
	"get_cache":    `SELECT data FROM cache_entries WHERE key = $1`,
	"set_cache":    `INSERT INTO cache_entries (key, schema_version, data, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (key) DO UPDATE SET schema_version = EXCLUDED.schema_version, data = EXCLUDED.data, created_at = EXCLUDED.created_at`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	operation      TEXT NOT NULL,
	input          TEXT NOT NULL DEFAULT '',
	schema_version TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'running',
	summary        JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_results (
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	record_id    TEXT NOT NULL,
	verdict      TEXT NOT NULL,
	completeness DOUBLE PRECISION NOT NULL,
	result       JSONB NOT NULL,
	PRIMARY KEY (run_id, record_id)
);

CREATE TABLE IF NOT EXISTS cache_entries (
	key            TEXT PRIMARY KEY,
	schema_version TEXT NOT NULL,
	data           BYTEA NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_run_results_verdict ON run_results(run_id, verdict);
CREATE INDEX IF NOT EXISTS idx_cache_entries_version ON cache_entries(schema_version);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, op model.Operation, input, schemaVersion string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, operation, input, schema_version, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, string(op), input, schemaVersion, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:            id,
		Operation:     op,
		Input:         input,
		SchemaVersion: schemaVersion,
		Status:        model.RunStatusRunning,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, summary = $2, updated_at = $3 WHERE id = $4`,
		string(status), summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrRunNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, operation, input, schema_version, status, summary, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, operation, input, schema_version, status, summary, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Operation != "" {
		query += fmt.Sprintf(` AND operation = $%d`, argIdx)
		args = append(args, string(filter.Operation))
		argIdx++
	}
	query += ` ORDER BY created_at DESC, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

var resultColumns = []string{"run_id", "record_id", "verdict", "completeness", "result"}

// SaveResults bulk-loads per-record results with COPY.
func (s *PostgresStore) SaveResults(ctx context.Context, runID string, results []model.ValidationResult) error {
	rows := make([][]any, 0, len(results))
	for _, r := range results {
		data, err := json.Marshal(r)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal result %s", r.RecordID)
		}
		rows = append(rows, []any{runID, r.RecordID, string(r.Verdict), r.Completeness, data})
	}
	_, err := db.CopyFrom(ctx, s.pool, "run_results", resultColumns, rows)
	return eris.Wrap(err, "postgres: save results")
}

func (s *PostgresStore) ListResults(ctx context.Context, runID string, failedOnly bool) ([]model.ValidationResult, error) {
	query := `SELECT result FROM run_results WHERE run_id = $1`
	args := []any{runID}
	if failedOnly {
		query += ` AND verdict = $2`
		args = append(args, string(model.VerdictFail))
	}
	query += ` ORDER BY record_id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list results %s", runID)
	}
	defer rows.Close()

	var out []model.ValidationResult
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		var r model.ValidationResult
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list results iterate")
}

func (s *PostgresStore) GetCache(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM cache_entries WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cache")
	}
	return data, nil
}

func (s *PostgresStore) SetCache(ctx context.Context, key, schemaVersion string, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cache_entries (key, schema_version, data, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET schema_version = EXCLUDED.schema_version, data = EXCLUDED.data, created_at = EXCLUDED.created_at`,
		key, schemaVersion, data, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: set cache")
}

func (s *PostgresStore) DeleteCacheExcept(ctx context.Context, schemaVersion string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cache_entries WHERE schema_version <> $1`, schemaVersion)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete stale cache")
	}
	return int(tag.RowsAffected()), nil
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var op, status string
	var summaryJSON []byte

	if err := row.Scan(&r.ID, &op, &r.Input, &r.SchemaVersion, &status, &summaryJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Operation = model.Operation(op)
	r.Status = model.RunStatus(status)
	if len(summaryJSON) > 0 && string(summaryJSON) != "null" {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal(summaryJSON, r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	return &r, nil
}
