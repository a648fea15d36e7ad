package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/doormap/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects a pool to connString.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           UUID PRIMARY KEY,
	command      TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	doors        INTEGER NOT NULL DEFAULT 0,
	valid        INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS stage_cache (
	key       TEXT PRIMARY KEY,
	payload   BYTEA NOT NULL,
	cached_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) StartRun(ctx context.Context, command string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, command, status, started_at) VALUES ($1, $2, $3, $4)`,
		id, command, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Command:   command,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, summary model.RunSummary) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, doors = $2, valid = $3, completed_at = $4 WHERE id = $5`,
		string(model.RunStatusComplete), summary.Doors, summary.Valid, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, completed_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, command, status, doors, valid, error, started_at, completed_at FROM runs
		 WHERE ($1 = '' OR command = $1) AND ($2 = '' OR status = $2)
		 ORDER BY started_at DESC LIMIT $3`,
		filter.Command, string(filter.Status), defaultLimit(filter.Limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var status string
		if err := rows.Scan(&r.ID, &r.Command, &status, &r.Doors, &r.Valid, &r.Error, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) GetStage(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM stage_cache WHERE key = $1`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "postgres: get stage %s", key)
	}
	return payload, true, nil
}

func (s *PostgresStore) PutStage(ctx context.Context, key string, payload []byte) error {
	if payload == nil {
		payload = []byte{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO stage_cache (key, payload, cached_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, cached_at = now()`,
		key, payload,
	)
	return eris.Wrapf(err, "postgres: put stage %s", key)
}
