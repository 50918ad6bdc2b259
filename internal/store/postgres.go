package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strommix/strommix/internal/scene"
)

// NewPool connects to Postgres and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS scene_snapshots (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	name        TEXT NOT NULL,
	selection   JSONB NOT NULL,
	document    JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS scene_snapshots_session_idx
	ON scene_snapshots (session_id, created_at DESC);
`

// Postgres stores snapshots in the scene_snapshots table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, snap *Snapshot) error {
	selection, err := json.Marshal(snap.Selection)
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	doc, err := json.Marshal(snap.Document)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO scene_snapshots (id, session_id, name, selection, document, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		snap.ID, snap.SessionID, snap.Name, selection, doc, snap.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("save %s: %w", snap.ID, ErrDuplicate)
		}
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, sessionID, id string) (*Snapshot, error) {
	var (
		s         Snapshot
		selection []byte
		doc       []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, session_id, name, selection, document, created_at
		 FROM scene_snapshots WHERE id = $1 AND session_id = $2`,
		id, sessionID).Scan(&s.ID, &s.SessionID, &s.Name, &selection, &doc, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	if err := json.Unmarshal(selection, &s.Selection); err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}
	s.Document = &scene.Document{}
	if err := json.Unmarshal(doc, s.Document); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &s, nil
}

func (p *Postgres) List(ctx context.Context, sessionID string) ([]Summary, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, jsonb_array_length(document->'objects'), created_at
		 FROM scene_snapshots WHERE session_id = $1
		 ORDER BY created_at DESC, id DESC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	summaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Summary, error) {
		var s Summary
		err := row.Scan(&s.ID, &s.Name, &s.Objects, &s.CreatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}
	return summaries, nil
}

func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
