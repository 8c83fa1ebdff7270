package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
)

// PostgresStore keeps safety cards in a single table so verdicts survive
// restarts and can be shared between the API and the watcher processes. An
// LRU front absorbs repeated dependency lookups.
type PostgresStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error

	front *lru.Cache[string, artifact.SafetyCard]
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	front, err := lru.New[string, artifact.SafetyCard](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db, front: front}, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS safety_cards (
    key        TEXT PRIMARY KEY,
    card       JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Get(ctx context.Context, key string) (artifact.SafetyCard, bool, error) {
	if card, ok := s.front.Get(key); ok {
		return card, true, nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return artifact.SafetyCard{}, false, err
	}
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT card FROM safety_cards WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return artifact.SafetyCard{}, false, nil
	}
	if err != nil {
		return artifact.SafetyCard{}, false, err
	}
	var card artifact.SafetyCard
	if err := json.Unmarshal(raw, &card); err != nil {
		return artifact.SafetyCard{}, false, err
	}
	s.front.Add(key, card)
	return card, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, card artifact.SafetyCard) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	raw, err := json.Marshal(card)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO safety_cards (key, card, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET card = EXCLUDED.card, updated_at = now()`, key, raw)
	if err != nil {
		return err
	}
	s.front.Add(key, card)
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }
