package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"molle_pos/internal/config"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS preferences (
    namespace TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (namespace, key)
);`

var ErrEmptyKey = errors.New("preference key is empty")

// Store keeps the application's preferences in the local SQLite database,
// namespaced so other tables in the same file stay untouched.
type Store struct {
	db        *sqlx.DB
	namespace string
	logger    *zap.Logger
}

type entry struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// Open connects to the SQLite database at path and creates the preferences
// table if needed. ":memory:" gives a throwaway store.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = config.DatabaseName
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open preferences database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate preferences: %w", err)
	}

	return &Store{
		db:        db,
		namespace: config.PrefName,
		logger:    logger.Named("prefs"),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get reports whether key is set, along with its value.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}

	var value string
	err := s.db.GetContext(ctx, &value,
		`SELECT value FROM preferences WHERE namespace = ? AND key = ?`, s.namespace, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (namespace, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.namespace, key, value)
	if err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}
	s.logger.Debug("preference updated", zap.String("key", key))
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM preferences WHERE namespace = ? AND key = ?`, s.namespace, key); err != nil {
		return fmt.Errorf("delete preference %q: %w", key, err)
	}
	return nil
}

func (s *Store) All(ctx context.Context) (map[string]string, error) {
	var entries []entry
	if err := s.db.SelectContext(ctx, &entries,
		`SELECT key, value FROM preferences WHERE namespace = ? ORDER BY key`, s.namespace); err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}

	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Value
	}
	return out, nil
}

func (s *Store) UserID(ctx context.Context) (string, error) {
	value, _, err := s.Get(ctx, config.PrefUserID)
	return value, err
}

func (s *Store) SetUserID(ctx context.Context, id string) error {
	return s.Set(ctx, config.PrefUserID, id)
}

func (s *Store) BranchID(ctx context.Context) (string, error) {
	value, _, err := s.Get(ctx, config.PrefBranchID)
	return value, err
}

func (s *Store) SetBranchID(ctx context.Context, id string) error {
	return s.Set(ctx, config.PrefBranchID, id)
}

func (s *Store) AuthToken(ctx context.Context) (string, error) {
	value, _, err := s.Get(ctx, config.PrefToken)
	return value, err
}

func (s *Store) SetAuthToken(ctx context.Context, token string) error {
	return s.Set(ctx, config.PrefToken, token)
}

// LastSync returns the zero time when no refresh has been recorded.
func (s *Store) LastSync(ctx context.Context) (time.Time, error) {
	value, ok, err := s.Get(ctx, config.PrefLastSync)
	if err != nil || !ok {
		return time.Time{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", config.PrefLastSync, err)
	}
	return t, nil
}

func (s *Store) SetLastSync(ctx context.Context, t time.Time) error {
	return s.Set(ctx, config.PrefLastSync, t.UTC().Format(time.RFC3339Nano))
}
