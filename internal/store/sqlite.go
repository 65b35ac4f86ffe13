package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/gobancho-project/gobancho/internal/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	username        TEXT NOT NULL,
	username_safe   TEXT NOT NULL UNIQUE,
	password_bcrypt TEXT NOT NULL,
	privileges      INTEGER NOT NULL DEFAULT 3,
	silence_end     INTEGER NOT NULL DEFAULT 0,
	country         TEXT NOT NULL DEFAULT 'XX'
);

CREATE TABLE IF NOT EXISTS user_stats (
	user_id      INTEGER NOT NULL REFERENCES users(id),
	mode         INTEGER NOT NULL,
	ranked_score INTEGER NOT NULL DEFAULT 0,
	total_score  INTEGER NOT NULL DEFAULT 0,
	accuracy     REAL    NOT NULL DEFAULT 0,
	playcount    INTEGER NOT NULL DEFAULT 0,
	pp           INTEGER NOT NULL DEFAULT 0,
	global_rank  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, mode)
);

CREATE TABLE IF NOT EXISTS friends (
	user_id   INTEGER NOT NULL REFERENCES users(id),
	friend_id INTEGER NOT NULL REFERENCES users(id),
	PRIMARY KEY (user_id, friend_id)
);
`

// SQLiteStore implements Store on a SQLite database file.
type SQLiteStore struct {
	mu   sync.Mutex // serializes writes; SQLite has a single writer
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates a SQLite user store at the given path and
// bootstraps the schema.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Warn().Err(err).Msg("failed to enable WAL mode")
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		log.Warn().Err(err).Msg("failed to enable foreign keys")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("user store opened")

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// NormalizeUsername converts a display name to its stored safe form:
// lower-case with spaces replaced by underscores.
func NormalizeUsername(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// UserByUsername fetches a user record by its normalized username.
func (s *SQLiteStore) UserByUsername(ctx context.Context, usernameSafe string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, username_safe, password_bcrypt, privileges, silence_end, country
		 FROM users WHERE username_safe = ?`, usernameSafe)

	var u User
	var privs int64
	err := row.Scan(&u.ID, &u.Username, &u.UsernameSafe, &u.PasswordBcrypt,
		&privs, &u.SilenceEnd, &u.Country)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %q: %w", usernameSafe, err)
	}
	u.Privileges = session.Privileges(privs)
	return &u, nil
}

// AllStats fetches the per-mode performance records for a user.
func (s *SQLiteStore) AllStats(ctx context.Context, userID int32) ([session.ModeCount]session.ModeStats, error) {
	var out [session.ModeCount]session.ModeStats

	rows, err := s.db.QueryContext(ctx,
		`SELECT mode, ranked_score, total_score, accuracy, playcount, pp, global_rank
		 FROM user_stats WHERE user_id = ?`, userID)
	if err != nil {
		return out, fmt.Errorf("failed to fetch stats for user %d: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			mode int
			st   session.ModeStats
		)
		if err := rows.Scan(&mode, &st.RankedScore, &st.TotalScore,
			&st.Accuracy, &st.Playcount, &st.PP, &st.GlobalRank); err != nil {
			return out, fmt.Errorf("failed to scan stats row: %w", err)
		}
		if mode >= 0 && mode < int(session.ModeCount) {
			out[mode] = st
		}
	}
	return out, rows.Err()
}

// Friends fetches the ids of a user's friends.
func (s *SQLiteStore) Friends(ctx context.Context, userID int32) ([]int32, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT friend_id FROM friends WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friends for user %d: %w", userID, err)
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan friend row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddFriend persists a friend relationship.
func (s *SQLiteStore) AddFriend(ctx context.Context, userID, friendID int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO friends (user_id, friend_id) VALUES (?, ?)`, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to add friend %d -> %d: %w", userID, friendID, err)
	}
	return nil
}

// RemoveFriend deletes a friend relationship.
func (s *SQLiteStore) RemoveFriend(ctx context.Context, userID, friendID int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM friends WHERE user_id = ? AND friend_id = ?`, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to remove friend %d -> %d: %w", userID, friendID, err)
	}
	return nil
}

// Privileges fetches the current privilege bitset for a user.
func (s *SQLiteStore) Privileges(ctx context.Context, userID int32) (session.Privileges, error) {
	var privs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT privileges FROM users WHERE id = ?`, userID).Scan(&privs)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to fetch privileges for user %d: %w", userID, err)
	}
	return session.Privileges(privs), nil
}

// Country fetches the two-letter country code for a user.
func (s *SQLiteStore) Country(ctx context.Context, userID int32) (string, error) {
	var country string
	err := s.db.QueryRowContext(ctx,
		`SELECT country FROM users WHERE id = ?`, userID).Scan(&country)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch country for user %d: %w", userID, err)
	}
	return country, nil
}
