// Package sqlite implements storage.Store on an embedded SQLite database,
// for single-node deployments and local development.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hongminglow/minigames-be/internal/models"
	"github.com/hongminglow/minigames-be/internal/storage"
	"github.com/hongminglow/minigames-be/internal/storage/sqlite/migrations"
)

var _ storage.Store = (*Store)(nil)

// Store persists users and outcomes in a single SQLite file.
type Store struct {
	db        *sql.DB
	writeLock sync.Mutex // the driver does not support concurrent writers
	now       func() time.Time
}

// NewStore opens the database at path, creating it if needed, and runs migrations.
func NewStore(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	now := s.now().UTC()
	user.ID = uuid.NewString()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.PasswordHash, now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		if constraintCode(err) == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// FindUserByEmail fetches a user by email address, ignoring case.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at, updated_at FROM users WHERE email = ?",
		strings.TrimSpace(email),
	)
	return scanUser(row)
}

// FindUserByID fetches a user by id.
func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at, updated_at FROM users WHERE id = ?",
		id,
	)
	return scanUser(row)
}

// CreateOutcome appends an outcome row stamped with a server id and time.
func (s *Store) CreateOutcome(ctx context.Context, outcome models.Outcome) (models.Outcome, error) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	outcome.ID = uuid.NewString()
	outcome.CreatedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO outcomes (id, user_id, game_type, score, result, timestamp, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		outcome.ID,
		outcome.UserID,
		string(outcome.GameType),
		outcome.Score,
		string(outcome.Result),
		outcome.Timestamp.UnixNano(),
		outcome.CreatedAt.UnixNano(),
	)
	if err != nil {
		if constraintCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			return models.Outcome{}, storage.ErrNotFound
		}
		return models.Outcome{}, fmt.Errorf("insert outcome: %w", err)
	}
	return outcome, nil
}

// ListOutcomes returns up to limit outcomes for userID, newest first.
func (s *Store) ListOutcomes(ctx context.Context, userID string, limit int) ([]models.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, game_type, score, result, timestamp, created_at
		FROM outcomes
		WHERE user_id = ?
		ORDER BY timestamp DESC, created_at DESC, rowid DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []models.Outcome{}
	for rows.Next() {
		var (
			outcome   models.Outcome
			gameType  string
			result    string
			timestamp int64
			createdAt int64
		)
		if err := rows.Scan(&outcome.ID, &outcome.UserID, &gameType, &outcome.Score, &result, &timestamp, &createdAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcome.GameType = models.GameType(gameType)
		outcome.Result = models.Result(result)
		outcome.Timestamp = time.Unix(0, timestamp).UTC()
		outcome.CreatedAt = time.Unix(0, createdAt).UTC()
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var (
		user      models.User
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, fmt.Errorf("query user: %w", err)
	}
	user.CreatedAt = time.Unix(0, createdAt).UTC()
	user.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return user, nil
}

func constraintCode(err error) int {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()
	}
	return 0
}
