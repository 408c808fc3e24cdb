package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/hongminglow/minigames-be/internal/models"
	"github.com/hongminglow/minigames-be/internal/storage"
	"github.com/hongminglow/minigames-be/internal/storage/postgres/migrations"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for users and outcomes.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to databaseURL and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, lower($3), $4)
		RETURNING id::text, name, email, password_hash, created_at, updated_at;
	`
	row := s.pool.QueryRow(ctx, query, uuid.NewString(), user.Name, user.Email, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindUserByEmail fetches a user by email address, ignoring case.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
	SELECT id::text, name, email, password_hash, created_at, updated_at
	FROM users
	WHERE lower(email) = lower($1);
	`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// FindUserByID fetches a user by id. Malformed ids are reported as not found.
func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.User{}, storage.ErrNotFound
	}
	const query = `
	SELECT id::text, name, email, password_hash, created_at, updated_at
	FROM users
	WHERE id = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// CreateOutcome appends an outcome row stamped with a server id and time.
func (s *Store) CreateOutcome(ctx context.Context, outcome models.Outcome) (models.Outcome, error) {
	const query = `
	INSERT INTO outcomes (id, user_id, game_type, score, result, timestamp)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id::text, user_id::text, game_type, score, result, timestamp, created_at;
	`
	row := s.pool.QueryRow(ctx, query,
		uuid.NewString(),
		outcome.UserID,
		string(outcome.GameType),
		outcome.Score,
		string(outcome.Result),
		outcome.Timestamp,
	)
	created, err := scanOutcome(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.Outcome{}, storage.ErrNotFound
		}
		return models.Outcome{}, err
	}
	return created, nil
}

// ListOutcomes returns up to limit outcomes for userID, newest first.
func (s *Store) ListOutcomes(ctx context.Context, userID string, limit int) ([]models.Outcome, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []models.Outcome{}, nil
	}
	const query = `
	SELECT id::text, user_id::text, game_type, score, result, timestamp, created_at
	FROM outcomes
	WHERE user_id = $1
	ORDER BY timestamp DESC, created_at DESC
	LIMIT $2;
	`
	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []models.Outcome{}
	for rows.Next() {
		outcome, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanOutcome(row pgx.Row) (models.Outcome, error) {
	var (
		outcome  models.Outcome
		gameType string
		result   string
	)
	if err := row.Scan(&outcome.ID, &outcome.UserID, &gameType, &outcome.Score, &result, &outcome.Timestamp, &outcome.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Outcome{}, storage.ErrNotFound
		}
		return models.Outcome{}, err
	}
	outcome.GameType = models.GameType(gameType)
	outcome.Result = models.Result(result)
	return outcome, nil
}
