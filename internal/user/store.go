package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrEmailTaken is returned when creating a user with an email that is
// already registered.
var ErrEmailTaken = errors.New("email already registered")

// Store defines the interface for user, profile and magic-link data
// operations.
type Store interface {
	CreateUser(ctx context.Context, email string, passwordHash *string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetOrCreateUserByEmail(ctx context.Context, email string) (*User, error)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpsertProfile(ctx context.Context, userID string, displayName, avatarURL *string) (*Profile, error)
	CreateMagicLinkToken(ctx context.Context, email, token string, expiresAt time.Time) error
	RedeemMagicLinkToken(ctx context.Context, token string) (string, error)
}

// PostgresStore implements the Store interface for PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to the database and ensures the user-facing
// tables exist.
func NewPostgresStore(dataSourceName string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return NewPostgresStoreWithDB(db)
}

// NewPostgresStoreWithDB wraps an existing connection.
func NewPostgresStoreWithDB(db *sqlx.DB) (*PostgresStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	schema = `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY REFERENCES users(id),
		display_name TEXT,
		avatar_url TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create profiles table: %w", err)
	}

	schema = `
	CREATE TABLE IF NOT EXISTS magic_link_tokens (
		token TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create magic_link_tokens table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// CreateUser inserts a new account. passwordHash may be nil for accounts
// that only sign in via magic link or OAuth.
func (s *PostgresStore) CreateUser(ctx context.Context, email string, passwordHash *string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3)
		 RETURNING id, email, password_hash, created_at`,
		uuid.NewString(), email, passwordHash,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail retrieves an account by email. Returns nil when no account
// exists.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // user not found
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// GetUserByID retrieves an account by id. Returns nil when no account
// exists.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // user not found
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &u, nil
}

// GetOrCreateUserByEmail returns the account for email, creating a
// passwordless one if none exists. Used by magic-link and OAuth sign-in.
func (s *PostgresStore) GetOrCreateUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	u, err = s.CreateUser(ctx, email, nil)
	if err != nil {
		// Lost a race with a concurrent sign-in for the same email.
		if errors.Is(err, ErrEmailTaken) {
			return s.GetUserByEmail(ctx, email)
		}
		return nil, err
	}
	return u, nil
}

// GetProfile retrieves a profile row. Returns nil when the user has not
// saved one yet.
func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, display_name, avatar_url, updated_at FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.DisplayName, &p.AvatarURL, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // profile not found
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// UpsertProfile creates or updates the user's profile row.
func (s *PostgresStore) UpsertProfile(ctx context.Context, userID string, displayName, avatarURL *string) (*Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO profiles (user_id, display_name, avatar_url, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id) DO UPDATE SET display_name = $2, avatar_url = $3, updated_at = now()
		 RETURNING user_id, display_name, avatar_url, updated_at`,
		userID, displayName, avatarURL,
	).Scan(&p.UserID, &p.DisplayName, &p.AvatarURL, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return &p, nil
}

// CreateMagicLinkToken stores a one-time sign-in token for email.
func (s *PostgresStore) CreateMagicLinkToken(ctx context.Context, email, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO magic_link_tokens (token, email, expires_at) VALUES ($1, $2, $3)`,
		token, email, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create magic link token: %w", err)
	}
	return nil
}

// RedeemMagicLinkToken consumes a token and returns the email it was minted
// for. Returns "" when the token is unknown or expired. The row is deleted
// on redeem, so a token works at most once.
func (s *PostgresStore) RedeemMagicLinkToken(ctx context.Context, token string) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM magic_link_tokens WHERE token = $1 AND expires_at > now() RETURNING email`,
		token,
	).Scan(&email)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil // token not found or expired
		}
		return "", fmt.Errorf("failed to redeem magic link token: %w", err)
	}
	return email, nil
}
