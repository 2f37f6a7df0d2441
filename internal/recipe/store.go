package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store defines the interface for recipe data operations.
type Store interface {
	InsertRecipe(ctx context.Context, in CreateInput) (*Recipe, error)
	GetRecipeByID(ctx context.Context, id, callerID string) (*Recipe, error)
	ListRecipesByUser(ctx context.Context, userID string) ([]*Recipe, error)
}

// PostgresStore implements the Store interface for PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to the database and ensures the recipes table
// exists.
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
	CREATE TABLE IF NOT EXISTS recipes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		title TEXT NOT NULL,
		description TEXT,
		image_url TEXT,
		servings INTEGER,
		prep_time_minutes INTEGER,
		cook_time_minutes INTEGER,
		total_time_minutes INTEGER,
		instructions JSONB NOT NULL,
		ingredients JSONB NOT NULL,
		source_url TEXT,
		notes TEXT,
		is_public BOOLEAN NOT NULL DEFAULT FALSE
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create recipes table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

const recipeColumns = `id, user_id, created_at, updated_at, title, description, image_url, servings, prep_time_minutes, cook_time_minutes, total_time_minutes, instructions, ingredients, source_url, notes, is_public`

// InsertRecipe inserts a new recipe row and reads it back, including the
// generated id and timestamps. A new id is assigned on every call; there is
// no deduplication by source URL.
func (s *PostgresStore) InsertRecipe(ctx context.Context, in CreateInput) (*Recipe, error) {
	instructionsJSON, err := json.Marshal(in.Instructions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal instructions: %w", err)
	}
	ingredientsJSON, err := json.Marshal(in.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ingredients: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO recipes (id, user_id, title, description, image_url, servings, prep_time_minutes, cook_time_minutes, total_time_minutes, instructions, ingredients, source_url, notes, is_public)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING `+recipeColumns,
		uuid.NewString(),
		in.UserID,
		in.Title,
		in.Description,
		in.ImageURL,
		in.Servings,
		in.PrepTimeMinutes,
		in.CookTimeMinutes,
		in.TotalTimeMinutes,
		instructionsJSON,
		ingredientsJSON,
		in.SourceURL,
		in.Notes,
		in.IsPublic,
	)

	r, err := scanRecipe(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert recipe: %w", err)
	}
	return r, nil
}

// GetRecipeByID retrieves one recipe. Rows owned by other users are only
// visible when public. Returns nil when no visible row matches.
func (s *PostgresStore) GetRecipeByID(ctx context.Context, id, callerID string) (*Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = $1 AND (user_id = $2 OR is_public)`,
		id, callerID,
	)

	r, err := scanRecipe(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // recipe not found
		}
		return nil, fmt.Errorf("failed to get recipe by id: %w", err)
	}
	return r, nil
}

// ListRecipesByUser retrieves the user's recipes, newest first.
func (s *PostgresStore) ListRecipesByUser(ctx context.Context, userID string) ([]*Recipe, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		recipes = append(recipes, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return recipes, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecipe(row rowScanner) (*Recipe, error) {
	var r Recipe
	var instructionsJSON, ingredientsJSON []byte

	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.Title,
		&r.Description,
		&r.ImageURL,
		&r.Servings,
		&r.PrepTimeMinutes,
		&r.CookTimeMinutes,
		&r.TotalTimeMinutes,
		&instructionsJSON,
		&ingredientsJSON,
		&r.SourceURL,
		&r.Notes,
		&r.IsPublic,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(instructionsJSON, &r.Instructions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instructions: %w", err)
	}
	if err := json.Unmarshal(ingredientsJSON, &r.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredients: %w", err)
	}

	return &r, nil
}
