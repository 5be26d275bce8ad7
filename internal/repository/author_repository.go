package repository

import (
	"context"

	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuthorRepository handles author data access.
type AuthorRepository struct {
	pool *pgxpool.Pool
}

// NewAuthorRepository creates a new AuthorRepository.
func NewAuthorRepository(pool *pgxpool.Pool) *AuthorRepository {
	return &AuthorRepository{pool: pool}
}

// GetByEmail retrieves an author by email for login.
func (r *AuthorRepository) GetByEmail(ctx context.Context, email string) (*model.Author, error) {
	a := &model.Author{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM authors WHERE email = $1`, email,
	).Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an author by primary key.
func (r *AuthorRepository) GetByID(ctx context.Context, id int) (*model.Author, error) {
	a := &model.Author{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM authors WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new author.
func (r *AuthorRepository) Create(ctx context.Context, a *model.Author) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO authors (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		a.Name, a.Email, a.PasswordHash,
	).Scan(&a.ID, &a.CreatedAt)
}
