package repository

import (
	"context"

	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CandidateRepository handles candidate data access.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

// GetByUsername retrieves a candidate by username for login.
func (r *CandidateRepository) GetByUsername(ctx context.Context, username string) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, username, password_hash, created_at
		 FROM candidates WHERE username = $1`, username,
	).Scan(&c.ID, &c.Name, &c.Username, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID retrieves a candidate by primary key.
func (r *CandidateRepository) GetByID(ctx context.Context, id int) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, username, password_hash, created_at
		 FROM candidates WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Username, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new candidate.
func (r *CandidateRepository) Create(ctx context.Context, c *model.Candidate) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO candidates (name, username, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		c.Name, c.Username, c.PasswordHash,
	).Scan(&c.ID, &c.CreatedAt)
}
