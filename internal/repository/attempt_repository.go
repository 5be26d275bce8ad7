package repository

import (
	"context"
	"time"

	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptRepository handles attempt data access. The unique
// (exam_id, candidate_id) constraint makes attempt creation idempotent and
// started_at the single timer authority.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// GetByExamAndCandidate retrieves the attempt for one exam-candidate pair.
func (r *AttemptRepository) GetByExamAndCandidate(ctx context.Context, examID uuid.UUID, candidateID int) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, candidate_id, started_at, finished_at, state
		 FROM attempts
		 WHERE exam_id = $1 AND candidate_id = $2`, examID, candidateID,
	).Scan(&a.ID, &a.ExamID, &a.CandidateID, &a.StartedAt, &a.FinishedAt, &a.State)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new attempt. On a concurrent duplicate the insert is a
// no-op and Scan returns pgx.ErrNoRows; the caller falls back to
// GetByExamAndCandidate so a double-click or reconnect never spawns a second
// attempt with a fresh started_at.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (exam_id, candidate_id, state)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (exam_id, candidate_id) DO NOTHING
		 RETURNING id, started_at`,
		a.ExamID, a.CandidateID, model.SessionInProgress,
	).Scan(&a.ID, &a.StartedAt)
}

// Complete marks an attempt as completed.
func (r *AttemptRepository) Complete(ctx context.Context, examID uuid.UUID, candidateID int) error {
	now := time.Now()
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET state = $1, finished_at = $2
		 WHERE exam_id = $3 AND candidate_id = $4`,
		model.SessionCompleted, now, examID, candidateID)
	return err
}

// ListByCandidate retrieves all attempts of one candidate, newest first.
func (r *AttemptRepository) ListByCandidate(ctx context.Context, candidateID int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, candidate_id, started_at, finished_at, state
		 FROM attempts
		 WHERE candidate_id = $1
		 ORDER BY started_at DESC`, candidateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.ExamID, &a.CandidateID, &a.StartedAt, &a.FinishedAt, &a.State); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
