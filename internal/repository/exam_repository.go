package repository

import (
	"context"
	"fmt"

	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamRepository handles exam definition data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam definition by its UUID, without questions.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamDefinition, error) {
	d := &model.ExamDefinition{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, author_id, duration_minutes, passing_score_percent,
		        randomize_question_order, randomize_option_order, status, created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&d.ID, &d.Title, &d.AuthorID, &d.DurationMinutes, &d.PassingScorePercent,
		&d.RandomizeQuestionOrder, &d.RandomizeOptionOrder, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Create inserts a new exam definition in DRAFT status.
func (r *ExamRepository) Create(ctx context.Context, d *model.ExamDefinition) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, author_id, duration_minutes, passing_score_percent,
		                    randomize_question_order, randomize_option_order, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		d.Title, d.AuthorID, d.DurationMinutes, d.PassingScorePercent,
		d.RandomizeQuestionOrder, d.RandomizeOptionOrder, d.Status,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

// Update overwrites the mutable policy fields of an exam definition.
func (r *ExamRepository) Update(ctx context.Context, d *model.ExamDefinition) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $1, duration_minutes = $2, passing_score_percent = $3,
		     randomize_question_order = $4, randomize_option_order = $5, updated_at = NOW()
		 WHERE id = $6`,
		d.Title, d.DurationMinutes, d.PassingScorePercent,
		d.RandomizeQuestionOrder, d.RandomizeOptionOrder, d.ID)
	return err
}

// UpdateStatus moves an exam definition through its lifecycle.
func (r *ExamRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

// Delete removes an exam definition and, via cascade, its questions.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}

// ListByAuthorPaginated retrieves exams filtered by author with pagination.
// Pass authorID=0 to list all exams.
func (r *ExamRepository) ListByAuthorPaginated(ctx context.Context, authorID, limit, offset int) ([]model.ExamDefinition, int, error) {
	countQuery := `SELECT COUNT(*) FROM exams`
	var countArgs []any
	if authorID > 0 {
		countQuery += ` WHERE author_id = $1`
		countArgs = append(countArgs, authorID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, title, author_id, duration_minutes, passing_score_percent,
	                 randomize_question_order, randomize_option_order, status, created_at, updated_at
	          FROM exams`
	var args []any
	if authorID > 0 {
		query += ` WHERE author_id = $1`
		args = append(args, authorID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.ExamDefinition
	for rows.Next() {
		var d model.ExamDefinition
		if err := rows.Scan(&d.ID, &d.Title, &d.AuthorID, &d.DurationMinutes, &d.PassingScorePercent,
			&d.RandomizeQuestionOrder, &d.RandomizeOptionOrder, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		exams = append(exams, d)
	}
	return exams, total, rows.Err()
}

// ListPublished returns all exams with PUBLISHED status.
// Used for cache prewarming on application startup and the candidate catalog.
func (r *ExamRepository) ListPublished(ctx context.Context) ([]model.ExamDefinition, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, author_id, duration_minutes, passing_score_percent,
		        randomize_question_order, randomize_option_order, status, created_at, updated_at
		 FROM exams WHERE status = $1
		 ORDER BY created_at DESC`, model.ExamStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.ExamDefinition
	for rows.Next() {
		var d model.ExamDefinition
		if err := rows.Scan(&d.ID, &d.Title, &d.AuthorID, &d.DurationMinutes, &d.PassingScorePercent,
			&d.RandomizeQuestionOrder, &d.RandomizeOptionOrder, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, d)
	}
	return exams, rows.Err()
}
