package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CandidateResult combines candidate data with their scored result for the
// author-facing results listing.
type CandidateResult struct {
	CandidateID     int        `json:"candidate_id"`
	Username        string     `json:"username"`
	Name            string     `json:"name"`
	ScorePercentage *float64   `json:"score_percentage"`
	IsPassed        *bool      `json:"is_passed"`
	StartedAt       *time.Time `json:"started_at"`
	GradedAt        *time.Time `json:"graded_at"`
}

// ResultRepository handles scored result data access. The unique
// (exam_id, candidate_id) constraint is what enforces at most one scored
// result per attempt; every insert path goes through it.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Insert stores a freshly scored result. When a result already exists for the
// pair, the insert is a no-op and the stored row is returned with
// inserted=false; the caller treats that as a replay.
func (r *ResultRepository) Insert(ctx context.Context, res *model.Result) (*model.Result, bool, error) {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return nil, false, err
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO results (exam_id, candidate_id, total_questions, correct_answers,
		                      score_percentage, is_passed, answers, graded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (exam_id, candidate_id) DO NOTHING
		 RETURNING graded_at`,
		res.ExamID, res.CandidateID, res.TotalQuestions, res.CorrectAnswers,
		res.ScorePercentage, res.IsPassed, answers, res.GradedAt,
	).Scan(&res.GradedAt)
	if err == nil {
		return res, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	stored, err := r.Get(ctx, res.ExamID, res.CandidateID)
	if err != nil {
		return nil, false, fmt.Errorf("fetch result after insert conflict: %w", err)
	}
	return stored, false, nil
}

// Get retrieves the stored result for one exam-candidate pair.
func (r *ResultRepository) Get(ctx context.Context, examID uuid.UUID, candidateID int) (*model.Result, error) {
	res := &model.Result{}
	var answers []byte
	err := r.pool.QueryRow(ctx,
		`SELECT exam_id, candidate_id, total_questions, correct_answers,
		        score_percentage, is_passed, answers, graded_at
		 FROM results
		 WHERE exam_id = $1 AND candidate_id = $2`, examID, candidateID,
	).Scan(&res.ExamID, &res.CandidateID, &res.TotalQuestions, &res.CorrectAnswers,
		&res.ScorePercentage, &res.IsPassed, &answers, &res.GradedAt)
	if err != nil {
		return nil, err
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &res.Answers); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// ListByExam retrieves the per-candidate results of one exam with pagination.
// Candidates who started but were never scored appear with nil score fields.
func (r *ResultRepository) ListByExam(ctx context.Context, examID uuid.UUID, limit, offset int) ([]CandidateResult, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE exam_id = $1`, examID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.username, c.name,
		        r.score_percentage, r.is_passed, a.started_at, r.graded_at
		 FROM attempts a
		 JOIN candidates c ON a.candidate_id = c.id
		 LEFT JOIN results r ON r.exam_id = a.exam_id AND r.candidate_id = a.candidate_id
		 WHERE a.exam_id = $1
		 ORDER BY c.name ASC
		 LIMIT $2 OFFSET $3`, examID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []CandidateResult
	for rows.Next() {
		var cr CandidateResult
		if err := rows.Scan(&cr.CandidateID, &cr.Username, &cr.Name,
			&cr.ScorePercentage, &cr.IsPassed, &cr.StartedAt, &cr.GradedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, cr)
	}
	return results, total, rows.Err()
}
