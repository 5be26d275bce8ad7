package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/certilearn/assessd-backend/internal/config"
	"github.com/certilearn/assessd-backend/internal/grading"
	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/certilearn/assessd-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

// Adapters binding the grading authority's narrow interfaces to the concrete
// cache, repository, and queue implementations. Each one translates the
// storage layer's absence signal into grading.ErrNotFound.

// GradingDefinitionSource serves full definitions to the grading authority
// from the exam service's cache-with-fallback path.
type GradingDefinitionSource struct {
	exams *ExamService
}

// NewGradingDefinitionSource wraps an ExamService.
func NewGradingDefinitionSource(exams *ExamService) *GradingDefinitionSource {
	return &GradingDefinitionSource{exams: exams}
}

func (s *GradingDefinitionSource) Definition(ctx context.Context, examID uuid.UUID) (*model.ExamDefinition, error) {
	def, err := s.exams.GetDefinition(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, grading.ErrNotFound
		}
		return nil, err
	}
	return def, nil
}

// GradingAttemptSource serves attempt rows to the grading authority.
type GradingAttemptSource struct {
	attempts *repository.AttemptRepository
}

// NewGradingAttemptSource wraps an AttemptRepository.
func NewGradingAttemptSource(attempts *repository.AttemptRepository) *GradingAttemptSource {
	return &GradingAttemptSource{attempts: attempts}
}

func (s *GradingAttemptSource) Attempt(ctx context.Context, examID uuid.UUID, candidateID int) (*model.Attempt, error) {
	a, err := s.attempts.GetByExamAndCandidate(ctx, examID, candidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, grading.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// GradingResultStore adapts the result repository for the grading authority.
type GradingResultStore struct {
	results *repository.ResultRepository
}

// NewGradingResultStore wraps a ResultRepository.
func NewGradingResultStore(results *repository.ResultRepository) *GradingResultStore {
	return &GradingResultStore{results: results}
}

func (s *GradingResultStore) Insert(ctx context.Context, res *model.Result) (*model.Result, bool, error) {
	return s.results.Insert(ctx, res)
}

func (s *GradingResultStore) Get(ctx context.Context, examID uuid.UUID, candidateID int) (*model.Result, error) {
	res, err := s.results.Get(ctx, examID, candidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, grading.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

// AuditPayload is one scored submission's audit trail on the async queue.
type AuditPayload struct {
	ExamID      string              `json:"exam_id"`
	CandidateID int                 `json:"candidate_id"`
	Answers     []model.AnswerAudit `json:"answers"`
	GradedAt    int64               `json:"graded_at"`
}

// RedisAuditSink queues per-question audit rows for the audit worker.
type RedisAuditSink struct {
	rdb *redis.Client
}

// NewRedisAuditSink wraps a Redis client.
func NewRedisAuditSink(rdb *redis.Client) *RedisAuditSink {
	return &RedisAuditSink{rdb: rdb}
}

func (s *RedisAuditSink) EnqueueAudit(ctx context.Context, res *model.Result) error {
	payload := AuditPayload{
		ExamID:      res.ExamID.String(),
		CandidateID: res.CandidateID,
		Answers:     res.Answers,
		GradedAt:    res.GradedAt.Unix(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	return s.rdb.RPush(ctx, config.WorkerKey.PersistAuditQueue, raw).Err()
}
