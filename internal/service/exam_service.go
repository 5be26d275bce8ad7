package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/certilearn/assessd-backend/internal/authoring"
	"github.com/certilearn/assessd-backend/internal/config"
	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/certilearn/assessd-backend/internal/repository"
	"github.com/certilearn/assessd-backend/internal/response"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors of the authoring lifecycle.
var (
	ErrNotExamAuthor    = errors.New("not the author of this exam")
	ErrExamNotDraft     = errors.New("exam status is not DRAFT")
	ErrExamNotPublished = errors.New("exam status is not PUBLISHED")
	ErrInvalidQuestion  = errors.New("invalid question")
)

// ExamService handles exam authoring business logic and the Redis fast lane:
// on publish the candidate-facing paper and the full definition are cached so
// delivery and grading never touch Postgres on the hot path.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam definition without its questions.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamDefinition, error) {
	return s.examRepo.GetByID(ctx, id)
}

// GetFull retrieves an exam definition with its questions loaded.
func (s *ExamService) GetFull(ctx context.Context, id uuid.UUID) (*model.ExamDefinition, error) {
	def, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.ListByExam(ctx, id)
	if err != nil {
		return nil, err
	}
	def.Questions = questions
	return def, nil
}

// ListByAuthor retrieves exams filtered by author with pagination.
func (s *ExamService) ListByAuthor(ctx context.Context, authorID, page, perPage int) ([]model.ExamDefinition, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	exams, total, err := s.examRepo.ListByAuthorPaginated(ctx, authorID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if exams == nil {
		exams = []model.ExamDefinition{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return exams, pagination, nil
}

// ListPublished retrieves the candidate-facing exam catalog.
func (s *ExamService) ListPublished(ctx context.Context) ([]model.ExamDefinition, error) {
	exams, err := s.examRepo.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	if exams == nil {
		exams = []model.ExamDefinition{}
	}
	return exams, nil
}

// Create inserts a new exam definition as DRAFT.
func (s *ExamService) Create(ctx context.Context, def *model.ExamDefinition) error {
	def.Status = model.ExamStatusDraft
	return s.examRepo.Create(ctx, def)
}

// Update modifies an existing draft exam's policy fields.
func (s *ExamService) Update(ctx context.Context, authorID int, def *model.ExamDefinition) error {
	existing, err := s.examRepo.GetByID(ctx, def.ID)
	if err != nil {
		return err
	}
	if authorID != 0 && existing.AuthorID != authorID {
		return ErrNotExamAuthor
	}
	if existing.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	return s.examRepo.Update(ctx, def)
}

// Delete removes a draft exam.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID, authorID int) error {
	existing, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if authorID != 0 && existing.AuthorID != authorID {
		return ErrNotExamAuthor
	}
	if existing.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	return s.examRepo.Delete(ctx, id)
}

// AddQuestion validates and appends one question to a draft exam.
func (s *ExamService) AddQuestion(ctx context.Context, authorID int, q *model.Question) error {
	existing, err := s.examRepo.GetByID(ctx, q.ExamID)
	if err != nil {
		return err
	}
	if authorID != 0 && existing.AuthorID != authorID {
		return ErrNotExamAuthor
	}
	if existing.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	if err := authoring.Validate(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	return s.questionRepo.Create(ctx, q)
}

// UpdateQuestion validates and overwrites one question of a draft exam.
func (s *ExamService) UpdateQuestion(ctx context.Context, authorID int, q *model.Question) error {
	existing, err := s.examRepo.GetByID(ctx, q.ExamID)
	if err != nil {
		return err
	}
	if authorID != 0 && existing.AuthorID != authorID {
		return ErrNotExamAuthor
	}
	if existing.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	if err := authoring.Validate(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	return s.questionRepo.Update(ctx, q)
}

// DeleteQuestion removes one question from a draft exam.
func (s *ExamService) DeleteQuestion(ctx context.Context, authorID int, examID, questionID uuid.UUID) error {
	existing, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return err
	}
	if authorID != 0 && existing.AuthorID != authorID {
		return ErrNotExamAuthor
	}
	if existing.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	return s.questionRepo.Delete(ctx, examID, questionID)
}

// ReplaceQuestions validates and swaps a draft exam's whole question set
// atomically.
func (s *ExamService) ReplaceQuestions(ctx context.Context, authorID int, examID uuid.UUID, questions []model.Question) error {
	existing, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return err
	}
	if authorID != 0 && existing.AuthorID != authorID {
		return ErrNotExamAuthor
	}
	if existing.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	for i := range questions {
		if err := authoring.Validate(&questions[i]); err != nil {
			return fmt.Errorf("%w: question %d: %v", ErrInvalidQuestion, i, err)
		}
	}
	return s.questionRepo.ReplaceAll(ctx, examID, questions)
}

// CompletenessReport runs the authoring completeness check over a draft exam
// without changing its status.
func (s *ExamService) CompletenessReport(ctx context.Context, authorID int, examID uuid.UUID) (*authoring.CompletenessReport, error) {
	def, err := s.GetFull(ctx, examID)
	if err != nil {
		return nil, err
	}
	if authorID != 0 && def.AuthorID != authorID {
		return nil, ErrNotExamAuthor
	}
	report := authoring.Report(def)
	return &report, nil
}

// Publish moves a draft exam to PUBLISHED. It fails with
// *authoring.ErrNotPublishable before any state changes when the question set
// is incomplete; the cache is warmed before the status flips so a candidate
// can never see a published exam with a cold cache.
func (s *ExamService) Publish(ctx context.Context, examID uuid.UUID, authorID int) error {
	def, err := s.GetFull(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if authorID != 0 && def.AuthorID != authorID {
		return ErrNotExamAuthor
	}
	if def.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	if err := authoring.Publishable(def); err != nil {
		return err
	}

	if err := s.WarmExamCache(ctx, def); err != nil {
		return err
	}
	if err := s.examRepo.UpdateStatus(ctx, examID, model.ExamStatusPublished); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info().Str("exam_id", examID.String()).Msg("Exam published")
	return nil
}

// Archive retires a published exam. Running attempts keep their snapshotted
// definition; new starts are refused.
func (s *ExamService) Archive(ctx context.Context, examID uuid.UUID, authorID int) error {
	existing, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return err
	}
	if authorID != 0 && existing.AuthorID != authorID {
		return ErrNotExamAuthor
	}
	if existing.Status != model.ExamStatusPublished {
		return ErrExamNotPublished
	}
	if err := s.examRepo.UpdateStatus(ctx, examID, model.ExamStatusArchived); err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.ExamPaperKey(examID.String()))
	pipe.Del(ctx, config.CacheKey.ExamDefinitionKey(examID.String()))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Cache eviction on archive failed")
	}

	s.log.Info().Str("exam_id", examID.String()).Msg("Exam archived")
	return nil
}

// WarmExamCache loads an exam's paper and full definition from PostgreSQL
// into Redis. The paper never carries correct answers; the definition does
// and is only ever read by the grading authority.
func (s *ExamService) WarmExamCache(ctx context.Context, def *model.ExamDefinition) error {
	if def.Questions == nil {
		questions, err := s.questionRepo.ListByExam(ctx, def.ID)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		def.Questions = questions
	}
	if len(def.Questions) == 0 {
		return authoring.Publishable(def)
	}

	paper := BuildPaper(def)
	paperJSON, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}
	defJSON, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal definition: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamPaperKey(def.ID.String()), paperJSON, 0)
	pipe.Set(ctx, config.CacheKey.ExamDefinitionKey(def.ID.String()), defJSON, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("exam_id", def.ID.String()).
		Int("questions", len(def.Questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads all published exams into Redis on application
// startup. This prevents lazy-loading races under thundering herd traffic.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published exams: %w", err)
	}
	if len(exams) == 0 {
		s.log.Info().Msg("No published exams to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(exams)).Msg("Prewarming published exams...")

	warmed := 0
	for i := range exams {
		if err := s.WarmExamCache(ctx, &exams[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID.String()).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

// GetExamPaper retrieves the cached candidate paper, falling back to Postgres
// with a cache self-heal when the key is missing.
func (s *ExamService) GetExamPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.ExamPaperKey(examID.String())).Bytes()
	if err == nil {
		var paper model.ExamPaper
		if err := json.Unmarshal(data, &paper); err != nil {
			return nil, fmt.Errorf("unmarshal paper: %w", err)
		}
		return &paper, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	def, err := s.GetFull(ctx, examID)
	if err != nil {
		return nil, err
	}
	if def.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}
	if err := s.WarmExamCache(ctx, def); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Cache self-heal failed")
	}
	return BuildPaper(def), nil
}

// GetDefinition retrieves the cached full definition for grading, with the
// same Postgres fallback and self-heal as the paper path.
func (s *ExamService) GetDefinition(ctx context.Context, examID uuid.UUID) (*model.ExamDefinition, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.ExamDefinitionKey(examID.String())).Bytes()
	if err == nil {
		var def model.ExamDefinition
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("unmarshal definition: %w", err)
		}
		return &def, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get definition: %w", err)
	}

	def, err := s.GetFull(ctx, examID)
	if err != nil {
		return nil, err
	}
	if def.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}
	if err := s.WarmExamCache(ctx, def); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Cache self-heal failed")
	}
	return def, nil
}

// BuildPaper strips a definition down to its candidate-facing paper.
func BuildPaper(def *model.ExamDefinition) *model.ExamPaper {
	questions := make([]model.QuestionForCandidate, len(def.Questions))
	for i, q := range def.Questions {
		questions[i] = model.QuestionForCandidate{
			ID:       q.ID,
			Text:     q.Text,
			Kind:     q.Kind,
			Options:  q.Options,
			Marks:    q.Marks,
			OrderNum: q.OrderNum,
		}
	}
	return &model.ExamPaper{
		ExamID:          def.ID,
		Title:           def.Title,
		DurationMinutes: def.DurationMinutes,
		Questions:       questions,
	}
}
