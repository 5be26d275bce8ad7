package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/certilearn/assessd-backend/internal/config"
	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/certilearn/assessd-backend/internal/repository"
	"github.com/certilearn/assessd-backend/internal/session"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Delivery errors.
var (
	ErrNoActiveAttempt  = errors.New("no active attempt for this exam")
	ErrAttemptCompleted = errors.New("attempt is already completed")
)

// DeliveryService orchestrates the candidate side of an exam: the catalog,
// idempotent attempt creation, attempt state recovery, and construction of
// the per-connection session engine.
type DeliveryService struct {
	attemptRepo *repository.AttemptRepository
	examService *ExamService
	snapshots   session.SnapshotStore
	authority   session.Submitter
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewDeliveryService creates a new DeliveryService.
func NewDeliveryService(
	attemptRepo *repository.AttemptRepository,
	examService *ExamService,
	snapshots session.SnapshotStore,
	authority session.Submitter,
	rdb *redis.Client,
	log zerolog.Logger,
) *DeliveryService {
	return &DeliveryService{
		attemptRepo: attemptRepo,
		examService: examService,
		snapshots:   snapshots,
		authority:   authority,
		rdb:         rdb,
		log:         log.With().Str("component", "delivery_service").Logger(),
	}
}

// CatalogExam is an exam as displayed in the candidate catalog, with the
// candidate's own attempt state overlaid.
type CatalogExam struct {
	model.ExamDefinition
	AttemptState *model.SessionState `json:"attempt_state,omitempty"`
}

// Catalog returns the published exams with the candidate's attempt state.
func (s *DeliveryService) Catalog(ctx context.Context, candidateID int) ([]CatalogExam, error) {
	exams, err := s.examService.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published: %w", err)
	}

	attempts, err := s.attemptRepo.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	attemptMap := make(map[uuid.UUID]*model.Attempt, len(attempts))
	for i := range attempts {
		attemptMap[attempts[i].ExamID] = &attempts[i]
	}

	catalog := make([]CatalogExam, 0, len(exams))
	for _, exam := range exams {
		entry := CatalogExam{ExamDefinition: exam}
		if a, ok := attemptMap[exam.ID]; ok {
			entry.AttemptState = &a.State
		}
		catalog = append(catalog, entry)
	}
	return catalog, nil
}

// StartAttempt creates the attempt row for a candidate, or returns the
// existing one. The row's started_at is the single timer authority; a
// double-click, refresh, or reconnect can never reset it.
func (s *DeliveryService) StartAttempt(ctx context.Context, examID uuid.UUID, candidateID int) (*model.Attempt, error) {
	exam, err := s.examService.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}

	existing, err := s.attemptRepo.GetByExamAndCandidate(ctx, examID, candidateID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing attempt: %w", err)
	}
	if existing != nil {
		// Re-seed the caches so a reconnect on a different node is fast.
		s.cacheStart(ctx, existing)
		return existing, nil
	}

	attempt := &model.Attempt{
		ExamID:      examID,
		CandidateID: candidateID,
		State:       model.SessionInProgress,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race to a concurrent start; adopt the winner's row.
			existing, fetchErr := s.attemptRepo.GetByExamAndCandidate(ctx, examID, candidateID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent start detected, but fetch failed: %w", fetchErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.cacheStart(ctx, attempt)
	s.log.Info().
		Str("exam_id", examID.String()).
		Int("candidate_id", candidateID).
		Time("started_at", attempt.StartedAt).
		Msg("Attempt started")
	return attempt, nil
}

// cacheStart stores the attempt start time and the candidate's active exam
// pointer in Redis. Failures are non-fatal; the Postgres fallback self-heals.
func (s *DeliveryService) cacheStart(ctx context.Context, a *model.Attempt) {
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.AttemptStartKey(a.ExamID.String(), a.CandidateID), a.StartedAt.Unix(), 0)
	pipe.Set(ctx, config.CacheKey.CandidateActiveExamKey(a.CandidateID), a.ExamID.String(), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache attempt start time")
	}
}

// VerifyActiveAttempt checks that a candidate has an in-progress attempt for
// the given exam.
func (s *DeliveryService) VerifyActiveAttempt(ctx context.Context, examID uuid.UUID, candidateID int) error {
	a, err := s.attemptRepo.GetByExamAndCandidate(ctx, examID, candidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoActiveAttempt
		}
		return fmt.Errorf("get attempt: %w", err)
	}
	if a.State == model.SessionCompleted {
		return ErrAttemptCompleted
	}
	return nil
}

// startedAt resolves the attempt start time: Redis first, Postgres on a cache
// miss with a self-heal write-back.
func (s *DeliveryService) startedAt(ctx context.Context, examID uuid.UUID, candidateID int) (time.Time, error) {
	startKey := config.CacheKey.AttemptStartKey(examID.String(), candidateID)

	val, err := s.rdb.Get(ctx, startKey).Result()
	if errors.Is(err, redis.Nil) {
		a, dbErr := s.attemptRepo.GetByExamAndCandidate(ctx, examID, candidateID)
		if dbErr != nil {
			if errors.Is(dbErr, pgx.ErrNoRows) {
				return time.Time{}, ErrNoActiveAttempt
			}
			return time.Time{}, fmt.Errorf("attempt not in cache or db: %w", dbErr)
		}
		_ = s.rdb.Set(ctx, startKey, a.StartedAt.Unix(), 0)
		return a.StartedAt, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get start time: %w", err)
	}

	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time format in cache: %w", err)
	}
	return time.Unix(unix, 0), nil
}

// AttemptState is the recovery payload a reconnecting client renders from.
type AttemptState struct {
	ExamID           uuid.UUID        `json:"exam_id"`
	CandidateID      int              `json:"candidate_id"`
	RemainingSeconds int              `json:"remaining_seconds"`
	Overview         session.Overview `json:"overview"`
}

// GetAttemptState rebuilds the candidate's live state after a reload:
// remaining time recomputed from the persisted start, plus the snapshot's
// navigation and answer overview.
func (s *DeliveryService) GetAttemptState(ctx context.Context, examID uuid.UUID, candidateID int) (*AttemptState, error) {
	eng, err := s.Engine(ctx, examID, candidateID)
	if err != nil {
		return nil, err
	}
	return &AttemptState{
		ExamID:           examID,
		CandidateID:      candidateID,
		RemainingSeconds: eng.RemainingSeconds(),
		Overview:         eng.Overview(),
	}, nil
}

// Engine builds the per-connection session engine for an attempt: definition
// snapshot from the cache, durable snapshot resumed, and with no snapshot the
// attempt row's started_at adopted so the timer survives everything short of
// losing both stores.
func (s *DeliveryService) Engine(ctx context.Context, examID uuid.UUID, candidateID int) (*session.Engine, error) {
	def, err := s.examService.GetDefinition(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get definition: %w", err)
	}

	eng := session.New(def, candidateID, s.snapshots, s.authority, session.Options{
		Logger: &s.log,
	})
	if err := eng.Resume(ctx); err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	if eng.State() != model.SessionNotStarted {
		return eng, nil
	}

	started, err := s.startedAt(ctx, examID, candidateID)
	if err != nil {
		return nil, err
	}
	if err := eng.AdoptStart(ctx, started); err != nil {
		return nil, fmt.Errorf("adopt start: %w", err)
	}
	return eng, nil
}

// QueueEvent pushes a candidate-reported violation event onto the async
// persistence queue. Delivery is fire-and-forget; losing an event never
// blocks the attempt.
func (s *DeliveryService) QueueEvent(ctx context.Context, payload []byte) error {
	return s.rdb.RPush(ctx, config.WorkerKey.PersistEventsQueue, payload).Err()
}
