package grading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefinitionSource yields the full authored definition, answers included.
// Implementations serve from the Redis definition cache with a Postgres
// fallback.
type DefinitionSource interface {
	Definition(ctx context.Context, examID uuid.UUID) (*model.ExamDefinition, error)
}

// AttemptSource yields the persisted attempt row for a candidate. StartedAt
// from this row, never a client clock, anchors the submission window.
type AttemptSource interface {
	Attempt(ctx context.Context, examID uuid.UUID, candidateID int) (*model.Attempt, error)
}

// ResultRepository persists scored results. Insert must be conflict-safe on
// (exam_id, candidate_id): when a result already exists it reports
// inserted=false and returns the stored row untouched.
type ResultRepository interface {
	Insert(ctx context.Context, res *model.Result) (stored *model.Result, inserted bool, err error)
	Get(ctx context.Context, examID uuid.UUID, candidateID int) (*model.Result, error)
}

// AuditSink receives the per-question audit rows of a freshly scored result
// for asynchronous persistence.
type AuditSink interface {
	EnqueueAudit(ctx context.Context, res *model.Result) error
}

// Service is the grading authority. It owns the server-side submission window
// and the at-most-one-scored-attempt guarantee; the delivery engine only
// talks to it through Submit.
type Service struct {
	defs     DefinitionSource
	attempts AttemptSource
	results  ResultRepository
	audit    AuditSink
	grace    time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// Grace extends the submission window past the attempt deadline to absorb
	// transit latency of an on-time auto-submit.
	Grace time.Duration
	// Now overrides the wall clock. Nil means time.Now.
	Now func() time.Time
	// Audit is optional; nil disables audit row persistence.
	Audit  AuditSink
	Logger *zerolog.Logger
}

// NewService builds the grading authority.
func NewService(defs DefinitionSource, attempts AttemptSource, results ResultRepository, opts ServiceOptions) *Service {
	s := &Service{
		defs:     defs,
		attempts: attempts,
		results:  results,
		audit:    opts.Audit,
		grace:    opts.Grace,
		now:      opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("component", "grading_service").Logger()
	} else {
		s.log = zerolog.Nop()
	}
	return s
}

// Submit scores one frozen answer set. The call is idempotent per
// (candidate, exam): the first accepted submission is scored and stored, any
// later one returns the stored result unchanged. Submissions past
// startedAt + duration + grace fail with ErrDeadlineExceeded and leave no
// result behind.
func (s *Service) Submit(ctx context.Context, examID uuid.UUID, candidateID int, answers map[uuid.UUID]model.Answer) (*model.Result, error) {
	def, err := s.defs.Definition(ctx, examID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, &TransportError{Err: fmt.Errorf("load definition: %w", err)}
	}

	attempt, err := s.attempts.Attempt(ctx, examID, candidateID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, &TransportError{Err: fmt.Errorf("load attempt: %w", err)}
	}

	// A replay of an already scored attempt short-circuits before the window
	// check: the stored result stands regardless of when the retry arrives.
	if stored, err := s.results.Get(ctx, examID, candidateID); err == nil && stored != nil {
		s.log.Info().
			Str("exam_id", examID.String()).
			Int("candidate_id", candidateID).
			Msg("Replayed submission, returning stored result")
		return stored, nil
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, &TransportError{Err: fmt.Errorf("check stored result: %w", err)}
	}

	deadline := attempt.StartedAt.Add(def.Duration()).Add(s.grace)
	if s.now().UTC().After(deadline) {
		s.log.Warn().
			Str("exam_id", examID.String()).
			Int("candidate_id", candidateID).
			Time("deadline", deadline).
			Msg("Submission after window closed")
		return nil, ErrDeadlineExceeded
	}

	res := Grade(def, answers)
	res.CandidateID = candidateID
	res.GradedAt = s.now().UTC()

	stored, inserted, err := s.results.Insert(ctx, res)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("store result: %w", err)}
	}
	if !inserted {
		// Lost the insert race to a concurrent submit. The winner's result is
		// the one that counts.
		return stored, nil
	}

	if s.audit != nil {
		if err := s.audit.EnqueueAudit(ctx, res); err != nil {
			s.log.Warn().Err(err).Msg("Audit enqueue failed, result already stored")
		}
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("candidate_id", candidateID).
		Float64("score", res.ScorePercentage).
		Bool("passed", res.IsPassed).
		Msg("Submission scored")
	return res, nil
}

// GetResult returns the stored result for a completed attempt, or ErrNotFound.
func (s *Service) GetResult(ctx context.Context, examID uuid.UUID, candidateID int) (*model.Result, error) {
	res, err := s.results.Get(ctx, examID, candidateID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrNotFound
	}
	return res, nil
}
