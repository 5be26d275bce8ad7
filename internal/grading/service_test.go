package grading

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/google/uuid"
)

type memDefs struct {
	defs map[uuid.UUID]*model.ExamDefinition
	err  error
}

func (m *memDefs) Definition(_ context.Context, examID uuid.UUID) (*model.ExamDefinition, error) {
	if m.err != nil {
		return nil, m.err
	}
	def, ok := m.defs[examID]
	if !ok {
		return nil, ErrNotFound
	}
	return def, nil
}

type memAttempts struct {
	attempts map[string]*model.Attempt
}

func attemptKey(examID uuid.UUID, candidateID int) string {
	return fmt.Sprintf("%s/%d", examID, candidateID)
}

func (m *memAttempts) Attempt(_ context.Context, examID uuid.UUID, candidateID int) (*model.Attempt, error) {
	a, ok := m.attempts[attemptKey(examID, candidateID)]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

type memResults struct {
	mu      sync.Mutex
	rows    map[string]*model.Result
	inserts int
	err     error
}

func (m *memResults) Insert(_ context.Context, res *model.Result) (*model.Result, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	if m.rows == nil {
		m.rows = make(map[string]*model.Result)
	}
	key := attemptKey(res.ExamID, res.CandidateID)
	if existing, ok := m.rows[key]; ok {
		return existing, false, nil
	}
	m.inserts++
	m.rows[key] = res
	return res, true, nil
}

func (m *memResults) Get(_ context.Context, examID uuid.UUID, candidateID int) (*model.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.rows[attemptKey(examID, candidateID)]
	if !ok {
		return nil, ErrNotFound
	}
	return res, nil
}

type memAudit struct {
	enqueued int
}

func (m *memAudit) EnqueueAudit(context.Context, *model.Result) error {
	m.enqueued++
	return nil
}

func serviceFixture(startedAgo time.Duration) (*Service, *model.ExamDefinition, *memResults, *memAudit, func() time.Time) {
	def := &model.ExamDefinition{
		ID:                  uuid.New(),
		Title:               "Fixture Exam",
		DurationMinutes:     30,
		PassingScorePercent: 60,
		Status:              model.ExamStatusPublished,
		Questions: []model.Question{
			{ID: uuid.New(), Text: "q1", Kind: model.KindSingleChoice,
				Options: []model.Option{{Text: "a"}, {Text: "b"}}, CorrectSingleIndex: 0, Marks: 1},
			{ID: uuid.New(), Text: "q2", Kind: model.KindFillBlank, CorrectText: "go", Marks: 1},
		},
	}

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	results := &memResults{}
	audit := &memAudit{}
	svc := NewService(
		&memDefs{defs: map[uuid.UUID]*model.ExamDefinition{def.ID: def}},
		&memAttempts{attempts: map[string]*model.Attempt{
			attemptKey(def.ID, 1): {
				ID: uuid.New(), ExamID: def.ID, CandidateID: 1,
				StartedAt: now.Add(-startedAgo), State: model.SessionInProgress,
			},
		}},
		results,
		ServiceOptions{Grace: 30 * time.Second, Now: clock, Audit: audit},
	)
	return svc, def, results, audit, clock
}

func TestSubmitScoresAndStoresOnce(t *testing.T) {
	ctx := context.Background()
	svc, def, results, audit, _ := serviceFixture(10 * time.Minute)

	idx0 := 0
	answers := map[uuid.UUID]model.Answer{
		def.Questions[0].ID: {SelectedIndex: &idx0},
		def.Questions[1].ID: {Text: "go"},
	}

	res, err := svc.Submit(ctx, def.ID, 1, answers)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.ScorePercentage != 100 || !res.IsPassed {
		t.Errorf("result = %.1f%% passed=%v, want 100%% passed", res.ScorePercentage, res.IsPassed)
	}
	if res.CandidateID != 1 {
		t.Errorf("CandidateID = %d, want 1", res.CandidateID)
	}
	if results.inserts != 1 {
		t.Errorf("inserts = %d, want 1", results.inserts)
	}
	if audit.enqueued != 1 {
		t.Errorf("audit enqueued = %d, want 1", audit.enqueued)
	}
}

func TestSubmitReplayReturnsStoredResult(t *testing.T) {
	ctx := context.Background()
	svc, def, results, audit, _ := serviceFixture(10 * time.Minute)

	idx0 := 0
	good := map[uuid.UUID]model.Answer{
		def.Questions[0].ID: {SelectedIndex: &idx0},
		def.Questions[1].ID: {Text: "go"},
	}
	first, err := svc.Submit(ctx, def.ID, 1, good)
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	// A second submission, even with different answers, must not re-score.
	idx1 := 1
	worse := map[uuid.UUID]model.Answer{def.Questions[0].ID: {SelectedIndex: &idx1}}
	second, err := svc.Submit(ctx, def.ID, 1, worse)
	if err != nil {
		t.Fatalf("replayed Submit: %v", err)
	}
	if second != first {
		t.Error("replay returned a different result instance")
	}
	if second.ScorePercentage != 100 {
		t.Errorf("replay score = %.1f%%, stored result must stand", second.ScorePercentage)
	}
	if results.inserts != 1 {
		t.Errorf("inserts = %d, want 1", results.inserts)
	}
	if audit.enqueued != 1 {
		t.Errorf("audit enqueued = %d, replay must not enqueue again", audit.enqueued)
	}
}

func TestSubmitAfterWindowFails(t *testing.T) {
	ctx := context.Background()
	// Started 31 minutes ago against a 30 minute duration and 30s grace.
	svc, def, results, _, _ := serviceFixture(31 * time.Minute)

	_, err := svc.Submit(ctx, def.ID, 1, nil)
	if !errors.Is(err, ErrDeadlineExceeded) {
		t.Fatalf("err = %v, want ErrDeadlineExceeded", err)
	}
	if results.inserts != 0 {
		t.Errorf("inserts = %d, late submission must leave no result", results.inserts)
	}
}

func TestSubmitWithinGraceSucceeds(t *testing.T) {
	ctx := context.Background()
	// 20 seconds past the deadline, inside the 30 second grace.
	svc, def, _, _, _ := serviceFixture(30*time.Minute + 20*time.Second)

	res, err := svc.Submit(ctx, def.ID, 1, nil)
	if err != nil {
		t.Fatalf("Submit inside grace: %v", err)
	}
	if res.ScorePercentage != 0 {
		t.Errorf("empty submission scored %.1f%%", res.ScorePercentage)
	}
}

func TestSubmitReplayAfterWindowStillReturnsResult(t *testing.T) {
	ctx := context.Background()
	svc, def, results, _, _ := serviceFixture(29 * time.Minute)

	first, err := svc.Submit(ctx, def.ID, 1, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Back-date the attempt so a retry arrives past the window. The stored
	// result must still be served.
	results.mu.Lock()
	key := attemptKey(def.ID, 1)
	results.rows[key] = first
	results.mu.Unlock()
	late := NewService(
		&memDefs{defs: map[uuid.UUID]*model.ExamDefinition{def.ID: def}},
		&memAttempts{attempts: map[string]*model.Attempt{
			key: {ExamID: def.ID, CandidateID: 1, StartedAt: time.Date(2026, 3, 14, 1, 0, 0, 0, time.UTC)},
		}},
		results,
		ServiceOptions{Grace: 30 * time.Second, Now: func() time.Time {
			return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
		}},
	)
	replay, err := late.Submit(ctx, def.ID, 1, nil)
	if err != nil {
		t.Fatalf("late replay: %v", err)
	}
	if replay != first {
		t.Error("late replay must return the stored result, not a deadline error")
	}
}

func TestSubmitUnknownAttempt(t *testing.T) {
	ctx := context.Background()
	svc, def, _, _, _ := serviceFixture(5 * time.Minute)

	if _, err := svc.Submit(ctx, def.ID, 99, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown candidate: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Submit(ctx, uuid.New(), 1, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown exam: err = %v, want ErrNotFound", err)
	}
}

func TestSubmitInfrastructureFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	svc, def, results, _, _ := serviceFixture(5 * time.Minute)
	results.err = errors.New("connection refused")

	_, err := svc.Submit(ctx, def.ID, 1, nil)
	if err == nil || !IsRetryable(err) {
		t.Fatalf("err = %v, want retryable transport error", err)
	}
	if errors.Is(err, ErrDeadlineExceeded) || errors.Is(err, ErrNotFound) {
		t.Errorf("infrastructure failure misclassified as domain error: %v", err)
	}
}

func TestGetResult(t *testing.T) {
	ctx := context.Background()
	svc, def, _, _, _ := serviceFixture(5 * time.Minute)

	if _, err := svc.GetResult(ctx, def.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("before submit: err = %v, want ErrNotFound", err)
	}
	submitted, err := svc.Submit(ctx, def.ID, 1, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got, err := svc.GetResult(ctx, def.ID, 1)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if got != submitted {
		t.Error("GetResult returned a different result than Submit stored")
	}
}
