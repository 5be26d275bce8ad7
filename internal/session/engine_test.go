package session

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/certilearn/assessd-backend/internal/authoring"
	"github.com/certilearn/assessd-backend/internal/grading"
	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/google/uuid"
)

// fakeClock is a controllable wall clock.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// fakeBoundary is an in-memory grading authority with idempotent replay.
type fakeBoundary struct {
	calls   int
	failErr error
	def     *model.ExamDefinition
	stored  *model.Result
	gotAns  map[uuid.UUID]model.Answer
}

func (b *fakeBoundary) Submit(_ context.Context, _ uuid.UUID, _ int, answers map[uuid.UUID]model.Answer) (*model.Result, error) {
	b.calls++
	if b.failErr != nil {
		return nil, b.failErr
	}
	if b.stored != nil {
		return b.stored, nil
	}
	b.gotAns = answers
	b.stored = grading.Grade(b.def, answers)
	return b.stored, nil
}

// countingStore counts Save calls on top of a MemoryStore.
type countingStore struct {
	*MemoryStore
	saves int
}

func (s *countingStore) Save(ctx context.Context, snap *model.SessionSnapshot) error {
	s.saves++
	return s.MemoryStore.Save(ctx, snap)
}

// guardSpy records guard lifecycle calls.
type guardSpy struct {
	installs  int
	teardowns int
}

func (g *guardSpy) Install(context.Context) error { g.installs++; return nil }
func (g *guardSpy) Teardown(context.Context)      { g.teardowns++ }

func testDefinition() *model.ExamDefinition {
	q1 := model.Question{ID: uuid.New(), Text: "pick b", Kind: model.KindSingleChoice,
		Options: []model.Option{{Text: "a"}, {Text: "b"}}, CorrectSingleIndex: 1, Marks: 1}
	q2 := model.Question{ID: uuid.New(), Text: "the answer?", Kind: model.KindFillBlank,
		CorrectText: "42", Marks: 1}
	q3 := model.Question{ID: uuid.New(), Text: "pick a and c", Kind: model.KindMultipleChoice,
		Options: []model.Option{{Text: "a"}, {Text: "b"}, {Text: "c"}}, CorrectMultiIndexes: []int{0, 2}, Marks: 2}

	return &model.ExamDefinition{
		ID:                  uuid.New(),
		Title:               "Unit Exam",
		DurationMinutes:     10,
		PassingScorePercent: 50,
		Status:              model.ExamStatusPublished,
		Questions:           []model.Question{q1, q2, q3},
	}
}

func newTestEngine(t *testing.T, def *model.ExamDefinition, store SnapshotStore, clk *fakeClock) (*Engine, *fakeBoundary) {
	t.Helper()
	b := &fakeBoundary{def: def}
	e := New(def, 7, store, b, Options{Now: clk.Now})
	return e, b
}

func TestStartRequiresPublishableDefinition(t *testing.T) {
	def := testDefinition()
	def.Questions[1].CorrectText = "" // incomplete fill-blank

	e, _ := newTestEngine(t, def, NewMemoryStore(), newFakeClock())
	err := e.Start(context.Background())
	if err == nil {
		t.Fatal("expected start to fail for unpublishable definition")
	}
	var np *authoring.ErrNotPublishable
	if !errors.As(err, &np) {
		t.Fatalf("expected *authoring.ErrNotPublishable, got %T", err)
	}
	if e.State() != model.SessionNotStarted {
		t.Errorf("state = %s, want NOT_STARTED", e.State())
	}
}

func TestTimerMonotonicAcrossReloads(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	store := NewMemoryStore()
	clk := newFakeClock()

	e, _ := newTestEngine(t, def, store, clk)
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := e.RemainingSeconds(); got != 600 {
		t.Fatalf("remaining at start = %d, want 600", got)
	}

	// Simulate repeated reload/resume cycles with wall time advancing.
	elapsed := 0
	for _, step := range []int{30, 90, 240} {
		clk.Advance(time.Duration(step) * time.Second)
		elapsed += step

		reloaded, _ := newTestEngine(t, def, store, clk)
		if err := reloaded.Resume(ctx); err != nil {
			t.Fatalf("Resume after %ds: %v", elapsed, err)
		}
		if reloaded.State() != model.SessionInProgress {
			t.Fatalf("state after resume = %s", reloaded.State())
		}
		want := 600 - elapsed
		if got := reloaded.RemainingSeconds(); got != want {
			t.Errorf("remaining after %ds and reload = %d, want %d", elapsed, got, want)
		}
	}
}

func TestNoResumeWithoutStart(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	clk := newFakeClock()

	// Complete a different exam first; its lifecycle must not leak.
	other := testDefinition()
	eOther, _ := newTestEngine(t, other, store, clk)
	if err := eOther.Start(ctx); err != nil {
		t.Fatalf("Start other: %v", err)
	}
	if _, err := eOther.Finish(ctx); err != nil {
		t.Fatalf("Finish other: %v", err)
	}

	def := testDefinition()
	e, _ := newTestEngine(t, def, store, clk)
	if err := e.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if e.State() != model.SessionNotStarted {
		t.Errorf("state = %s, want NOT_STARTED (no silent resume)", e.State())
	}
}

func TestResumePastDeadlineAutoSubmits(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	store := NewMemoryStore()
	clk := newFakeClock()

	e, _ := newTestEngine(t, def, store, clk)
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.SetText(ctx, def.Questions[1].ID, "42"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	clk.Advance(11 * time.Minute)

	reloaded, b := newTestEngine(t, def, store, clk)
	if err := reloaded.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if reloaded.State() != model.SessionCompleted {
		t.Fatalf("state = %s, want COMPLETED", reloaded.State())
	}
	if b.calls != 1 {
		t.Errorf("boundary called %d times, want 1", b.calls)
	}
	// The answer captured before the crash still counts.
	if ans, ok := b.gotAns[def.Questions[1].ID]; !ok || ans.Text != "42" {
		t.Errorf("submitted answers lost across reload: %+v", b.gotAns)
	}
}

func TestAutoSubmitExactlyOnce(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	clk := newFakeClock()

	e, b := newTestEngine(t, def, NewMemoryStore(), clk)
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clk.Advance(10*time.Minute + time.Second)

	// Jittery tick handler firing repeatedly after expiry.
	for i := 0; i < 5; i++ {
		e.Tick(ctx)
	}
	if b.calls != 1 {
		t.Errorf("boundary called %d times, want exactly 1", b.calls)
	}
	if e.State() != model.SessionCompleted {
		t.Errorf("state = %s, want COMPLETED", e.State())
	}
}

func TestTickBeforeDeadlineDoesNothing(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	clk := newFakeClock()

	e, b := newTestEngine(t, def, NewMemoryStore(), clk)
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clk.Advance(5 * time.Minute)
	e.Tick(ctx)
	if b.calls != 0 {
		t.Errorf("boundary called %d times before deadline", b.calls)
	}
	if e.State() != model.SessionInProgress {
		t.Errorf("state = %s, want IN_PROGRESS", e.State())
	}
}

func TestGoToClampsOutOfRange(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	e, _ := newTestEngine(t, def, NewMemoryStore(), newFakeClock())
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := e.GoTo(ctx, 99); err != nil {
		t.Fatalf("GoTo(99): %v", err)
	}
	if got := e.CurrentIndex(); got != 2 {
		t.Errorf("clamped index = %d, want 2", got)
	}

	if err := e.GoTo(ctx, -4); err != nil {
		t.Fatalf("GoTo(-4): %v", err)
	}
	if got := e.CurrentIndex(); got != 0 {
		t.Errorf("clamped index = %d, want 0", got)
	}
}

func TestAnswerCaptureAndDerivedStatuses(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	e, _ := newTestEngine(t, def, NewMemoryStore(), newFakeClock())
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	q1, q2, q3 := def.Questions[0].ID, def.Questions[1].ID, def.Questions[2].ID

	// Question 0 visited on start, unanswered.
	if got := e.QuestionStatus(0); got != model.StatusVisitedUnanswered {
		t.Errorf("status(0) = %s, want visited-unanswered", got)
	}
	if got := e.QuestionStatus(1); got != model.StatusUnvisited {
		t.Errorf("status(1) = %s, want unvisited", got)
	}

	if err := e.SelectOption(ctx, q1, 1); err != nil {
		t.Fatalf("SelectOption: %v", err)
	}
	if got := e.QuestionStatus(0); got != model.StatusAnswered {
		t.Errorf("status(0) = %s, want answered", got)
	}

	// Mark is independent of answer state.
	if err := e.ToggleMark(ctx, q1); err != nil {
		t.Fatalf("ToggleMark: %v", err)
	}
	if got := e.QuestionStatus(0); got != model.StatusAnsweredMarked {
		t.Errorf("status(0) = %s, want answered-marked", got)
	}
	if err := e.ToggleMark(ctx, q2); err != nil {
		t.Fatalf("ToggleMark q2: %v", err)
	}
	if got := e.QuestionStatus(1); got != model.StatusMarked {
		t.Errorf("status(1) = %s, want marked", got)
	}

	if err := e.SelectOptions(ctx, q3, []int{0, 2}); err != nil {
		t.Fatalf("SelectOptions: %v", err)
	}
	if got := e.QuestionStatus(2); got != model.StatusAnswered {
		t.Errorf("status(2) = %s, want answered", got)
	}

	// Clearing reverts to visited/unvisited.
	if err := e.ClearAnswer(ctx, q3); err != nil {
		t.Fatalf("ClearAnswer: %v", err)
	}
	if got := e.QuestionStatus(2); got != model.StatusUnvisited {
		t.Errorf("status(2) after clear = %s, want unvisited", got)
	}
}

func TestReselectSameAnswerIsNoOp(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	store := &countingStore{MemoryStore: NewMemoryStore()}
	clk := newFakeClock()

	b := &fakeBoundary{def: def}
	e := New(def, 7, store, b, Options{Now: clk.Now})
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	q1 := def.Questions[0].ID
	if err := e.SelectOption(ctx, q1, 1); err != nil {
		t.Fatalf("SelectOption: %v", err)
	}
	saves := store.saves
	if err := e.SelectOption(ctx, q1, 1); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if store.saves != saves {
		t.Errorf("reselecting the same value wrote %d extra snapshots", store.saves-saves)
	}

	if err := e.SetText(ctx, def.Questions[1].ID, "42"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	saves = store.saves
	if err := e.SetText(ctx, def.Questions[1].ID, "42"); err != nil {
		t.Fatalf("re-SetText: %v", err)
	}
	if store.saves != saves {
		t.Error("retyping the same text wrote an extra snapshot")
	}
}

func TestSubmittingRejectsMutationsAndRetriesFrozen(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	clk := newFakeClock()

	b := &fakeBoundary{def: def, failErr: &grading.TransportError{Err: errors.New("conn reset")}}
	e := New(def, 7, NewMemoryStore(), b, Options{Now: clk.Now})
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.SetText(ctx, def.Questions[1].ID, "42"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	// First submit fails on transport: state stays Submitting, retryable.
	if _, err := e.Finish(ctx); err == nil || !grading.IsRetryable(err) {
		t.Fatalf("expected retryable transport error, got %v", err)
	}
	if e.State() != model.SessionSubmitting {
		t.Fatalf("state = %s, want SUBMITTING", e.State())
	}

	// Mutations are rejected while a submission is in flight.
	if err := e.SetText(ctx, def.Questions[1].ID, "changed"); !errors.Is(err, ErrNotInProgress) {
		t.Errorf("SetText during SUBMITTING: err = %v, want ErrNotInProgress", err)
	}
	if err := e.GoTo(ctx, 1); !errors.Is(err, ErrNotInProgress) {
		t.Errorf("GoTo during SUBMITTING: err = %v, want ErrNotInProgress", err)
	}

	// Network heals; the retry sends the originally frozen answers.
	b.failErr = nil
	res, err := e.Finish(ctx)
	if err != nil {
		t.Fatalf("retry Finish: %v", err)
	}
	if e.State() != model.SessionCompleted {
		t.Errorf("state = %s, want COMPLETED", e.State())
	}
	if ans := b.gotAns[def.Questions[1].ID]; ans.Text != "42" {
		t.Errorf("boundary received %q, want frozen %q", ans.Text, "42")
	}
	if res == nil || res.TotalQuestions != 3 {
		t.Errorf("unexpected result %+v", res)
	}

	// Finishing again just returns the same result.
	again, err := e.Finish(ctx)
	if err != nil || again != res {
		t.Errorf("second Finish = (%v, %v), want stored result", again, err)
	}
}

func TestResumeAdoptsInFlightSubmission(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	store := NewMemoryStore()
	clk := newFakeClock()

	b := &fakeBoundary{def: def, failErr: &grading.TransportError{Err: errors.New("conn reset")}}
	e := New(def, 7, store, b, Options{Now: clk.Now})
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.SetText(ctx, def.Questions[1].ID, "42"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if _, err := e.Finish(ctx); err == nil || !grading.IsRetryable(err) {
		t.Fatalf("expected retryable transport error, got %v", err)
	}

	// The client reconnects through a fresh engine over the same store.
	reloaded := New(def, 7, store, b, Options{Now: clk.Now})
	if err := reloaded.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if reloaded.State() != model.SessionSubmitting {
		t.Fatalf("state after resume = %s, want SUBMITTING", reloaded.State())
	}

	// The frozen set survives the reload: still no mutations allowed.
	if err := reloaded.SetText(ctx, def.Questions[1].ID, "changed"); !errors.Is(err, ErrNotInProgress) {
		t.Errorf("SetText after resume into SUBMITTING: err = %v, want ErrNotInProgress", err)
	}

	b.failErr = nil
	res, err := reloaded.Finish(ctx)
	if err != nil {
		t.Fatalf("retry Finish: %v", err)
	}
	if reloaded.State() != model.SessionCompleted {
		t.Errorf("state = %s, want COMPLETED", reloaded.State())
	}
	if ans := b.gotAns[def.Questions[1].ID]; ans.Text != "42" {
		t.Errorf("boundary received %q, want the answers frozen before the reload", ans.Text)
	}
	if res == nil || res.TotalQuestions != 3 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestResumePastDeadlineWithInFlightSubmission(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	store := NewMemoryStore()
	clk := newFakeClock()

	b := &fakeBoundary{def: def, failErr: &grading.TransportError{Err: errors.New("conn reset")}}
	e := New(def, 7, store, b, Options{Now: clk.Now})
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.SetText(ctx, def.Questions[1].ID, "42"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if _, err := e.Finish(ctx); err == nil || !grading.IsRetryable(err) {
		t.Fatalf("expected retryable transport error, got %v", err)
	}

	// The deadline passes while the network is down; the reload must not
	// start a fresh attempt over the frozen one.
	clk.Advance(11 * time.Minute)

	reloaded := New(def, 7, store, b, Options{Now: clk.Now})
	if err := reloaded.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if reloaded.State() != model.SessionSubmitting {
		t.Fatalf("state after resume = %s, want SUBMITTING", reloaded.State())
	}

	b.failErr = nil
	reloaded.Tick(ctx)
	if reloaded.State() != model.SessionCompleted {
		t.Fatalf("state after tick = %s, want COMPLETED", reloaded.State())
	}
	if ans, ok := b.gotAns[def.Questions[1].ID]; !ok || ans.Text != "42" {
		t.Errorf("boundary received %+v, want the frozen answers, not an empty set", b.gotAns)
	}
}

func TestTickRetriesFailedAutoSubmit(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	clk := newFakeClock()

	b := &fakeBoundary{def: def, failErr: &grading.TransportError{Err: errors.New("conn reset")}}
	e := New(def, 7, NewMemoryStore(), b, Options{Now: clk.Now})
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.SetText(ctx, def.Questions[1].ID, "42"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	clk.Advance(10*time.Minute + time.Second)

	// The deadline auto-submit fails in transit and stays pending.
	e.Tick(ctx)
	if e.State() != model.SessionSubmitting {
		t.Fatalf("state = %s, want SUBMITTING", e.State())
	}
	if b.calls != 1 {
		t.Fatalf("boundary called %d times, want 1", b.calls)
	}

	// Later ticks keep retrying while the boundary is down.
	e.Tick(ctx)
	if b.calls != 2 {
		t.Fatalf("boundary called %d times after second tick, want 2", b.calls)
	}

	b.failErr = nil
	e.Tick(ctx)
	if e.State() != model.SessionCompleted {
		t.Fatalf("state = %s, want COMPLETED", e.State())
	}
	if b.calls != 3 {
		t.Errorf("boundary called %d times, want 3", b.calls)
	}
	if ans := b.gotAns[def.Questions[1].ID]; ans.Text != "42" {
		t.Errorf("boundary received %q, want frozen %q", ans.Text, "42")
	}

	// Completed attempts ignore further ticks.
	e.Tick(ctx)
	if b.calls != 3 {
		t.Errorf("tick after completion called the boundary again (%d calls)", b.calls)
	}
}

func TestGoToOnEmptyPaperIsNoOp(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	def.Questions = nil

	e, _ := newTestEngine(t, def, NewMemoryStore(), newFakeClock())
	e.state = model.SessionInProgress

	if err := e.GoTo(ctx, 3); err != nil {
		t.Fatalf("GoTo on empty paper: %v", err)
	}
	if got := e.CurrentIndex(); got != 0 {
		t.Errorf("index = %d, want 0", got)
	}
}

func TestFinishClearsSnapshotAndGuards(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	store := NewMemoryStore()
	clk := newFakeClock()
	spy := &guardSpy{}

	b := &fakeBoundary{def: def}
	e := New(def, 7, store, b, Options{Now: clk.Now, Guards: []Guard{spy}})
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if spy.installs != 1 {
		t.Errorf("guard installs = %d, want 1", spy.installs)
	}

	if _, err := e.Finish(ctx); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if spy.teardowns != 1 {
		t.Errorf("guard teardowns = %d, want 1 (unconditional on completion)", spy.teardowns)
	}

	snap, err := store.Load(ctx, def.ID, 7)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap != nil {
		t.Error("snapshot must be cleared once the submission is accepted")
	}
}

func TestShuffleStableAcrossResume(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	def.RandomizeQuestionOrder = true
	def.RandomizeOptionOrder = true
	store := NewMemoryStore()
	clk := newFakeClock()

	b := &fakeBoundary{def: def}
	e := New(def, 7, store, b, Options{Now: clk.Now, Rand: rand.New(rand.NewSource(99))})
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first := e.Paper()

	// A reload must see the identical order even with a different seed.
	reloaded := New(def, 7, store, b, Options{Now: clk.Now, Rand: rand.New(rand.NewSource(1234))})
	if err := reloaded.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	second := reloaded.Paper()

	for i := range first.Questions {
		if first.Questions[i].ID != second.Questions[i].ID {
			t.Fatalf("question order changed across reload at position %d", i)
		}
		for j := range first.Questions[i].Options {
			if first.Questions[i].Options[j] != second.Questions[i].Options[j] {
				t.Fatalf("option order changed across reload for question %d", i)
			}
		}
	}
}

func TestShuffledSelectionGradesCanonically(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	def.RandomizeOptionOrder = true
	clk := newFakeClock()

	b := &fakeBoundary{def: def}
	e := New(def, 7, NewMemoryStore(), b, Options{Now: clk.Now, Rand: rand.New(rand.NewSource(5))})
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Find where the correct option "b" of question 1 landed on the paper
	// and select that displayed position.
	paper := e.Paper()
	var q1Pos int
	for i, pq := range paper.Questions {
		if pq.ID == def.Questions[0].ID {
			q1Pos = i
		}
	}
	displayed := -1
	for i, opt := range paper.Questions[q1Pos].Options {
		if opt.Text == "b" {
			displayed = i
		}
	}
	if displayed == -1 {
		t.Fatal("correct option missing from paper")
	}
	if err := e.SelectOption(ctx, def.Questions[0].ID, displayed); err != nil {
		t.Fatalf("SelectOption: %v", err)
	}

	if err := e.SetText(ctx, def.Questions[1].ID, "42"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	res, err := e.Finish(ctx)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	// q1 (1 mark) + q2 (1 mark) correct out of 4 total marks.
	if res.CorrectAnswers != 2 {
		t.Errorf("CorrectAnswers = %d, want 2 (shuffled selection must grade canonically)", res.CorrectAnswers)
	}
}

func TestOverview(t *testing.T) {
	ctx := context.Background()
	def := testDefinition()
	clk := newFakeClock()
	e, _ := newTestEngine(t, def, NewMemoryStore(), clk)
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clk.Advance(90 * time.Second)

	ov := e.Overview()
	if ov.State != model.SessionInProgress {
		t.Errorf("state = %s", ov.State)
	}
	if ov.RemainingSeconds != 510 {
		t.Errorf("remaining = %d, want 510", ov.RemainingSeconds)
	}
	if len(ov.Statuses) != 3 {
		t.Errorf("statuses len = %d, want 3", len(ov.Statuses))
	}
}
