// Package session implements the timed delivery engine for one candidate's
// attempt at one exam: state machine, navigation, answer capture, review
// marks, deadline-derived timer, durable snapshots, and the auto-submit
// trigger. All mutations are serialized; the only asynchronous boundary is
// the grading submit call.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/certilearn/assessd-backend/internal/authoring"
	"github.com/certilearn/assessd-backend/internal/grading"
	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Engine state errors.
var (
	// ErrNotInProgress is returned when a navigation or answer mutation
	// arrives outside InProgress. While a submission is in flight the frozen
	// answer set must not diverge from what is on the wire.
	ErrNotInProgress = errors.New("session is not in progress")

	// ErrAlreadyStarted is returned by Start when the engine is past
	// NotStarted.
	ErrAlreadyStarted = errors.New("session already started")
)

// Submitter is the grading boundary. Implementations must be idempotent per
// (candidate, exam): a replayed submission returns the stored result
// unchanged.
type Submitter interface {
	Submit(ctx context.Context, examID uuid.UUID, candidateID int, answers map[uuid.UUID]model.Answer) (*model.Result, error)
}

// SnapshotStore is the durable per-attempt storage. The whole record is
// written on every mutation and reloaded on resume. Load returns (nil, nil)
// when no snapshot exists.
type SnapshotStore interface {
	Save(ctx context.Context, snap *model.SessionSnapshot) error
	Load(ctx context.Context, examID uuid.UUID, candidateID int) (*model.SessionSnapshot, error)
	Clear(ctx context.Context, examID uuid.UUID, candidateID int) error
}

// Guard is an exit-prevention hook scoped to InProgress. Guards are installed
// on entry to InProgress and torn down unconditionally on Completed. They are
// advisory UX protections; the server-side submission window is the real
// authority.
type Guard interface {
	Install(ctx context.Context) error
	Teardown(ctx context.Context)
}

// Options configures an Engine.
type Options struct {
	// Now overrides the wall clock. Nil means time.Now.
	Now func() time.Time
	// Rand seeds question/option shuffling. Nil means a time-seeded source.
	Rand *rand.Rand
	// Guards are installed while the attempt is in progress.
	Guards []Guard
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Engine drives one candidate's attempt at one exam definition. The
// definition is snapshotted at construction so later authoring edits never
// change a running attempt.
type Engine struct {
	// mu serializes every mutation. The candidate's events are already
	// sequential; the lock exists because the ticker goroutine shares the
	// engine with the request path.
	mu sync.Mutex

	def         *model.ExamDefinition
	candidateID int

	store    SnapshotStore
	boundary Submitter
	now      func() time.Time
	rnd      *rand.Rand
	guards   []Guard
	log      zerolog.Logger

	state         model.SessionState
	startedAt     time.Time
	currentIndex  int
	answers       map[uuid.UUID]model.Answer
	visited       map[int]struct{}
	marked        map[uuid.UUID]struct{}
	questionOrder []int
	optionOrder   map[uuid.UUID][]int

	frozen        map[uuid.UUID]model.Answer
	result        *model.Result
	autoSubmitted bool
	guardsActive  bool
}

// New builds an engine in NotStarted over a snapshot of def. Call Resume to
// pick up a persisted attempt, or Start to begin a fresh one.
func New(def *model.ExamDefinition, candidateID int, store SnapshotStore, boundary Submitter, opts Options) *Engine {
	e := &Engine{
		def:         snapshotDefinition(def),
		candidateID: candidateID,
		store:       store,
		boundary:    boundary,
		now:         opts.Now,
		rnd:         opts.Rand,
		guards:      opts.Guards,
		state:       model.SessionNotStarted,
		answers:     make(map[uuid.UUID]model.Answer),
		visited:     make(map[int]struct{}),
		marked:      make(map[uuid.UUID]struct{}),
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.rnd == nil {
		e.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger != nil {
		e.log = opts.Logger.With().
			Str("component", "session_engine").
			Str("exam_id", def.ID.String()).
			Int("candidate_id", candidateID).
			Logger()
	} else {
		e.log = zerolog.Nop()
	}
	return e
}

// snapshotDefinition deep-copies the definition so the engine is immune to
// later edits of the authored exam.
func snapshotDefinition(def *model.ExamDefinition) *model.ExamDefinition {
	cp := *def
	cp.Questions = make([]model.Question, len(def.Questions))
	copy(cp.Questions, def.Questions)
	for i := range cp.Questions {
		if n := len(def.Questions[i].Options); n > 0 {
			cp.Questions[i].Options = make([]model.Option, n)
			copy(cp.Questions[i].Options, def.Questions[i].Options)
		}
		if n := len(def.Questions[i].CorrectMultiIndexes); n > 0 {
			cp.Questions[i].CorrectMultiIndexes = make([]int, n)
			copy(cp.Questions[i].CorrectMultiIndexes, def.Questions[i].CorrectMultiIndexes)
		}
	}
	return &cp
}

// State returns the current machine state.
func (e *Engine) State() model.SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Result returns the grading result after a successful submit, or nil.
func (e *Engine) Result() *model.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

// CurrentIndex returns the candidate's current question position.
func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentIndex
}

// StartedAt returns the persisted attempt start time.
func (e *Engine) StartedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startedAt
}

// Resume loads a persisted snapshot if one exists. With no snapshot the
// engine stays in NotStarted and an explicit Start is required: there is no
// silent resume into an exam the candidate never started. A snapshot left in
// Submitting means the process died with a submission in flight; the persisted
// answers are adopted as the frozen set and the engine stays in Submitting so
// Finish or the ticker can retry them. An InProgress snapshot whose recomputed
// remaining time is zero is auto-submitted instead of resuming interactively.
func (e *Engine) Resume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != model.SessionNotStarted {
		return ErrAlreadyStarted
	}

	snap, err := e.store.Load(ctx, e.def.ID, e.candidateID)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return nil
	}
	if snap.State != model.SessionInProgress && snap.State != model.SessionSubmitting {
		return nil
	}

	e.startedAt = snap.StartedAt
	e.currentIndex = snap.CurrentIndex
	e.questionOrder = snap.QuestionOrder
	e.optionOrder = snap.OptionOrder
	e.answers = make(map[uuid.UUID]model.Answer, len(snap.Answers))
	for id, a := range snap.Answers {
		e.answers[id] = a
	}
	for _, idx := range snap.Visited {
		if idx >= 0 && idx < len(e.def.Questions) {
			e.visited[idx] = struct{}{}
		}
	}
	for _, id := range snap.Marked {
		e.marked[id] = struct{}{}
	}

	if snap.State == model.SessionSubmitting {
		// Mutations are rejected once a submission is frozen, so the
		// persisted answers are exactly the set that was on the wire.
		e.frozen = make(map[uuid.UUID]model.Answer, len(e.answers))
		for id, a := range e.answers {
			e.frozen[id] = a
		}
		e.state = model.SessionSubmitting
		e.log.Info().Msg("Resumed with submission in flight, retry pending")
		return nil
	}

	e.state = model.SessionInProgress

	if e.remaining() <= 0 {
		e.log.Info().Msg("Resumed past deadline, auto-submitting")
		e.autoSubmitted = true
		_, err := e.finish(ctx)
		return err
	}

	e.installGuards(ctx)
	e.log.Info().Int("current_index", e.currentIndex).Msg("Attempt resumed")
	return nil
}

// Start begins a fresh attempt anchored on the local clock. The definition
// must be publishable; an unpublishable one fails with
// *authoring.ErrNotPublishable and the machine stays in NotStarted.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.start(ctx, e.now().UTC())
}

// AdoptStart begins the attempt anchored at an externally persisted start
// time, typically the attempt row written when the candidate first joined.
// The timer then counts from that moment, so a reconnect that lost its
// snapshot cannot restart the clock. A start whose window has already closed
// is auto-submitted immediately.
func (e *Engine) AdoptStart(ctx context.Context, startedAt time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.start(ctx, startedAt.UTC()); err != nil {
		return err
	}
	if e.remaining() <= 0 {
		e.log.Info().Msg("Adopted start past deadline, auto-submitting")
		e.autoSubmitted = true
		_, err := e.finish(ctx)
		return err
	}
	return nil
}

func (e *Engine) start(ctx context.Context, startedAt time.Time) error {
	if e.state != model.SessionNotStarted {
		return ErrAlreadyStarted
	}
	if err := authoring.Publishable(e.def); err != nil {
		return err
	}

	e.startedAt = startedAt
	e.currentIndex = 0
	e.visited[0] = struct{}{}
	e.shuffle()
	e.state = model.SessionInProgress

	if err := e.persist(ctx); err != nil {
		// Roll back: an attempt whose start was never made durable must not
		// run, or a reload would silently grant a fresh timer.
		e.state = model.SessionNotStarted
		delete(e.visited, 0)
		return fmt.Errorf("persist start: %w", err)
	}

	e.installGuards(ctx)
	e.log.Info().Time("started_at", e.startedAt).Msg("Attempt started")
	return nil
}

// shuffle derives the question and option permutations once at start. They
// live in the snapshot so reloads keep the same order.
func (e *Engine) shuffle() {
	n := len(e.def.Questions)
	if e.def.RandomizeQuestionOrder {
		e.questionOrder = e.rnd.Perm(n)
	}
	if e.def.RandomizeOptionOrder {
		e.optionOrder = make(map[uuid.UUID][]int, n)
		for i := range e.def.Questions {
			q := &e.def.Questions[i]
			switch q.Kind {
			case model.KindSingleChoice, model.KindMultipleChoice:
				e.optionOrder[q.ID] = e.rnd.Perm(len(q.Options))
			}
		}
	}
}

// RemainingSeconds recomputes remaining time from the persisted start. It is
// never served from an in-memory counter, so reloads and suspensions cannot
// stretch the deadline.
func (e *Engine) RemainingSeconds() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == model.SessionNotStarted {
		return e.def.DurationMinutes * 60
	}
	return e.remaining()
}

func (e *Engine) remaining() int {
	elapsed := int(e.now().UTC().Sub(e.startedAt).Seconds())
	left := e.def.DurationMinutes*60 - elapsed
	if left < 0 {
		return 0
	}
	return left
}

// Deadline returns the authoritative end of the attempt window.
func (e *Engine) Deadline() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.startedAt.Add(e.def.Duration())
}

// Tick recomputes remaining time and triggers auto-submit exactly once when
// it reaches zero. While a submission that failed in transit sits in
// Submitting, each tick retries it; the frozen set and the idempotent
// boundary keep the retry equivalent to the first send. Extra ticks after
// completion are no-ops.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case model.SessionInProgress:
		if e.remaining() > 0 || e.autoSubmitted {
			return
		}
		e.autoSubmitted = true
		e.log.Info().Msg("Time expired, auto-submitting")
		if _, err := e.finish(ctx); err != nil {
			e.log.Error().Err(err).Msg("Auto-submit failed")
		}
	case model.SessionSubmitting:
		if _, err := e.finish(ctx); err != nil {
			e.log.Warn().Err(err).Msg("Submit retry failed")
		}
	}
}

// GoTo moves the current position. Out-of-range indexes are clamped, never an
// error.
func (e *Engine) GoTo(ctx context.Context, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != model.SessionInProgress {
		return ErrNotInProgress
	}
	if len(e.def.Questions) == 0 {
		return nil
	}
	if index < 0 {
		index = 0
	}
	if max := len(e.def.Questions) - 1; index > max {
		index = max
	}
	if index == e.currentIndex {
		if _, seen := e.visited[index]; seen {
			return nil
		}
	}
	e.currentIndex = index
	e.visited[index] = struct{}{}
	return e.persist(ctx)
}

// SelectOption records a single-choice or true-false answer. The index is a
// paper (display) index; with option shuffling active it is translated back
// to the authored option. Reselecting the same value is a no-op.
func (e *Engine) SelectOption(ctx context.Context, questionID uuid.UUID, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != model.SessionInProgress {
		return ErrNotInProgress
	}
	q := e.def.QuestionByID(questionID)
	if q == nil {
		return fmt.Errorf("unknown question %s", questionID)
	}
	if q.Kind != model.KindSingleChoice && q.Kind != model.KindTrueFalse {
		return fmt.Errorf("question %s takes no single selection", questionID)
	}
	if index < 0 || index >= len(q.Options) {
		return fmt.Errorf("option index %d out of range", index)
	}

	canonical := e.canonicalIndex(questionID, index)
	if prev, ok := e.answers[questionID]; ok && prev.SelectedIndex != nil && *prev.SelectedIndex == canonical {
		return nil
	}
	e.answers[questionID] = model.Answer{SelectedIndex: &canonical}
	return e.persist(ctx)
}

// SelectOptions records a multiple-choice answer, overwriting any prior set.
func (e *Engine) SelectOptions(ctx context.Context, questionID uuid.UUID, indexes []int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != model.SessionInProgress {
		return ErrNotInProgress
	}
	q := e.def.QuestionByID(questionID)
	if q == nil {
		return fmt.Errorf("unknown question %s", questionID)
	}
	if q.Kind != model.KindMultipleChoice {
		return fmt.Errorf("question %s takes no multi selection", questionID)
	}

	canonical := make([]int, 0, len(indexes))
	seen := make(map[int]struct{}, len(indexes))
	for _, idx := range indexes {
		if idx < 0 || idx >= len(q.Options) {
			return fmt.Errorf("option index %d out of range", idx)
		}
		c := e.canonicalIndex(questionID, idx)
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		canonical = append(canonical, c)
	}
	sort.Ints(canonical)

	if prev, ok := e.answers[questionID]; ok && equalInts(prev.SelectedIndexes, canonical) {
		return nil
	}
	e.answers[questionID] = model.Answer{SelectedIndexes: canonical}
	return e.persist(ctx)
}

// SetText records a fill-blank or code answer.
func (e *Engine) SetText(ctx context.Context, questionID uuid.UUID, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != model.SessionInProgress {
		return ErrNotInProgress
	}
	q := e.def.QuestionByID(questionID)
	if q == nil {
		return fmt.Errorf("unknown question %s", questionID)
	}
	if q.Kind != model.KindFillBlank && q.Kind != model.KindCode {
		return fmt.Errorf("question %s takes no text answer", questionID)
	}
	if prev, ok := e.answers[questionID]; ok && prev.Text == text {
		return nil
	}
	e.answers[questionID] = model.Answer{Text: text}
	return e.persist(ctx)
}

// ClearAnswer removes the answer for a question, reverting its derived status
// to unanswered.
func (e *Engine) ClearAnswer(ctx context.Context, questionID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != model.SessionInProgress {
		return ErrNotInProgress
	}
	if _, ok := e.answers[questionID]; !ok {
		return nil
	}
	delete(e.answers, questionID)
	return e.persist(ctx)
}

// ToggleMark flips the review mark independent of answer state.
func (e *Engine) ToggleMark(ctx context.Context, questionID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != model.SessionInProgress {
		return ErrNotInProgress
	}
	if e.def.QuestionByID(questionID) == nil {
		return fmt.Errorf("unknown question %s", questionID)
	}
	if _, ok := e.marked[questionID]; ok {
		delete(e.marked, questionID)
	} else {
		e.marked[questionID] = struct{}{}
	}
	return e.persist(ctx)
}

// QuestionStatus derives the navigator status for the question at a paper
// position.
func (e *Engine) QuestionStatus(index int) model.QuestionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.questionStatusLocked(index)
}

func (e *Engine) questionStatusLocked(index int) model.QuestionStatus {
	if index < 0 || index >= len(e.def.Questions) {
		return model.StatusUnvisited
	}
	q := &e.def.Questions[e.defIndex(index)]
	_, answered := e.answers[q.ID]
	_, marked := e.marked[q.ID]
	_, visited := e.visited[index]

	switch {
	case answered && marked:
		return model.StatusAnsweredMarked
	case answered:
		return model.StatusAnswered
	case marked:
		return model.StatusMarked
	case visited:
		return model.StatusVisitedUnanswered
	default:
		return model.StatusUnvisited
	}
}

// Finish submits the attempt. Callable manually from InProgress, or again
// from Submitting to retry after a transport failure; the answer set frozen
// by the first call is reused so a retry can never diverge from what was
// first sent.
func (e *Engine) Finish(ctx context.Context) (*model.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case model.SessionInProgress, model.SessionSubmitting:
		return e.finish(ctx)
	case model.SessionCompleted:
		return e.result, nil
	default:
		return nil, ErrNotInProgress
	}
}

func (e *Engine) finish(ctx context.Context) (*model.Result, error) {
	if e.frozen == nil {
		e.frozen = make(map[uuid.UUID]model.Answer, len(e.answers))
		for id, a := range e.answers {
			e.frozen[id] = a
		}
	}
	e.state = model.SessionSubmitting
	if err := e.persist(ctx); err != nil {
		e.log.Warn().Err(err).Msg("Persist of submitting state failed")
	}

	res, err := e.boundary.Submit(ctx, e.def.ID, e.candidateID, e.frozen)
	if err != nil {
		if grading.IsRetryable(err) {
			// Stay in Submitting with the frozen answers; the candidate may
			// retry without losing the attempt.
			e.log.Warn().Err(err).Msg("Submit transport failure, attempt retryable")
			return nil, err
		}
		// Non-retryable boundary failure: the attempt is over with no result
		// recorded. Never leave a wrong result behind.
		e.log.Error().Err(err).Msg("Submit rejected, attempt closed without result")
		e.complete(ctx, nil)
		return nil, err
	}

	e.complete(ctx, res)
	e.log.Info().
		Float64("score", res.ScorePercentage).
		Bool("passed", res.IsPassed).
		Msg("Attempt completed")
	return res, nil
}

// complete transitions to Completed, clears the persisted snapshot, and
// tears down guards unconditionally.
func (e *Engine) complete(ctx context.Context, res *model.Result) {
	e.state = model.SessionCompleted
	e.result = res
	if err := e.store.Clear(ctx, e.def.ID, e.candidateID); err != nil {
		e.log.Warn().Err(err).Msg("Clear snapshot failed")
	}
	e.teardownGuards(ctx)
}

func (e *Engine) installGuards(ctx context.Context) {
	if e.guardsActive {
		return
	}
	for _, g := range e.guards {
		if err := g.Install(ctx); err != nil {
			e.log.Warn().Err(err).Msg("Guard install failed")
		}
	}
	e.guardsActive = true
}

func (e *Engine) teardownGuards(ctx context.Context) {
	if !e.guardsActive {
		return
	}
	for _, g := range e.guards {
		g.Teardown(ctx)
	}
	e.guardsActive = false
}

// persist writes the whole session record. StartedAt goes along unchanged;
// remaining time is never stored.
func (e *Engine) persist(ctx context.Context) error {
	snap := &model.SessionSnapshot{
		ExamID:        e.def.ID,
		CandidateID:   e.candidateID,
		State:         e.state,
		StartedAt:     e.startedAt,
		CurrentIndex:  e.currentIndex,
		Answers:       make(map[uuid.UUID]model.Answer, len(e.answers)),
		Visited:       make([]int, 0, len(e.visited)),
		Marked:        make([]uuid.UUID, 0, len(e.marked)),
		QuestionOrder: e.questionOrder,
		OptionOrder:   e.optionOrder,
	}
	for id, a := range e.answers {
		snap.Answers[id] = a
	}
	for idx := range e.visited {
		snap.Visited = append(snap.Visited, idx)
	}
	sort.Ints(snap.Visited)
	for id := range e.marked {
		snap.Marked = append(snap.Marked, id)
	}
	return e.store.Save(ctx, snap)
}

// defIndex maps a paper position to the authored question index.
func (e *Engine) defIndex(pos int) int {
	if e.questionOrder == nil || pos >= len(e.questionOrder) {
		return pos
	}
	return e.questionOrder[pos]
}

// canonicalIndex maps a displayed option index back to the authored one.
func (e *Engine) canonicalIndex(questionID uuid.UUID, displayed int) int {
	perm, ok := e.optionOrder[questionID]
	if !ok || displayed >= len(perm) {
		return displayed
	}
	return perm[displayed]
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
