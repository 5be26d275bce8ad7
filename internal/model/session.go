package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionState enumerates the delivery engine states.
type SessionState string

const (
	SessionNotStarted SessionState = "NOT_STARTED"
	SessionInProgress SessionState = "IN_PROGRESS"
	SessionSubmitting SessionState = "SUBMITTING"
	SessionCompleted  SessionState = "COMPLETED"
)

// QuestionStatus is the derived per-question display status. Answered and
// marked are independent flags; the derived status combines them in priority
// order for navigator rendering.
type QuestionStatus string

const (
	StatusAnsweredMarked    QuestionStatus = "answered-marked"
	StatusAnswered          QuestionStatus = "answered"
	StatusMarked            QuestionStatus = "marked"
	StatusVisitedUnanswered QuestionStatus = "visited-unanswered"
	StatusUnvisited         QuestionStatus = "unvisited"
)

// Answer captures a candidate's response to one question. Exactly one field
// is populated, matching the question kind: SelectedIndex for single-choice
// and true-false, SelectedIndexes for multiple-choice, Text for fill-blank
// and code.
type Answer struct {
	SelectedIndex   *int   `json:"selected_index,omitempty"`
	SelectedIndexes []int  `json:"selected_indexes,omitempty"`
	Text            string `json:"text,omitempty"`
}

// SessionSnapshot is the durable record of one candidate's attempt. It is
// written whole on every mutation and reloaded on resume. StartedAt is the
// only timer ground truth: remaining time is always recomputed from it, never
// persisted as a counter.
type SessionSnapshot struct {
	ExamID        uuid.UUID            `json:"exam_id"`
	CandidateID   int                  `json:"candidate_id"`
	State         SessionState         `json:"state"`
	StartedAt     time.Time            `json:"started_at"`
	CurrentIndex  int                  `json:"current_index"`
	Answers       map[uuid.UUID]Answer `json:"answers"`
	Visited       []int                `json:"visited"`
	Marked        []uuid.UUID          `json:"marked"`
	QuestionOrder []int                `json:"question_order,omitempty"`
	OptionOrder   map[uuid.UUID][]int  `json:"option_order,omitempty"`
}

// Attempt is the server-side attempt row, unique per (exam, candidate).
type Attempt struct {
	ID          uuid.UUID    `json:"id"`
	ExamID      uuid.UUID    `json:"exam_id"`
	CandidateID int          `json:"candidate_id"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
	State       SessionState `json:"state"`
}
