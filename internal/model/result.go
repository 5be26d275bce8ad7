package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the grading authority's one-time scoring output for a submission.
// It is created exactly once per accepted submission and never mutated.
type Result struct {
	ExamID          uuid.UUID     `json:"exam_id"`
	CandidateID     int           `json:"candidate_id"`
	TotalQuestions  int           `json:"total_questions"`
	CorrectAnswers  int           `json:"correct_answers"`
	ScorePercentage float64       `json:"score_percentage"`
	IsPassed        bool          `json:"is_passed"`
	Answers         []AnswerAudit `json:"answers"`
	GradedAt        time.Time     `json:"graded_at"`
}

// AnswerAudit is the per-question audit trail entry of a Result: what the
// candidate submitted and how it was judged.
type AnswerAudit struct {
	QuestionID   uuid.UUID `json:"question_id"`
	Submitted    Answer    `json:"submitted"`
	Correct      bool      `json:"correct"`
	MarksAwarded int       `json:"marks_awarded"`
}
