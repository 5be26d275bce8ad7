package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam definition.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusArchived  ExamStatus = "ARCHIVED"
)

// ExamDefinition is the authored policy and question set for one assessment.
// Once a candidate has started an attempt the delivery engine works from a
// snapshot of this definition, so later edits never change a running attempt.
type ExamDefinition struct {
	ID                     uuid.UUID  `json:"id"`
	Title                  string     `json:"title"`
	AuthorID               int        `json:"author_id"`
	DurationMinutes        int        `json:"duration_minutes"`
	PassingScorePercent    int        `json:"passing_score_percent"`
	RandomizeQuestionOrder bool       `json:"randomize_question_order"`
	RandomizeOptionOrder   bool       `json:"randomize_option_order"`
	Status                 ExamStatus `json:"status"`
	Questions              []Question `json:"questions,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// QuestionCount returns the number of questions in the definition.
func (d *ExamDefinition) QuestionCount() int { return len(d.Questions) }

// Duration returns the exam time limit as a time.Duration.
func (d *ExamDefinition) Duration() time.Duration {
	return time.Duration(d.DurationMinutes) * time.Minute
}

// QuestionByID returns the question with the given ID, or nil.
func (d *ExamDefinition) QuestionByID(id uuid.UUID) *Question {
	for i := range d.Questions {
		if d.Questions[i].ID == id {
			return &d.Questions[i]
		}
	}
	return nil
}

// CreateExamRequest is the payload for creating a new exam definition.
type CreateExamRequest struct {
	Title                  string `json:"title" binding:"required,min=3,max=255"`
	DurationMinutes        int    `json:"duration_minutes" binding:"required,min=1,max=480"`
	PassingScorePercent    int    `json:"passing_score_percent" binding:"min=0,max=100"`
	RandomizeQuestionOrder bool   `json:"randomize_question_order"`
	RandomizeOptionOrder   bool   `json:"randomize_option_order"`
}

// UpdateExamRequest is the payload for updating a draft exam definition.
type UpdateExamRequest struct {
	Title                  string `json:"title" binding:"omitempty,min=3,max=255"`
	DurationMinutes        int    `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	PassingScorePercent    *int   `json:"passing_score_percent" binding:"omitempty,min=0,max=100"`
	RandomizeQuestionOrder *bool  `json:"randomize_question_order" binding:"omitempty"`
	RandomizeOptionOrder   *bool  `json:"randomize_option_order" binding:"omitempty"`
}

// ExamPaper is the candidate-facing payload cached in Redis. It never carries
// correct answers.
type ExamPaper struct {
	ExamID          uuid.UUID              `json:"exam_id"`
	Title           string                 `json:"title"`
	DurationMinutes int                    `json:"duration_minutes"`
	Questions       []QuestionForCandidate `json:"questions"`
}

// QuestionForCandidate is a question stripped of its correct answer.
type QuestionForCandidate struct {
	ID       uuid.UUID    `json:"id"`
	Text     string       `json:"text"`
	Kind     QuestionKind `json:"kind"`
	Options  []Option     `json:"options,omitempty"`
	Marks    int          `json:"marks"`
	OrderNum int          `json:"order_num"`
}
