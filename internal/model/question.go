package model

import (
	"github.com/google/uuid"
)

// QuestionKind enumerates the supported assessment item types.
type QuestionKind string

const (
	KindSingleChoice   QuestionKind = "single-choice"
	KindMultipleChoice QuestionKind = "multiple-choice"
	KindTrueFalse      QuestionKind = "true-false"
	KindFillBlank      QuestionKind = "fill-blank"
	KindCode           QuestionKind = "code"
)

// TrueFalseOptions is the fixed option pair every true-false question carries.
var TrueFalseOptions = []Option{{Text: "True"}, {Text: "False"}}

// Option is a single selectable choice of a question.
type Option struct {
	Text string `json:"text"`
}

// Question is one assessment item. Which correct-answer field is meaningful
// depends on Kind: CorrectSingleIndex for single-choice and true-false,
// CorrectMultiIndexes for multiple-choice, CorrectText for fill-blank and
// code. Grading ignores the inactive fields.
type Question struct {
	ID                  uuid.UUID    `json:"id"`
	ExamID              uuid.UUID    `json:"exam_id"`
	Text                string       `json:"text"`
	Kind                QuestionKind `json:"kind"`
	Options             []Option     `json:"options,omitempty"`
	CorrectSingleIndex  int          `json:"correct_single_index,omitempty"`
	CorrectMultiIndexes []int        `json:"correct_multi_indexes,omitempty"`
	CorrectText         string       `json:"correct_text,omitempty"`
	CaseSensitive       bool         `json:"case_sensitive,omitempty"`
	Marks               int          `json:"marks"`
	OrderNum            int          `json:"order_num"`
}

// AddQuestionRequest is the payload for adding a question to an exam.
type AddQuestionRequest struct {
	Text                string   `json:"text" binding:"required,min=1,max=4000"`
	Kind                string   `json:"kind" binding:"required,oneof=single-choice multiple-choice true-false fill-blank code"`
	Options             []Option `json:"options" binding:"omitempty,dive"`
	CorrectSingleIndex  *int     `json:"correct_single_index" binding:"omitempty,min=0"`
	CorrectMultiIndexes []int    `json:"correct_multi_indexes" binding:"omitempty,dive,min=0"`
	CorrectText         string   `json:"correct_text" binding:"omitempty,max=10000"`
	CaseSensitive       bool     `json:"case_sensitive"`
	Marks               int      `json:"marks" binding:"omitempty,min=1"`
	OrderNum            int      `json:"order_num" binding:"min=0"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing an exam's questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"dive"`
}
