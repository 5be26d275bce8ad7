// Package grading implements the submission and grading protocol: the pure
// scoring rules and the authority service that enforces the at-most-one-
// scored-attempt invariant and the server-side submission window.
package grading

import (
	"strings"
	"time"

	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/google/uuid"
)

// Grade scores a frozen answer set against an exam definition. It is a pure
// function of its inputs (apart from the GradedAt stamp) so the same
// submission always produces the same result.
func Grade(def *model.ExamDefinition, answers map[uuid.UUID]model.Answer) *model.Result {
	res := &model.Result{
		ExamID:         def.ID,
		TotalQuestions: len(def.Questions),
		Answers:        make([]model.AnswerAudit, 0, len(def.Questions)),
		GradedAt:       time.Now().UTC(),
	}

	marksTotal := 0
	marksCorrect := 0

	for i := range def.Questions {
		q := &def.Questions[i]
		marksTotal += q.Marks

		ans, answered := answers[q.ID]
		correct := answered && questionCorrect(q, ans)

		audit := model.AnswerAudit{
			QuestionID: q.ID,
			Submitted:  ans,
			Correct:    correct,
		}
		if correct {
			audit.MarksAwarded = q.Marks
			marksCorrect += q.Marks
			res.CorrectAnswers++
		}
		res.Answers = append(res.Answers, audit)
	}

	if marksTotal > 0 {
		res.ScorePercentage = 100 * float64(marksCorrect) / float64(marksTotal)
	}
	res.IsPassed = res.ScorePercentage >= float64(def.PassingScorePercent)
	return res
}

// questionCorrect judges a single answer against its question, switching
// exhaustively on the kind tag.
func questionCorrect(q *model.Question, ans model.Answer) bool {
	switch q.Kind {
	case model.KindSingleChoice, model.KindTrueFalse:
		return ans.SelectedIndex != nil && *ans.SelectedIndex == q.CorrectSingleIndex
	case model.KindMultipleChoice:
		return sameIndexSet(ans.SelectedIndexes, q.CorrectMultiIndexes)
	case model.KindFillBlank:
		return textEqual(q.CorrectText, ans.Text, q.CaseSensitive)
	case model.KindCode:
		// Plain source comparison. Execution-based grading is an extension
		// point for a future authority implementation.
		return textEqual(q.CorrectText, ans.Text, true)
	default:
		return false
	}
}

// sameIndexSet reports whether the two index slices contain exactly the same
// set of values. A superset or subset selection is wrong.
func sameIndexSet(got, want []int) bool {
	if len(got) != len(want) || len(want) == 0 {
		return false
	}
	set := make(map[int]struct{}, len(want))
	for _, idx := range want {
		set[idx] = struct{}{}
	}
	for _, idx := range got {
		if _, ok := set[idx]; !ok {
			return false
		}
		delete(set, idx)
	}
	return len(set) == 0
}

// textEqual compares a submitted text answer against the expected one. Both
// sides are whitespace-trimmed; when caseSensitive is false they are folded
// to the same case first.
func textEqual(correct, submitted string, caseSensitive bool) bool {
	a := strings.TrimSpace(correct)
	b := strings.TrimSpace(submitted)
	if a == "" {
		return false
	}
	if caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}
