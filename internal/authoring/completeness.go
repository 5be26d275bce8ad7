// Package authoring holds the completeness and consistency rules a question
// must satisfy before it is exam-ready. The predicates are pure so authoring
// UIs can re-evaluate them on every edit for live completeness counts.
package authoring

import (
	"fmt"
	"strings"

	"github.com/certilearn/assessd-backend/internal/model"
)

// ErrNotPublishable is returned when an exam definition contains incomplete
// questions and therefore may not be published or started.
type ErrNotPublishable struct {
	ExamTitle  string
	Incomplete int
	Total      int
}

func (e *ErrNotPublishable) Error() string {
	return fmt.Sprintf("exam %q is not publishable: %d of %d questions incomplete",
		e.ExamTitle, e.Incomplete, e.Total)
}

// IsComplete reports whether a question carries everything needed to deliver
// and grade it. Per kind:
//   - single-choice / multiple-choice: prompt and every option text non-blank
//   - fill-blank / code: prompt and expected answer non-blank
//   - true-false: only the prompt matters, options are fixed
func IsComplete(q *model.Question) bool {
	if strings.TrimSpace(q.Text) == "" {
		return false
	}

	switch q.Kind {
	case model.KindSingleChoice, model.KindMultipleChoice:
		if len(q.Options) < 2 {
			return false
		}
		for _, opt := range q.Options {
			if strings.TrimSpace(opt.Text) == "" {
				return false
			}
		}
		return true
	case model.KindTrueFalse:
		return true
	case model.KindFillBlank, model.KindCode:
		return strings.TrimSpace(q.CorrectText) != ""
	default:
		return false
	}
}

// CompletenessReport summarizes an exam definition for authoring UIs.
type CompletenessReport struct {
	Total        int      `json:"total"`
	Complete     int      `json:"complete"`
	IncompleteID []string `json:"incomplete_ids,omitempty"`
	Publishable  bool     `json:"publishable"`
}

// Report evaluates every question of a definition.
func Report(def *model.ExamDefinition) CompletenessReport {
	rep := CompletenessReport{Total: len(def.Questions)}
	for i := range def.Questions {
		if IsComplete(&def.Questions[i]) {
			rep.Complete++
		} else {
			rep.IncompleteID = append(rep.IncompleteID, def.Questions[i].ID.String())
		}
	}
	rep.Publishable = rep.Total > 0 && rep.Complete == rep.Total
	return rep
}

// Publishable returns nil when every question of the definition is complete
// and there is at least one question. Otherwise it returns *ErrNotPublishable.
func Publishable(def *model.ExamDefinition) error {
	rep := Report(def)
	if rep.Publishable {
		return nil
	}
	return &ErrNotPublishable{
		ExamTitle:  def.Title,
		Incomplete: rep.Total - rep.Complete,
		Total:      rep.Total,
	}
}

// Validate checks the structural invariants of a question beyond completeness:
// option counts, correct-answer indexes in range, and the fixed True/False
// pair. Authoring endpoints call this before persisting; completeness alone
// decides publishability.
func Validate(q *model.Question) error {
	if q.Marks < 1 {
		return fmt.Errorf("marks must be a positive integer, got %d", q.Marks)
	}

	switch q.Kind {
	case model.KindSingleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("single-choice requires at least 2 options, got %d", len(q.Options))
		}
		if q.CorrectSingleIndex < 0 || q.CorrectSingleIndex >= len(q.Options) {
			return fmt.Errorf("correct_single_index %d out of range [0,%d)", q.CorrectSingleIndex, len(q.Options))
		}
	case model.KindMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("multiple-choice requires at least 2 options, got %d", len(q.Options))
		}
		if len(q.CorrectMultiIndexes) == 0 {
			return fmt.Errorf("multiple-choice requires at least one correct index")
		}
		seen := make(map[int]struct{}, len(q.CorrectMultiIndexes))
		for _, idx := range q.CorrectMultiIndexes {
			if idx < 0 || idx >= len(q.Options) {
				return fmt.Errorf("correct_multi_indexes entry %d out of range [0,%d)", idx, len(q.Options))
			}
			if _, dup := seen[idx]; dup {
				return fmt.Errorf("correct_multi_indexes entry %d duplicated", idx)
			}
			seen[idx] = struct{}{}
		}
	case model.KindTrueFalse:
		if len(q.Options) != 2 || q.Options[0].Text != "True" || q.Options[1].Text != "False" {
			return fmt.Errorf("true-false options must be exactly [True, False]")
		}
		if q.CorrectSingleIndex != 0 && q.CorrectSingleIndex != 1 {
			return fmt.Errorf("true-false correct_single_index must be 0 or 1, got %d", q.CorrectSingleIndex)
		}
	case model.KindFillBlank, model.KindCode:
		if len(q.Options) != 0 {
			return fmt.Errorf("%s questions must not carry options", q.Kind)
		}
	default:
		return fmt.Errorf("unknown question kind %q", q.Kind)
	}

	return nil
}
