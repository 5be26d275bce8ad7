package session

import (
	"github.com/certilearn/assessd-backend/internal/model"
)

// Paper renders the candidate-facing view of the attempt: questions in the
// session's (possibly shuffled) order, options in the session's (possibly
// shuffled) order, and never any correct answer.
func (e *Engine) Paper() *model.ExamPaper {
	e.mu.Lock()
	defer e.mu.Unlock()

	paper := &model.ExamPaper{
		ExamID:          e.def.ID,
		Title:           e.def.Title,
		DurationMinutes: e.def.DurationMinutes,
		Questions:       make([]model.QuestionForCandidate, 0, len(e.def.Questions)),
	}

	for pos := range e.def.Questions {
		q := &e.def.Questions[e.defIndex(pos)]
		fc := model.QuestionForCandidate{
			ID:       q.ID,
			Text:     q.Text,
			Kind:     q.Kind,
			Marks:    q.Marks,
			OrderNum: pos,
		}
		if len(q.Options) > 0 {
			perm, shuffled := e.optionOrder[q.ID]
			fc.Options = make([]model.Option, len(q.Options))
			for i := range q.Options {
				if shuffled && i < len(perm) {
					fc.Options[i] = q.Options[perm[i]]
				} else {
					fc.Options[i] = q.Options[i]
				}
			}
		}
		paper.Questions = append(paper.Questions, fc)
	}

	return paper
}

// Overview summarizes the attempt for state/resume endpoints.
type Overview struct {
	State            model.SessionState      `json:"state"`
	CurrentIndex     int                     `json:"current_index"`
	RemainingSeconds int                     `json:"remaining_seconds"`
	Statuses         []model.QuestionStatus  `json:"statuses"`
	Answers          map[string]model.Answer `json:"answers"`
}

// Snapshot of the live attempt for the candidate UI. Answers are keyed by
// question ID string for JSON friendliness.
func (e *Engine) Overview() Overview {
	e.mu.Lock()
	defer e.mu.Unlock()

	ov := Overview{
		State:        e.state,
		CurrentIndex: e.currentIndex,
		Statuses:     make([]model.QuestionStatus, len(e.def.Questions)),
		Answers:      make(map[string]model.Answer, len(e.answers)),
	}
	if e.state != model.SessionNotStarted {
		ov.RemainingSeconds = e.remaining()
	} else {
		ov.RemainingSeconds = e.def.DurationMinutes * 60
	}
	for pos := range e.def.Questions {
		ov.Statuses[pos] = e.questionStatusLocked(pos)
	}
	for id, a := range e.answers {
		ov.Answers[id.String()] = a
	}
	return ov
}
