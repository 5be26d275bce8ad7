package grading

import (
	"testing"

	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/google/uuid"
)

func idx(i int) *int { return &i }

func TestQuestionCorrectSingleChoice(t *testing.T) {
	q := &model.Question{
		Kind:               model.KindSingleChoice,
		Options:            []model.Option{{Text: "a"}, {Text: "b"}, {Text: "c"}},
		CorrectSingleIndex: 1,
		Marks:              1,
	}

	if !questionCorrect(q, model.Answer{SelectedIndex: idx(1)}) {
		t.Error("index 1 should be correct")
	}
	if questionCorrect(q, model.Answer{SelectedIndex: idx(0)}) {
		t.Error("index 0 should be wrong")
	}
	if questionCorrect(q, model.Answer{}) {
		t.Error("no selection should be wrong")
	}
}

func TestQuestionCorrectMultipleChoice(t *testing.T) {
	q := &model.Question{
		Kind:                model.KindMultipleChoice,
		Options:             []model.Option{{Text: "a"}, {Text: "b"}, {Text: "c"}},
		CorrectMultiIndexes: []int{0, 2},
		Marks:               1,
	}

	tests := []struct {
		name     string
		selected []int
		want     bool
	}{
		{"exact set", []int{0, 2}, true},
		{"exact set reordered", []int{2, 0}, true},
		{"subset", []int{0}, false},
		{"superset", []int{0, 1, 2}, false},
		{"disjoint", []int{1}, false},
		{"empty", nil, false},
		{"duplicate entries do not fake the set", []int{0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := questionCorrect(q, model.Answer{SelectedIndexes: tt.selected})
			if got != tt.want {
				t.Errorf("selected %v: got %v, want %v", tt.selected, got, tt.want)
			}
		})
	}
}

func TestQuestionCorrectFillBlank(t *testing.T) {
	insensitive := &model.Question{Kind: model.KindFillBlank, CorrectText: "Paris", Marks: 1}
	sensitive := &model.Question{Kind: model.KindFillBlank, CorrectText: "Paris", CaseSensitive: true, Marks: 1}

	tests := []struct {
		name string
		q    *model.Question
		text string
		want bool
	}{
		{"insensitive lower", insensitive, "paris", true},
		{"insensitive padded", insensitive, "  Paris  ", true},
		{"insensitive wrong", insensitive, "London", false},
		{"sensitive exact", sensitive, "Paris", true},
		{"sensitive lower rejected", sensitive, "paris", false},
		{"sensitive padded accepted", sensitive, " Paris ", true},
		{"empty submission", insensitive, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := questionCorrect(tt.q, model.Answer{Text: tt.text})
			if got != tt.want {
				t.Errorf("text %q: got %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestQuestionCorrectCode(t *testing.T) {
	q := &model.Question{Kind: model.KindCode, CorrectText: "fmt.Println(42)", Marks: 1}

	if !questionCorrect(q, model.Answer{Text: "fmt.Println(42)\n"}) {
		t.Error("trailing newline should not matter")
	}
	if questionCorrect(q, model.Answer{Text: "FMT.PRINTLN(42)"}) {
		t.Error("code comparison is case sensitive")
	}
}

func TestGradeEndToEnd(t *testing.T) {
	// Two questions: Q1 single-choice (correct index 1), Q2 fill-blank "42"
	// case-insensitive. Full marks → 100%, passed at threshold 50.
	q1 := model.Question{ID: uuid.New(), Text: "pick", Kind: model.KindSingleChoice,
		Options: []model.Option{{Text: "a"}, {Text: "b"}}, CorrectSingleIndex: 1, Marks: 1}
	q2 := model.Question{ID: uuid.New(), Text: "answer?", Kind: model.KindFillBlank,
		CorrectText: "42", Marks: 1}

	def := &model.ExamDefinition{
		ID:                  uuid.New(),
		DurationMinutes:     10,
		PassingScorePercent: 50,
		Questions:           []model.Question{q1, q2},
	}

	answers := map[uuid.UUID]model.Answer{
		q1.ID: {SelectedIndex: idx(1)},
		q2.ID: {Text: "42"},
	}

	res := Grade(def, answers)
	if res.TotalQuestions != 2 {
		t.Errorf("TotalQuestions = %d, want 2", res.TotalQuestions)
	}
	if res.CorrectAnswers != 2 {
		t.Errorf("CorrectAnswers = %d, want 2", res.CorrectAnswers)
	}
	if res.ScorePercentage != 100 {
		t.Errorf("ScorePercentage = %v, want 100", res.ScorePercentage)
	}
	if !res.IsPassed {
		t.Error("IsPassed = false, want true")
	}
	if len(res.Answers) != 2 {
		t.Fatalf("audit trail has %d entries, want 2", len(res.Answers))
	}
	for _, a := range res.Answers {
		if !a.Correct || a.MarksAwarded != 1 {
			t.Errorf("audit entry %v: correct=%v marks=%d", a.QuestionID, a.Correct, a.MarksAwarded)
		}
	}
}

func TestGradeMarksWeighting(t *testing.T) {
	q1 := model.Question{ID: uuid.New(), Text: "easy", Kind: model.KindTrueFalse,
		Options: model.TrueFalseOptions, CorrectSingleIndex: 0, Marks: 1}
	q2 := model.Question{ID: uuid.New(), Text: "hard", Kind: model.KindFillBlank,
		CorrectText: "x", Marks: 3}

	def := &model.ExamDefinition{
		ID:                  uuid.New(),
		PassingScorePercent: 80,
		Questions:           []model.Question{q1, q2},
	}

	// Only the 1-mark question correct: 1/4 marks = 25%.
	res := Grade(def, map[uuid.UUID]model.Answer{q1.ID: {SelectedIndex: idx(0)}})
	if res.ScorePercentage != 25 {
		t.Errorf("ScorePercentage = %v, want 25", res.ScorePercentage)
	}
	if res.CorrectAnswers != 1 {
		t.Errorf("CorrectAnswers = %d, want 1", res.CorrectAnswers)
	}
	if res.IsPassed {
		t.Error("25%% must not pass an 80%% threshold")
	}

	// Unanswered questions still appear in the audit trail.
	if len(res.Answers) != 2 {
		t.Fatalf("audit trail has %d entries, want 2", len(res.Answers))
	}
	if res.Answers[1].Correct || res.Answers[1].MarksAwarded != 0 {
		t.Error("unanswered question must be judged incorrect with zero marks")
	}
}

func TestGradeDeterministic(t *testing.T) {
	q := model.Question{ID: uuid.New(), Text: "q", Kind: model.KindFillBlank, CorrectText: "ok", Marks: 1}
	def := &model.ExamDefinition{ID: uuid.New(), PassingScorePercent: 100, Questions: []model.Question{q}}
	answers := map[uuid.UUID]model.Answer{q.ID: {Text: "OK"}}

	first := Grade(def, answers)
	second := Grade(def, answers)
	if first.ScorePercentage != second.ScorePercentage ||
		first.CorrectAnswers != second.CorrectAnswers ||
		first.IsPassed != second.IsPassed {
		t.Error("grading the same submission twice produced different results")
	}
}
