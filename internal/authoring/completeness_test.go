package authoring

import (
	"errors"
	"testing"

	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/google/uuid"
)

func choiceQuestion(kind model.QuestionKind, text string, opts ...string) model.Question {
	q := model.Question{ID: uuid.New(), Text: text, Kind: kind, Marks: 1}
	for _, o := range opts {
		q.Options = append(q.Options, model.Option{Text: o})
	}
	return q
}

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name string
		q    model.Question
		want bool
	}{
		{
			name: "single-choice complete",
			q:    choiceQuestion(model.KindSingleChoice, "2+2?", "3", "4"),
			want: true,
		},
		{
			name: "single-choice blank prompt",
			q:    choiceQuestion(model.KindSingleChoice, "   ", "3", "4"),
			want: false,
		},
		{
			name: "single-choice blank option",
			q:    choiceQuestion(model.KindSingleChoice, "2+2?", "4", "  "),
			want: false,
		},
		{
			name: "multiple-choice one option",
			q:    choiceQuestion(model.KindMultipleChoice, "pick", "only"),
			want: false,
		},
		{
			name: "true-false needs only prompt",
			q: model.Question{
				Text: "Go has generics", Kind: model.KindTrueFalse,
				Options: model.TrueFalseOptions, Marks: 1,
			},
			want: true,
		},
		{
			name: "true-false blank prompt",
			q: model.Question{
				Text: "", Kind: model.KindTrueFalse,
				Options: model.TrueFalseOptions, Marks: 1,
			},
			want: false,
		},
		{
			name: "fill-blank with expected answer",
			q:    model.Question{Text: "Capital of France?", Kind: model.KindFillBlank, CorrectText: "Paris", Marks: 1},
			want: true,
		},
		{
			name: "fill-blank missing expected answer",
			q:    model.Question{Text: "Capital of France?", Kind: model.KindFillBlank, CorrectText: " ", Marks: 1},
			want: false,
		},
		{
			name: "code with expected source",
			q:    model.Question{Text: "Print hello", Kind: model.KindCode, CorrectText: `fmt.Println("hello")`, Marks: 1},
			want: true,
		},
		{
			name: "code missing expected source",
			q:    model.Question{Text: "Print hello", Kind: model.KindCode, Marks: 1},
			want: false,
		},
		{
			name: "unknown kind",
			q:    model.Question{Text: "?", Kind: "essay", Marks: 1},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsComplete(&tt.q); got != tt.want {
				t.Errorf("IsComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPublishable(t *testing.T) {
	complete := choiceQuestion(model.KindSingleChoice, "2+2?", "3", "4")
	incomplete := model.Question{ID: uuid.New(), Text: "fill", Kind: model.KindFillBlank, Marks: 1}

	def := &model.ExamDefinition{Title: "Algebra", Questions: []model.Question{complete, incomplete}}
	err := Publishable(def)
	if err == nil {
		t.Fatal("expected error for definition with incomplete question")
	}
	var np *ErrNotPublishable
	if !errors.As(err, &np) {
		t.Fatalf("expected *ErrNotPublishable, got %T", err)
	}
	if np.Incomplete != 1 || np.Total != 2 {
		t.Errorf("expected 1/2 incomplete, got %d/%d", np.Incomplete, np.Total)
	}

	def.Questions = []model.Question{complete}
	if err := Publishable(def); err != nil {
		t.Errorf("expected publishable, got %v", err)
	}

	// An exam with no questions is never publishable.
	def.Questions = nil
	if err := Publishable(def); err == nil {
		t.Error("expected empty exam to be unpublishable")
	}
}

func TestReportCounts(t *testing.T) {
	q1 := choiceQuestion(model.KindSingleChoice, "q1", "a", "b")
	q2 := model.Question{ID: uuid.New(), Text: "q2", Kind: model.KindFillBlank, Marks: 1} // incomplete
	q3 := model.Question{ID: uuid.New(), Text: "q3", Kind: model.KindTrueFalse, Options: model.TrueFalseOptions, Marks: 1}

	rep := Report(&model.ExamDefinition{Questions: []model.Question{q1, q2, q3}})
	if rep.Total != 3 || rep.Complete != 2 {
		t.Fatalf("expected 2/3 complete, got %d/%d", rep.Complete, rep.Total)
	}
	if len(rep.IncompleteID) != 1 || rep.IncompleteID[0] != q2.ID.String() {
		t.Errorf("expected incomplete ids [%s], got %v", q2.ID, rep.IncompleteID)
	}
	if rep.Publishable {
		t.Error("report should not be publishable")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       model.Question
		wantErr bool
	}{
		{"valid single", model.Question{Text: "q", Kind: model.KindSingleChoice, Options: []model.Option{{Text: "a"}, {Text: "b"}}, CorrectSingleIndex: 1, Marks: 1}, false},
		{"single index out of range", model.Question{Text: "q", Kind: model.KindSingleChoice, Options: []model.Option{{Text: "a"}, {Text: "b"}}, CorrectSingleIndex: 2, Marks: 1}, true},
		{"valid multi", model.Question{Text: "q", Kind: model.KindMultipleChoice, Options: []model.Option{{Text: "a"}, {Text: "b"}, {Text: "c"}}, CorrectMultiIndexes: []int{0, 2}, Marks: 2}, false},
		{"multi no correct", model.Question{Text: "q", Kind: model.KindMultipleChoice, Options: []model.Option{{Text: "a"}, {Text: "b"}}, Marks: 1}, true},
		{"multi duplicate index", model.Question{Text: "q", Kind: model.KindMultipleChoice, Options: []model.Option{{Text: "a"}, {Text: "b"}}, CorrectMultiIndexes: []int{1, 1}, Marks: 1}, true},
		{"valid true-false", model.Question{Text: "q", Kind: model.KindTrueFalse, Options: model.TrueFalseOptions, CorrectSingleIndex: 1, Marks: 1}, false},
		{"true-false wrong options", model.Question{Text: "q", Kind: model.KindTrueFalse, Options: []model.Option{{Text: "Yes"}, {Text: "No"}}, Marks: 1}, true},
		{"fill-blank with options", model.Question{Text: "q", Kind: model.KindFillBlank, Options: []model.Option{{Text: "x"}}, CorrectText: "x", Marks: 1}, true},
		{"zero marks", model.Question{Text: "q", Kind: model.KindFillBlank, CorrectText: "x", Marks: 0}, true},
		{"unknown kind", model.Question{Text: "q", Kind: "matching", Marks: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.q)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
