package repository

import (
	"context"
	"encoding/json"

	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question data access. Options travel as JSONB;
// the correct-answer fields live in dedicated columns so grading never parses
// option text.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves all questions for a given exam, ordered by order_num.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, question_text, kind, options, correct_single_index,
		        correct_multi_indexes, correct_text, case_sensitive, marks, order_num
		 FROM questions WHERE exam_id = $1
		 ORDER BY order_num`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Text, &q.Kind, &options, &q.CorrectSingleIndex,
			&q.CorrectMultiIndexes, &q.CorrectText, &q.CaseSensitive, &q.Marks, &q.OrderNum); err != nil {
			return nil, err
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return nil, err
			}
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (exam_id, question_text, kind, options, correct_single_index,
		                        correct_multi_indexes, correct_text, case_sensitive, marks, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		q.ExamID, q.Text, q.Kind, options, q.CorrectSingleIndex,
		q.CorrectMultiIndexes, q.CorrectText, q.CaseSensitive, q.Marks, q.OrderNum,
	).Scan(&q.ID)
}

// Update overwrites an existing question in place.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE questions
		 SET question_text = $1, kind = $2, options = $3, correct_single_index = $4,
		     correct_multi_indexes = $5, correct_text = $6, case_sensitive = $7,
		     marks = $8, order_num = $9
		 WHERE id = $10 AND exam_id = $11`,
		q.Text, q.Kind, options, q.CorrectSingleIndex,
		q.CorrectMultiIndexes, q.CorrectText, q.CaseSensitive,
		q.Marks, q.OrderNum, q.ID, q.ExamID)
	return err
}

// Delete removes one question from an exam.
func (r *QuestionRepository) Delete(ctx context.Context, examID, questionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM questions WHERE id = $1 AND exam_id = $2`, questionID, examID)
	return err
}

// ReplaceAll swaps an exam's whole question set inside one transaction. The
// bulk-authoring endpoint depends on this being atomic: a failed replace
// leaves the previous set intact.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, examID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE exam_id = $1`, examID); err != nil {
		return err
	}

	for i := range questions {
		q := &questions[i]
		options, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx,
			`INSERT INTO questions (exam_id, question_text, kind, options, correct_single_index,
			                        correct_multi_indexes, correct_text, case_sensitive, marks, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING id`,
			examID, q.Text, q.Kind, options, q.CorrectSingleIndex,
			q.CorrectMultiIndexes, q.CorrectText, q.CaseSensitive, q.Marks, q.OrderNum,
		).Scan(&q.ID); err != nil {
			return err
		}
		q.ExamID = examID
	}

	return tx.Commit(ctx)
}
