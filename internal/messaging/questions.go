package messaging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bilgisen/s13core/internal/models"
)

func (r *Repository) Questions(ctx context.Context) ([]*models.QuestionAnswerPair, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, question, answer FROM question_answer_pairs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	defer rows.Close()

	var out []*models.QuestionAnswerPair
	for rows.Next() {
		q := &models.QuestionAnswerPair{}
		if err := rows.Scan(&q.ID, &q.Question, &q.Answer); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *Repository) Question(ctx context.Context, id int64) (*models.QuestionAnswerPair, error) {
	return r.question(ctx, `SELECT id, question, answer FROM question_answer_pairs WHERE id = ?`, id)
}

// Random picks one challenge question.
func (r *Repository) Random(ctx context.Context) (*models.QuestionAnswerPair, error) {
	q, err := r.question(ctx, `SELECT id, question, answer FROM question_answer_pairs ORDER BY RANDOM() LIMIT 1`)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoQuestions
	}
	return q, err
}

func (r *Repository) question(ctx context.Context, query string, args ...any) (*models.QuestionAnswerPair, error) {
	q := &models.QuestionAnswerPair{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&q.ID, &q.Question, &q.Answer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select question: %w", err)
	}
	return q, nil
}

// Check verifies answer against question id.
func (r *Repository) Check(ctx context.Context, id int64, answer string) error {
	q, err := r.Question(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return ErrWrongAnswer
	}
	if err != nil {
		return err
	}
	if !q.CheckAnswer(answer) {
		return ErrWrongAnswer
	}
	return nil
}

// questionInput mirrors the validation rules of a QuestionAnswerPair.
type questionInput struct {
	Question string   `validate:"required,max=128"`
	Answers  []string `validate:"min=1,dive,required"`
}

func (r *Repository) SaveQuestion(ctx context.Context, q *models.QuestionAnswerPair) error {
	q.Question = strings.TrimSpace(q.Question)
	if err := r.validate.Struct(questionInput{Question: q.Question, Answers: q.Answers()}); err != nil {
		return err
	}
	if q.ID == 0 {
		res, err := r.db.ExecContext(ctx, `INSERT INTO question_answer_pairs (question, answer) VALUES (?, ?)`, q.Question, q.Answer)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
		q.ID, err = res.LastInsertId()
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE question_answer_pairs SET question = ?, answer = ? WHERE id = ?`, q.Question, q.Answer, q.ID)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return nil
}

func (r *Repository) DeleteQuestion(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM question_answer_pairs WHERE id = ?`, id)
}
