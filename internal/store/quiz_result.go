package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/pavelanni/florafauna/internal/model"
)

// QuizResultsLimit is how many recent results a user sees.
const QuizResultsLimit = 20

// CreateQuizResult records a finished quiz.
func (s *Store) CreateQuizResult(ctx context.Context, r model.QuizResult) (model.QuizResult, error) {
	r.ID = uuid.NewString()
	now := s.stamp()
	var meta *string
	if len(r.Metadata) > 0 {
		m := string(r.Metadata)
		meta = &m
	}
	_, err := s.exec(ctx,
		`INSERT INTO quiz_results (id, user_id, quiz_id, topic, difficulty, questions_count, correct_count, metadata, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.QuizID, r.Topic, r.Difficulty, r.QuestionsCount, r.CorrectCount, meta, now,
	)
	if err != nil {
		return model.QuizResult{}, classify("insert quiz result", err)
	}
	r.FinishedAt = fromMillis(now)
	return r, nil
}

// ListQuizResults returns a user's most recent results, newest first.
func (s *Store) ListQuizResults(ctx context.Context, userID string, limit int) ([]model.QuizResult, error) {
	rows, err := s.query(ctx,
		`SELECT id, user_id, quiz_id, topic, difficulty, questions_count, correct_count, metadata, finished_at
		 FROM quiz_results WHERE user_id = ? ORDER BY finished_at DESC, id LIMIT ?`, userID, limit)
	if err != nil {
		return nil, classify("list quiz results", err)
	}
	defer rows.Close()
	list := []model.QuizResult{}
	for rows.Next() {
		var r model.QuizResult
		var meta *string
		var finished int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.QuizID, &r.Topic, &r.Difficulty,
			&r.QuestionsCount, &r.CorrectCount, &meta, &finished); err != nil {
			return nil, err
		}
		if meta != nil {
			r.Metadata = json.RawMessage(*meta)
		}
		r.FinishedAt = fromMillis(finished)
		list = append(list, r)
	}
	return list, rows.Err()
}
