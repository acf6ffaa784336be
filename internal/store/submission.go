package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/pavelanni/florafauna/internal/model"
)

const (
	UserSubmissionsLimit       = 20
	ModerationSubmissionsLimit = 50
)

// CreateSubmission stores a pending contribution and returns it with its id.
func (s *Store) CreateSubmission(ctx context.Context, sub model.Submission) (model.Submission, error) {
	sub.ID = uuid.NewString()
	if sub.Status == "" {
		sub.Status = model.StatusPending
	}
	now := s.stamp()
	_, err := s.exec(ctx,
		`INSERT INTO submissions (id, user_id, title, type, content, url, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.Title, sub.Type, sub.Content, sub.URL, sub.Status, now,
	)
	if err != nil {
		return model.Submission{}, classify("insert submission", err)
	}
	sub.CreatedAt = fromMillis(now)
	return sub, nil
}

// ListSubmissionsByUser returns the newest submissions of one user.
func (s *Store) ListSubmissionsByUser(ctx context.Context, userID string, limit int) ([]model.Submission, error) {
	return s.listSubmissions(ctx,
		`SELECT id, user_id, title, type, content, url, status, created_at
		 FROM submissions WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ?`, userID, limit)
}

// ListSubmissions returns the newest submissions across all users.
func (s *Store) ListSubmissions(ctx context.Context, limit int) ([]model.Submission, error) {
	return s.listSubmissions(ctx,
		`SELECT id, user_id, title, type, content, url, status, created_at
		 FROM submissions ORDER BY created_at DESC, id LIMIT ?`, limit)
}

func (s *Store) listSubmissions(ctx context.Context, query string, args ...any) ([]model.Submission, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, classify("list submissions", err)
	}
	defer rows.Close()
	list := []model.Submission{}
	for rows.Next() {
		var sub model.Submission
		var url sql.NullString
		var created int64
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Title, &sub.Type, &sub.Content, &url, &sub.Status, &created); err != nil {
			return nil, err
		}
		if url.Valid {
			sub.URL = &url.String
		}
		sub.CreatedAt = fromMillis(created)
		list = append(list, sub)
	}
	return list, rows.Err()
}

// UpdateSubmissionStatus sets the moderation status of a submission.
func (s *Store) UpdateSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus) error {
	res, err := s.exec(ctx, `UPDATE submissions SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return classify("update submission", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("update submission", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
