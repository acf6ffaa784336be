package model

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Metadata is the public metadata bag an identity provider attaches to a user.
type Metadata map[string]any

// Role returns the "role" entry when it is present and a string.
// The boolean is false when the entry is absent or has another type.
func (m Metadata) Role() (string, bool) {
	v, ok := m["role"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Identity is an authenticated caller as asserted by a verified token.
type Identity struct {
	UserID        string   `json:"user_id"`
	Email         string   `json:"email,omitempty"`
	EmailVerified bool     `json:"email_verified"`
	Metadata      Metadata `json:"public_metadata,omitempty"`
}

type identityCtxKey struct{}

// ContextWithIdentity stores the caller identity in the request context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext retrieves the caller identity from context, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityCtxKey{}).(*Identity)
	return id
}

// UserRole is the role stored for local development users.
type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
)

// User is a local account used when the built-in token endpoint is enabled.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Role          UserRole
	EmailVerified bool
	CreatedAt     time.Time
}

// SubmissionType is the kind of content a contributor submits.
type SubmissionType string

const (
	SubmissionText  SubmissionType = "text"
	SubmissionImage SubmissionType = "image"
)

// SubmissionStatus is the moderation state of a submission.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
	StatusFlagged  SubmissionStatus = "flagged"
)

// Valid reports whether s is one of the moderation states.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusFlagged:
		return true
	}
	return false
}

// Submission is a user contribution awaiting or past moderation.
type Submission struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	Type      SubmissionType   `json:"type"`
	Content   string           `json:"content"`
	URL       *string          `json:"url"`
	Status    SubmissionStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// Difficulty is the self-selected difficulty of a finished quiz.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// QuizResult is the persisted outcome of one finished quiz.
type QuizResult struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	QuizID         string          `json:"quiz_id"`
	Topic          string          `json:"topic"`
	Difficulty     Difficulty      `json:"difficulty"`
	QuestionsCount int             `json:"questions_count"`
	CorrectCount   int             `json:"correct_count"`
	Metadata       json.RawMessage `json:"metadata"`
	FinishedAt     time.Time       `json:"finished_at"`
}

// AppConfig holds runtime parameters set via flags, environment or config file.
type AppConfig struct {
	Lang         string        // quiz prompt language (en, id)
	LocalAuth    bool          // enable POST /api/auth/token for local users
	TokenTTL     time.Duration // lifetime of tokens minted locally
	QuizPoolSize int           // species rows loaded per quiz
}

// NormalizeEmail lower-cases and trims an email address for comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
