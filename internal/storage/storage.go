// Package storage defines the persistence interfaces for users, questions and answer cards.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/mentorlink/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrLoadContention is returned when a mentor's load reached the cap before the increment.
	ErrLoadContention = errors.New("mentor load at capacity")
	// ErrLoadUnderflow is returned when decrementing a mentor whose load is already zero.
	ErrLoadUnderflow = errors.New("mentor load already zero")
	// ErrLimitReached is returned when a bounded list is full.
	ErrLimitReached = errors.New("limit reached")
	// ErrStateChanged is returned when a record no longer has the status a transition expects.
	ErrStateChanged = errors.New("record state changed")
)

// EligibilityCriteria filters mentors before live scoring.
type EligibilityCriteria struct {
	// LoadSlack admits mentors whose load is below max_load + LoadSlack.
	LoadSlack int
	// ActiveSince admits mentors active at or after this time.
	ActiveSince time.Time
	// ExcludeID drops one user, normally the asker.
	ExcludeID string
}

// MentorDirectory reads mentor profiles for matching.
type MentorDirectory interface {
	GetUser(ctx context.Context, id string) (*models.MentorProfile, error)
	FindByIDs(ctx context.Context, ids []string) ([]*models.MentorProfile, error)
	FindEligible(ctx context.Context, criteria EligibilityCriteria) ([]*models.MentorProfile, error)
	ListCompanies(ctx context.Context) ([]string, error)
}

// QuestionStore persists questions and the transitions that move mentor load.
type QuestionStore interface {
	CreateQuestion(ctx context.Context, q *models.Question) error
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	UpdateQuestionStatus(ctx context.Context, id string, from []models.QuestionStatus, to models.QuestionStatus) error
	// AssignQuestion increments the mentor's load only while it is below the cap and
	// inserts q in the same transaction. It returns ErrLoadContention when the cap was reached.
	AssignQuestion(ctx context.Context, q *models.Question, mentorID string) error
	// CreateFollowUp inserts q only while the card has fewer than limit live follow-ups.
	CreateFollowUp(ctx context.Context, q *models.Question, cardID string, limit int) error
	// CloseAssignment marks an open assignment closed and releases the mentor's load slot.
	CloseAssignment(ctx context.Context, q *models.Question) error
}

// CardStore persists answer cards.
type CardStore interface {
	GetCard(ctx context.Context, id string) (*models.AnswerCard, error)
	// CompleteWithCard inserts card, links it to q, releases the mentor's load slot
	// and records a successful match, atomically.
	CompleteWithCard(ctx context.Context, q *models.Question, card *models.AnswerCard) error
	// AppendFollowUp adds a follow-up answer to the card and delivers the follow-up question.
	AppendFollowUp(ctx context.Context, cardID string, fu models.FollowUp, limit int) error
	SetCardEmbedding(ctx context.Context, cardID string, embedding []float32) error
	SetFeedback(ctx context.Context, cardID string, fb models.Feedback) error
	ListUnvectorizedCards(ctx context.Context, limit int) ([]*models.AnswerCard, error)
	ListVectorizedCards(ctx context.Context) ([]*models.AnswerCard, error)
}

// Stats are record counts reported by the status endpoint.
type Stats struct {
	Mentors          int64                           `json:"mentors"`
	Students         int64                           `json:"students"`
	Questions        int64                           `json:"questions"`
	QuestionsByState map[models.QuestionStatus]int64 `json:"questions_by_status"`
	Cards            int64                           `json:"cards"`
	VectorizedCards  int64                           `json:"vectorized_cards"`
}

// Storage is the full persistence surface.
type Storage interface {
	MentorDirectory
	QuestionStore
	CardStore

	UpsertUser(ctx context.Context, u *models.MentorProfile) error
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}
