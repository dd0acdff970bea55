// Package models defines core data structures for questions, answer cards, mentors, and match outcomes.
package models

import "time"

// QuestionStatus is a question's lifecycle state.
type QuestionStatus string

const (
	StatusPending             QuestionStatus = "pending"
	StatusMentorAssigned      QuestionStatus = "mentor_assigned"
	StatusAwaitingExperience  QuestionStatus = "awaiting_experience"
	StatusExperienceSubmitted QuestionStatus = "experience_submitted"
	StatusAnsweredInstantly   QuestionStatus = "answered_instantly"
	StatusDelivered           QuestionStatus = "delivered"
	StatusClosed              QuestionStatus = "closed"
)

// MatchMethod records which path produced a question's routing decision.
type MatchMethod string

const (
	MethodVectorSemantic    MatchMethod = "vector_semantic"
	MethodLiveRouting       MatchMethod = "live_routing"
	MethodPendingAssignment MatchMethod = "pending_assignment"
)

// MaxFollowUps is the number of follow-up questions an answer card accepts.
const MaxFollowUps = 2

// Question is a student's question and its routing state.
type Question struct {
	ID               string         `json:"id" db:"id"`
	AskerID          string         `json:"asker_id" db:"asker_id"`
	Text             string         `json:"text" db:"text"`
	Keywords         []string       `json:"keywords" db:"keywords"`
	Status           QuestionStatus `json:"status" db:"status"`
	MentorID         string         `json:"mentor_id,omitempty" db:"mentor_id"`
	AnswerCardID     string         `json:"answer_card_id,omitempty" db:"answer_card_id"`
	ParentQuestionID string         `json:"parent_question_id,omitempty" db:"parent_question_id"`
	MatchMethod      MatchMethod    `json:"match_method" db:"match_method"`
	MatchScore       float64        `json:"match_score" db:"match_score"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// IsFollowUp reports whether q continues an earlier question.
func (q *Question) IsFollowUp() bool {
	return q.ParentQuestionID != ""
}

// IsOpenAssignment reports whether q is assigned to a mentor and still counts toward their load.
func (q *Question) IsOpenAssignment() bool {
	return q.MentorID != "" && !q.IsFollowUp() &&
		(q.Status == StatusMentorAssigned || q.Status == StatusAwaitingExperience)
}
