package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinQuestionLength is the shortest trimmed question text, in characters, accepted at the request boundary.
const MinQuestionLength = 10

// QuestionRequest is the input for asking a question.
type QuestionRequest struct {
	AskerID          string `json:"asker_id"`
	Text             string `json:"text"`
	ParentQuestionID string `json:"parent_question_id,omitempty"`
}

// Validate trims the text and rejects missing askers and too-short questions.
func (r *QuestionRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	r.AskerID = strings.TrimSpace(r.AskerID)
	if r.AskerID == "" {
		return fmt.Errorf("asker_id is required")
	}
	if utf8.RuneCountInString(r.Text) < MinQuestionLength {
		return fmt.Errorf("question must be at least %d characters", MinQuestionLength)
	}
	return nil
}

// ExperienceRequest carries a mentor's answer; Content is a string or an AnswerContent object.
type ExperienceRequest struct {
	MentorID string          `json:"mentor_id"`
	Content  json.RawMessage `json:"content"`
}

// FollowUpAnswerRequest carries a mentor's answer to a follow-up.
type FollowUpAnswerRequest struct {
	MentorID string `json:"mentor_id"`
	Answer   string `json:"answer"`
}

// Validate rejects empty fields.
func (r *FollowUpAnswerRequest) Validate() error {
	r.Answer = strings.TrimSpace(r.Answer)
	if r.MentorID == "" {
		return fmt.Errorf("mentor_id is required")
	}
	if r.Answer == "" {
		return fmt.Errorf("answer is required")
	}
	return nil
}
