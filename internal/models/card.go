package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AnswerContent is the structured body of a mentor's answer.
type AnswerContent struct {
	MainAnswer      string   `json:"main_answer"`
	KeyMistakes     []string `json:"key_mistakes"`
	ActionableSteps []string `json:"actionable_steps"`
	Timeline        string   `json:"timeline,omitempty"`
	Context         string   `json:"context,omitempty"`
}

// Text flattens the content into a single string used for embedding.
func (c AnswerContent) Text() string {
	var b strings.Builder
	b.WriteString(c.MainAnswer)
	for _, m := range c.KeyMistakes {
		b.WriteString("\n")
		b.WriteString(m)
	}
	for _, s := range c.ActionableSteps {
		b.WriteString("\n")
		b.WriteString(s)
	}
	if c.Timeline != "" {
		b.WriteString("\n")
		b.WriteString(c.Timeline)
	}
	if c.Context != "" {
		b.WriteString("\n")
		b.WriteString(c.Context)
	}
	return b.String()
}

// NormalizeContent converts a raw answer payload into AnswerContent.
// A JSON string becomes the main answer; a JSON object is decoded field by field.
// Nil slices are replaced with empty ones so stored cards have a single shape.
func NormalizeContent(raw json.RawMessage) (AnswerContent, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return AnswerContent{}, fmt.Errorf("answer content is empty")
	}
	var content AnswerContent
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return AnswerContent{}, fmt.Errorf("invalid answer content: %w", err)
		}
		content.MainAnswer = s
	case '{':
		if err := json.Unmarshal(raw, &content); err != nil {
			return AnswerContent{}, fmt.Errorf("invalid answer content: %w", err)
		}
	default:
		return AnswerContent{}, fmt.Errorf("answer content must be a string or an object")
	}
	content.MainAnswer = strings.TrimSpace(content.MainAnswer)
	if content.MainAnswer == "" {
		return AnswerContent{}, fmt.Errorf("main answer is required")
	}
	if content.KeyMistakes == nil {
		content.KeyMistakes = []string{}
	}
	if content.ActionableSteps == nil {
		content.ActionableSteps = []string{}
	}
	return content, nil
}

// FollowUp is one follow-up exchange appended to a card.
type FollowUp struct {
	QuestionID string    `json:"question_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Feedback is the asker's rating of a card.
type Feedback struct {
	Helpful bool   `json:"helpful"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// Validate checks the rating range.
func (f *Feedback) Validate() error {
	if f.Rating < 1 || f.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}

// AnswerCard is a mentor's packaged, reusable answer to a root question.
type AnswerCard struct {
	ID         string        `json:"id" db:"id"`
	QuestionID string        `json:"question_id" db:"question_id"`
	MentorID   string        `json:"mentor_id" db:"mentor_id"`
	Content    AnswerContent `json:"content" db:"content"`
	Embedding  []float32     `json:"-" db:"embedding"`
	FollowUps  []FollowUp    `json:"follow_ups" db:"follow_ups"`
	Feedback   *Feedback     `json:"feedback,omitempty" db:"feedback"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// HasEmbedding reports whether the card has been vectorized.
func (c *AnswerCard) HasEmbedding() bool {
	return len(c.Embedding) > 0
}
