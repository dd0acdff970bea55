package models

// ScoreBreakdown lists the named contributions that produced a match score.
type ScoreBreakdown map[string]float64

// MatchCandidate is a scored card or mentor, alive only within one matching call.
type MatchCandidate struct {
	Card      *AnswerCard    `json:"card,omitempty"`
	Mentor    *MentorProfile `json:"mentor,omitempty"`
	Score     float64        `json:"score"`
	RawScore  float64        `json:"raw_score"`
	Breakdown ScoreBreakdown `json:"breakdown,omitempty"`
}

// MentorID returns the mentor behind the candidate.
func (c *MatchCandidate) MentorID() string {
	if c.Mentor != nil {
		return c.Mentor.ID
	}
	if c.Card != nil {
		return c.Card.MentorID
	}
	return ""
}

// OutcomeStatus is the caller-visible result of processing a question.
type OutcomeStatus string

const (
	OutcomeInstant   OutcomeStatus = "instant"
	OutcomeAssigned  OutcomeStatus = "assigned"
	OutcomeSearching OutcomeStatus = "searching"
	OutcomeBusy      OutcomeStatus = "busy"
)

// Outcome is returned by the engine for each processed question.
type Outcome struct {
	Status      OutcomeStatus  `json:"status"`
	QuestionID  string         `json:"question_id,omitempty"`
	MatchMethod MatchMethod    `json:"match_method,omitempty"`
	MatchScore  float64        `json:"match_score,omitempty"`
	MentorID    string         `json:"mentor_id,omitempty"`
	MentorName  string         `json:"mentor_name,omitempty"`
	Card        *AnswerCard    `json:"card,omitempty"`
	Keywords    []string       `json:"keywords,omitempty"`
	Attempts    int            `json:"attempts"`
	Message     string         `json:"message,omitempty"`
	Breakdown   ScoreBreakdown `json:"breakdown,omitempty"`
}
