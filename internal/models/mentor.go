package models

import "time"

// Role distinguishes students from mentors in the user directory.
type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
)

// Domain is the kind of guidance a mentor primarily offers.
type Domain string

const (
	DomainInternship Domain = "internship"
	DomainPlacement  Domain = "placement"
	DomainBoth       Domain = "both"
)

// Education is a user's academic background.
type Education struct {
	Institution string `json:"institution,omitempty"`
	Field       string `json:"field,omitempty"`
	CollegeTier string `json:"college_tier,omitempty"`
}

// MentorProfile is the part of a user record relevant to matching.
// Students share the shape; their education is used for tier and field matching.
type MentorProfile struct {
	ID                string    `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Email             string    `json:"email" db:"email"`
	Role              Role      `json:"role" db:"role"`
	Companies         []string  `json:"companies" db:"companies"`
	Domain            Domain    `json:"domain" db:"domain"`
	SpecialTags       []string  `json:"special_tags" db:"special_tags"`
	Milestones        []string  `json:"milestones" db:"milestones"`
	Expertise         []string  `json:"expertise" db:"expertise"`
	Bio               string    `json:"bio" db:"bio"`
	Education         Education `json:"education" db:"education"`
	Rating            float64   `json:"rating" db:"rating"`
	ResponseRate      float64   `json:"response_rate" db:"response_rate"`
	LastActive        time.Time `json:"last_active" db:"last_active"`
	SuccessfulMatches int       `json:"successful_matches" db:"successful_matches"`
	CurrentLoad       int       `json:"current_load" db:"current_load"`
	MaxLoad           int       `json:"max_load" db:"max_load"`
}

// AtCapacity reports whether the mentor cannot take another question.
func (m *MentorProfile) AtCapacity() bool {
	return m.CurrentLoad >= m.MaxLoad
}

// MentorContact is what the notifier needs to reach a mentor.
type MentorContact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Contact returns the mentor's contact details.
func (m *MentorProfile) Contact() MentorContact {
	return MentorContact{ID: m.ID, Name: m.Name, Email: m.Email}
}
