package ranking

import (
	"time"

	"github.com/hyperjump/mentorlink/internal/lexical"
	"github.com/hyperjump/mentorlink/internal/models"
)

// Canonicalizer resolves free-text company names to canonical keys.
type Canonicalizer interface {
	Canonical(name string) (string, bool)
}

// Query is everything known about a question at scoring time.
type Query struct {
	// Descriptor is the lexical reading of the question.
	Descriptor *lexical.Descriptor
	// Keywords are the extracted content words.
	Keywords []string
	// Asker is the student's profile; nil when unknown.
	Asker *models.MentorProfile
}

// Signals are the raw overlaps between a query and one mentor. Both scoring
// paths read the same signals and weigh them with their own tables.
type Signals struct {
	ExactCompanies    int
	RelatedCompanies  int
	DomainFactor      float64 // 1 for the mentor's own domain, 0.5 for "both", 0 otherwise
	IntentConfidence  float64
	Tags              int
	Milestones        int
	TechExact         int
	TechPartial       int
	BioShared         int
	SameTier          bool
	SameField         bool
	Rating            float64
	ResponseRate      float64
	SinceActive       time.Duration
	SuccessfulMatches int
}

// GateResult names the rule that decided a selection. It is logged, never returned to callers.
type GateResult string

const (
	GateNoCandidates      GateResult = "no_candidates"
	GateBelowThreshold    GateResult = "below_threshold"
	GateHighConfidence    GateResult = "high_confidence"
	GateClearGap          GateResult = "clear_gap"
	GateAmbiguous         GateResult = "ambiguous"
	GateCappedNoAlternate GateResult = "capped_no_alternative"
	GateCappedAlternate   GateResult = "capped_alternative"
	GateTieBreak          GateResult = "tie_break"
	GateTopRanked         GateResult = "top_ranked"
)

// Accepted reports whether the gate produced a selection.
func (g GateResult) Accepted() bool {
	switch g {
	case GateHighConfidence, GateClearGap, GateCappedAlternate, GateTieBreak, GateTopRanked:
		return true
	default:
		return false
	}
}
