package ranking

import (
	"math"

	"github.com/hyperjump/mentorlink/internal/models"
)

// LivePoints scores a mentor for live routing. It returns the load-adjusted
// points, the raw points before load adjustment, and the breakdown.
func LivePoints(s Signals, mentor *models.MentorProfile, cfg *LiveConfig) (float64, float64, models.ScoreBreakdown) {
	b := models.ScoreBreakdown{}
	add := func(name string, v float64) {
		if v > 0 {
			b[name] = v
		}
	}

	if s.ExactCompanies > 0 {
		add("company_exact", cfg.ExactCompanyPoints*capCount(s.ExactCompanies, cfg.ExactCompanyCap))
	} else if s.RelatedCompanies > 0 {
		add("company_related", cfg.RelatedCompanyPoints*capCount(s.RelatedCompanies, cfg.RelatedCompanyCap))
	}
	add("tags", cfg.TagPoints*capCount(s.Tags, cfg.TagCap))
	add("domain", cfg.DomainPoints*s.DomainFactor*s.IntentConfidence)
	add("milestones", cfg.MilestonePoints*capCount(s.Milestones, cfg.MilestoneCap))
	add("tech_exact", cfg.TechExactPoints*capCount(s.TechExact, cfg.TechCap))
	add("tech_partial", cfg.TechPartialPoints*capCount(s.TechPartial, cfg.TechCap))
	if s.BioShared >= cfg.BioMinShared {
		add("bio", cfg.BioPointsPerKeyword*capCount(s.BioShared, cfg.BioCap))
	}
	if s.SameTier {
		add("college_tier", cfg.CollegeTierPoints)
	}
	if s.SameField {
		add("field", cfg.FieldPoints)
	}
	switch {
	case s.Rating >= cfg.RatingHighThreshold:
		add("rating", cfg.RatingHighPoints)
	case s.Rating >= cfg.RatingGoodThreshold:
		add("rating", cfg.RatingGoodPoints)
	}
	if s.ResponseRate >= cfg.ResponseRateThreshold {
		add("response_rate", cfg.ResponseRatePoints)
	}
	switch {
	case s.SinceActive < 0:
	case s.SinceActive <= cfg.ActiveWeekWindow:
		add("recent", cfg.ActiveWeekPoints)
	case s.SinceActive <= cfg.ActiveFortnightWindow:
		add("recent", cfg.ActiveFortnightPoints)
	}
	add("proven", math.Min(cfg.ProvenPointsPerMatch*float64(s.SuccessfulMatches), cfg.ProvenCap))

	var raw float64
	for _, v := range b {
		raw += v
	}
	return ApplyLoad(raw, mentor, cfg), raw, b
}

// ApplyLoad adjusts raw points for the mentor's current load. Mentors at or above
// their cap keep only CappedLoadFactor of their points; others lose a fixed
// amount per active question.
func ApplyLoad(raw float64, mentor *models.MentorProfile, cfg *LiveConfig) float64 {
	if mentor.AtCapacity() {
		return raw * cfg.CappedLoadFactor
	}
	return raw - cfg.LoadPenaltyPerQuestion*float64(mentor.CurrentLoad)
}

// SelectMentor applies the live-routing quality gates to candidates sorted by points.
func SelectMentor(ranked []*models.MatchCandidate, cfg *LiveConfig) (*models.MatchCandidate, GateResult) {
	if len(ranked) == 0 {
		return nil, GateNoCandidates
	}
	if ranked[0].Score < cfg.MinPoints {
		return nil, GateBelowThreshold
	}

	winnerIdx := 0
	result := GateTopRanked
	if ranked[0].Mentor.AtCapacity() {
		winnerIdx = -1
		for i := 1; i < len(ranked); i++ {
			if ranked[i].Score < cfg.MinPoints {
				break
			}
			if !ranked[i].Mentor.AtCapacity() {
				winnerIdx = i
				break
			}
		}
		if winnerIdx < 0 {
			return nil, GateCappedNoAlternate
		}
		result = GateCappedAlternate
	}
	winner := ranked[winnerIdx]

	var runnerUp *models.MatchCandidate
	for i := winnerIdx + 1; i < len(ranked); i++ {
		if !ranked[i].Mentor.AtCapacity() {
			runnerUp = ranked[i]
			break
		}
	}
	if runnerUp == nil || runnerUp.Score < cfg.MinPoints {
		return winner, result
	}
	gap := winner.Score - runnerUp.Score
	if gap < cfg.TieGapRatio*winner.Score && winner.Score < cfg.TieCeiling {
		if preferRunnerUp(winner.Mentor, runnerUp.Mentor) {
			return runnerUp, GateTieBreak
		}
		return winner, GateTieBreak
	}
	return winner, result
}

// preferRunnerUp applies the tie-breakers in order: higher rating, then lower
// current load, then more successful matches.
func preferRunnerUp(winner, runnerUp *models.MentorProfile) bool {
	if runnerUp.Rating != winner.Rating {
		return runnerUp.Rating > winner.Rating
	}
	if runnerUp.CurrentLoad != winner.CurrentLoad {
		return runnerUp.CurrentLoad < winner.CurrentLoad
	}
	return runnerUp.SuccessfulMatches > winner.SuccessfulMatches
}
