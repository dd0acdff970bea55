package ranking

import (
	"math"
	"sort"

	"github.com/hyperjump/mentorlink/internal/models"
)

// SemanticBonus sums the weighted metadata contributions for one candidate,
// uncapped, and records each component in the breakdown.
func SemanticBonus(s Signals, cfg *SemanticConfig) (float64, models.ScoreBreakdown) {
	b := models.ScoreBreakdown{}
	add := func(name string, v float64) {
		if v > 0 {
			b[name] = v
		}
	}

	if s.ExactCompanies > 0 {
		add("company_exact", cfg.ExactCompanyWeight*capCount(s.ExactCompanies, cfg.ExactCompanyCap))
	} else if s.RelatedCompanies > 0 {
		add("company_related", cfg.RelatedCompanyWeight*capCount(s.RelatedCompanies, cfg.RelatedCompanyCap))
	}
	add("domain", cfg.DomainWeight*s.DomainFactor*s.IntentConfidence)
	add("tags", cfg.TagWeight*capCount(s.Tags, cfg.TagCap))
	add("milestones", cfg.MilestoneWeight*capCount(s.Milestones, cfg.MilestoneCap))
	add("tech", cfg.TechWeight*capCount(s.TechExact, cfg.TechCap))
	if s.BioShared >= cfg.BioMinShared {
		add("bio", cfg.BioWeight)
	}
	if s.SameTier {
		add("college_tier", cfg.CollegeTierWeight)
	}
	if s.SameField {
		add("field", cfg.FieldWeight)
	}
	if s.Rating >= cfg.RatingThreshold {
		add("rating", cfg.RatingWeight)
	}
	if s.ResponseRate >= cfg.ResponseRateThreshold {
		add("response_rate", cfg.ResponseRateWeight)
	}
	if s.SinceActive >= 0 && s.SinceActive <= cfg.RecentWindow {
		add("recent", cfg.RecentWeight)
	}
	if s.SuccessfulMatches < cfg.ColdStartMatches {
		add("cold_start", cfg.ColdStartWeight)
	}

	var total float64
	for _, v := range b {
		total += v
	}
	return total, b
}

// HybridScore applies the capped metadata bonus to a vector similarity:
// vector × (1 + min(bonus, cap)).
func HybridScore(vectorScore float64, s Signals, cfg *SemanticConfig) (float64, models.ScoreBreakdown) {
	bonus, breakdown := SemanticBonus(s, cfg)
	applied := math.Min(bonus, cfg.BonusCap)
	breakdown["vector"] = vectorScore
	breakdown["bonus_applied"] = applied
	return vectorScore * (1 + applied), breakdown
}

// SortCandidates orders candidates by score, highest first, keeping input order on ties.
func SortCandidates(c []*models.MatchCandidate) {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].Score > c[j].Score
	})
}

// SelectInstant applies the instant-answer quality gates to candidates sorted by score.
func SelectInstant(ranked []*models.MatchCandidate, cfg *SemanticConfig) (*models.MatchCandidate, GateResult) {
	if len(ranked) == 0 {
		return nil, GateNoCandidates
	}
	best := ranked[0]
	if best.Score < cfg.InstantThreshold {
		return nil, GateBelowThreshold
	}
	if best.Score >= cfg.HighConfidenceThreshold {
		return best, GateHighConfidence
	}
	if len(ranked) == 1 || best.Score-ranked[1].Score >= cfg.MinGap {
		return best, GateClearGap
	}
	return nil, GateAmbiguous
}
