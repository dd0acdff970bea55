// Package ranking scores answer cards and mentors against an analyzed question.
// Path A (semantic) adjusts vector similarity by a capped metadata bonus; Path B
// (live routing) ranks mentors with an additive points table.
package ranking

import "time"

// Config holds the weights and thresholds for both scoring paths. The two tables
// are tuned independently.
type Config struct {
	Semantic SemanticConfig `yaml:"semantic"`
	Live     LiveConfig     `yaml:"live"`
}

// SemanticConfig tunes instant-answer reuse. Weights are fractions of the vector score.
type SemanticConfig struct {
	TopK                    int           `yaml:"top_k"`                   // nearest neighbours requested
	PoolMultiplier          int           `yaml:"pool_multiplier"`         // candidate pool = TopK × this
	FocusedPoolMultiplier   int           `yaml:"focused_pool_multiplier"` // pool multiplier for urgent or specific queries
	SimilarityFloor         float64       `yaml:"similarity_floor"`
	InstantThreshold        float64       `yaml:"instant_threshold"`
	HighConfidenceThreshold float64       `yaml:"high_confidence_threshold"`
	MinGap                  float64       `yaml:"min_gap"`
	BonusCap                float64       `yaml:"bonus_cap"`
	ExactCompanyWeight      float64       `yaml:"exact_company_weight"`
	ExactCompanyCap         int           `yaml:"exact_company_cap"`
	RelatedCompanyWeight    float64       `yaml:"related_company_weight"`
	RelatedCompanyCap       int           `yaml:"related_company_cap"`
	DomainWeight            float64       `yaml:"domain_weight"` // scaled by intent confidence, halved for mentors covering both domains
	TagWeight               float64       `yaml:"tag_weight"`
	TagCap                  int           `yaml:"tag_cap"`
	MilestoneWeight         float64       `yaml:"milestone_weight"`
	MilestoneCap            int           `yaml:"milestone_cap"`
	TechWeight              float64       `yaml:"tech_weight"`
	TechCap                 int           `yaml:"tech_cap"`
	BioWeight               float64       `yaml:"bio_weight"`
	BioMinShared            int           `yaml:"bio_min_shared"`
	CollegeTierWeight       float64       `yaml:"college_tier_weight"`
	FieldWeight             float64       `yaml:"field_weight"`
	RatingWeight            float64       `yaml:"rating_weight"`
	RatingThreshold         float64       `yaml:"rating_threshold"`
	ResponseRateWeight      float64       `yaml:"response_rate_weight"`
	ResponseRateThreshold   float64       `yaml:"response_rate_threshold"`
	RecentWeight            float64       `yaml:"recent_weight"`
	RecentWindow            time.Duration `yaml:"recent_window"`
	ColdStartWeight         float64       `yaml:"cold_start_weight"`
	ColdStartMatches        int           `yaml:"cold_start_matches"` // mentors with fewer successful matches get the cold-start bonus
}

// LiveConfig tunes live mentor routing. Weights are integer-scale points.
type LiveConfig struct {
	ExactCompanyPoints     float64       `yaml:"exact_company_points"`
	ExactCompanyCap        int           `yaml:"exact_company_cap"`
	RelatedCompanyPoints   float64       `yaml:"related_company_points"`
	RelatedCompanyCap      int           `yaml:"related_company_cap"`
	TagPoints              float64       `yaml:"tag_points"`
	TagCap                 int           `yaml:"tag_cap"`
	DomainPoints           float64       `yaml:"domain_points"` // scaled by intent confidence, halved for mentors covering both domains
	MilestonePoints        float64       `yaml:"milestone_points"`
	MilestoneCap           int           `yaml:"milestone_cap"`
	TechExactPoints        float64       `yaml:"tech_exact_points"`
	TechPartialPoints      float64       `yaml:"tech_partial_points"`
	TechCap                int           `yaml:"tech_cap"` // applies to exact and partial counts separately
	BioPointsPerKeyword    float64       `yaml:"bio_points_per_keyword"`
	BioMinShared           int           `yaml:"bio_min_shared"`
	BioCap                 int           `yaml:"bio_cap"`
	CollegeTierPoints      float64       `yaml:"college_tier_points"`
	FieldPoints            float64       `yaml:"field_points"`
	RatingHighPoints       float64       `yaml:"rating_high_points"`
	RatingHighThreshold    float64       `yaml:"rating_high_threshold"`
	RatingGoodPoints       float64       `yaml:"rating_good_points"`
	RatingGoodThreshold    float64       `yaml:"rating_good_threshold"`
	ResponseRatePoints     float64       `yaml:"response_rate_points"`
	ResponseRateThreshold  float64       `yaml:"response_rate_threshold"`
	ActiveWeekPoints       float64       `yaml:"active_week_points"`
	ActiveWeekWindow       time.Duration `yaml:"active_week_window"`
	ActiveFortnightPoints  float64       `yaml:"active_fortnight_points"`
	ActiveFortnightWindow  time.Duration `yaml:"active_fortnight_window"`
	ProvenPointsPerMatch   float64       `yaml:"proven_points_per_match"`
	ProvenCap              float64       `yaml:"proven_cap"`
	CappedLoadFactor       float64       `yaml:"capped_load_factor"` // multiplier for mentors at or above their load cap
	LoadPenaltyPerQuestion float64       `yaml:"load_penalty_per_question"`
	MinPoints              float64       `yaml:"min_points"`
	TieGapRatio            float64       `yaml:"tie_gap_ratio"`
	TieCeiling             float64       `yaml:"tie_ceiling"`
	LoadSlack              int           `yaml:"load_slack"`    // pre-filter admits mentors with load below cap + slack
	ActiveWindow           time.Duration `yaml:"active_window"` // pre-filter admits mentors active within this window
}

// DefaultConfig returns the default scoring configuration.
func DefaultConfig() *Config {
	return &Config{
		Semantic: SemanticConfig{
			TopK:                    25,
			PoolMultiplier:          6,
			FocusedPoolMultiplier:   12,
			SimilarityFloor:         0.85,
			InstantThreshold:        0.88,
			HighConfidenceThreshold: 0.92,
			MinGap:                  0.04,
			BonusCap:                0.35,
			ExactCompanyWeight:      0.04,
			ExactCompanyCap:         3,
			RelatedCompanyWeight:    0.02,
			RelatedCompanyCap:       2,
			DomainWeight:            0.06,
			TagWeight:               0.02,
			TagCap:                  4,
			MilestoneWeight:         0.015,
			MilestoneCap:            3,
			TechWeight:              0.015,
			TechCap:                 5,
			BioWeight:               0.03,
			BioMinShared:            5,
			CollegeTierWeight:       0.03,
			FieldWeight:             0.02,
			RatingWeight:            0.02,
			RatingThreshold:         4.5,
			ResponseRateWeight:      0.015,
			ResponseRateThreshold:   0.85,
			RecentWeight:            0.015,
			RecentWindow:            14 * 24 * time.Hour,
			ColdStartWeight:         0.02,
			ColdStartMatches:        5,
		},
		Live: LiveConfig{
			ExactCompanyPoints:     400,
			ExactCompanyCap:        2,
			RelatedCompanyPoints:   150,
			RelatedCompanyCap:      2,
			TagPoints:              80,
			TagCap:                 4,
			DomainPoints:           120,
			MilestonePoints:        60,
			MilestoneCap:           3,
			TechExactPoints:        90,
			TechPartialPoints:      40,
			TechCap:                5,
			BioPointsPerKeyword:    15,
			BioMinShared:           3,
			BioCap:                 10,
			CollegeTierPoints:      100,
			FieldPoints:            60,
			RatingHighPoints:       60,
			RatingHighThreshold:    4.5,
			RatingGoodPoints:       30,
			RatingGoodThreshold:    4.0,
			ResponseRatePoints:     50,
			ResponseRateThreshold:  0.85,
			ActiveWeekPoints:       50,
			ActiveWeekWindow:       7 * 24 * time.Hour,
			ActiveFortnightPoints:  25,
			ActiveFortnightWindow:  14 * 24 * time.Hour,
			ProvenPointsPerMatch:   10,
			ProvenCap:              150,
			CappedLoadFactor:       0.25,
			LoadPenaltyPerQuestion: 40,
			MinPoints:              350,
			TieGapRatio:            0.20,
			TieCeiling:             1000,
			LoadSlack:              2,
			ActiveWindow:           30 * 24 * time.Hour,
		},
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	// Semantic
	if c.Semantic.TopK == 0 {
		c.Semantic.TopK = defaults.Semantic.TopK
	}
	if c.Semantic.PoolMultiplier == 0 {
		c.Semantic.PoolMultiplier = defaults.Semantic.PoolMultiplier
	}
	if c.Semantic.FocusedPoolMultiplier == 0 {
		c.Semantic.FocusedPoolMultiplier = defaults.Semantic.FocusedPoolMultiplier
	}
	if c.Semantic.SimilarityFloor == 0 {
		c.Semantic.SimilarityFloor = defaults.Semantic.SimilarityFloor
	}
	if c.Semantic.InstantThreshold == 0 {
		c.Semantic.InstantThreshold = defaults.Semantic.InstantThreshold
	}
	if c.Semantic.HighConfidenceThreshold == 0 {
		c.Semantic.HighConfidenceThreshold = defaults.Semantic.HighConfidenceThreshold
	}
	if c.Semantic.MinGap == 0 {
		c.Semantic.MinGap = defaults.Semantic.MinGap
	}
	if c.Semantic.BonusCap == 0 {
		c.Semantic.BonusCap = defaults.Semantic.BonusCap
	}
	if c.Semantic.ExactCompanyWeight == 0 {
		c.Semantic.ExactCompanyWeight = defaults.Semantic.ExactCompanyWeight
	}
	if c.Semantic.ExactCompanyCap == 0 {
		c.Semantic.ExactCompanyCap = defaults.Semantic.ExactCompanyCap
	}
	if c.Semantic.RelatedCompanyWeight == 0 {
		c.Semantic.RelatedCompanyWeight = defaults.Semantic.RelatedCompanyWeight
	}
	if c.Semantic.RelatedCompanyCap == 0 {
		c.Semantic.RelatedCompanyCap = defaults.Semantic.RelatedCompanyCap
	}
	if c.Semantic.DomainWeight == 0 {
		c.Semantic.DomainWeight = defaults.Semantic.DomainWeight
	}
	if c.Semantic.TagWeight == 0 {
		c.Semantic.TagWeight = defaults.Semantic.TagWeight
	}
	if c.Semantic.TagCap == 0 {
		c.Semantic.TagCap = defaults.Semantic.TagCap
	}
	if c.Semantic.MilestoneWeight == 0 {
		c.Semantic.MilestoneWeight = defaults.Semantic.MilestoneWeight
	}
	if c.Semantic.MilestoneCap == 0 {
		c.Semantic.MilestoneCap = defaults.Semantic.MilestoneCap
	}
	if c.Semantic.TechWeight == 0 {
		c.Semantic.TechWeight = defaults.Semantic.TechWeight
	}
	if c.Semantic.TechCap == 0 {
		c.Semantic.TechCap = defaults.Semantic.TechCap
	}
	if c.Semantic.BioWeight == 0 {
		c.Semantic.BioWeight = defaults.Semantic.BioWeight
	}
	if c.Semantic.BioMinShared == 0 {
		c.Semantic.BioMinShared = defaults.Semantic.BioMinShared
	}
	if c.Semantic.CollegeTierWeight == 0 {
		c.Semantic.CollegeTierWeight = defaults.Semantic.CollegeTierWeight
	}
	if c.Semantic.FieldWeight == 0 {
		c.Semantic.FieldWeight = defaults.Semantic.FieldWeight
	}
	if c.Semantic.RatingWeight == 0 {
		c.Semantic.RatingWeight = defaults.Semantic.RatingWeight
	}
	if c.Semantic.RatingThreshold == 0 {
		c.Semantic.RatingThreshold = defaults.Semantic.RatingThreshold
	}
	if c.Semantic.ResponseRateWeight == 0 {
		c.Semantic.ResponseRateWeight = defaults.Semantic.ResponseRateWeight
	}
	if c.Semantic.ResponseRateThreshold == 0 {
		c.Semantic.ResponseRateThreshold = defaults.Semantic.ResponseRateThreshold
	}
	if c.Semantic.RecentWeight == 0 {
		c.Semantic.RecentWeight = defaults.Semantic.RecentWeight
	}
	if c.Semantic.RecentWindow == 0 {
		c.Semantic.RecentWindow = defaults.Semantic.RecentWindow
	}
	if c.Semantic.ColdStartWeight == 0 {
		c.Semantic.ColdStartWeight = defaults.Semantic.ColdStartWeight
	}
	if c.Semantic.ColdStartMatches == 0 {
		c.Semantic.ColdStartMatches = defaults.Semantic.ColdStartMatches
	}

	// Live
	if c.Live.ExactCompanyPoints == 0 {
		c.Live.ExactCompanyPoints = defaults.Live.ExactCompanyPoints
	}
	if c.Live.ExactCompanyCap == 0 {
		c.Live.ExactCompanyCap = defaults.Live.ExactCompanyCap
	}
	if c.Live.RelatedCompanyPoints == 0 {
		c.Live.RelatedCompanyPoints = defaults.Live.RelatedCompanyPoints
	}
	if c.Live.RelatedCompanyCap == 0 {
		c.Live.RelatedCompanyCap = defaults.Live.RelatedCompanyCap
	}
	if c.Live.TagPoints == 0 {
		c.Live.TagPoints = defaults.Live.TagPoints
	}
	if c.Live.TagCap == 0 {
		c.Live.TagCap = defaults.Live.TagCap
	}
	if c.Live.DomainPoints == 0 {
		c.Live.DomainPoints = defaults.Live.DomainPoints
	}
	if c.Live.MilestonePoints == 0 {
		c.Live.MilestonePoints = defaults.Live.MilestonePoints
	}
	if c.Live.MilestoneCap == 0 {
		c.Live.MilestoneCap = defaults.Live.MilestoneCap
	}
	if c.Live.TechExactPoints == 0 {
		c.Live.TechExactPoints = defaults.Live.TechExactPoints
	}
	if c.Live.TechPartialPoints == 0 {
		c.Live.TechPartialPoints = defaults.Live.TechPartialPoints
	}
	if c.Live.TechCap == 0 {
		c.Live.TechCap = defaults.Live.TechCap
	}
	if c.Live.BioPointsPerKeyword == 0 {
		c.Live.BioPointsPerKeyword = defaults.Live.BioPointsPerKeyword
	}
	if c.Live.BioMinShared == 0 {
		c.Live.BioMinShared = defaults.Live.BioMinShared
	}
	if c.Live.BioCap == 0 {
		c.Live.BioCap = defaults.Live.BioCap
	}
	if c.Live.CollegeTierPoints == 0 {
		c.Live.CollegeTierPoints = defaults.Live.CollegeTierPoints
	}
	if c.Live.FieldPoints == 0 {
		c.Live.FieldPoints = defaults.Live.FieldPoints
	}
	if c.Live.RatingHighPoints == 0 {
		c.Live.RatingHighPoints = defaults.Live.RatingHighPoints
	}
	if c.Live.RatingHighThreshold == 0 {
		c.Live.RatingHighThreshold = defaults.Live.RatingHighThreshold
	}
	if c.Live.RatingGoodPoints == 0 {
		c.Live.RatingGoodPoints = defaults.Live.RatingGoodPoints
	}
	if c.Live.RatingGoodThreshold == 0 {
		c.Live.RatingGoodThreshold = defaults.Live.RatingGoodThreshold
	}
	if c.Live.ResponseRatePoints == 0 {
		c.Live.ResponseRatePoints = defaults.Live.ResponseRatePoints
	}
	if c.Live.ResponseRateThreshold == 0 {
		c.Live.ResponseRateThreshold = defaults.Live.ResponseRateThreshold
	}
	if c.Live.ActiveWeekPoints == 0 {
		c.Live.ActiveWeekPoints = defaults.Live.ActiveWeekPoints
	}
	if c.Live.ActiveWeekWindow == 0 {
		c.Live.ActiveWeekWindow = defaults.Live.ActiveWeekWindow
	}
	if c.Live.ActiveFortnightPoints == 0 {
		c.Live.ActiveFortnightPoints = defaults.Live.ActiveFortnightPoints
	}
	if c.Live.ActiveFortnightWindow == 0 {
		c.Live.ActiveFortnightWindow = defaults.Live.ActiveFortnightWindow
	}
	if c.Live.ProvenPointsPerMatch == 0 {
		c.Live.ProvenPointsPerMatch = defaults.Live.ProvenPointsPerMatch
	}
	if c.Live.ProvenCap == 0 {
		c.Live.ProvenCap = defaults.Live.ProvenCap
	}
	if c.Live.CappedLoadFactor == 0 {
		c.Live.CappedLoadFactor = defaults.Live.CappedLoadFactor
	}
	if c.Live.LoadPenaltyPerQuestion == 0 {
		c.Live.LoadPenaltyPerQuestion = defaults.Live.LoadPenaltyPerQuestion
	}
	if c.Live.MinPoints == 0 {
		c.Live.MinPoints = defaults.Live.MinPoints
	}
	if c.Live.TieGapRatio == 0 {
		c.Live.TieGapRatio = defaults.Live.TieGapRatio
	}
	if c.Live.TieCeiling == 0 {
		c.Live.TieCeiling = defaults.Live.TieCeiling
	}
	if c.Live.LoadSlack == 0 {
		c.Live.LoadSlack = defaults.Live.LoadSlack
	}
	if c.Live.ActiveWindow == 0 {
		c.Live.ActiveWindow = defaults.Live.ActiveWindow
	}
}

// PoolSize returns the nearest-neighbour candidate pool for a query.
func (c *SemanticConfig) PoolSize(focused bool) int {
	if focused {
		return c.TopK * c.FocusedPoolMultiplier
	}
	return c.TopK * c.PoolMultiplier
}
