package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/mentorlink/internal/lexical"
	"github.com/hyperjump/mentorlink/internal/models"
	"github.com/hyperjump/mentorlink/internal/ranking"
	"github.com/hyperjump/mentorlink/internal/storage"
)

// Assignment is the outcome of one live-routing attempt.
type Assignment struct {
	// Candidate is nil when no mentor passed the quality gates.
	Candidate *models.MatchCandidate
	Gate      ranking.GateResult
	// Considered is the number of mentors scored.
	Considered int
}

// LiveRouter picks a mentor for a question by points over the active mentor population.
type LiveRouter struct {
	mentors  storage.MentorDirectory
	analyzer *lexical.Analyzer
	canon    ranking.Canonicalizer
	cfg      ranking.LiveConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewLiveRouter returns a router. The config is copied.
func NewLiveRouter(
	mentors storage.MentorDirectory,
	analyzer *lexical.Analyzer,
	canon ranking.Canonicalizer,
	cfg ranking.LiveConfig,
	opts ...Option,
) *LiveRouter {
	o := buildOptions(opts)
	return &LiveRouter{
		mentors:  mentors,
		analyzer: analyzer,
		canon:    canon,
		cfg:      cfg,
		logger:   o.logger,
		now:      o.now,
	}
}

// AssignMentor scores eligible mentors against keywords and selects one. It reads
// current loads but does not change them.
func (r *LiveRouter) AssignMentor(ctx context.Context, askerID string, keywords []string) (*Assignment, error) {
	now := r.now()
	mentors, err := r.mentors.FindEligible(ctx, storage.EligibilityCriteria{
		LoadSlack:   r.cfg.LoadSlack,
		ActiveSince: now.Add(-r.cfg.ActiveWindow),
		ExcludeID:   askerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load eligible mentors: %w", err)
	}
	if len(mentors) == 0 {
		return &Assignment{Gate: ranking.GateNoCandidates}, nil
	}

	q := &ranking.Query{
		Descriptor: r.analyzer.Analyze(strings.Join(keywords, " ")),
		Keywords:   keywords,
		Asker:      r.askerProfile(ctx, askerID),
	}
	ranked := make([]*models.MatchCandidate, 0, len(mentors))
	for _, mentor := range mentors {
		signals := ranking.ComputeSignals(q, mentor, r.canon, now)
		points, raw, breakdown := ranking.LivePoints(signals, mentor, &r.cfg)
		ranked = append(ranked, &models.MatchCandidate{
			Mentor:    mentor,
			Score:     points,
			RawScore:  raw,
			Breakdown: breakdown,
		})
	}
	ranking.SortCandidates(ranked)

	chosen, gate := ranking.SelectMentor(ranked, &r.cfg)
	if chosen == nil {
		r.logger.Debug("live routing rejected",
			zap.String("gate", string(gate)),
			zap.Float64("best_points", ranked[0].Score),
			zap.Int("considered", len(ranked)))
	}
	return &Assignment{Candidate: chosen, Gate: gate, Considered: len(ranked)}, nil
}

func (r *LiveRouter) askerProfile(ctx context.Context, askerID string) *models.MentorProfile {
	if askerID == "" {
		return nil
	}
	p, err := r.mentors.GetUser(ctx, askerID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("failed to load asker profile", zap.String("asker_id", askerID), zap.Error(err))
		}
		return nil
	}
	return p
}
