// Package match implements the two routing paths for a question: instant reuse of an
// existing answer card (semantic) and live assignment to a mentor.
package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/mentorlink/internal/cache"
	"github.com/hyperjump/mentorlink/internal/lexical"
	"github.com/hyperjump/mentorlink/internal/models"
	"github.com/hyperjump/mentorlink/internal/ranking"
	"github.com/hyperjump/mentorlink/internal/storage"
	"github.com/hyperjump/mentorlink/internal/vector"
	"github.com/hyperjump/mentorlink/pkg/utils"
)

// CardReader loads answer cards.
type CardReader interface {
	GetCard(ctx context.Context, id string) (*models.AnswerCard, error)
}

// Option configures a matcher or router.
type Option func(*options)

type options struct {
	logger *zap.Logger
	now    func() time.Time
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock overrides the time source used for recency signals.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = utils.OrNop(o.logger)
	return o
}

// Result is the outcome of one instant-match attempt.
type Result struct {
	// Candidate is nil when no card passed the quality gates.
	Candidate *models.MatchCandidate
	Gate      ranking.GateResult
	// Cached is true when the result came from the result cache.
	Cached bool
}

// SemanticMatcher finds an existing answer card good enough to answer a question instantly.
type SemanticMatcher struct {
	index    vector.VectorIndex
	mentors  storage.MentorDirectory
	cards    CardReader
	analyzer *lexical.Analyzer
	canon    ranking.Canonicalizer
	results  *cache.ResultCache[*models.MatchCandidate]
	cfg      ranking.SemanticConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewSemanticMatcher returns a matcher. The config is copied.
func NewSemanticMatcher(
	index vector.VectorIndex,
	mentors storage.MentorDirectory,
	cards CardReader,
	analyzer *lexical.Analyzer,
	canon ranking.Canonicalizer,
	results *cache.ResultCache[*models.MatchCandidate],
	cfg ranking.SemanticConfig,
	opts ...Option,
) *SemanticMatcher {
	o := buildOptions(opts)
	return &SemanticMatcher{
		index:    index,
		mentors:  mentors,
		cards:    cards,
		analyzer: analyzer,
		canon:    canon,
		results:  results,
		cfg:      cfg,
		logger:   o.logger,
		now:      o.now,
	}
}

// FindInstantMatch searches published cards near vec and applies the hybrid score and
// quality gates. Accepted candidates are cached under the hash of text.
func (m *SemanticMatcher) FindInstantMatch(ctx context.Context, askerID string, vec []float32, text string) (*Result, error) {
	key := cache.KeyForText(text)
	if hit, ok := m.results.Get(key); ok {
		if res := m.fromCache(ctx, askerID, hit); res != nil {
			return res, nil
		}
	}

	desc := m.analyzer.Analyze(text)
	hits, err := m.index.Search(ctx, vec, vector.SearchOptions{
		NumCandidates: m.cfg.PoolSize(desc.IsUrgent || desc.HasSpecifics),
		Limit:         m.cfg.TopK,
		MinScore:      m.cfg.SimilarityFloor,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if len(hits) == 0 {
		return &Result{Gate: ranking.GateNoCandidates}, nil
	}

	ids := make([]string, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.MentorID]; ok {
			continue
		}
		seen[h.MentorID] = struct{}{}
		ids = append(ids, h.MentorID)
	}
	profiles, err := m.mentors.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load mentors: %w", err)
	}
	byID := make(map[string]*models.MentorProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	q := &ranking.Query{
		Descriptor: desc,
		Keywords:   lexical.ExtractKeywords(text),
		Asker:      m.askerProfile(ctx, askerID),
	}
	now := m.now()
	candidates := make([]*models.MatchCandidate, 0, len(hits))
	for _, h := range hits {
		if h.MentorID == askerID {
			continue
		}
		mentor, ok := byID[h.MentorID]
		if !ok {
			m.logger.Warn("mentor missing for card, skipping",
				zap.String("card_id", h.CardID), zap.String("mentor_id", h.MentorID))
			continue
		}
		signals := ranking.ComputeSignals(q, mentor, m.canon, now)
		score, breakdown := ranking.HybridScore(h.Score, signals, &m.cfg)
		candidates = append(candidates, &models.MatchCandidate{
			Card:      &models.AnswerCard{ID: h.CardID, MentorID: h.MentorID},
			Mentor:    mentor,
			Score:     score,
			RawScore:  h.Score,
			Breakdown: breakdown,
		})
	}

	ranking.SortCandidates(candidates)
	best, gate := ranking.SelectInstant(candidates, &m.cfg)
	if best == nil {
		m.logger.Debug("instant match rejected", zap.String("gate", string(gate)), zap.Int("candidates", len(candidates)))
		return &Result{Gate: gate}, nil
	}

	card, err := m.cards.GetCard(ctx, best.Card.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load card %s: %w", best.Card.ID, err)
	}
	best.Card = card
	m.results.Set(key, best)
	return &Result{Candidate: best, Gate: gate}, nil
}

// fromCache serves a cached candidate with its card reloaded, so follow-ups and feedback
// added since caching are visible. It returns nil when the hit cannot be served to
// askerID: the card is the asker's own or could not be loaded.
func (m *SemanticMatcher) fromCache(ctx context.Context, askerID string, hit *models.MatchCandidate) *Result {
	if hit.MentorID() == askerID {
		return nil
	}
	card, err := m.cards.GetCard(ctx, hit.Card.ID)
	if err != nil {
		m.logger.Warn("cached card reload failed, searching again",
			zap.String("card_id", hit.Card.ID), zap.Error(err))
		return nil
	}
	c := *hit
	c.Card = card
	return &Result{Candidate: &c, Gate: ranking.GateHighConfidence, Cached: true}
}

func (m *SemanticMatcher) askerProfile(ctx context.Context, askerID string) *models.MentorProfile {
	if askerID == "" {
		return nil
	}
	p, err := m.mentors.GetUser(ctx, askerID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Warn("failed to load asker profile", zap.String("asker_id", askerID), zap.Error(err))
		}
		return nil
	}
	return p
}
