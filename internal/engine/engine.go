// Package engine routes student questions to an instant answer or a live mentor
// and owns the answer lifecycle that follows.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/mentorlink/internal/cache"
	"github.com/hyperjump/mentorlink/internal/company"
	"github.com/hyperjump/mentorlink/internal/config"
	"github.com/hyperjump/mentorlink/internal/embedding"
	"github.com/hyperjump/mentorlink/internal/lexical"
	"github.com/hyperjump/mentorlink/internal/match"
	"github.com/hyperjump/mentorlink/internal/models"
	"github.com/hyperjump/mentorlink/internal/notify"
	"github.com/hyperjump/mentorlink/internal/ranking"
	"github.com/hyperjump/mentorlink/internal/storage"
	"github.com/hyperjump/mentorlink/internal/vector"
	"github.com/hyperjump/mentorlink/pkg/utils"
)

var (
	// ErrFollowUpLimit is returned when a card already has the maximum number of follow-ups.
	ErrFollowUpLimit = errors.New("follow-up limit reached")
	// ErrInvalidState is returned when a question or card is not in a state that allows the operation.
	ErrInvalidState = errors.New("invalid state for operation")
	// ErrNotAssignedMentor is returned when a mentor acts on a question assigned to someone else.
	ErrNotAssignedMentor = errors.New("mentor is not assigned to this question")
	// ErrInvalidInput is returned for malformed request content.
	ErrInvalidInput = errors.New("invalid input")
)

// Engine is the long-lived orchestrator. All caches and indexes it uses are owned
// by the instance. It is safe for concurrent use.
type Engine struct {
	store     storage.Storage
	embedder  embedding.Embedder
	index     vector.VectorIndex
	companies *company.Index
	analyzer  *lexical.Analyzer
	results   *cache.ResultCache[*models.MatchCandidate]
	semantic  *match.SemanticMatcher
	live      *match.LiveRouter
	notifier  notify.Notifier
	cfg       config.EngineConfig
	logger    *zap.Logger
	now       func() time.Time

	notifications sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithNotifier sets the mentor notifier. The default logs notifications.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithCompanyIndex replaces the company alias index built from the store.
func WithCompanyIndex(idx *company.Index) Option {
	return func(e *Engine) { e.companies = idx }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an engine. embedder may be nil, in which case instant answers are
// never attempted and cards are stored without embeddings. matching is copied.
func New(
	store storage.Storage,
	embedder embedding.Embedder,
	index vector.VectorIndex,
	cfg config.EngineConfig,
	matching ranking.Config,
	opts ...Option,
) *Engine {
	e := &Engine{
		store:    store,
		embedder: embedder,
		index:    index,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = utils.OrNop(e.logger)
	if e.notifier == nil {
		e.notifier = notify.NewLogNotifier(e.logger)
	}
	if e.companies == nil {
		e.companies = company.NewIndex(store,
			company.WithTTL(cfg.AliasRefreshTTL),
			company.WithAliasFile(cfg.AliasFile),
			company.WithLogger(e.logger),
			company.WithClock(e.now))
	}
	if e.cfg.MaxAssignAttempts <= 0 {
		e.cfg.MaxAssignAttempts = 1
	}
	matching.ApplyDefaults()

	e.analyzer = lexical.NewAnalyzer(e.companies)
	e.results = cache.New[*models.MatchCandidate](cfg.ResultCacheSize, cfg.ResultCacheTTL, cache.WithClock(e.now))
	matchOpts := []match.Option{match.WithLogger(e.logger), match.WithClock(e.now)}
	e.semantic = match.NewSemanticMatcher(index, store, store, e.analyzer, e.companies, e.results,
		matching.Semantic, matchOpts...)
	e.live = match.NewLiveRouter(store, e.analyzer, e.companies, matching.Live, matchOpts...)
	return e
}

// Companies returns the alias index, for invalidation by the file watcher.
func (e *Engine) Companies() *company.Index {
	return e.companies
}

// ProcessQuestion routes a question. It tries an instant answer from an existing
// card first, then live assignment, then the pending pool. Follow-ups skip the
// instant path and go to the mentor who wrote the parent's card. Only
// persistence failures are returned as errors.
func (e *Engine) ProcessQuestion(ctx context.Context, req models.QuestionRequest) (*models.Outcome, error) {
	start := time.Now()
	defer func() { processSeconds.Observe(time.Since(start).Seconds()) }()

	text := strings.TrimSpace(req.Text)
	if req.ParentQuestionID != "" {
		return e.AskFollowUp(ctx, req.AskerID, req.ParentQuestionID, text)
	}

	if err := e.companies.Warm(ctx); err != nil {
		softFailuresTotal.WithLabelValues("company_index").Inc()
		e.logger.Warn("company index warm-up failed, using previous snapshot", zap.Error(err))
	}

	vec := e.embedQuestion(ctx, text)
	keywords := lexical.ExtractKeywords(text)

	if vec != nil {
		out, err := e.tryInstant(ctx, req.AskerID, text, vec, keywords)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return e.finish(req.AskerID, out), nil
		}
	}

	out, err := e.routeLive(ctx, req.AskerID, text, keywords)
	if err != nil {
		return nil, err
	}
	return e.finish(req.AskerID, out), nil
}

func (e *Engine) finish(askerID string, out *models.Outcome) *models.Outcome {
	outcomesTotal.WithLabelValues(string(out.Status)).Inc()
	e.logger.Info("question processed",
		zap.String("question_id", out.QuestionID),
		zap.String("asker_id", askerID),
		zap.String("status", string(out.Status)),
		zap.String("method", string(out.MatchMethod)),
		zap.Float64("score", out.MatchScore),
		zap.Int("attempts", out.Attempts))
	return out
}

func (e *Engine) embedQuestion(ctx context.Context, text string) []float32 {
	if e.embedder == nil {
		return nil
	}
	if e.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.EmbedTimeout)
		defer cancel()
	}
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		softFailuresTotal.WithLabelValues("embedding").Inc()
		e.logger.Warn("embedding unavailable, skipping instant match", zap.Error(err))
		return nil
	}
	return vec
}

// tryInstant returns nil, nil when no card qualifies or the matcher failed.
func (e *Engine) tryInstant(ctx context.Context, askerID, text string, vec []float32, keywords []string) (*models.Outcome, error) {
	res, err := e.semantic.FindInstantMatch(ctx, askerID, vec, text)
	if err != nil {
		softFailuresTotal.WithLabelValues("semantic_match").Inc()
		e.logger.Warn("instant match failed, falling back to live routing", zap.Error(err))
		return nil, nil
	}
	if res.Cached {
		semanticCacheTotal.WithLabelValues("hit").Inc()
	} else {
		semanticCacheTotal.WithLabelValues("miss").Inc()
		gateDecisionsTotal.WithLabelValues("semantic", string(res.Gate)).Inc()
	}
	if res.Candidate == nil {
		return nil, nil
	}

	c := res.Candidate
	q := &models.Question{
		ID:           uuid.New().String(),
		AskerID:      askerID,
		Text:         text,
		Keywords:     keywords,
		Status:       models.StatusAnsweredInstantly,
		MentorID:     c.MentorID(),
		AnswerCardID: c.Card.ID,
		MatchMethod:  models.MethodVectorSemantic,
		MatchScore:   c.Score,
	}
	if err := e.store.CreateQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to save question: %w", err)
	}
	return &models.Outcome{
		Status:      models.OutcomeInstant,
		QuestionID:  q.ID,
		MatchMethod: q.MatchMethod,
		MatchScore:  c.Score,
		MentorID:    c.MentorID(),
		MentorName:  c.Mentor.Name,
		Card:        c.Card,
		Keywords:    keywords,
		Breakdown:   c.Breakdown,
	}, nil
}

// routeLive runs live assignment in a bounded loop. Losing the load race to a
// concurrent assignment re-runs routing with fresh loads.
func (e *Engine) routeLive(ctx context.Context, askerID, text string, keywords []string) (*models.Outcome, error) {
	for attempt := 1; attempt <= e.cfg.MaxAssignAttempts; attempt++ {
		a, err := e.live.AssignMentor(ctx, askerID, keywords)
		if err != nil {
			softFailuresTotal.WithLabelValues("live_routing").Inc()
			e.logger.Warn("live routing failed, sending to pending pool", zap.Error(err))
			return e.savePending(ctx, askerID, text, keywords, attempt, models.OutcomeSearching)
		}
		gateDecisionsTotal.WithLabelValues("live", string(a.Gate)).Inc()
		if a.Candidate == nil {
			return e.savePending(ctx, askerID, text, keywords, attempt, models.OutcomeSearching)
		}

		mentor := a.Candidate.Mentor
		q := &models.Question{
			ID:          uuid.New().String(),
			AskerID:     askerID,
			Text:        text,
			Keywords:    keywords,
			Status:      models.StatusMentorAssigned,
			MatchMethod: models.MethodLiveRouting,
			MatchScore:  a.Candidate.Score,
		}
		err = e.store.AssignQuestion(ctx, q, mentor.ID)
		if errors.Is(err, storage.ErrLoadContention) {
			assignRetriesTotal.Inc()
			e.logger.Debug("mentor filled up before assignment, retrying",
				zap.String("mentor_id", mentor.ID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to assign question: %w", err)
		}

		e.notifyAsync(mentor.Contact(), text, keywords)
		return &models.Outcome{
			Status:      models.OutcomeAssigned,
			QuestionID:  q.ID,
			MatchMethod: q.MatchMethod,
			MatchScore:  q.MatchScore,
			MentorID:    mentor.ID,
			MentorName:  mentor.Name,
			Keywords:    keywords,
			Attempts:    attempt,
			Breakdown:   a.Candidate.Breakdown,
		}, nil
	}
	return e.savePending(ctx, askerID, text, keywords, e.cfg.MaxAssignAttempts, models.OutcomeBusy)
}

func (e *Engine) savePending(ctx context.Context, askerID, text string, keywords []string, attempts int, status models.OutcomeStatus) (*models.Outcome, error) {
	q := &models.Question{
		ID:          uuid.New().String(),
		AskerID:     askerID,
		Text:        text,
		Keywords:    keywords,
		Status:      models.StatusPending,
		MatchMethod: models.MethodPendingAssignment,
	}
	if err := e.store.CreateQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to save question: %w", err)
	}
	msg := "Searching for the right mentor. You will be notified when someone picks this up."
	if status == models.OutcomeBusy {
		msg = "The system is busy right now. Your question is queued and will be answered soon."
	}
	return &models.Outcome{
		Status:      status,
		QuestionID:  q.ID,
		MatchMethod: q.MatchMethod,
		Keywords:    keywords,
		Attempts:    attempts,
		Message:     msg,
	}, nil
}

// notifyAsync delivers a notification in the background. Failures are logged.
func (e *Engine) notifyAsync(mentor models.MentorContact, text string, keywords []string) {
	e.notifications.Add(1)
	go func() {
		defer e.notifications.Done()
		ctx := context.Background()
		if e.cfg.NotifyTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.cfg.NotifyTimeout)
			defer cancel()
		}
		if err := e.notifier.NotifyMentorNewQuestion(ctx, mentor, text, keywords); err != nil {
			softFailuresTotal.WithLabelValues("notify").Inc()
			e.logger.Warn("mentor notification failed", zap.String("mentor_id", mentor.ID), zap.Error(err))
		}
	}()
}

// Close waits for in-flight notifications. It does not close the store, embedder or index.
func (e *Engine) Close() error {
	e.notifications.Wait()
	return nil
}
