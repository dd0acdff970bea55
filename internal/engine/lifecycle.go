package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/mentorlink/internal/lexical"
	"github.com/hyperjump/mentorlink/internal/models"
	"github.com/hyperjump/mentorlink/internal/storage"
	"github.com/hyperjump/mentorlink/internal/vector"
)

var openStatuses = []models.QuestionStatus{models.StatusMentorAssigned, models.StatusAwaitingExperience}

// SubmitExperience turns the assigned mentor's answer into an AnswerCard, links it
// to the question and releases the mentor's load slot. The card is embedded and
// indexed when the embedder is available; otherwise VectorizePending picks it up.
func (e *Engine) SubmitExperience(ctx context.Context, questionID string, req models.ExperienceRequest) (*models.AnswerCard, error) {
	q, err := e.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q.IsFollowUp() {
		return nil, fmt.Errorf("question %s is a follow-up: %w", q.ID, ErrInvalidState)
	}
	if q.MentorID != req.MentorID {
		return nil, fmt.Errorf("question %s: %w", q.ID, ErrNotAssignedMentor)
	}
	if !q.IsOpenAssignment() {
		return nil, fmt.Errorf("question %s is %s: %w", q.ID, q.Status, ErrInvalidState)
	}
	content, err := models.NormalizeContent(req.Content)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}

	card := &models.AnswerCard{
		ID:         uuid.New().String(),
		QuestionID: q.ID,
		MentorID:   q.MentorID,
		Content:    content,
		FollowUps:  []models.FollowUp{},
	}
	card.Embedding = e.embedCard(ctx, card)

	if err := e.store.CompleteWithCard(ctx, q, card); err != nil {
		if errors.Is(err, storage.ErrStateChanged) {
			return nil, fmt.Errorf("question %s: %w", q.ID, ErrInvalidState)
		}
		return nil, fmt.Errorf("failed to save answer card: %w", err)
	}
	if card.HasEmbedding() {
		e.indexCard(ctx, card)
	}
	e.logger.Info("answer card created",
		zap.String("card_id", card.ID),
		zap.String("question_id", q.ID),
		zap.String("mentor_id", card.MentorID),
		zap.Bool("embedded", card.HasEmbedding()))
	return card, nil
}

func (e *Engine) embedCard(ctx context.Context, card *models.AnswerCard) []float32 {
	if e.embedder == nil {
		return nil
	}
	if e.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.EmbedTimeout)
		defer cancel()
	}
	vec, err := e.embedder.Embed(ctx, card.Content.Text())
	if err != nil {
		softFailuresTotal.WithLabelValues("embedding").Inc()
		e.logger.Warn("card embedding deferred", zap.String("card_id", card.ID), zap.Error(err))
		return nil
	}
	return vec
}

func (e *Engine) indexCard(ctx context.Context, card *models.AnswerCard) {
	err := e.index.Add(ctx, []vector.Entry{{CardID: card.ID, MentorID: card.MentorID, Vector: card.Embedding}})
	if err != nil {
		softFailuresTotal.WithLabelValues("vector_index").Inc()
		e.logger.Warn("failed to index card", zap.String("card_id", card.ID), zap.Error(err))
	}
}

// CloseQuestion closes a question that will not get a card. Open assignments
// release the mentor's load slot; pending questions and follow-ups just close.
func (e *Engine) CloseQuestion(ctx context.Context, questionID string) error {
	q, err := e.store.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	switch {
	case q.IsOpenAssignment():
		err = e.store.CloseAssignment(ctx, q)
	case q.IsFollowUp():
		err = e.store.UpdateQuestionStatus(ctx, q.ID, openStatuses, models.StatusClosed)
	case q.Status == models.StatusPending:
		err = e.store.UpdateQuestionStatus(ctx, q.ID, []models.QuestionStatus{models.StatusPending}, models.StatusClosed)
	default:
		return fmt.Errorf("question %s is %s: %w", q.ID, q.Status, ErrInvalidState)
	}
	if errors.Is(err, storage.ErrStateChanged) {
		return fmt.Errorf("question %s: %w", q.ID, ErrInvalidState)
	}
	return err
}

// AskFollowUp routes a follow-up directly to the mentor whose card answered the
// parent. Each card accepts at most models.MaxFollowUps follow-ups. Follow-ups do
// not count toward mentor load and never create cards.
func (e *Engine) AskFollowUp(ctx context.Context, askerID, parentID, text string) (*models.Outcome, error) {
	parent, err := e.store.GetQuestion(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.AskerID != askerID {
		return nil, fmt.Errorf("question %s belongs to another asker: %w", parent.ID, ErrInvalidState)
	}
	if parent.IsFollowUp() || parent.AnswerCardID == "" {
		return nil, fmt.Errorf("question %s has no answer to follow up on: %w", parent.ID, ErrInvalidState)
	}
	card, err := e.store.GetCard(ctx, parent.AnswerCardID)
	if err != nil {
		return nil, err
	}
	if len(card.FollowUps) >= models.MaxFollowUps {
		return nil, fmt.Errorf("card %s: %w", card.ID, ErrFollowUpLimit)
	}

	keywords := lexical.ExtractKeywords(text)
	q := &models.Question{
		ID:               uuid.New().String(),
		AskerID:          askerID,
		Text:             text,
		Keywords:         keywords,
		Status:           models.StatusMentorAssigned,
		MentorID:         card.MentorID,
		ParentQuestionID: parent.ID,
		MatchMethod:      models.MethodLiveRouting,
	}
	if err := e.store.CreateFollowUp(ctx, q, card.ID, models.MaxFollowUps); err != nil {
		if errors.Is(err, storage.ErrLimitReached) {
			return nil, fmt.Errorf("card %s: %w", card.ID, ErrFollowUpLimit)
		}
		return nil, fmt.Errorf("failed to save follow-up: %w", err)
	}

	out := &models.Outcome{
		Status:      models.OutcomeAssigned,
		QuestionID:  q.ID,
		MatchMethod: q.MatchMethod,
		MentorID:    card.MentorID,
		Keywords:    keywords,
		Attempts:    1,
	}
	mentor, err := e.store.GetUser(ctx, card.MentorID)
	if err != nil {
		e.logger.Warn("follow-up mentor lookup failed, not notifying",
			zap.String("mentor_id", card.MentorID), zap.Error(err))
	} else {
		out.MentorName = mentor.Name
		e.notifyAsync(mentor.Contact(), text, keywords)
	}
	return e.finish(askerID, out), nil
}

// AnswerFollowUp appends the mentor's answer to the parent card and delivers the follow-up.
func (e *Engine) AnswerFollowUp(ctx context.Context, followUpID string, req models.FollowUpAnswerRequest) (*models.AnswerCard, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	fq, err := e.store.GetQuestion(ctx, followUpID)
	if err != nil {
		return nil, err
	}
	if !fq.IsFollowUp() {
		return nil, fmt.Errorf("question %s is not a follow-up: %w", fq.ID, ErrInvalidState)
	}
	if fq.MentorID != req.MentorID {
		return nil, fmt.Errorf("question %s: %w", fq.ID, ErrNotAssignedMentor)
	}
	parent, err := e.store.GetQuestion(ctx, fq.ParentQuestionID)
	if err != nil {
		return nil, err
	}

	fu := models.FollowUp{
		QuestionID: fq.ID,
		Question:   fq.Text,
		Answer:     req.Answer,
		AnsweredAt: e.now().UTC(),
	}
	if err := e.store.AppendFollowUp(ctx, parent.AnswerCardID, fu, models.MaxFollowUps); err != nil {
		switch {
		case errors.Is(err, storage.ErrLimitReached):
			return nil, fmt.Errorf("card %s: %w", parent.AnswerCardID, ErrFollowUpLimit)
		case errors.Is(err, storage.ErrStateChanged):
			return nil, fmt.Errorf("question %s: %w", fq.ID, ErrInvalidState)
		}
		return nil, fmt.Errorf("failed to save follow-up answer: %w", err)
	}
	return e.store.GetCard(ctx, parent.AnswerCardID)
}

// SubmitFeedback records the asker's rating of a card.
func (e *Engine) SubmitFeedback(ctx context.Context, cardID string, fb models.Feedback) error {
	if err := fb.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	return e.store.SetFeedback(ctx, cardID, fb)
}

// MarkDelivered records that an answered question has been shown to the asker.
func (e *Engine) MarkDelivered(ctx context.Context, questionID string) error {
	err := e.store.UpdateQuestionStatus(ctx, questionID,
		[]models.QuestionStatus{models.StatusExperienceSubmitted, models.StatusAnsweredInstantly},
		models.StatusDelivered)
	if errors.Is(err, storage.ErrStateChanged) {
		if _, getErr := e.store.GetQuestion(ctx, questionID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("question %s: %w", questionID, ErrInvalidState)
	}
	return err
}

// VectorizePending embeds up to limit cards stored without an embedding and adds
// them to the vector index. It returns the number of cards indexed.
func (e *Engine) VectorizePending(ctx context.Context, limit int) (int, error) {
	if e.embedder == nil {
		return 0, nil
	}
	cards, err := e.store.ListUnvectorizedCards(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list cards: %w", err)
	}
	if len(cards) == 0 {
		return 0, nil
	}
	texts := make([]string, len(cards))
	for i, c := range cards {
		texts[i] = c.Content.Text()
	}
	vecs, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		softFailuresTotal.WithLabelValues("embedding").Inc()
		return 0, fmt.Errorf("failed to embed cards: %w", err)
	}

	entries := make([]vector.Entry, 0, len(cards))
	for i, c := range cards {
		if err := e.store.SetCardEmbedding(ctx, c.ID, vecs[i]); err != nil {
			e.logger.Warn("failed to store card embedding", zap.String("card_id", c.ID), zap.Error(err))
			continue
		}
		entries = append(entries, vector.Entry{CardID: c.ID, MentorID: c.MentorID, Vector: vecs[i]})
	}
	if err := e.index.Add(ctx, entries); err != nil {
		return 0, fmt.Errorf("failed to index cards: %w", err)
	}
	return len(entries), nil
}

// RunVectorizer calls VectorizePending every interval until ctx is done.
func (e *Engine) RunVectorizer(ctx context.Context, interval time.Duration, batch int) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := e.VectorizePending(ctx, batch)
			if err != nil {
				e.logger.Warn("background vectorization failed", zap.Error(err))
				continue
			}
			if n > 0 {
				e.logger.Info("cards vectorized", zap.Int("count", n))
			}
		}
	}
}

// RebuildVectorIndex loads every embedded card into the vector index.
func (e *Engine) RebuildVectorIndex(ctx context.Context) (int, error) {
	cards, err := e.store.ListVectorizedCards(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list cards: %w", err)
	}
	entries := make([]vector.Entry, 0, len(cards))
	for _, c := range cards {
		entries = append(entries, vector.Entry{CardID: c.ID, MentorID: c.MentorID, Vector: c.Embedding})
	}
	if err := e.index.Add(ctx, entries); err != nil {
		return 0, fmt.Errorf("failed to index cards: %w", err)
	}
	return len(entries), nil
}

// GetQuestion returns a question by ID.
func (e *Engine) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	return e.store.GetQuestion(ctx, id)
}

// GetCard returns an answer card by ID.
func (e *Engine) GetCard(ctx context.Context, id string) (*models.AnswerCard, error) {
	return e.store.GetCard(ctx, id)
}

// Status summarizes stored records and in-memory indexes.
type Status struct {
	*storage.Stats
	IndexedCards   int `json:"indexed_cards"`
	CompanyAliases int `json:"company_aliases"`
	CachedMatches  int `json:"cached_matches"`
}

// Status returns record counts and index sizes.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	st, err := e.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		Stats:          st,
		IndexedCards:   e.index.Size(),
		CompanyAliases: e.companies.Size(),
		CachedMatches:  e.results.Len(),
	}, nil
}
