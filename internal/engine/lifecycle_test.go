package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyperjump/mentorlink/internal/config"
	"github.com/hyperjump/mentorlink/internal/embedding"
	"github.com/hyperjump/mentorlink/internal/models"
	"github.com/hyperjump/mentorlink/internal/ranking"
	"github.com/hyperjump/mentorlink/internal/vector"
)

func assignTo(t *testing.T, f *fixture, id, mentorID string) *models.Question {
	t.Helper()
	q := &models.Question{ID: id, AskerID: "s1", Text: "How do I prepare for Amazon?",
		Status: models.StatusMentorAssigned, MatchMethod: models.MethodLiveRouting}
	if err := f.store.AssignQuestion(context.Background(), q, mentorID); err != nil {
		t.Fatal(err)
	}
	return q
}

func TestSubmitExperience(t *testing.T) {
	f := newFixture(t, embedding.NewMockEmbedder(testDims))
	f.addMentor(t, "m1", []string{"Amazon"}, 0, 2)
	assignTo(t, f, "q1", "m1")
	ctx := context.Background()
	content := []byte(`{"main_answer":"Grind LeetCode mediums.","key_mistakes":["Skipping system design"]}`)

	if _, err := f.engine.SubmitExperience(ctx, "q1", models.ExperienceRequest{MentorID: "m2", Content: content}); !errors.Is(err, ErrNotAssignedMentor) {
		t.Errorf("expected ErrNotAssignedMentor, got %v", err)
	}
	if _, err := f.engine.SubmitExperience(ctx, "q1", models.ExperienceRequest{MentorID: "m1", Content: []byte(`42`)}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	card, err := f.engine.SubmitExperience(ctx, "q1", models.ExperienceRequest{MentorID: "m1", Content: content})
	if err != nil {
		t.Fatal(err)
	}
	if card.Content.MainAnswer != "Grind LeetCode mediums." || len(card.Content.ActionableSteps) != 0 || card.Content.ActionableSteps == nil {
		t.Errorf("content = %+v", card.Content)
	}
	if !card.HasEmbedding() || f.index.Size() != 1 {
		t.Errorf("card should be embedded and indexed, index size %d", f.index.Size())
	}
	m, _ := f.store.GetUser(ctx, "m1")
	if m.CurrentLoad != 0 || m.SuccessfulMatches != 1 {
		t.Errorf("load=%d matches=%d", m.CurrentLoad, m.SuccessfulMatches)
	}
	q, _ := f.store.GetQuestion(ctx, "q1")
	if q.Status != models.StatusExperienceSubmitted || q.AnswerCardID != card.ID {
		t.Errorf("question = %+v", q)
	}

	if _, err := f.engine.SubmitExperience(ctx, "q1", models.ExperienceRequest{MentorID: "m1", Content: content}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second submission: expected ErrInvalidState, got %v", err)
	}

	if err := f.engine.MarkDelivered(ctx, "q1"); err != nil {
		t.Fatal(err)
	}
	if err := f.engine.MarkDelivered(ctx, "q1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestCloseQuestion(t *testing.T) {
	f := newFixture(t, nil)
	f.addMentor(t, "m1", nil, 0, 2)
	assignTo(t, f, "q1", "m1")
	ctx := context.Background()

	if err := f.engine.CloseQuestion(ctx, "q1"); err != nil {
		t.Fatal(err)
	}
	if got := f.load(t, "m1"); got != 0 {
		t.Errorf("load = %d", got)
	}
	if err := f.engine.CloseQuestion(ctx, "q1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}

	out, err := f.engine.ProcessQuestion(ctx, models.QuestionRequest{AskerID: "s1", Text: "Anyone from Zomato here?"})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.engine.CloseQuestion(ctx, out.QuestionID); err != nil {
		t.Errorf("closing pending question: %v", err)
	}
}

func TestFollowUps(t *testing.T) {
	f := newFixture(t, nil)
	f.addMentor(t, "m1", nil, 0, 1)
	assignTo(t, f, "q1", "m1")
	ctx := context.Background()

	if _, err := f.engine.AskFollowUp(ctx, "s1", "q1", "And what about OA rounds?"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("follow-up before a card: expected ErrInvalidState, got %v", err)
	}
	if _, err := f.engine.SubmitExperience(ctx, "q1", models.ExperienceRequest{MentorID: "m1", Content: []byte(`"Practice daily."`)}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.AskFollowUp(ctx, "intruder", "q1", "What about OA rounds?"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("foreign asker: expected ErrInvalidState, got %v", err)
	}

	var ids []string
	for i := 0; i < models.MaxFollowUps; i++ {
		out, err := f.engine.ProcessQuestion(ctx, models.QuestionRequest{
			AskerID:          "s1",
			Text:             "What about the online assessment rounds?",
			ParentQuestionID: "q1",
		})
		if err != nil {
			t.Fatal(err)
		}
		if out.Status != models.OutcomeAssigned || out.MentorID != "m1" || out.MatchMethod != models.MethodLiveRouting {
			t.Errorf("follow-up outcome = %+v", out)
		}
		ids = append(ids, out.QuestionID)
	}
	if got := f.load(t, "m1"); got != 0 {
		t.Errorf("follow-ups must not change load, got %d", got)
	}
	if _, err := f.engine.AskFollowUp(ctx, "s1", "q1", "One more thing?"); !errors.Is(err, ErrFollowUpLimit) {
		t.Errorf("expected ErrFollowUpLimit, got %v", err)
	}

	if _, err := f.engine.AnswerFollowUp(ctx, ids[0], models.FollowUpAnswerRequest{MentorID: "m2", Answer: "x"}); !errors.Is(err, ErrNotAssignedMentor) {
		t.Errorf("expected ErrNotAssignedMentor, got %v", err)
	}
	if _, err := f.engine.AnswerFollowUp(ctx, ids[0], models.FollowUpAnswerRequest{MentorID: "m1"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	card, err := f.engine.AnswerFollowUp(ctx, ids[0], models.FollowUpAnswerRequest{MentorID: "m1", Answer: "Focus on arrays."})
	if err != nil {
		t.Fatal(err)
	}
	if len(card.FollowUps) != 1 || card.FollowUps[0].Answer != "Focus on arrays." {
		t.Errorf("follow-ups = %+v", card.FollowUps)
	}
	if _, err := f.engine.AnswerFollowUp(ctx, ids[0], models.FollowUpAnswerRequest{MentorID: "m1", Answer: "again"}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("answering twice: expected ErrInvalidState, got %v", err)
	}
	fq, _ := f.store.GetQuestion(ctx, ids[0])
	if fq.Status != models.StatusDelivered {
		t.Errorf("follow-up status = %s", fq.Status)
	}
}

func TestFollowUps_LimitSharedAcrossReusers(t *testing.T) {
	f := newFixture(t, embedding.NewMockEmbedder(testDims))
	f.addMentor(t, "m1", []string{"Amazon"}, 0, 3)
	ctx := context.Background()
	text := "How to crack Amazon SDE interviews as a fresher"

	q := &models.Question{ID: "q0", AskerID: "s0", Text: text, Status: models.StatusMentorAssigned,
		MatchMethod: models.MethodLiveRouting}
	if err := f.store.AssignQuestion(ctx, q, "m1"); err != nil {
		t.Fatal(err)
	}
	card, err := f.engine.SubmitExperience(ctx, "q0", models.ExperienceRequest{MentorID: "m1", Content: []byte(`"` + text + `"`)})
	if err != nil {
		t.Fatal(err)
	}

	parents := map[string]string{}
	for _, asker := range []string{"s2", "s3"} {
		out, err := f.engine.ProcessQuestion(ctx, models.QuestionRequest{AskerID: asker, Text: text})
		if err != nil {
			t.Fatal(err)
		}
		if out.Status != models.OutcomeInstant || out.Card == nil || out.Card.ID != card.ID {
			t.Fatalf("%s outcome = %+v", asker, out)
		}
		parents[asker] = out.QuestionID
	}

	var accepted []string
	for i := 0; i < models.MaxFollowUps; i++ {
		out, err := f.engine.AskFollowUp(ctx, "s2", parents["s2"], "What about the online assessment?")
		if err != nil {
			t.Fatalf("follow-up %d: %v", i, err)
		}
		accepted = append(accepted, out.QuestionID)
	}
	if _, err := f.engine.AskFollowUp(ctx, "s3", parents["s3"], "Is referral needed for Amazon?"); !errors.Is(err, ErrFollowUpLimit) {
		t.Fatalf("third follow-up on the shared card: expected ErrFollowUpLimit, got %v", err)
	}

	for _, id := range accepted {
		if _, err := f.engine.AnswerFollowUp(ctx, id, models.FollowUpAnswerRequest{MentorID: "m1", Answer: "Yes."}); err != nil {
			t.Errorf("every accepted follow-up must be answerable: %s: %v", id, err)
		}
	}
	got, err := f.engine.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.FollowUps) != models.MaxFollowUps {
		t.Errorf("card follow-ups = %d", len(got.FollowUps))
	}
}

func TestSubmitFeedback(t *testing.T) {
	f := newFixture(t, nil)
	f.addMentor(t, "m1", nil, 0, 1)
	assignTo(t, f, "q1", "m1")
	ctx := context.Background()
	card, err := f.engine.SubmitExperience(ctx, "q1", models.ExperienceRequest{MentorID: "m1", Content: []byte(`"Practice daily."`)})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.engine.SubmitFeedback(ctx, card.ID, models.Feedback{Rating: 9}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if err := f.engine.SubmitFeedback(ctx, card.ID, models.Feedback{Helpful: true, Rating: 4}); err != nil {
		t.Fatal(err)
	}
	got, _ := f.engine.GetCard(ctx, card.ID)
	if got.Feedback == nil || got.Feedback.Rating != 4 {
		t.Errorf("feedback = %+v", got.Feedback)
	}
}

func TestVectorizeAndRebuild(t *testing.T) {
	f := newFixture(t, embedding.NewFailingEmbedder(errors.New("down"), testDims))
	f.addMentor(t, "m1", nil, 0, 1)
	assignTo(t, f, "q1", "m1")
	ctx := context.Background()
	card, err := f.engine.SubmitExperience(ctx, "q1", models.ExperienceRequest{MentorID: "m1", Content: []byte(`"Practice daily."`)})
	if err != nil {
		t.Fatal(err)
	}
	if card.HasEmbedding() || f.index.Size() != 0 {
		t.Fatal("card should be stored without embedding while the embedder is down")
	}
	if _, err := f.engine.VectorizePending(ctx, 10); err == nil {
		t.Error("expected error while the embedder is down")
	}

	recovered := New(f.store, embedding.NewMockEmbedder(testDims), f.index, testEngineConfig(), *ranking.DefaultConfig())
	defer recovered.Close()
	n, err := recovered.VectorizePending(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || f.index.Size() != 1 {
		t.Errorf("vectorized %d, index size %d", n, f.index.Size())
	}
	if n, _ := recovered.VectorizePending(ctx, 10); n != 0 {
		t.Errorf("second pass vectorized %d", n)
	}

	fresh, _ := vector.NewMemoryIndex(testDims)
	rebuilt := New(f.store, nil, fresh, testEngineConfig(), *ranking.DefaultConfig())
	defer rebuilt.Close()
	n, err = rebuilt.RebuildVectorIndex(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || fresh.Size() != 1 {
		t.Errorf("rebuilt %d, index size %d", n, fresh.Size())
	}

	st, err := rebuilt.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Cards != 1 || st.VectorizedCards != 1 || st.IndexedCards != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestRunVectorizer(t *testing.T) {
	f := newFixture(t, nil)
	f.addMentor(t, "m1", nil, 0, 1)
	assignTo(t, f, "q1", "m1")
	ctx := context.Background()
	if _, err := f.engine.SubmitExperience(ctx, "q1", models.ExperienceRequest{MentorID: "m1", Content: []byte(`"Practice daily."`)}); err != nil {
		t.Fatal(err)
	}

	e := New(f.store, embedding.NewMockEmbedder(testDims), f.index, config.EngineConfig{}, *ranking.DefaultConfig())
	defer e.Close()
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		e.RunVectorizer(runCtx, 10*time.Millisecond, 10)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for f.index.Size() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done
	if f.index.Size() != 1 {
		t.Errorf("index size = %d after background vectorization", f.index.Size())
	}
}
