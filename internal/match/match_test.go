package match

import (
	"context"
	"math"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/mentorlink/internal/cache"
	"github.com/hyperjump/mentorlink/internal/company"
	"github.com/hyperjump/mentorlink/internal/lexical"
	"github.com/hyperjump/mentorlink/internal/models"
	"github.com/hyperjump/mentorlink/internal/ranking"
	"github.com/hyperjump/mentorlink/internal/storage"
	"github.com/hyperjump/mentorlink/internal/vector"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeDirectory struct {
	users map[string]*models.MentorProfile
	cards map[string]*models.AnswerCard
}

func newFakeDirectory(users ...*models.MentorProfile) *fakeDirectory {
	d := &fakeDirectory{
		users: make(map[string]*models.MentorProfile),
		cards: make(map[string]*models.AnswerCard),
	}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *fakeDirectory) GetUser(_ context.Context, id string) (*models.MentorProfile, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func (d *fakeDirectory) FindByIDs(_ context.Context, ids []string) ([]*models.MentorProfile, error) {
	var out []*models.MentorProfile
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *fakeDirectory) FindEligible(_ context.Context, c storage.EligibilityCriteria) ([]*models.MentorProfile, error) {
	var out []*models.MentorProfile
	for _, u := range d.users {
		if u.Role != models.RoleMentor || u.ID == c.ExcludeID {
			continue
		}
		if u.CurrentLoad >= u.MaxLoad+c.LoadSlack || u.LastActive.Before(c.ActiveSince) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *fakeDirectory) ListCompanies(context.Context) ([]string, error) {
	return nil, nil
}

func (d *fakeDirectory) GetCard(_ context.Context, id string) (*models.AnswerCard, error) {
	c, ok := d.cards[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return c, nil
}

type countingIndex struct {
	vector.VectorIndex
	searches atomic.Int32
}

func (c *countingIndex) Search(ctx context.Context, q []float32, opts vector.SearchOptions) ([]*vector.VectorResult, error) {
	c.searches.Add(1)
	return c.VectorIndex.Search(ctx, q, opts)
}

// unitAt returns a 2D unit vector whose inner product with (1, 0) is cos.
func unitAt(cos float64) []float32 {
	return []float32{float32(cos), float32(math.Sqrt(1 - cos*cos))}
}

func plainMentor(id string) *models.MentorProfile {
	return &models.MentorProfile{
		ID:                id,
		Name:              "Mentor " + id,
		Role:              models.RoleMentor,
		SuccessfulMatches: 10,
		MaxLoad:           3,
	}
}

func newMatcher(t *testing.T, dir *fakeDirectory, entries ...vector.Entry) (*SemanticMatcher, *countingIndex) {
	t.Helper()
	mem, err := vector.NewMemoryIndex(2)
	if err != nil {
		t.Fatal(err)
	}
	if err := mem.Add(context.Background(), entries); err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		dir.cards[e.CardID] = &models.AnswerCard{
			ID:       e.CardID,
			MentorID: e.MentorID,
			Content:  models.AnswerContent{MainAnswer: "answer " + e.CardID},
		}
	}
	idx := &countingIndex{VectorIndex: mem}
	results := cache.New[*models.MatchCandidate](100, time.Hour)
	cfg := ranking.DefaultConfig().Semantic
	m := NewSemanticMatcher(idx, dir, dir, lexical.NewAnalyzer(nil), nil, results, cfg,
		WithClock(func() time.Time { return testNow }))
	return m, idx
}

func TestSemanticMatcher_Gates(t *testing.T) {
	query := []float32{1, 0}
	text := "what should i focus on during the second year"

	tests := []struct {
		name     string
		entries  []vector.Entry
		asker    string
		wantCard string
		wantGate ranking.GateResult
	}{
		{
			name:     "empty index",
			wantGate: ranking.GateNoCandidates,
		},
		{
			name:     "below floor",
			entries:  []vector.Entry{{CardID: "c1", MentorID: "m1", Vector: unitAt(0.80)}},
			wantGate: ranking.GateNoCandidates,
		},
		{
			name:     "below instant threshold",
			entries:  []vector.Entry{{CardID: "c1", MentorID: "m1", Vector: unitAt(0.86)}},
			wantGate: ranking.GateBelowThreshold,
		},
		{
			name: "high confidence bypasses gap",
			entries: []vector.Entry{
				{CardID: "c1", MentorID: "m1", Vector: unitAt(0.95)},
				{CardID: "c2", MentorID: "m2", Vector: unitAt(0.94)},
			},
			wantCard: "c1",
			wantGate: ranking.GateHighConfidence,
		},
		{
			name: "clear gap",
			entries: []vector.Entry{
				{CardID: "c1", MentorID: "m1", Vector: unitAt(0.90)},
				{CardID: "c2", MentorID: "m2", Vector: unitAt(0.855)},
			},
			wantCard: "c1",
			wantGate: ranking.GateClearGap,
		},
		{
			name: "ambiguous",
			entries: []vector.Entry{
				{CardID: "c1", MentorID: "m1", Vector: unitAt(0.90)},
				{CardID: "c2", MentorID: "m2", Vector: unitAt(0.87)},
			},
			wantGate: ranking.GateAmbiguous,
		},
		{
			name: "asker's own card skipped",
			entries: []vector.Entry{
				{CardID: "c1", MentorID: "m1", Vector: unitAt(0.99)},
				{CardID: "c2", MentorID: "m2", Vector: unitAt(0.95)},
			},
			asker:    "m1",
			wantCard: "c2",
			wantGate: ranking.GateHighConfidence,
		},
		{
			name:     "missing mentor skipped",
			entries:  []vector.Entry{{CardID: "c1", MentorID: "ghost", Vector: unitAt(0.99)}},
			wantGate: ranking.GateNoCandidates,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newFakeDirectory(plainMentor("m1"), plainMentor("m2"))
			m, _ := newMatcher(t, dir, tt.entries...)
			res, err := m.FindInstantMatch(context.Background(), tt.asker, query, text)
			if err != nil {
				t.Fatal(err)
			}
			if res.Gate != tt.wantGate {
				t.Errorf("gate = %s, want %s", res.Gate, tt.wantGate)
			}
			switch {
			case tt.wantCard == "" && res.Candidate != nil:
				t.Errorf("expected no match, got %s", res.Candidate.Card.ID)
			case tt.wantCard != "" && (res.Candidate == nil || res.Candidate.Card.ID != tt.wantCard):
				t.Errorf("expected card %s, got %+v", tt.wantCard, res.Candidate)
			case tt.wantCard != "" && res.Candidate.Card.Content.MainAnswer == "":
				t.Error("accepted candidate should carry the full card")
			}
		})
	}
}

func TestSemanticMatcher_CachedPerText(t *testing.T) {
	dir := newFakeDirectory(plainMentor("m1"))
	m, idx := newMatcher(t, dir, vector.Entry{CardID: "c1", MentorID: "m1", Vector: unitAt(0.97)})
	ctx := context.Background()
	text := "how should i prepare for the coding round"

	first, err := m.FindInstantMatch(ctx, "s1", []float32{1, 0}, text)
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.FindInstantMatch(ctx, "s1", []float32{1, 0}, text)
	if err != nil {
		t.Fatal(err)
	}
	if first.Candidate == nil || second.Candidate == nil {
		t.Fatal("expected matches")
	}
	if !second.Cached || first.Cached {
		t.Errorf("cached flags: first=%v second=%v", first.Cached, second.Cached)
	}
	if first.Candidate.Card.ID != second.Candidate.Card.ID || first.Candidate.Score != second.Candidate.Score {
		t.Error("cached result differs from original")
	}
	if n := idx.searches.Load(); n != 1 {
		t.Errorf("vector search ran %d times, want 1", n)
	}

	if _, err := m.FindInstantMatch(ctx, "s1", []float32{1, 0}, text+"?"); err != nil {
		t.Fatal(err)
	}
	if n := idx.searches.Load(); n != 2 {
		t.Errorf("different text should miss the cache, searches = %d", n)
	}
}

func TestSemanticMatcher_CacheHitPerAsker(t *testing.T) {
	dir := newFakeDirectory(plainMentor("m1"))
	m, idx := newMatcher(t, dir, vector.Entry{CardID: "c1", MentorID: "m1", Vector: unitAt(0.97)})
	ctx := context.Background()
	text := "how should i prepare for the coding round"

	first, err := m.FindInstantMatch(ctx, "s1", []float32{1, 0}, text)
	if err != nil {
		t.Fatal(err)
	}
	if first.Candidate == nil || first.Candidate.Card.ID != "c1" {
		t.Fatalf("expected c1, got gate %s", first.Gate)
	}

	updated := *dir.cards["c1"]
	updated.FollowUps = []models.FollowUp{{QuestionID: "f1", Question: "and DP?", Answer: "yes"}}
	dir.cards["c1"] = &updated

	second, err := m.FindInstantMatch(ctx, "s2", []float32{1, 0}, text)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.Candidate == nil {
		t.Fatalf("expected a cached match, got %+v", second)
	}
	if len(second.Candidate.Card.FollowUps) != 1 {
		t.Errorf("cached hit should carry the current card, follow-ups = %d", len(second.Candidate.Card.FollowUps))
	}
	if len(first.Candidate.Card.FollowUps) != 0 {
		t.Error("serving a cached hit mutated an earlier result")
	}

	own, err := m.FindInstantMatch(ctx, "m1", []float32{1, 0}, text)
	if err != nil {
		t.Fatal(err)
	}
	if own.Cached || own.Candidate != nil {
		t.Errorf("mentor must not be handed their own cached card: %+v", own)
	}
	if n := idx.searches.Load(); n != 2 {
		t.Errorf("own-card hit should fall back to search, searches = %d", n)
	}
}

func TestSemanticMatcher_BonusBreaksAmbiguity(t *testing.T) {
	google := plainMentor("m1")
	google.Companies = []string{"Google"}
	google.Domain = models.DomainInternship
	dir := newFakeDirectory(google, plainMentor("m2"))
	idx := company.NewIndex(nil)
	mem, _ := vector.NewMemoryIndex(2)
	entries := []vector.Entry{
		{CardID: "c1", MentorID: "m1", Vector: unitAt(0.89)},
		{CardID: "c2", MentorID: "m2", Vector: unitAt(0.90)},
	}
	if err := mem.Add(context.Background(), entries); err != nil {
		t.Fatal(err)
	}
	dir.cards["c1"] = &models.AnswerCard{ID: "c1", MentorID: "m1"}
	dir.cards["c2"] = &models.AnswerCard{ID: "c2", MentorID: "m2"}
	m := NewSemanticMatcher(mem, dir, dir, lexical.NewAnalyzer(idx), idx,
		cache.New[*models.MatchCandidate](10, time.Hour), ranking.DefaultConfig().Semantic,
		WithClock(func() time.Time { return testNow }))

	res, err := m.FindInstantMatch(context.Background(), "s1", []float32{1, 0},
		"How do I get a summer internship at Google?")
	if err != nil {
		t.Fatal(err)
	}
	if res.Candidate == nil || res.Candidate.Card.ID != "c1" {
		t.Fatalf("expected the Google mentor's card, got gate %s %+v", res.Gate, res.Candidate)
	}
	if res.Candidate.Breakdown["company_exact"] == 0 {
		t.Errorf("breakdown missing company bonus: %v", res.Candidate.Breakdown)
	}
}

func liveMentor(id string, companies []string, domain models.Domain, rating float64, load, max int) *models.MentorProfile {
	return &models.MentorProfile{
		ID:          id,
		Name:        "Mentor " + id,
		Role:        models.RoleMentor,
		Companies:   companies,
		Domain:      domain,
		Rating:      rating,
		LastActive:  testNow.Add(-48 * time.Hour),
		CurrentLoad: load,
		MaxLoad:     max,
	}
}

func newRouter(dir *fakeDirectory) *LiveRouter {
	idx := company.NewIndex(nil)
	return NewLiveRouter(dir, lexical.NewAnalyzer(idx), idx, ranking.DefaultConfig().Live,
		WithClock(func() time.Time { return testNow }))
}

func TestLiveRouter_AssignMentor(t *testing.T) {
	keywords := lexical.ExtractKeywords("How to get an internship at Google as a backend SDE?")

	t.Run("company match wins", func(t *testing.T) {
		dir := newFakeDirectory(
			liveMentor("google", []string{"Google"}, models.DomainInternship, 4.6, 0, 3),
			liveMentor("microsoft", []string{"Microsoft"}, models.DomainPlacement, 4.9, 0, 3),
		)
		a, err := newRouter(dir).AssignMentor(context.Background(), "s1", keywords)
		if err != nil {
			t.Fatal(err)
		}
		if a.Candidate == nil || a.Candidate.Mentor.ID != "google" {
			t.Fatalf("expected google mentor, got gate %s", a.Gate)
		}
		if a.Considered != 2 {
			t.Errorf("considered = %d", a.Considered)
		}
	})

	t.Run("capped best falls back", func(t *testing.T) {
		dir := newFakeDirectory(
			liveMentor("busy", []string{"Google", "Alphabet"}, models.DomainInternship, 5, 3, 3),
			liveMentor("free", []string{"Google"}, models.DomainInternship, 4.0, 1, 3),
		)
		a, err := newRouter(dir).AssignMentor(context.Background(), "s1", keywords)
		if err != nil {
			t.Fatal(err)
		}
		if a.Candidate == nil || a.Candidate.Mentor.ID != "free" {
			t.Fatalf("expected free mentor, got gate %s", a.Gate)
		}
	})

	t.Run("nobody relevant", func(t *testing.T) {
		dir := newFakeDirectory(liveMentor("m1", []string{"Infosys"}, models.DomainPlacement, 3, 0, 3))
		a, err := newRouter(dir).AssignMentor(context.Background(), "s1", keywords)
		if err != nil {
			t.Fatal(err)
		}
		if a.Candidate != nil || a.Gate != ranking.GateBelowThreshold {
			t.Errorf("expected below threshold, got %s", a.Gate)
		}
	})

	t.Run("asker and stale mentors excluded", func(t *testing.T) {
		stale := liveMentor("stale", []string{"Google"}, models.DomainInternship, 5, 0, 3)
		stale.LastActive = testNow.Add(-40 * 24 * time.Hour)
		self := liveMentor("s1", []string{"Google"}, models.DomainInternship, 5, 0, 3)
		dir := newFakeDirectory(stale, self)
		a, err := newRouter(dir).AssignMentor(context.Background(), "s1", keywords)
		if err != nil {
			t.Fatal(err)
		}
		if a.Candidate != nil || a.Gate != ranking.GateNoCandidates {
			t.Errorf("expected no candidates, got %s", a.Gate)
		}
	})
}
