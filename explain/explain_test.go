package explain

import (
	"context"
	"strings"
	"testing"

	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
)

func explainStore() *dataset.Store {
	movies := []dataset.Movie{
		{ID: 1, Title: "Heat", Year: 1995, Genres: []string{"Action", "Crime"}},
		{ID: 2, Title: "Obscure Gem", Year: 1983, Genres: []string{"Drama"}},
	}
	ratings := []dataset.Rating{
		{UserID: 1, MovieID: 2, Value: 4},
	}
	// 电影 1 评分充足，不触发数据不足提示语
	for u := int64(1); u <= 12; u++ {
		ratings = append(ratings, dataset.Rating{UserID: u, MovieID: 1, Value: 4.5})
	}
	return dataset.NewStore(ratings, movies)
}

func confidentCandidate(id int64) *core.Candidate {
	return &core.Candidate{
		MovieID:       id,
		CFScore:       4.4,
		ContentScore:  0.82,
		Fused:         0.85,
		HybridScore:   4.3,
		Confidence:    0.9,
		CFWeight:      0.7,
		ContentWeight: 0.3,
		Agreement:     0.95,
	}
}

func itemWith(id int64, c *core.Candidate) *core.Item {
	it := core.NewItem(id)
	it.Candidate = c
	return it
}

func activeUser(store *dataset.Store) *core.UserProfile {
	return store.Profile(1, 4.0, 5)
}

func TestSimpleLevelNamesGenres(t *testing.T) {
	store := explainStore()
	g := New(store)

	text, err := g.Explain(activeUser(store), itemWith(1, confidentCandidate(1)), LevelSimple)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if !strings.Contains(text, "Heat") {
		t.Errorf("simple text must name the movie: %q", text)
	}
	if !strings.Contains(text, "Action") && !strings.Contains(text, "Crime") {
		t.Errorf("simple text must mention an overlapping genre: %q", text)
	}
	if strings.Contains(text, "Why you might not like this") {
		t.Errorf("high-confidence text must not carry a disclaimer: %q", text)
	}
}

func TestSimpleLevelColdStart(t *testing.T) {
	store := explainStore()
	g := New(store)

	cold := store.Profile(99, 4.0, 5)
	text, err := g.Explain(cold, itemWith(1, confidentCandidate(1)), LevelSimple)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if !strings.Contains(text, "popular") {
		t.Errorf("cold-start phrasing expected: %q", text)
	}
}

func TestIntermediateLevelCitesRating(t *testing.T) {
	store := explainStore()
	g := New(store)

	text, err := g.Explain(activeUser(store), itemWith(1, confidentCandidate(1)), LevelIntermediate)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if !strings.Contains(text, "4.4") {
		t.Errorf("intermediate text must cite the predicted rating: %q", text)
	}
}

func TestAdvancedLevelIsReconstructibleFromCandidate(t *testing.T) {
	// advanced 层只依赖 Candidate：不给 Store 也必须产出完整分解
	g := &Generator{Config: DefaultConfig()}

	text, err := g.Explain(core.NewUserProfile(1), itemWith(1, confidentCandidate(1)), LevelAdvanced)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	for _, frag := range []string{"CF=4.40", "weight 0.70", "content=0.820", "confidence=0.90"} {
		if !strings.Contains(text, frag) {
			t.Errorf("advanced text missing %q: %q", frag, text)
		}
	}
}

func TestDisclaimerLowConfidence(t *testing.T) {
	store := explainStore()
	g := New(store)

	c := confidentCandidate(1)
	c.Confidence = 0.2
	c.CFScore = 2.4 // 低预测分是首选措辞
	text, err := g.Explain(activeUser(store), itemWith(1, c), LevelSimple)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if !strings.Contains(text, "Why you might not like this") {
		t.Errorf("low confidence must carry a disclaimer: %q", text)
	}
	if !strings.Contains(text, "predicted rating") {
		t.Errorf("low predicted rating phrasing expected: %q", text)
	}
}

func TestDisclaimerFewRatings(t *testing.T) {
	store := explainStore()
	g := New(store)

	c := confidentCandidate(2)
	c.Confidence = 0.2
	text, err := g.Explain(activeUser(store), itemWith(2, c), LevelSimple)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	// 电影 2 只有 1 条评分，且预测分不低 → 数据不足措辞
	if !strings.Contains(text, "lesser-known") {
		t.Errorf("few-ratings phrasing expected: %q", text)
	}
}

func TestDisclaimerLowAgreement(t *testing.T) {
	store := explainStore()
	g := New(store)

	c := confidentCandidate(1)
	c.Agreement = 0.2
	text, err := g.Explain(activeUser(store), itemWith(1, c), LevelSimple)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if !strings.Contains(text, "disagree") {
		t.Errorf("signal-conflict phrasing expected: %q", text)
	}
}

func TestExplainWithoutCandidate(t *testing.T) {
	store := explainStore()
	g := New(store)

	if _, err := g.Explain(activeUser(store), core.NewItem(1), LevelSimple); err == nil {
		t.Fatal("item without score decomposition must be rejected")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"simple", LevelSimple},
		{"intermediate", LevelIntermediate},
		{"advanced", LevelAdvanced},
		{"", LevelSimple},
		{"bogus", LevelSimple},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNodeAttachesExplanations(t *testing.T) {
	store := explainStore()
	node := &Node{Generator: New(store)}

	rctx := &core.RecommendContext{
		UserID: 1,
		User:   activeUser(store),
		Params: map[string]any{"explain_level": "advanced"},
	}
	items := []*core.Item{itemWith(1, confidentCandidate(1)), core.NewItem(2)}
	got, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("node must not drop items, got %d", len(got))
	}

	if text, ok := got[0].Meta["explanation"].(string); !ok || !strings.Contains(text, "Hybrid score") {
		t.Errorf("explanation missing or wrong level: %v", got[0].Meta["explanation"])
	}
	if lbl, ok := got[0].GetLabel("explained"); !ok || lbl.Value != "advanced" {
		t.Errorf("explained label = %+v, ok=%v", lbl, ok)
	}
	// 没有分数分解的物品被跳过，不中断列表
	if _, ok := got[1].Meta["explanation"]; ok {
		t.Error("unscored item must not get an explanation")
	}
}
