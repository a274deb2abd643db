package content

import (
	"math"
	"testing"

	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
)

func fixtureMovies() []dataset.Movie {
	return []dataset.Movie{
		{ID: 1, Title: "Heat", Genres: []string{"Action", "Crime"}, Tags: []string{"heist"}, RatingCount: 50},
		{ID: 2, Title: "Ronin", Genres: []string{"Action", "Crime"}, Tags: []string{"heist"}, RatingCount: 30},
		{ID: 3, Title: "Clueless", Genres: []string{"Comedy", "Romance"}, Tags: []string{"teen"}, RatingCount: 40},
		{ID: 4, Title: "Mean Girls", Genres: []string{"Comedy", "Romance"}, Tags: []string{"teen"}, RatingCount: 20},
		{ID: 5, Title: "Alien", Genres: []string{"Sci-Fi", "Horror"}, Tags: []string{"space crew"}, RatingCount: 60},
	}
}

func fitted(t *testing.T) *Model {
	t.Helper()
	m := New()
	if err := m.Fit(fixtureMovies()); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return m
}

func TestFitEmpty(t *testing.T) {
	m := New()
	if err := m.Fit(nil); err == nil {
		t.Fatal("expected error for empty catalog")
	}
	if m.Fitted() {
		t.Error("model must not be fitted")
	}
}

func TestSimilarityIdenticalMetadata(t *testing.T) {
	m := fitted(t)

	// 1 和 2 元信息完全相同：相似度应为 1（允许浮点误差）
	sim, err := m.Similarity(1, 2)
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if math.Abs(sim-1) > 1e-9 {
		t.Errorf("identical metadata: sim = %.6f, want 1", sim)
	}
}

func TestSimilarityDisjointMetadata(t *testing.T) {
	m := fitted(t)

	sim, err := m.Similarity(1, 3)
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if sim != 0 {
		t.Errorf("disjoint metadata: sim = %.6f, want 0", sim)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	m := fitted(t)

	ab, err := m.Similarity(1, 2)
	if err != nil {
		t.Fatalf("Similarity(1,2): %v", err)
	}
	ba, err := m.Similarity(2, 1)
	if err != nil {
		t.Fatalf("Similarity(2,1): %v", err)
	}
	if ab != ba {
		t.Errorf("similarity not symmetric: %.6f != %.6f", ab, ba)
	}
}

func TestSimilarityUnknownMovie(t *testing.T) {
	m := fitted(t)

	if _, err := m.Similarity(1, 999); !core.IsUnknownEntity(err) {
		t.Errorf("expected UNKNOWN_ENTITY, got %v", err)
	}
	if _, err := m.Similarity(999, 1); !core.IsUnknownEntity(err) {
		t.Errorf("expected UNKNOWN_ENTITY, got %v", err)
	}
	if m.Known(999) {
		t.Error("999 must be unknown")
	}
}

func TestNearestOrderingAndTieBreak(t *testing.T) {
	m := fitted(t)

	got, err := m.Nearest(1, 3)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d neighbors, want 3", len(got))
	}
	// 2 与 1 元信息相同，必须排第一
	if got[0].MovieID != 2 {
		t.Errorf("first neighbor = %d, want 2", got[0].MovieID)
	}
	// 其余相似度为 0，同分并列按评分数降序：5(60) 先于 3(40)
	if got[1].MovieID != 5 || got[2].MovieID != 3 {
		t.Errorf("tie-break order = [%d %d], want [5 3]", got[1].MovieID, got[2].MovieID)
	}

	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("neighbors not sorted by score at %d", i)
		}
	}
}

func TestNearestExcludesSelf(t *testing.T) {
	m := fitted(t)

	got, err := m.Nearest(1, 10)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	for _, n := range got {
		if n.MovieID == 1 {
			t.Fatal("result contains the query movie itself")
		}
	}
	if len(got) != len(fixtureMovies())-1 {
		t.Errorf("got %d neighbors, want %d", len(got), len(fixtureMovies())-1)
	}
}

func TestMeanSimilarity(t *testing.T) {
	m := fitted(t)

	// 未知参照被跳过；全部未知 → 0
	sim, err := m.MeanSimilarity(1, []int64{2, 999})
	if err != nil {
		t.Fatalf("MeanSimilarity: %v", err)
	}
	if math.Abs(sim-1) > 1e-9 {
		t.Errorf("mean over {2}: got %.6f, want 1", sim)
	}

	sim, err = m.MeanSimilarity(1, []int64{999})
	if err != nil || sim != 0 {
		t.Errorf("no valid refs: got (%.4f, %v), want (0, nil)", sim, err)
	}

	if _, err := m.MeanSimilarity(999, []int64{1}); !core.IsUnknownEntity(err) {
		t.Errorf("unknown target: expected UNKNOWN_ENTITY, got %v", err)
	}
}

func TestNoveltyAgainst(t *testing.T) {
	m := fitted(t)

	// 与历史完全相同 → 新颖度 0；完全无关 → 新颖度 1
	if n := m.NoveltyAgainst(1, []int64{2}); math.Abs(n) > 1e-9 {
		t.Errorf("novelty vs identical = %.6f, want 0", n)
	}
	if n := m.NoveltyAgainst(1, []int64{3}); math.Abs(n-1) > 1e-9 {
		t.Errorf("novelty vs disjoint = %.6f, want 1", n)
	}
	// 未知目标降级为 0，不报错
	if n := m.NoveltyAgainst(999, []int64{1}); n != 0 {
		t.Errorf("unknown movie novelty = %.6f, want 0", n)
	}
}

func TestTokenize(t *testing.T) {
	mv := dataset.Movie{
		Genres: []string{"Sci-Fi", " Action "},
		Tags:   []string{"Space Crew", "cult"},
	}
	got := Tokenize(mv)
	want := []string{"sci-fi", "action", "space", "crew", "cult"}
	if len(got) != len(want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := fitted(t)

	restored, err := Restore(m.Snapshot())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	a, _ := m.Similarity(1, 2)
	b, err := restored.Similarity(1, 2)
	if err != nil {
		t.Fatalf("restored Similarity: %v", err)
	}
	if a != b {
		t.Errorf("restored similarity %.6f != %.6f", b, a)
	}

	// 近邻并列决胜依赖评分数，快照必须携带它
	n1, _ := m.Nearest(1, 3)
	n2, err := restored.Nearest(1, 3)
	if err != nil {
		t.Fatalf("restored Nearest: %v", err)
	}
	for i := range n1 {
		if n1[i] != n2[i] {
			t.Fatalf("restored neighbor[%d] = %v, want %v", i, n2[i], n1[i])
		}
	}
}
