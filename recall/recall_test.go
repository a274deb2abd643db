package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
)

func recallStore() *dataset.Store {
	movies := []dataset.Movie{
		{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5},
	}
	ratings := []dataset.Rating{
		{UserID: 1, MovieID: 1, Value: 5},
		{UserID: 1, MovieID: 2, Value: 4},
		{UserID: 2, MovieID: 1, Value: 4},
		{UserID: 2, MovieID: 3, Value: 3},
		{UserID: 3, MovieID: 1, Value: 3},
		{UserID: 3, MovieID: 2, Value: 3},
	}
	return dataset.NewStore(ratings, movies)
}

func TestUnratedRecall(t *testing.T) {
	store := recallStore()
	src := &Unrated{Store: store}

	rctx := &core.RecommendContext{UserID: 1, User: store.Profile(1, 4.0, 5)}
	got, err := src.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	// 用户 1 已评 1、2 → 剩 3、4、5（ID 升序）
	want := []int64{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("item[%d] = %d, want %d", i, got[i].ID, id)
		}
		if lbl, ok := got[i].GetLabel("recall_source"); !ok || lbl.Value != "unrated" {
			t.Errorf("item %d missing recall_source label", id)
		}
	}
}

func TestUnratedColdStartGetsWholeCatalog(t *testing.T) {
	store := recallStore()
	src := &Unrated{Store: store}

	rctx := &core.RecommendContext{UserID: 99, User: store.Profile(99, 4.0, 5)}
	got, err := src.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(got) != store.NumMovies() {
		t.Errorf("cold-start pool = %d, want whole catalog %d", len(got), store.NumMovies())
	}
}

func TestUnratedPoolLimitKeepsPopular(t *testing.T) {
	store := recallStore()
	src := &Unrated{Store: store, PoolLimit: 2}

	rctx := &core.RecommendContext{UserID: 99, User: store.Profile(99, 4.0, 5)}
	got, err := src.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	// 计数：1→3, 2→2, 3→1 → 保留 {1,2}，输出仍按 ID 升序
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		ids := []int64{}
		for _, it := range got {
			ids = append(ids, it.ID)
		}
		t.Errorf("limited pool = %v, want [1 2]", ids)
	}
}

func TestHotRecall(t *testing.T) {
	store := recallStore()
	src := &Hot{Store: store, TopK: 2}

	// 用户 2 已评 1、3 → 热门顺序 1,2,3,4,5 里跳过 1、3 → [2,4]
	rctx := &core.RecommendContext{UserID: 2, User: store.Profile(2, 4.0, 5)}
	got, err := src.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 4 {
		ids := []int64{}
		for _, it := range got {
			ids = append(ids, it.ID)
		}
		t.Errorf("hot recall = %v, want [2 4]", ids)
	}
}

// failingSource 模拟出错的召回源。
type failingSource struct{}

func (failingSource) Name() string { return "failing" }
func (failingSource) Recall(context.Context, *core.RecommendContext) ([]*core.Item, error) {
	return nil, errors.New("backend down")
}

func TestFanoutMergesAndDedups(t *testing.T) {
	store := recallStore()
	node := &Fanout{
		Sources: []Source{
			&Unrated{Store: store},
			&Hot{Store: store},
		},
		Dedup:   true,
		Timeout: time.Second,
	}

	rctx := &core.RecommendContext{UserID: 1, User: store.Profile(1, 4.0, 5)}
	got, err := node.Process(context.Background(), rctx, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	seen := map[int64]int{}
	for _, it := range got {
		seen[it.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("movie %d appears %d times after dedup", id, n)
		}
	}
	// 两个源都排除已评分物品：1、2 不应出现
	if seen[1] > 0 || seen[2] > 0 {
		t.Errorf("rated movies leaked into pool: %v", seen)
	}

	for _, it := range got {
		if _, ok := it.GetLabel("recall_priority"); !ok {
			t.Errorf("movie %d missing recall_priority label", it.ID)
		}
	}
}

func TestFanoutSwallowsSourceErrors(t *testing.T) {
	store := recallStore()
	node := &Fanout{
		Sources: []Source{
			failingSource{},
			&Hot{Store: store, TopK: 3},
		},
		Dedup: true,
	}

	rctx := &core.RecommendContext{UserID: 99, User: store.Profile(99, 4.0, 5)}
	got, err := node.Process(context.Background(), rctx, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d items, want 3 from the healthy source", len(got))
	}
}

func TestFanoutDeterministicOrder(t *testing.T) {
	store := recallStore()
	node := &Fanout{
		Sources: []Source{
			&Hot{Store: store, TopK: 3},
			&Unrated{Store: store},
		},
		Dedup:         true,
		MaxConcurrent: 2,
	}
	rctx := &core.RecommendContext{UserID: 99, User: store.Profile(99, 4.0, 5)}

	first, err := node.Process(context.Background(), rctx, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := node.Process(context.Background(), rctx, nil)
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d: %d items, want %d", i, len(again), len(first))
		}
		for j := range first {
			if first[j].ID != again[j].ID {
				t.Fatalf("run %d: order differs at %d", i, j)
			}
		}
	}
}
