package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reelsense/cinekit/cf"
	"github.com/reelsense/cinekit/content"
	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
)

func TestMemoryStoreBasicOps(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if _, err := ms.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) && !core.IsNotFound(err) {
		t.Errorf("missing key: got %v, want not-found", err)
	}

	if err := ms.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := ms.Get(ctx, "k1")
	if err != nil || string(got) != "v1" {
		t.Errorf("Get = (%q, %v), want v1", got, err)
	}

	if err := ms.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := ms.Get(ctx, "k1"); err == nil {
		t.Error("deleted key still readable")
	}
}

func TestMemoryStoreBatchOps(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	kvs := map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}
	if err := ms.BatchSet(ctx, kvs); err != nil {
		t.Fatalf("BatchSet: %v", err)
	}

	got, err := ms.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("BatchGet: %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("BatchGet = %v", got)
	}
	if _, ok := got["missing"]; ok {
		t.Error("missing key present in batch result")
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	// 过期条目读取即不可见（不等清理 goroutine）
	if err := ms.Set(ctx, "ephemeral", []byte("x"), -1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := ms.Get(ctx, "ephemeral"); err != nil {
		t.Errorf("non-positive ttl must mean no expiry: %v", err)
	}

	ms.mu.Lock()
	e := ms.data["ephemeral"]
	past := nowMinusHour()
	e.expire = &past
	ms.mu.Unlock()

	if _, err := ms.Get(ctx, "ephemeral"); err == nil {
		t.Error("expired entry still readable")
	}
	if got, _ := ms.BatchGet(ctx, []string{"ephemeral"}); len(got) != 0 {
		t.Error("expired entry present in batch result")
	}
}

func nowMinusHour() time.Time { return time.Now().Add(-time.Hour) }

func TestModelRoundTripThroughStore(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	ratings := []dataset.Rating{
		{UserID: 1, MovieID: 10, Value: 5}, {UserID: 1, MovieID: 11, Value: 1},
		{UserID: 2, MovieID: 10, Value: 4.5}, {UserID: 2, MovieID: 11, Value: 1.5},
		{UserID: 3, MovieID: 10, Value: 4}, {UserID: 3, MovieID: 12, Value: 3},
	}
	movies := []dataset.Movie{
		{ID: 10, Genres: []string{"Action", "Crime"}},
		{ID: 11, Genres: []string{"Action", "Crime"}},
		{ID: 12, Genres: []string{"Comedy"}},
	}

	cfCfg := cf.DefaultConfig()
	cfCfg.Factors = 4
	cfModel := cf.New(cfCfg)
	if err := cfModel.Fit(ratings); err != nil {
		t.Fatalf("fit cf: %v", err)
	}
	ctModel := content.New()
	if err := ctModel.Fit(movies); err != nil {
		t.Fatalf("fit content: %v", err)
	}

	if err := SaveCFModel(ctx, ms, cfModel); err != nil {
		t.Fatalf("SaveCFModel: %v", err)
	}
	if err := SaveContentModel(ctx, ms, ctModel); err != nil {
		t.Fatalf("SaveContentModel: %v", err)
	}

	loadedCF, err := LoadCFModel(ctx, ms)
	if err != nil {
		t.Fatalf("LoadCFModel: %v", err)
	}
	for u := int64(1); u <= 3; u++ {
		for m := int64(10); m <= 12; m++ {
			if a, b := cfModel.Predict(u, m), loadedCF.Predict(u, m); a != b {
				t.Fatalf("cf predictions differ after round trip: %.6f != %.6f", a, b)
			}
		}
	}

	loadedCT, err := LoadContentModel(ctx, ms)
	if err != nil {
		t.Fatalf("LoadContentModel: %v", err)
	}
	want, _ := ctModel.Similarity(10, 11)
	got, err := loadedCT.Similarity(10, 11)
	if err != nil || got != want {
		t.Errorf("content similarity after round trip = (%.6f, %v), want %.6f", got, err, want)
	}
}

func TestSaveUnfittedModelRejected(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := SaveCFModel(ctx, ms, cf.New(cf.DefaultConfig())); err == nil {
		t.Error("unfitted cf model must be rejected")
	}
	if err := SaveContentModel(ctx, ms, content.New()); err == nil {
		t.Error("unfitted content model must be rejected")
	}
}

func TestLoadMissingModel(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()

	if _, err := LoadCFModel(context.Background(), ms); !core.IsNotFound(err) {
		t.Errorf("missing snapshot: got %v, want not-found", err)
	}
}
