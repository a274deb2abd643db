package dataset

import "testing"

func splitFixture() []Rating {
	out := make([]Rating, 0, 100)
	for i := int64(0); i < 100; i++ {
		out = append(out, Rating{
			UserID:    i % 10,
			MovieID:   i,
			Value:     float64(i%9)/2 + 1,
			Timestamp: 1000 + i,
		})
	}
	return out
}

func TestSplitRandom(t *testing.T) {
	ratings := splitFixture()

	train, test := SplitRandom(ratings, 0.2, 42)
	if len(test) != 20 || len(train) != 80 {
		t.Fatalf("split sizes = %d/%d, want 80/20", len(train), len(test))
	}

	// 无重叠且覆盖全部观测
	seen := make(map[int64]bool, len(ratings))
	for _, r := range append(append([]Rating{}, train...), test...) {
		if seen[r.MovieID] {
			t.Fatalf("movie %d appears twice across splits", r.MovieID)
		}
		seen[r.MovieID] = true
	}
	if len(seen) != len(ratings) {
		t.Errorf("splits cover %d observations, want %d", len(seen), len(ratings))
	}

	// 同种子可复现
	train2, test2 := SplitRandom(ratings, 0.2, 42)
	for i := range test {
		if test[i] != test2[i] {
			t.Fatal("same seed produced different split")
		}
	}
	_ = train2

	// 输入未被打乱
	for i, r := range ratings {
		if r.MovieID != int64(i) {
			t.Fatal("input slice was mutated")
		}
	}
}

func TestSplitRandomFracBounds(t *testing.T) {
	ratings := splitFixture()

	if train, test := SplitRandom(ratings, -1, 1); len(test) != 0 || len(train) != 100 {
		t.Errorf("frac<0: sizes %d/%d", len(train), len(test))
	}
	if train, test := SplitRandom(ratings, 2, 1); len(test) != 100 || len(train) != 0 {
		t.Errorf("frac>1: sizes %d/%d", len(train), len(test))
	}
}

func TestSplitByTime(t *testing.T) {
	ratings := splitFixture()

	train, test := SplitByTime(ratings, 0.25)
	if len(test) != 25 || len(train) != 75 {
		t.Fatalf("split sizes = %d/%d, want 75/25", len(train), len(test))
	}

	// 测试集的每条观测都不早于训练集的任何观测
	var maxTrain int64
	for _, r := range train {
		if r.Timestamp > maxTrain {
			maxTrain = r.Timestamp
		}
	}
	for _, r := range test {
		if r.Timestamp < maxTrain {
			t.Fatalf("test observation at %d predates train max %d", r.Timestamp, maxTrain)
		}
	}
}
