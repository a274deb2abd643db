// Package eval 提供离线评估指标：准确性（RMSE/MAE）、排序命中
// （Precision@K/Recall@K）与列表多样性（熵、覆盖、长尾占比、内部距离）。
// 所有指标都是纯函数，便于在实验脚本里直接组合。
package eval

import (
	"math"

	"github.com/reelsense/cinekit/content"
	"github.com/reelsense/cinekit/dataset"
)

// RelevanceThreshold：评分达到该值的物品在命中类指标里视为相关。
const RelevanceThreshold = 4.0

// Predictor 是任何能对 (user, movie) 给出预测分的模型。
type Predictor interface {
	Predict(userID, movieID int64) float64
}

// RMSE 计算预测均方根误差。空集返回 0。
func RMSE(model Predictor, ratings []dataset.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		diff := model.Predict(r.UserID, r.MovieID) - r.Value
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(ratings)))
}

// MAE 计算预测平均绝对误差。空集返回 0。
func MAE(model Predictor, ratings []dataset.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += math.Abs(model.Predict(r.UserID, r.MovieID) - r.Value)
	}
	return sum / float64(len(ratings))
}

// relevant 取测试集中某用户的相关物品集合。
func relevant(test []dataset.Rating, userID int64, threshold float64) map[int64]bool {
	rel := make(map[int64]bool)
	for _, r := range test {
		if r.UserID == userID && r.Value >= threshold {
			rel[r.MovieID] = true
		}
	}
	return rel
}

// PrecisionAtK：推荐列表前 K 个中相关物品的占比。
// 列表为空返回 0；K 大于列表长度按实际长度算分母。
func PrecisionAtK(recommended []int64, test []dataset.Rating, userID int64, k int) float64 {
	if k <= 0 || len(recommended) == 0 {
		return 0
	}
	if k > len(recommended) {
		k = len(recommended)
	}
	rel := relevant(test, userID, RelevanceThreshold)
	hits := 0
	for _, id := range recommended[:k] {
		if rel[id] {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

// RecallAtK：相关物品中被前 K 个推荐覆盖的占比。无相关物品返回 0。
func RecallAtK(recommended []int64, test []dataset.Rating, userID int64, k int) float64 {
	rel := relevant(test, userID, RelevanceThreshold)
	if len(rel) == 0 || k <= 0 || len(recommended) == 0 {
		return 0
	}
	if k > len(recommended) {
		k = len(recommended)
	}
	hits := 0
	for _, id := range recommended[:k] {
		if rel[id] {
			hits++
		}
	}
	return float64(hits) / float64(len(rel))
}

// GenreEntropy 计算列表的流派分布香农熵（自然对数）。
// 一部电影计入它携带的每个流派；空列表或无流派返回 0。
func GenreEntropy(store *dataset.Store, movieIDs []int64) float64 {
	counts := make(map[string]int)
	total := 0
	for _, id := range movieIDs {
		mv, ok := store.Movie(id)
		if !ok {
			continue
		}
		for _, g := range mv.Genres {
			counts[g]++
			total++
		}
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		h -= p * math.Log(p)
	}
	return h
}

// DecadeCoverage 返回列表覆盖的不同年代数。
func DecadeCoverage(store *dataset.Store, movieIDs []int64) int {
	decades := make(map[int]bool)
	for _, id := range movieIDs {
		if mv, ok := store.Movie(id); ok && mv.Year > 0 {
			decades[mv.Decade()] = true
		}
	}
	return len(decades)
}

// LongTailRatio 返回列表中长尾物品（流行度分位低于 percentile）的占比。
func LongTailRatio(store *dataset.Store, movieIDs []int64, percentile float64) float64 {
	if len(movieIDs) == 0 {
		return 0
	}
	tail := 0
	for _, id := range movieIDs {
		if store.IsLongTail(id, percentile) {
			tail++
		}
	}
	return float64(tail) / float64(len(movieIDs))
}

// IntraListDistance 计算列表的平均两两内容距离（1 - 相似度）。
// 少于两个物品返回 0；未知物品对按距离 1 计。
func IntraListDistance(model *content.Model, movieIDs []int64) float64 {
	n := len(movieIDs)
	if n < 2 {
		return 0
	}
	var sum float64
	pairs := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim, err := model.Similarity(movieIDs[i], movieIDs[j])
			if err != nil {
				sim = 0
			}
			sum += 1 - sim
			pairs++
		}
	}
	return sum / float64(pairs)
}
