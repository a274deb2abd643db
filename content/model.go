// Package content 实现基于物品元信息（流派 + 自由标签）的内容模型：
// TF-IDF 加权稀疏向量 + 余弦相似度 + 确定性近邻查询。
//
// 词表在 Fit 时对全量物品一次性构建；物品元信息变化后需整体重建，
// 没有增量更新语义。Fit 返回后模型不可变，服务期并发只读。
package content

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
)

// Neighbor 是近邻查询结果项。
type Neighbor struct {
	MovieID int64   `json:"movie_id"`
	Score   float64 `json:"score"` // 余弦相似度 [0,1]
}

// Model 是内容相似度模型。
type Model struct {
	// vectors 是每个物品的 L2 归一化 TF-IDF 稀疏向量（term → weight），
	// 归一化后余弦相似度退化为稀疏点积。
	vectors map[int64]map[string]float64

	// ratingCount 用于近邻并列时的决胜（评分数高者优先）。
	ratingCount map[int64]int

	movieIDs []int64 // 升序，遍历确定性
	fitted   bool
}

// New 创建未训练的内容模型。
func New() *Model {
	return &Model{}
}

// Fit 对全量物品构建词表与 TF-IDF 向量。
//
// 词表规则：在恰好 1 个物品或全部物品中出现的词没有区分度，直接剔除。
func (m *Model) Fit(movies []dataset.Movie) error {
	if len(movies) == 0 {
		return core.NewDomainError(core.ModuleContent, core.ErrorCodeInvalidInput, "content: no movies to fit")
	}

	n := len(movies)
	termCounts := make([]map[string]int, n) // 每个物品的词频
	df := make(map[string]int)              // 词 → 文档频率

	for i, mv := range movies {
		counts := make(map[string]int)
		for _, t := range Tokenize(mv) {
			counts[t]++
		}
		termCounts[i] = counts
		for t := range counts {
			df[t]++
		}
	}

	m.vectors = make(map[int64]map[string]float64, n)
	m.ratingCount = make(map[int64]int, n)
	m.movieIDs = m.movieIDs[:0]

	for i, mv := range movies {
		vec := make(map[string]float64)
		var norm float64
		for t, tf := range termCounts[i] {
			d := df[t]
			if d <= 1 || d >= n { // 无区分度的词
				continue
			}
			w := float64(tf) * math.Log(float64(n)/float64(d))
			if w == 0 {
				continue
			}
			vec[t] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for t := range vec {
				vec[t] /= norm
			}
		}
		m.vectors[mv.ID] = vec
		m.ratingCount[mv.ID] = mv.RatingCount
		m.movieIDs = append(m.movieIDs, mv.ID)
	}
	sort.Slice(m.movieIDs, func(i, j int) bool { return m.movieIDs[i] < m.movieIDs[j] })

	m.fitted = true
	return nil
}

// Fitted 返回模型是否已训练。
func (m *Model) Fitted() bool { return m.fitted }

// Known 判断物品是否在 Fit 时出现过。
func (m *Model) Known(movieID int64) bool {
	_, ok := m.vectors[movieID]
	return ok
}

// Similarity 返回两个物品的余弦相似度 [0,1]。
// 任一物品未在 Fit 时出现即为 UNKNOWN_ENTITY（相似度未定义，不返回 0）。
func (m *Model) Similarity(a, b int64) (float64, error) {
	va, ok := m.vectors[a]
	if !ok {
		return 0, core.NewUnknownEntityError(core.ModuleContent, fmt.Sprintf("content: movie %d not fitted", a))
	}
	vb, ok := m.vectors[b]
	if !ok {
		return 0, core.NewUnknownEntityError(core.ModuleContent, fmt.Sprintf("content: movie %d not fitted", b))
	}
	return sparseDot(va, vb), nil
}

// Nearest 返回与给定物品最相似的 topN 个物品。
// 排序：相似度降序；并列按评分数降序，再按 ID 升序，保证完全确定性。
func (m *Model) Nearest(movieID int64, topN int) ([]Neighbor, error) {
	center, ok := m.vectors[movieID]
	if !ok {
		return nil, core.NewUnknownEntityError(core.ModuleContent, fmt.Sprintf("content: movie %d not fitted", movieID))
	}
	if topN <= 0 {
		return nil, nil
	}

	out := make([]Neighbor, 0, len(m.movieIDs)-1)
	for _, id := range m.movieIDs {
		if id == movieID {
			continue
		}
		out = append(out, Neighbor{MovieID: id, Score: sparseDot(center, m.vectors[id])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		ci, cj := m.ratingCount[out[i].MovieID], m.ratingCount[out[j].MovieID]
		if ci != cj {
			return ci > cj
		}
		return out[i].MovieID < out[j].MovieID
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

// MeanSimilarity 返回物品与一组参照物品的平均相似度。
// 参照集中未知的物品被跳过；有效参照为空时返回 0。
// 目标物品未知仍是 UNKNOWN_ENTITY。
func (m *Model) MeanSimilarity(movieID int64, refs []int64) (float64, error) {
	center, ok := m.vectors[movieID]
	if !ok {
		return 0, core.NewUnknownEntityError(core.ModuleContent, fmt.Sprintf("content: movie %d not fitted", movieID))
	}

	var sum float64
	var cnt int
	for _, ref := range refs {
		v, ok := m.vectors[ref]
		if !ok {
			continue
		}
		sum += sparseDot(center, v)
		cnt++
	}
	if cnt == 0 {
		return 0, nil
	}
	return sum / float64(cnt), nil
}

// NoveltyAgainst 返回物品相对用户历史的内容新颖度：平均“不相似度” [0,1]。
// 惊喜位（serendipity slot）的选择依据。
func (m *Model) NoveltyAgainst(movieID int64, history []int64) float64 {
	sim, err := m.MeanSimilarity(movieID, history)
	if err != nil {
		return 0
	}
	return 1 - sim
}

// Tokenize 把物品元信息切成词表词元：流派整体小写保留，标签按空白切词小写。
func Tokenize(mv dataset.Movie) []string {
	out := make([]string, 0, len(mv.Genres)+len(mv.Tags))
	for _, g := range mv.Genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" {
			out = append(out, g)
		}
	}
	for _, tag := range mv.Tags {
		for _, t := range strings.Fields(strings.ToLower(tag)) {
			out = append(out, t)
		}
	}
	return out
}

func sparseDot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for t, wa := range a {
		if wb, ok := b[t]; ok {
			sum += wa * wb
		}
	}
	// 浮点误差可能让自相似略超 1
	if sum > 1 {
		sum = 1
	}
	if sum < 0 {
		sum = 0
	}
	return sum
}
