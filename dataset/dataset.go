// Package dataset 提供训练与服务共用的只读评分/物品表。
//
// Store 在构建时一次性物化所有派生视图（用户索引、物品聚合、流行度分位），
// 之后不可变，可被任意数量的并发请求共享读取。
// 数据的解析与校验由外部协作方完成，本包只接收内存结构。
package dataset

import (
	"sort"

	"github.com/reelsense/cinekit/core"
)

// Rating 是一条评分观测：训练/评估的 ground truth，加载后不再修改。
// Value ∈ [0.5, 5.0]，步长 0.5。
type Rating struct {
	UserID    int64
	MovieID   int64
	Value     float64
	Timestamp int64
}

// Movie 是物品元信息。RatingCount / MeanRating 由 Store 根据评分表聚合回填。
type Movie struct {
	ID          int64
	Title       string
	Year        int
	Genres      []string
	Tags        []string
	RatingCount int
	MeanRating  float64
}

// Decade 返回发行年代（如 1994 → 1990）。
func (m Movie) Decade() int {
	return m.Year / 10 * 10
}

// Store 是不可变的内存评分表 + 物品元信息表。
type Store struct {
	movies   map[int64]Movie
	movieIDs []int64 // 升序，保证遍历确定性

	byUser  map[int64]map[int64]Rating
	userIDs []int64

	globalMean float64
	ratings    []Rating

	// popPct 是每个物品的流行度分位 [0,1)：评分数严格更少的物品占比。
	popPct map[int64]float64
}

// NewStore 构建只读 Store。ratings 中引用了未知物品的评分会被保留用于训练，
// 但该物品在目录视图中不存在（Movie 返回 ok=false）。
func NewStore(ratings []Rating, movies []Movie) *Store {
	s := &Store{
		movies: make(map[int64]Movie, len(movies)),
		byUser: make(map[int64]map[int64]Rating),
		popPct: make(map[int64]float64, len(movies)),
	}

	counts := make(map[int64]int, len(movies))
	sums := make(map[int64]float64, len(movies))

	var total float64
	for _, r := range ratings {
		s.ratings = append(s.ratings, r)
		total += r.Value
		counts[r.MovieID]++
		sums[r.MovieID] += r.Value

		if s.byUser[r.UserID] == nil {
			s.byUser[r.UserID] = make(map[int64]Rating)
		}
		s.byUser[r.UserID][r.MovieID] = r
	}
	if len(ratings) > 0 {
		s.globalMean = total / float64(len(ratings))
	}

	for _, m := range movies {
		m.RatingCount = counts[m.ID]
		if m.RatingCount > 0 {
			m.MeanRating = sums[m.ID] / float64(m.RatingCount)
		} else {
			m.MeanRating = 0
		}
		s.movies[m.ID] = m
		s.movieIDs = append(s.movieIDs, m.ID)
	}
	sort.Slice(s.movieIDs, func(i, j int) bool { return s.movieIDs[i] < s.movieIDs[j] })

	for uid := range s.byUser {
		s.userIDs = append(s.userIDs, uid)
	}
	sort.Slice(s.userIDs, func(i, j int) bool { return s.userIDs[i] < s.userIDs[j] })

	// 流行度分位：按评分数排序后，计数严格更小的物品占比；并列取相同分位。
	if n := len(s.movieIDs); n > 0 {
		byCount := make([]int64, n)
		copy(byCount, s.movieIDs)
		sort.Slice(byCount, func(i, j int) bool {
			ci, cj := counts[byCount[i]], counts[byCount[j]]
			if ci != cj {
				return ci < cj
			}
			return byCount[i] < byCount[j]
		})
		for i := 0; i < n; {
			j := i
			for j < n && counts[byCount[j]] == counts[byCount[i]] {
				j++
			}
			pct := float64(i) / float64(n)
			for k := i; k < j; k++ {
				s.popPct[byCount[k]] = pct
			}
			i = j
		}
	}

	return s
}

// GlobalMean 返回全局平均分。
func (s *Store) GlobalMean() float64 { return s.globalMean }

// Ratings 返回全部评分观测（调用方不得修改）。
func (s *Store) Ratings() []Rating { return s.ratings }

// NumUsers / NumMovies 返回规模信息。
func (s *Store) NumUsers() int  { return len(s.userIDs) }
func (s *Store) NumMovies() int { return len(s.movieIDs) }

// MovieIDs 返回目录中全部物品 ID（升序）。
func (s *Store) MovieIDs() []int64 { return s.movieIDs }

// UserIDs 返回全部出现过的用户 ID（升序）。
func (s *Store) UserIDs() []int64 { return s.userIDs }

// Movie 按 ID 查询物品；目录中不存在返回 ok=false（这是错误条件，区别于冷启动）。
func (s *Store) Movie(id int64) (Movie, bool) {
	m, ok := s.movies[id]
	return m, ok
}

// UserRatings 返回用户的全部评分（movieID → value）。未知用户返回 nil。
func (s *Store) UserRatings(userID int64) map[int64]float64 {
	rs, ok := s.byUser[userID]
	if !ok {
		return nil
	}
	out := make(map[int64]float64, len(rs))
	for mid, r := range rs {
		out[mid] = r.Value
	}
	return out
}

// UserRatingCount 返回用户评分数；未知用户为 0。
func (s *Store) UserRatingCount(userID int64) int {
	return len(s.byUser[userID])
}

// UserMean 返回用户平均评分；未知用户返回全局均值。
func (s *Store) UserMean(userID int64) float64 {
	rs, ok := s.byUser[userID]
	if !ok || len(rs) == 0 {
		return s.globalMean
	}
	var sum float64
	for _, r := range rs {
		sum += r.Value
	}
	return sum / float64(len(rs))
}

// FavoriteGenres 返回用户的偏好流派：流派内平均评分 ≥ threshold 的流派及其均值。
func (s *Store) FavoriteGenres(userID int64, threshold float64) map[string]float64 {
	rs, ok := s.byUser[userID]
	if !ok {
		return nil
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for mid, r := range rs {
		m, ok := s.movies[mid]
		if !ok {
			continue
		}
		for _, g := range m.Genres {
			sums[g] += r.Value
			counts[g]++
		}
	}

	out := make(map[string]float64)
	for g, c := range counts {
		mean := sums[g] / float64(c)
		if mean >= threshold {
			out[g] = mean
		}
	}
	return out
}

// TopRatedBy 返回用户评分最高的 n 个物品（评分降序，同分按 ID 升序）。
func (s *Store) TopRatedBy(userID int64, n int) []int64 {
	rs, ok := s.byUser[userID]
	if !ok || n <= 0 {
		return nil
	}

	ids := make([]int64, 0, len(rs))
	for mid := range rs {
		ids = append(ids, mid)
	}
	sort.Slice(ids, func(i, j int) bool {
		vi, vj := rs[ids[i]].Value, rs[ids[j]].Value
		if vi != vj {
			return vi > vj
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// PopularMovies 返回评分数最多的 n 个物品（计数降序，同数按 ID 升序）。
// 冷启动用户的内容兜底参照集。
func (s *Store) PopularMovies(n int) []int64 {
	if n <= 0 {
		return nil
	}
	ids := make([]int64, len(s.movieIDs))
	copy(ids, s.movieIDs)
	sort.Slice(ids, func(i, j int) bool {
		ci, cj := s.movies[ids[i]].RatingCount, s.movies[ids[j]].RatingCount
		if ci != cj {
			return ci > cj
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// RatingCount 返回物品的评分数；未知物品为 0。
func (s *Store) RatingCount(movieID int64) int {
	return s.movies[movieID].RatingCount
}

// PopularityPercentile 返回物品的流行度分位 [0,1)；未知物品为 0（最冷门）。
func (s *Store) PopularityPercentile(movieID int64) float64 {
	return s.popPct[movieID]
}

// IsLongTail 判断物品是否位于长尾（流行度分位低于 pct）。
func (s *Store) IsLongTail(movieID int64, pct float64) bool {
	return s.popPct[movieID] < pct
}

// Profile 物化用户画像。未知用户返回冷启动空画像，而不是 nil。
// favThreshold 是偏好流派的均分阈值，topN 是高分历史锚点数。
func (s *Store) Profile(userID int64, favThreshold float64, topN int) *core.UserProfile {
	p := core.NewUserProfile(userID)
	p.RatingCount = s.UserRatingCount(userID)
	p.MeanRating = s.UserMean(userID)
	if favs := s.FavoriteGenres(userID, favThreshold); favs != nil {
		p.FavoriteGenres = favs
	}
	p.TopRated = s.TopRatedBy(userID, topN)
	if rated := s.UserRatings(userID); rated != nil {
		p.Rated = rated
	}
	return p
}
