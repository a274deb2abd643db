package content

import (
	"sort"

	"github.com/reelsense/cinekit/core"
)

// Snapshot 是内容模型的可序列化快照，配合 store 包在进程间传递。
type Snapshot struct {
	Vectors     map[int64]map[string]float64 `json:"vectors"`
	RatingCount map[int64]int                `json:"rating_count"`
}

// Snapshot 导出已训练模型的快照。未训练模型返回 nil。
func (m *Model) Snapshot() *Snapshot {
	if !m.fitted {
		return nil
	}
	return &Snapshot{
		Vectors:     m.vectors,
		RatingCount: m.ratingCount,
	}
}

// Restore 从快照恢复内容模型。
func Restore(s *Snapshot) (*Model, error) {
	if s == nil || s.Vectors == nil {
		return nil, core.NewDomainError(core.ModuleContent, core.ErrorCodeInvalidInput, "content: nil snapshot")
	}
	m := New()
	m.vectors = s.Vectors
	m.ratingCount = s.RatingCount
	if m.ratingCount == nil {
		m.ratingCount = make(map[int64]int)
	}
	m.movieIDs = make([]int64, 0, len(s.Vectors))
	for id := range s.Vectors {
		m.movieIDs = append(m.movieIDs, id)
	}
	sort.Slice(m.movieIDs, func(i, j int) bool { return m.movieIDs[i] < m.movieIDs[j] })
	m.fitted = true
	return m, nil
}
