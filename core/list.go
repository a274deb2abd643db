package core

// RecommendationList 是跨越核心边界的唯一结果实体：
// 最终有序物品序列，以及调用方区分“完整结果 / 候选不足”所需的计数。
//
// 候选不足（len(Items) < Requested）是低活跃目录下的合法状态，
// 通过同一个结构体报告，而不是错误。
type RecommendationList struct {
	Items []*Item

	// Requested 是调用方请求的列表长度（top_k）。
	Requested int

	// Relaxed 记录为了凑足列表而被放松的约束名，顺序即放松顺序
	// （长尾配额 → 惊喜位 → 流派/年代上限）。空表示所有约束均满足。
	Relaxed []string
}

// Size 返回实际返回的物品数。
func (l *RecommendationList) Size() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

// Insufficient 判断可用候选是否少于请求数。
func (l *RecommendationList) Insufficient() bool {
	return l != nil && len(l.Items) < l.Requested
}
