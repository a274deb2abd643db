// Package rerank 实现多样性重排：带硬性约束的 MMR 贪心选择、
// 长尾配额回填与可选的惊喜位。
package rerank

import (
	"container/heap"
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/reelsense/cinekit/content"
	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
	"github.com/reelsense/cinekit/pipeline"
	"github.com/reelsense/cinekit/pkg/conv"
	"github.com/reelsense/cinekit/pkg/utils"
)

// DefaultLambda 是 MMR 的默认精确性/多样性权衡系数。
const DefaultLambda = 0.7

// DefaultSerendipityFloor 是惊喜位的默认相关性下限（评分域）。
const DefaultSerendipityFloor = 3.0

// 约束放松顺序（出现在 RecommendationList.Relaxed 中的名字）。
const (
	RelaxLongTailQuota   = "long_tail_quota"
	RelaxSerendipitySlot = "serendipity_slot"
)

// Options 是 Rerank 的策略配置。零值表示对应机制关闭。
type Options struct {
	// Constraints 是硬性资格约束（流派/年代上限等），按序检查。
	Constraints []Constraint

	// Content 提供候选间相似度（MMR 的冗余项）与新颖度（惊喜位）。
	// 为 nil 时冗余项恒为 0，MMR 退化为纯相关性排序。
	Content *content.Model

	// LongTailShare 是长尾物品的最小占比配额（如 0.2）；<=0 关闭配额。
	// LongTailPercentile 是长尾的流行度分位阈值（如 0.2）。
	LongTailShare      float64
	LongTailPercentile float64
	Store              *dataset.Store // 长尾判定需要流行度分位

	// Serendipity 开启惊喜位：从剩余池中选内容新颖度最高、
	// 且混合分不低于 SerendipityFloor（评分域）的一个候选。
	// 没有候选过线时惊喜位空置，不会用低相关物品凑数。
	// SerendipityFloor 为 0 表示不设下限，负值取 DefaultSerendipityFloor。
	Serendipity      bool
	SerendipityFloor float64
	History          []int64 // 用户评分历史，新颖度的参照集
}

// Rerank 对打分后的候选执行贪心 MMR 选择，返回最终推荐列表。
//
//	argmax  λ·relevance(item) − (1−λ)·maxSim(item, S)
//
// relevance 取 Item.Score（融合分 [0,1]），maxSim 是候选与已选集合的最大
// 内容相似度。并列时相关性高者优先，再按 ID 升序。λ 超出 [0,1] 时取默认值。
//
// 候选不足 target 时返回短列表（合法状态，通过 Requested 字段报告）；
// 约束不可行时按 长尾配额 → 惊喜位 → 流派/年代上限 的顺序放松，
// 放松记录在 Relaxed 中，绝不静默。
func Rerank(candidates []*core.Item, target int, lambda float64, opts Options) *core.RecommendationList {
	list := &core.RecommendationList{Requested: target}
	if target <= 0 || len(candidates) == 0 {
		return list
	}
	if lambda < 0 || lambda > 1 {
		lambda = DefaultLambda
	}

	// 入堆：初始 maxSim = 0，mmr = λ·rel
	pq := make(mmrHeap, 0, len(candidates))
	for _, it := range candidates {
		if it == nil {
			continue
		}
		pq = append(pq, &mmrEntry{item: it, mmr: lambda * it.Score})
	}
	heap.Init(&pq)

	var (
		selected []*core.Item
		parked   []*core.Item        // 被硬性约束挡下的候选（约束单调收紧，不会再入选）
		blocked  = map[string]bool{} // 实际拦截过候选的约束名
	)

	// 懒惰贪心：maxSim 随 S 增长单调不减 → mmr 单调不增，
	// 堆顶若是基于当前 S 计算的，即为本步最优。
	for len(selected) < target && pq.Len() > 0 {
		e := pq[0]
		if e.upTo < len(selected) {
			// 基于旧 S 的过期值：增量补算新增已选项的相似度后重新入堆
			for j := e.upTo; j < len(selected); j++ {
				if sim := pairSim(opts.Content, e.item.ID, selected[j].ID); sim > e.maxSim {
					e.maxSim = sim
				}
			}
			e.upTo = len(selected)
			e.mmr = lambda*e.item.Score - (1-lambda)*e.maxSim
			heap.Fix(&pq, 0)
			continue
		}

		heap.Pop(&pq)
		if ok, name := eligibleAll(opts.Constraints, e.item, selected, target); !ok {
			blocked[name] = true
			parked = append(parked, e.item)
			continue
		}
		selected = append(selected, e.item)
	}

	// 剩余池：堆中未选 + 被约束挡下的
	remaining := make([]*core.Item, 0, pq.Len()+len(parked))
	for _, e := range pq {
		remaining = append(remaining, e.item)
	}
	remaining = append(remaining, parked...)
	sortByRelevance(remaining)

	// 约束不可行：池子还有货但列表没凑满 → 放松上限补齐（最后才放松的约束）
	if len(selected) < target && len(remaining) > 0 {
		for name := range blocked {
			list.Relaxed = appendRelaxed(list.Relaxed, name)
		}
		for _, it := range remaining {
			if len(selected) >= target {
				break
			}
			selected = append(selected, it)
		}
		remaining = remaining[:0]
	}

	// 长尾配额：优先从剩余池回填，仅在不破坏替入者自身约束时
	// 置换边际价值最低的非长尾已选项
	if opts.LongTailShare > 0 && opts.Store != nil {
		selected, remaining = fillLongTail(selected, remaining, target, opts, list)
	}

	// 惊喜位：内容新颖度最高且过相关性下限的一个候选
	if opts.Serendipity {
		selected = fillSerendipity(selected, remaining, target, opts, list)
	}

	for rank, it := range selected {
		it.PutLabel("mmr_rank", utils.Label{Value: strconv.Itoa(rank), Source: "rerank"})
	}
	orderRelaxed(list.Relaxed)
	list.Items = selected
	return list
}

// orderRelaxed 把 Relaxed 排成放松顺序：长尾配额 → 惊喜位 → 各上限（上限间按名称）。
func orderRelaxed(relaxed []string) {
	weight := func(name string) int {
		switch name {
		case RelaxLongTailQuota:
			return 0
		case RelaxSerendipitySlot:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(relaxed, func(i, j int) bool {
		wi, wj := weight(relaxed[i]), weight(relaxed[j])
		if wi != wj {
			return wi < wj
		}
		return relaxed[i] < relaxed[j]
	})
}

// fillLongTail 保证长尾物品达到最小配额。配额无法满足时记入 Relaxed（最先放松）。
func fillLongTail(selected, remaining []*core.Item, target int, opts Options, list *core.RecommendationList) ([]*core.Item, []*core.Item) {
	isLT := func(id int64) bool { return opts.Store.IsLongTail(id, opts.LongTailPercentile) }

	required := int(opts.LongTailShare*float64(len(selected)) + 0.999999) // ceil
	have := 0
	for _, it := range selected {
		if isLT(it.ID) {
			have++
		}
	}
	if have >= required {
		return selected, remaining
	}

	// 候选：剩余池中的长尾物品，按相关性降序
	pool := make([]*core.Item, 0, len(remaining))
	for _, it := range remaining {
		if isLT(it.ID) {
			pool = append(pool, it)
		}
	}

	used := map[int64]bool{}
	for _, cand := range pool {
		if have >= required {
			break
		}

		// 被置换者：边际价值（融合分）最低的非长尾已选项
		victim := -1
		for i := len(selected) - 1; i >= 0; i-- {
			if !isLT(selected[i].ID) {
				victim = i
				break
			}
		}
		if victim < 0 {
			break
		}

		// 置换不得违反替入者自身的硬性约束
		rest := make([]*core.Item, 0, len(selected)-1)
		rest = append(rest, selected[:victim]...)
		rest = append(rest, selected[victim+1:]...)
		if ok, _ := eligibleAll(opts.Constraints, cand, rest, target); !ok {
			continue
		}

		cand.PutLabel("long_tail", utils.Label{Value: "quota", Source: "rerank"})
		selected[victim] = cand
		used[cand.ID] = true
		have++
	}

	if have < required {
		list.Relaxed = appendRelaxed(list.Relaxed, RelaxLongTailQuota)
	}

	out := remaining[:0]
	for _, it := range remaining {
		if !used[it.ID] {
			out = append(out, it)
		}
	}
	return selected, out
}

// fillSerendipity 用一个高新颖度候选占据惊喜位。
func fillSerendipity(selected, remaining []*core.Item, target int, opts Options, list *core.RecommendationList) []*core.Item {
	if opts.Content == nil || len(selected) == 0 || len(remaining) == 0 {
		return selected
	}
	floor := opts.SerendipityFloor
	if floor < 0 {
		floor = DefaultSerendipityFloor
	}

	// 候选按新颖度降序（并列按相关性降序、ID 升序）
	type novel struct {
		it      *core.Item
		novelty float64
	}
	pool := make([]novel, 0, len(remaining))
	for _, it := range remaining {
		if it.Candidate == nil || it.Candidate.HybridScore < floor {
			continue // 不过相关性下限的候选宁缺毋滥
		}
		pool = append(pool, novel{it: it, novelty: opts.Content.NoveltyAgainst(it.ID, opts.History)})
	}
	if len(pool) == 0 {
		return selected // 惊喜位空置，不是错误
	}
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].novelty != pool[j].novelty {
			return pool[i].novelty > pool[j].novelty
		}
		if pool[i].it.Score != pool[j].it.Score {
			return pool[i].it.Score > pool[j].it.Score
		}
		return pool[i].it.ID < pool[j].it.ID
	})

	for _, cand := range pool {
		// 被置换者：融合分最低、且不占长尾配额的已选项
		victim := -1
		for i := len(selected) - 1; i >= 0; i-- {
			if _, ok := selected[i].GetLabel("long_tail"); ok {
				continue
			}
			victim = i
			break
		}
		if victim < 0 {
			break
		}

		rest := make([]*core.Item, 0, len(selected)-1)
		rest = append(rest, selected[:victim]...)
		rest = append(rest, selected[victim+1:]...)
		if ok, _ := eligibleAll(opts.Constraints, cand.it, rest, target); !ok {
			continue
		}

		cand.it.PutLabel("serendipity", utils.Label{Value: "novelty", Source: "rerank"})
		selected[victim] = cand.it
		return selected
	}

	// 有过线候选但约束容不下：惊喜位被放弃（先于上限放松）
	list.Relaxed = appendRelaxed(list.Relaxed, RelaxSerendipitySlot)
	return selected
}

func pairSim(m *content.Model, a, b int64) float64 {
	if m == nil {
		return 0
	}
	sim, err := m.Similarity(a, b)
	if err != nil {
		return 0
	}
	return sim
}

func sortByRelevance(items []*core.Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}

func appendRelaxed(relaxed []string, name string) []string {
	for _, r := range relaxed {
		if r == name {
			return relaxed
		}
	}
	return append(relaxed, name)
}

// mmrEntry 是懒惰贪心堆的元素：缓存相对前 upTo 个已选项的 maxSim。
type mmrEntry struct {
	item   *core.Item
	mmr    float64
	maxSim float64
	upTo   int
}

type mmrHeap []*mmrEntry

func (h mmrHeap) Len() int { return len(h) }
func (h mmrHeap) Less(i, j int) bool {
	if h[i].mmr != h[j].mmr {
		return h[i].mmr > h[j].mmr
	}
	if h[i].item.Score != h[j].item.Score {
		return h[i].item.Score > h[j].item.Score
	}
	return h[i].item.ID < h[j].item.ID
}
func (h mmrHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *mmrHeap) Push(x any)   { *h = append(*h, x.(*mmrEntry)) }
func (h *mmrHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Diversity 是 ReRank Node：把 Rerank 接到 Pipeline 上。
// target/lambda 支持经 rctx.Params 按请求覆盖（top_k / lambda）。
// 放松记录写入 rctx 的 rerank_relaxed 标签，由 service 层组装进结果。
type Diversity struct {
	Content *content.Model
	Store   *dataset.Store

	TargetSize int
	Lambda     float64 // 负值表示取 DefaultLambda

	GenreCapShare      float64 // <=0 关闭
	DecadeCapShare     float64 // <=0 关闭
	LongTailShare      float64 // <=0 关闭
	LongTailPercentile float64
	Serendipity        bool
	SerendipityFloor   float64 // 0 表示不设下限，负值取 DefaultSerendipityFloor
}

func (n *Diversity) Name() string        { return "rerank.diversity" }
func (n *Diversity) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Diversity) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	target := n.TargetSize
	lambda := n.Lambda
	if rctx != nil {
		if v := conv.ConfigGetInt64(rctx.Params, "top_k", int64(target)); v > 0 {
			target = int(v)
		}
		lambda = conv.ConfigGetFloat64(rctx.Params, "lambda", lambda)
	}

	var constraints []Constraint
	if n.GenreCapShare > 0 {
		constraints = append(constraints, &GenreCap{Store: n.Store, MaxShare: n.GenreCapShare})
	}
	if n.DecadeCapShare > 0 {
		constraints = append(constraints, &DecadeCap{Store: n.Store, MaxShare: n.DecadeCapShare})
	}

	var history []int64
	if rctx != nil && rctx.User != nil {
		history = make([]int64, 0, len(rctx.User.Rated))
		for id := range rctx.User.Rated {
			history = append(history, id)
		}
		sort.Slice(history, func(i, j int) bool { return history[i] < history[j] })
	}

	list := Rerank(items, target, lambda, Options{
		Constraints:        constraints,
		Content:            n.Content,
		LongTailShare:      n.LongTailShare,
		LongTailPercentile: n.LongTailPercentile,
		Store:              n.Store,
		Serendipity:        n.Serendipity,
		SerendipityFloor:   n.SerendipityFloor,
		History:            history,
	})

	if rctx != nil && len(list.Relaxed) > 0 {
		rctx.PutLabel("rerank_relaxed", utils.Label{
			Value:  strings.Join(list.Relaxed, "|"),
			Source: "rerank",
		})
	}
	return list.Items, nil
}
