package rerank

import (
	"math"

	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
)

// Constraint 是候选资格谓词：判断在当前已选集合下，该候选是否仍可入选。
// 约束作为硬性上限作用于资格检查，不改变 MMR 目标函数本身；
// 每个约束独立实现、独立测试、自由组合。
//
// 约束必须只随已选集合增长而收紧（一旦不合格不会再合格），
// 贪心选择的懒惰队列依赖这一单调性。
type Constraint interface {
	Name() string

	// Eligible 判断把 item 加入 selected 是否仍满足约束；target 是目标列表长度。
	Eligible(item *core.Item, selected []*core.Item, target int) bool
}

// GenreCap 限制最终列表中单一流派的占比（如不超过 40%）。
// 一部影片携带多个流派时，计入它携带的每个流派。
type GenreCap struct {
	Store    *dataset.Store
	MaxShare float64 // 单流派最大占比 (0,1]
}

func (c *GenreCap) Name() string { return "genre_cap" }

func (c *GenreCap) Eligible(item *core.Item, selected []*core.Item, target int) bool {
	if c.Store == nil || item == nil {
		return true
	}
	mv, ok := c.Store.Movie(item.ID)
	if !ok || len(mv.Genres) == 0 {
		return true
	}

	limit := capCount(c.MaxShare, target)
	counts := make(map[string]int)
	for _, sel := range selected {
		sm, ok := c.Store.Movie(sel.ID)
		if !ok {
			continue
		}
		for _, g := range sm.Genres {
			counts[g]++
		}
	}
	for _, g := range mv.Genres {
		if counts[g]+1 > limit {
			return false
		}
	}
	return true
}

// DecadeCap 限制最终列表中单一发行年代的占比。
type DecadeCap struct {
	Store    *dataset.Store
	MaxShare float64
}

func (c *DecadeCap) Name() string { return "decade_cap" }

func (c *DecadeCap) Eligible(item *core.Item, selected []*core.Item, target int) bool {
	if c.Store == nil || item == nil {
		return true
	}
	mv, ok := c.Store.Movie(item.ID)
	if !ok {
		return true
	}

	limit := capCount(c.MaxShare, target)
	cnt := 0
	for _, sel := range selected {
		sm, ok := c.Store.Movie(sel.ID)
		if ok && sm.Decade() == mv.Decade() {
			cnt++
		}
	}
	return cnt+1 <= limit
}

// capCount 把占比上限换算成条数上限，至少为 1（否则任何列表都不可行）。
func capCount(share float64, target int) int {
	if share <= 0 || share > 1 || target <= 0 {
		return target
	}
	n := int(math.Floor(share*float64(target) + 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

// eligibleAll 依次检查全部约束，返回第一个不满足的约束名。
func eligibleAll(constraints []Constraint, item *core.Item, selected []*core.Item, target int) (bool, string) {
	for _, c := range constraints {
		if !c.Eligible(item, selected, target) {
			return false, c.Name()
		}
	}
	return true, ""
}
