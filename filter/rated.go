package filter

import (
	"context"

	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
)

// Rated 过滤用户已评分的物品。
// 召回源（recall.Unrated）本身会排除已评分内容，这个过滤器给
// 配置驱动的自定义候选池（hot、目录切片等）兜底。
type Rated struct {
	Store *dataset.Store
}

func (f *Rated) Name() string { return "filter.rated" }

func (f *Rated) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx != nil && rctx.User.HasRated(item.ID) {
		return true, nil
	}
	// 画像缺失时回查评分表
	if rctx != nil && rctx.User == nil && f.Store != nil {
		if _, ok := f.Store.UserRatings(rctx.UserID)[item.ID]; ok {
			return true, nil
		}
	}
	return false, nil
}
