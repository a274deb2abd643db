package recall

import (
	"context"
	"sort"

	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
	"github.com/reelsense/cinekit/pipeline"
	"github.com/reelsense/cinekit/pkg/utils"
)

// Unrated 是候选池召回源：目录中用户尚未评分的全部物品。
// 冷启动用户（无画像或无历史）得到整个目录。
//
// Unrated 同时实现 Source 和 Node 接口，可直接在 Pipeline 中使用。
type Unrated struct {
	Store *dataset.Store

	// PoolLimit 限制候选池大小（0 表示不限制）。
	// 超限时偏向保留评分数多的物品，与离线全量打分相比牺牲少量召回换响应时间。
	PoolLimit int
}

func (r *Unrated) Name() string        { return "recall.unrated" }
func (r *Unrated) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *Unrated) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *Unrated) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil || rctx == nil {
		return nil, nil
	}

	ids := make([]int64, 0, r.Store.NumMovies())
	for _, id := range r.Store.MovieIDs() {
		if rctx.User.HasRated(id) {
			continue
		}
		ids = append(ids, id)
	}

	if r.PoolLimit > 0 && len(ids) > r.PoolLimit {
		sort.Slice(ids, func(i, j int) bool {
			ci, cj := r.Store.RatingCount(ids[i]), r.Store.RatingCount(ids[j])
			if ci != cj {
				return ci > cj
			}
			return ids[i] < ids[j]
		})
		ids = ids[:r.PoolLimit]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "unrated", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
