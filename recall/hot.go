package recall

import (
	"context"

	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
	"github.com/reelsense/cinekit/pipeline"
	"github.com/reelsense/cinekit/pkg/utils"
)

// Hot 是热门召回源：按评分数取目录中最热的 TopK 个物品。
// 冷启动场景的候选池，也可作为 fanout 的补充源。
// Hot 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Hot struct {
	Store *dataset.Store

	// TopK 返回 TopK 个物品，<= 0 时取默认值 100。
	TopK int
}

func (r *Hot) Name() string        { return "recall.hot" }
func (r *Hot) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *Hot) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。已评分物品同样会被排除，保证热门源
// 不会把用户看过的内容重新带回候选池。
func (r *Hot) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 100
	}

	out := make([]*core.Item, 0, topK)
	for _, id := range r.Store.PopularMovies(r.Store.NumMovies()) {
		if rctx != nil && rctx.User.HasRated(id) {
			continue
		}
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "hot", Source: "recall"})
		out = append(out, it)
		if len(out) >= topK {
			break
		}
	}
	return out, nil
}
