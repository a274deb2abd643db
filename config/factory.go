// Package config 把 YAML/JSON 管线配置映射到具体 Node。
// 模型与数据集是进程内对象，无法从配置文件还原，
// 因此通过 Deps 注入，builder 只从 config map 读纯参数。
package config

import (
	"time"

	"github.com/reelsense/cinekit/cf"
	"github.com/reelsense/cinekit/content"
	"github.com/reelsense/cinekit/dataset"
	"github.com/reelsense/cinekit/explain"
	"github.com/reelsense/cinekit/filter"
	"github.com/reelsense/cinekit/pipeline"
	"github.com/reelsense/cinekit/pkg/conv"
	"github.com/reelsense/cinekit/rank"
	"github.com/reelsense/cinekit/recall"
	"github.com/reelsense/cinekit/rerank"
)

// Deps 是配置文件之外的运行期依赖。
type Deps struct {
	Dataset *dataset.Store
	CF      *cf.Model
	Content *content.Model
}

// NewNodeFactory 注册全部内置 Node 类型并返回工厂。
// 支持的类型：recall.unrated / recall.hot / recall.fanout /
// filter / rank.hybrid / rerank.diversity / rerank.topn / explain。
func NewNodeFactory(deps Deps) *pipeline.NodeFactory {
	f := pipeline.NewNodeFactory()

	f.Register("recall.unrated", func(cfg map[string]any) (pipeline.Node, error) {
		return &recall.Unrated{
			Store:     deps.Dataset,
			PoolLimit: int(conv.ConfigGetInt64(cfg, "pool_limit", 0)),
		}, nil
	})

	f.Register("recall.hot", func(cfg map[string]any) (pipeline.Node, error) {
		return &recall.Hot{
			Store: deps.Dataset,
			TopK:  int(conv.ConfigGetInt64(cfg, "top_k", 0)),
		}, nil
	})

	f.Register("recall.fanout", func(cfg map[string]any) (pipeline.Node, error) {
		sources := []recall.Source{
			&recall.Unrated{Store: deps.Dataset, PoolLimit: int(conv.ConfigGetInt64(cfg, "pool_limit", 0))},
			&recall.Hot{Store: deps.Dataset, TopK: int(conv.ConfigGetInt64(cfg, "hot_top_k", 0))},
		}
		timeout := time.Duration(conv.ConfigGetInt64(cfg, "timeout_ms", 0)) * time.Millisecond
		return &recall.Fanout{
			Sources:       sources,
			Dedup:         conv.ConfigGet(cfg, "dedup", true),
			Timeout:       timeout,
			MaxConcurrent: int(conv.ConfigGetInt64(cfg, "max_concurrent", 0)),
		}, nil
	})

	f.Register("filter", func(cfg map[string]any) (pipeline.Node, error) {
		filters := []filter.Filter{&filter.Rated{Store: deps.Dataset}}
		if expr := conv.ConfigGet(cfg, "expr", ""); expr != "" {
			ef, err := filter.NewExpr(deps.Dataset, expr)
			if err != nil {
				return nil, err
			}
			filters = append(filters, ef)
		}
		return &filter.FilterNode{Filters: filters}, nil
	})

	f.Register("rank.hybrid", func(cfg map[string]any) (pipeline.Node, error) {
		hc := rank.DefaultHybridConfig()
		hc.CFWeight = conv.ConfigGetFloat64(cfg, "cf_weight", hc.CFWeight)
		hc.ContentWeight = conv.ConfigGetFloat64(cfg, "content_weight", hc.ContentWeight)
		hc.Shards = int(conv.ConfigGetInt64(cfg, "shards", int64(hc.Shards)))
		return &rank.HybridNode{
			CF:      deps.CF,
			Content: deps.Content,
			Store:   deps.Dataset,
			Config:  hc,
		}, nil
	})

	f.Register("rerank.diversity", func(cfg map[string]any) (pipeline.Node, error) {
		return &rerank.Diversity{
			Content:            deps.Content,
			Store:              deps.Dataset,
			TargetSize:         int(conv.ConfigGetInt64(cfg, "top_k", 10)),
			Lambda:             conv.ConfigGetFloat64(cfg, "lambda", rerank.DefaultLambda),
			GenreCapShare:      conv.ConfigGetFloat64(cfg, "genre_cap_share", 0),
			DecadeCapShare:     conv.ConfigGetFloat64(cfg, "decade_cap_share", 0),
			LongTailShare:      conv.ConfigGetFloat64(cfg, "long_tail_share", 0),
			LongTailPercentile: conv.ConfigGetFloat64(cfg, "long_tail_percentile", 0.2),
			Serendipity:        conv.ConfigGet(cfg, "serendipity", false),
			SerendipityFloor:   conv.ConfigGetFloat64(cfg, "serendipity_floor", rerank.DefaultSerendipityFloor),
		}, nil
	})

	f.Register("rerank.topn", func(cfg map[string]any) (pipeline.Node, error) {
		return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 10))}, nil
	})

	f.Register("explain", func(cfg map[string]any) (pipeline.Node, error) {
		gen := explain.New(deps.Dataset)
		gen.Config.DisclaimerConfidence = conv.ConfigGetFloat64(cfg, "disclaimer_confidence", gen.Config.DisclaimerConfidence)
		return &explain.Node{Generator: gen}, nil
	})

	return f
}
