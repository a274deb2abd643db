// Package rank 实现混合打分：CF 预测与内容相似两路信号的加权融合，
// 并为每个候选计算置信度。
package rank

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/reelsense/cinekit/cf"
	"github.com/reelsense/cinekit/content"
	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
	"github.com/reelsense/cinekit/pipeline"
	"github.com/reelsense/cinekit/pkg/utils"
)

// HybridConfig 是混合打分配置。权重是可调参数而非硬编码常量：
// 0.7/0.3 与 0.6/0.4 两种口径都由调用方通过它选择。
type HybridConfig struct {
	CFWeight      float64 // CF 信号权重，默认 0.7
	ContentWeight float64 // 内容信号权重，默认 0.3

	// TopRated 是内容参照集大小：取用户历史评分最高的前 N 部。
	TopRated int

	// PopularFallback 是冷启动参照集大小：无历史用户的内容分
	// 改为对全局最热门的 N 部计算相似度。
	PopularFallback int

	// 置信度参数，零值时取 confidence.go 中的默认常量。
	FullTrustRatings int
	VolumeFloor      float64
	HighConfidence   float64
	LowAgreement     float64

	// Shards 是并发打分的分片数（<=0 时串行）。最终排序保证结果与串行一致。
	Shards int
}

// DefaultHybridConfig 返回默认混合打分配置（CF/内容 = 0.7/0.3）。
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{
		CFWeight:         0.7,
		ContentWeight:    0.3,
		TopRated:         5,
		PopularFallback:  20,
		FullTrustRatings: DefaultFullTrustRatings,
		VolumeFloor:      DefaultVolumeFloor,
		HighConfidence:   DefaultHighConfidence,
		LowAgreement:     DefaultLowAgreement,
		Shards:           4,
	}
}

// normalized 返回归一化后的权重：和不为 1 时按比例缩放（权重含义不变），
// 两个权重都非正时回退默认值。
func (c HybridConfig) normalized() (wcf, wct float64) {
	wcf, wct = c.CFWeight, c.ContentWeight
	if wcf < 0 {
		wcf = 0
	}
	if wct < 0 {
		wct = 0
	}
	sum := wcf + wct
	if sum <= 0 {
		d := DefaultHybridConfig()
		return d.CFWeight, d.ContentWeight
	}
	return wcf / sum, wct / sum
}

// HybridNode 是 Rank Node：对候选池逐项计算
//
//	fused = w_cf · normalize(cf_score) + w_content · content_score
//
// 并按 fused 降序排序（并列：置信度降序，再 ID 升序）。
// 打分结果写入 Item.Candidate，后续节点只读它，不再回查模型。
type HybridNode struct {
	CF      *cf.Model
	Content *content.Model
	Store   *dataset.Store
	Config  HybridConfig
}

func (n *HybridNode) Name() string        { return "rank.hybrid" }
func (n *HybridNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *HybridNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	if n.CF == nil || n.Content == nil {
		return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidInput, "rank: models not set")
	}

	// 剔除 nil 条目，保证后续打分与排序不需要判空
	compact := items[:0]
	for _, it := range items {
		if it != nil {
			compact = append(compact, it)
		}
	}
	items = compact

	cfg := n.Config
	if cfg.TopRated <= 0 {
		cfg.TopRated = DefaultHybridConfig().TopRated
	}
	if cfg.PopularFallback <= 0 {
		cfg.PopularFallback = DefaultHybridConfig().PopularFallback
	}
	wcf, wct := cfg.normalized()

	// 内容参照集：用户高分历史；冷启动用户退化为全局热门（内容兜底路径）。
	// rctx 可以为 nil（与其他节点一致），此时按未知用户打分。
	var userID int64
	var refs []int64
	ratingCount := 0
	if rctx != nil {
		userID = rctx.UserID
		if rctx.User != nil {
			ratingCount = rctx.User.RatingCount
			if len(rctx.User.TopRated) > cfg.TopRated {
				refs = rctx.User.TopRated[:cfg.TopRated]
			} else {
				refs = rctx.User.TopRated
			}
		}
	}
	coldStart := len(refs) == 0
	if coldStart && n.Store != nil {
		refs = n.Store.PopularMovies(cfg.PopularFallback)
	}

	score := func(it *core.Item) {
		cfScore := n.CF.Predict(userID, it.ID)
		cfNorm := core.NormalizeRating(cfScore)

		contentScore, err := n.Content.MeanSimilarity(it.ID, refs)
		if err != nil {
			// 物品不在内容模型中：内容信号缺失计 0，并留痕供 explain 使用
			contentScore = 0
			it.PutLabel("content_unknown", utils.Label{Value: "true", Source: "rank"})
		}

		fused := wcf*cfNorm + wct*contentScore
		agreement := Agreement(cfNorm, contentScore)
		conf := Confidence(ratingCount, agreement, cfg.FullTrustRatings, cfg.VolumeFloor)

		it.Score = fused
		it.Candidate = &core.Candidate{
			MovieID:       it.ID,
			CFScore:       cfScore,
			ContentScore:  contentScore,
			Fused:         fused,
			HybridScore:   core.DenormalizeRating(fused),
			Confidence:    conf,
			CFWeight:      wcf,
			ContentWeight: wct,
			Agreement:     agreement,
		}

		it.PutLabel("rank_model", utils.Label{Value: "hybrid", Source: "rank"})
		if coldStart {
			it.PutLabel("cold_start", utils.Label{Value: "popular_fallback", Source: "rank"})
		}
		low := cfg.LowAgreement
		if low <= 0 {
			low = DefaultLowAgreement
		}
		if agreement < low {
			it.PutLabel("score_conflict", utils.Label{Value: "cf_content_disagree", Source: "rank"})
		}
	}

	if cfg.Shards > 1 {
		eg, _ := errgroup.WithContext(ctx)
		for s := 0; s < cfg.Shards; s++ {
			s := s
			eg.Go(func() error {
				for i := s; i < len(items); i += cfg.Shards {
					score(items[i])
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, it := range items {
			score(it)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ca, cb := a.Candidate.Confidence, b.Candidate.Confidence
		if ca != cb {
			return ca > cb
		}
		return a.ID < b.ID
	})
	return items, nil
}
