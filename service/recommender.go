// Package service 提供 CineKit 的门面层：把 dataset / cf / content /
// recall / rank / rerank / explain 组装成一条可直接使用的推荐管线。
// 门面自身不持有请求级状态，可被并发请求共享。
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/reelsense/cinekit/cf"
	"github.com/reelsense/cinekit/content"
	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
	"github.com/reelsense/cinekit/explain"
	"github.com/reelsense/cinekit/filter"
	"github.com/reelsense/cinekit/pipeline"
	"github.com/reelsense/cinekit/rank"
	"github.com/reelsense/cinekit/recall"
	"github.com/reelsense/cinekit/rerank"
)

// 画像构建参数：偏好流派的最低均分与 top-rated 参考数。
const (
	favoriteGenreThreshold = 4.0
	profileTopRated        = 10
)

// Config 汇总门面层的可调参数。零值字段在 New 里落默认。
type Config struct {
	Hybrid rank.HybridConfig

	TopK   int     // 默认列表长度
	Lambda float64 // MMR 相关性权重

	GenreCapShare      float64
	DecadeCapShare     float64
	LongTailShare      float64
	LongTailPercentile float64
	Serendipity        bool
	SerendipityFloor   float64

	Explain explain.Config
}

// DefaultConfig 返回生产默认参数。
func DefaultConfig() Config {
	return Config{
		Hybrid:             rank.DefaultHybridConfig(),
		TopK:               10,
		Lambda:             rerank.DefaultLambda,
		GenreCapShare:      0.4,
		DecadeCapShare:     0.5,
		LongTailShare:      0.2,
		LongTailPercentile: 0.2,
		Serendipity:        true,
		SerendipityFloor:   rerank.DefaultSerendipityFloor,
		Explain:            explain.DefaultConfig(),
	}
}

// Option 定制 Recommender。
type Option func(*Recommender)

// WithConfig 整体替换门面配置。
func WithConfig(cfg Config) Option {
	return func(r *Recommender) { r.cfg = cfg }
}

// WithTopK 设置默认列表长度。
func WithTopK(k int) Option {
	return func(r *Recommender) { r.cfg.TopK = k }
}

// WithLambda 设置 MMR 相关性权重。
func WithLambda(lambda float64) Option {
	return func(r *Recommender) { r.cfg.Lambda = lambda }
}

// Recommender 是训练产物之上的只读服务门面。
type Recommender struct {
	data    *dataset.Store
	cfModel *cf.Model
	ctModel *content.Model
	cfg     Config

	pipe      *pipeline.Pipeline
	generator *explain.Generator
}

// New 组装推荐门面。三个参数都必须就绪：
// data 提供画像与元信息，cfModel/ctModel 必须已完成训练。
func New(data *dataset.Store, cfModel *cf.Model, ctModel *content.Model, opts ...Option) (*Recommender, error) {
	if data == nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: dataset store is required")
	}
	if cfModel == nil || !cfModel.Fitted() {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: cf model is not fitted")
	}
	if ctModel == nil || !ctModel.Fitted() {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: content model is not fitted")
	}

	r := &Recommender{
		data:    data,
		cfModel: cfModel,
		ctModel: ctModel,
		cfg:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.generator = &explain.Generator{Store: data, Config: r.cfg.Explain}
	r.pipe = &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.Unrated{Store: data},
		&filter.FilterNode{Filters: []filter.Filter{&filter.Rated{Store: data}}},
		&rank.HybridNode{CF: cfModel, Content: ctModel, Store: data, Config: r.cfg.Hybrid},
		&rerank.Diversity{
			Content:            ctModel,
			Store:              data,
			TargetSize:         r.cfg.TopK,
			Lambda:             r.cfg.Lambda,
			GenreCapShare:      r.cfg.GenreCapShare,
			DecadeCapShare:     r.cfg.DecadeCapShare,
			LongTailShare:      r.cfg.LongTailShare,
			LongTailPercentile: r.cfg.LongTailPercentile,
			Serendipity:        r.cfg.Serendipity,
			SerendipityFloor:   r.cfg.SerendipityFloor,
		},
		&explain.Node{Generator: r.generator},
	}}
	return r, nil
}

// RecommendOptions 是单次请求的覆盖参数。
type RecommendOptions struct {
	TopK         int      // <=0 取门面默认
	Lambda       *float64 // nil 取门面默认；λ=0（纯多样性）是合法取值
	ExplainLevel string  // 空取 simple
	Scene        string
}

// Recommend 为用户生成多样化推荐列表。
// 未知用户不报错：走冷启动路径（热门兜底 + 冷启动解释口径）。
// 返回的列表可能短于请求数（目录可用候选不足），经 Insufficient 判断。
func (r *Recommender) Recommend(ctx context.Context, userID int64, opts RecommendOptions) (*core.RecommendationList, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = r.cfg.TopK
	}
	lambda := r.cfg.Lambda
	if opts.Lambda != nil {
		lambda = *opts.Lambda
	}

	rctx := &core.RecommendContext{
		UserID: userID,
		Scene:  opts.Scene,
		User:   r.data.Profile(userID, favoriteGenreThreshold, profileTopRated),
		Params: map[string]any{
			"top_k":  topK,
			"lambda": lambda,
		},
	}
	if opts.ExplainLevel != "" {
		rctx.Params["explain_level"] = opts.ExplainLevel
	}

	items, err := r.pipe.Run(ctx, rctx, nil)
	if err != nil {
		return nil, fmt.Errorf("recommend user %d: %w", userID, err)
	}

	list := &core.RecommendationList{Items: items, Requested: topK}
	if lbl, ok := rctx.GetLabel("rerank_relaxed"); ok && lbl.Value != "" {
		list.Relaxed = strings.Split(lbl.Value, "|")
	}
	return list, nil
}

// PredictRating 预测用户对某部电影的评分。
// 电影不在目录中返回 UNKNOWN_ENTITY；用户未知时走模型的冷启动兜底。
func (r *Recommender) PredictRating(userID, movieID int64) (float64, error) {
	if _, ok := r.data.Movie(movieID); !ok {
		return 0, core.NewUnknownEntityError(core.ModuleService, fmt.Sprintf("service: movie %d not in catalog", movieID))
	}
	return r.cfModel.Predict(userID, movieID), nil
}

// SimilarItems 返回与给定电影内容最相近的 n 部电影。
func (r *Recommender) SimilarItems(movieID int64, n int) ([]content.Neighbor, error) {
	return r.ctModel.Nearest(movieID, n)
}

// Explain 为 (user, movie) 单独生成一条解释。
// 先用混合打分节点给这一部电影打分，再复用解释生成器，
// 保证解释与列表路径在同一套数值口径上。
func (r *Recommender) Explain(ctx context.Context, userID, movieID int64, level explain.Level) (string, error) {
	if _, ok := r.data.Movie(movieID); !ok {
		return "", core.NewUnknownEntityError(core.ModuleService, fmt.Sprintf("service: movie %d not in catalog", movieID))
	}

	rctx := &core.RecommendContext{
		UserID: userID,
		User:   r.data.Profile(userID, favoriteGenreThreshold, profileTopRated),
	}
	ranker := &rank.HybridNode{CF: r.cfModel, Content: r.ctModel, Store: r.data, Config: r.cfg.Hybrid}
	items, err := ranker.Process(ctx, rctx, []*core.Item{core.NewItem(movieID)})
	if err != nil {
		return "", fmt.Errorf("explain movie %d: %w", movieID, err)
	}
	if len(items) == 0 {
		return "", core.NewDomainError(core.ModuleService, core.ErrorCodeInternalError, "service: scoring produced no result")
	}
	return r.generator.Explain(rctx.User, items[0], level)
}

// Profile 返回物化的用户画像；未知用户返回冷启动画像而不是 nil。
func (r *Recommender) Profile(userID int64) *core.UserProfile {
	return r.data.Profile(userID, favoriteGenreThreshold, profileTopRated)
}
