// Package explain 从已算好的分数推导人类可读的推荐理由。
// 不做任何新的数值计算：三个层级的解释都只依赖 Candidate 记录、
// 物品元信息与用户画像，绝不回查模型。
package explain

import (
	"context"
	"fmt"
	"sort"

	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
	"github.com/reelsense/cinekit/pipeline"
	"github.com/reelsense/cinekit/pkg/conv"
	"github.com/reelsense/cinekit/pkg/utils"
)

// Level 是解释层级。
type Level string

const (
	LevelSimple       Level = "simple"       // 一句话：偏好流派重合
	LevelIntermediate Level = "intermediate" // 协同信号强度 + 近邻均分
	LevelAdvanced     Level = "advanced"     // 数值分解：cf/content/权重/置信度
)

// ParseLevel 解析层级字符串，未知值回退 simple。
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelIntermediate:
		return LevelIntermediate
	case LevelAdvanced:
		return LevelAdvanced
	default:
		return LevelSimple
	}
}

// Config 是提示语阈值配置。
type Config struct {
	// DisclaimerConfidence：置信度低于它时附加“why you might not like this”。
	DisclaimerConfidence float64

	// LowAgreement：CF 与内容信号一致度低于它同样触发提示语。
	LowAgreement float64

	// LowPredicted：CF 预测低于它时提示语指出预测分偏低。
	LowPredicted float64

	// FewRatings：物品评分数低于它时提示语指出数据不足。
	FewRatings int
}

// DefaultConfig 返回默认提示语阈值。
func DefaultConfig() Config {
	return Config{
		DisclaimerConfidence: 0.4,
		LowAgreement:         0.5,
		LowPredicted:         3.0,
		FewRatings:           10,
	}
}

// Generator 生成推荐解释。
type Generator struct {
	Store  *dataset.Store
	Config Config
}

// New 创建解释生成器。
func New(store *dataset.Store) *Generator {
	return &Generator{Store: store, Config: DefaultConfig()}
}

// Explain 为一个已打分的候选生成指定层级的解释文本。
// item.Candidate 为 nil（未经过 Rank）时返回错误而不是编造理由。
func (g *Generator) Explain(user *core.UserProfile, item *core.Item, level Level) (string, error) {
	if item == nil || item.Candidate == nil {
		return "", core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "explain: item has no score decomposition")
	}

	title := fmt.Sprintf("Movie %d", item.ID)
	var genres []string
	ratingCount := 0
	if g.Store != nil {
		if mv, ok := g.Store.Movie(item.ID); ok {
			title = mv.Title
			genres = mv.Genres
			ratingCount = mv.RatingCount
		}
	}

	var text string
	switch level {
	case LevelIntermediate:
		text = g.intermediate(user, item.Candidate, title)
	case LevelAdvanced:
		text = g.advanced(item.Candidate)
	default:
		text = g.simple(user, title, genres)
	}

	if d := g.disclaimer(item.Candidate, ratingCount); d != "" {
		text += " " + d
	}
	return text, nil
}

// simple：偏好流派重合的一句话。
func (g *Generator) simple(user *core.UserProfile, title string, genres []string) string {
	if user.IsColdStart() {
		return fmt.Sprintf("'%s' is a popular movie you might enjoy.", title)
	}

	overlap := genreOverlap(user, genres)
	if len(overlap) > 0 {
		return fmt.Sprintf("Because you enjoy %s films, we think you'll like '%s'.", joinGenres(overlap), title)
	}
	return fmt.Sprintf("'%s' is recommended based on your viewing pattern.", title)
}

// intermediate：协同信号强度，近邻均分口径取 CF 预测分。
func (g *Generator) intermediate(user *core.UserProfile, c *core.Candidate, title string) string {
	if user.IsColdStart() {
		return fmt.Sprintf("'%s' is rated %.1f on average by the community; recommended while we learn your taste.", title, c.CFScore)
	}
	return fmt.Sprintf("Users with taste similar to yours rated '%s' %.1f on average.", title, c.CFScore)
}

// advanced：完整数值分解，仅由 Candidate 还原。
func (g *Generator) advanced(c *core.Candidate) string {
	return fmt.Sprintf(
		"Hybrid score %.2f: CF=%.2f (weight %.2f), content=%.3f (weight %.2f), agreement=%.2f, confidence=%.2f.",
		c.HybridScore, c.CFScore, c.CFWeight, c.ContentScore, c.ContentWeight, c.Agreement, c.Confidence,
	)
}

// disclaimer 在低置信或信号冲突时生成“为什么你可能不喜欢”的提示语，否则返回空串。
func (g *Generator) disclaimer(c *core.Candidate, ratingCount int) string {
	cfg := g.Config
	if c.Confidence >= cfg.DisclaimerConfidence && c.Agreement >= cfg.LowAgreement {
		return ""
	}
	switch {
	case c.CFScore < cfg.LowPredicted:
		return fmt.Sprintf("Why you might not like this: the predicted rating (%.1f) is below average for you.", c.CFScore)
	case ratingCount > 0 && ratingCount < cfg.FewRatings:
		return "Why you might not like this: it's a lesser-known film with limited rating data."
	case c.Agreement < cfg.LowAgreement:
		return "Why you might not like this: our taste and content signals disagree about it."
	default:
		return "Why you might not like this: we have limited data about your preferences so far."
	}
}

func genreOverlap(user *core.UserProfile, genres []string) []string {
	if user == nil || len(user.FavoriteGenres) == 0 {
		return nil
	}
	var out []string
	for _, g := range genres {
		if _, ok := user.FavoriteGenres[g]; ok {
			out = append(out, g)
		}
	}
	sort.Strings(out)
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

func joinGenres(genres []string) string {
	switch len(genres) {
	case 0:
		return ""
	case 1:
		return genres[0]
	case 2:
		return genres[0] + " and " + genres[1]
	default:
		return genres[0] + ", " + genres[1] + " and " + genres[2]
	}
}

// Node 是 PostProcess 节点：为最终列表中的每个物品附加解释。
// 层级取 rctx.Params["explain_level"]，默认 simple；
// 解释写入 Item.Meta["explanation"] 并打 explained 标签。
type Node struct {
	Generator *Generator
}

func (n *Node) Name() string        { return "explain.node" }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *Node) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Generator == nil || len(items) == 0 {
		return items, nil
	}

	level := LevelSimple
	var user *core.UserProfile
	if rctx != nil {
		level = ParseLevel(conv.ConfigGet[string](rctx.Params, "explain_level", string(LevelSimple)))
		user = rctx.User
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		text, err := n.Generator.Explain(user, it, level)
		if err != nil {
			continue // 没有分数分解的物品跳过，不中断整个列表
		}
		if it.Meta == nil {
			it.Meta = make(map[string]any)
		}
		it.Meta["explanation"] = text
		it.PutLabel("explained", utils.Label{Value: string(level), Source: "explain"})
	}
	return items, nil
}
