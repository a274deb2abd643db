package filter

import (
	"context"
	"fmt"

	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
	"github.com/reelsense/cinekit/pkg/dsl"
)

// Expr 是表达式过滤器：对每个候选求 CEL 布尔表达式，false 的被过滤。
// 典型用法是配置驱动的目录切片，例如：
//
//	movie.year >= 1990 && !("Horror" in movie.genres)
//	movie.rating_count > 50
//	label.recall_source == "hot"
type Expr struct {
	Store   *dataset.Store
	program *dsl.Program
}

// NewExpr 编译表达式并构造过滤器。空表达式恒通过。
func NewExpr(store *dataset.Store, expression string) (*Expr, error) {
	prg, err := dsl.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("filter expr: %w", err)
	}
	return &Expr{Store: store, program: prg}, nil
}

func (f *Expr) Name() string { return "filter.expr" }

// ShouldFilter 表达式求值为 false 或出错时过滤该候选（出错视为不满足条件）。
func (f *Expr) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	pass, err := f.program.Eval(f.buildInput(rctx, item))
	if err != nil {
		// 求值失败（目录外物品、变量缺失）按不满足条件处理，不向上传播
		return true, nil
	}
	return !pass, nil
}

// buildInput 构建 CEL 表达式的输入变量。
func (f *Expr) buildInput(rctx *core.RecommendContext, item *core.Item) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	movie := map[string]any{}
	if f.Store != nil {
		if mv, ok := f.Store.Movie(item.ID); ok {
			movie = map[string]any{
				"id":           mv.ID,
				"title":        mv.Title,
				"year":         mv.Year,
				"decade":       mv.Decade(),
				"genres":       mv.Genres,
				"tags":         mv.Tags,
				"rating_count": mv.RatingCount,
				"mean_rating":  mv.MeanRating,
			}
		}
	}

	var userID int64
	scene := ""
	var params map[string]any
	if rctx != nil {
		userID = rctx.UserID
		scene = rctx.Scene
		params = rctx.Params
	}

	return map[string]any{
		"movie": movie,
		"item": map[string]any{
			"id":    item.ID,
			"score": item.Score,
			"meta":  item.Meta,
		},
		"label": labels,
		"rctx": map[string]any{
			"user_id": userID,
			"scene":   scene,
			"params":  params,
		},
	}
}
