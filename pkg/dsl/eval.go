// Package dsl 提供基于 CEL (Common Expression Language) 的候选过滤表达式。
// 表达式在配置中定义，对每个候选求布尔值，true 表示通过。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// initCELEnv 初始化 CEL 环境，定义变量
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("movie", cel.DynType),
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的过滤表达式，可跨请求复用，线程安全。
//
// 表达式语法（CEL 标准语法）：
//   - 元信息：movie.year >= 1990 / movie.rating_count > 100
//   - 集合：  "Horror" in movie.genres
//   - 分数：  item.score > 0.7
//   - 标签：  label.recall_source == "hot"
//   - 逻辑：  movie.year >= 1990 && !("Horror" in movie.genres)
//
// 注意：访问不存在的 key 会报错，存在性检查用 label.key != null。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。空表达式得到恒真的 Program。
func Compile(expr string) (*Program, error) {
	p := &Program{expr: expr}
	if expr == "" {
		return p, nil
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	p.prg = prg
	return p, nil
}

// Eval 对一组输入变量求值，返回布尔结果。
// input 的 key 对应环境变量名（movie / item / label / rctx）。
func (p *Program) Eval(input map[string]any) (bool, error) {
	if p.prg == nil { // 空表达式
		return true, nil
	}

	out, _, err := p.prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

// String 返回原始表达式文本。
func (p *Program) String() string { return p.expr }
