package pipeline

import (
	"context"
	"fmt"

	"github.com/reelsense/cinekit/core"
)

// Pipeline 是 CineKit 的核心抽象：把推荐逻辑拆成可组合的 Node 链。
// 服务路径是纯只读的：Node 不持有请求级可变共享状态，
// 同一条 Pipeline 可被任意数量的并发请求共享。
type Pipeline struct {
	Nodes []Node
}

// Run 依次执行各 Node。调用方取消（ctx）在节点间生效：
// 被放弃的请求不留任何残留状态，直接返回 ctx.Err()。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
