package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/reelsense/cinekit/core"
)

// stubNode 是测试用 Node：向每个物品分数加一个增量。
type stubNode struct {
	name string
	kind Kind
	add  float64
	err  error
}

func (n *stubNode) Name() string { return n.name }
func (n *stubNode) Kind() Kind   { return n.kind }

func (n *stubNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	for _, it := range items {
		it.Score += n.add
	}
	return items, nil
}

func TestPipelineRunsNodesInOrder(t *testing.T) {
	p := &Pipeline{Nodes: []Node{
		&stubNode{name: "a", kind: KindRecall, add: 1},
		&stubNode{name: "b", kind: KindRank, add: 2},
	}}

	items := []*core.Item{core.NewItem(1)}
	got, err := p.Run(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got[0].Score != 3 {
		t.Errorf("score = %.1f, want 3", got[0].Score)
	}
}

func TestPipelineWrapsNodeError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{
		&stubNode{name: "ok", kind: KindRecall},
		&stubNode{name: "broken", kind: KindRank, err: boom},
	}}

	_, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, boom) {
		t.Errorf("error chain lost the cause: %v", err)
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error must name the failing node: %v", err)
	}
}

func TestPipelineHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Pipeline{Nodes: []Node{&stubNode{name: "a", kind: KindRecall}}}
	_, err := p.Run(ctx, &core.RecommendContext{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
