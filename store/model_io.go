package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reelsense/cinekit/cf"
	"github.com/reelsense/cinekit/content"
)

// 模型快照在存储中的键。训练侧与服务侧用同样的键交接。
const (
	KeyCFModel      = "cinekit:model:cf"
	KeyContentModel = "cinekit:model:content"
)

// SaveCFModel 将训练好的协同模型以 JSON 快照写入存储。
// 未训练的模型返回错误。
func SaveCFModel(ctx context.Context, s Store, m *cf.Model, ttl ...int) error {
	snap := m.Snapshot()
	if snap == nil {
		return fmt.Errorf("store: cf model is not fitted")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: marshal cf snapshot: %w", err)
	}
	return s.Set(ctx, KeyCFModel, data, ttl...)
}

// LoadCFModel 从存储读取并还原协同模型。
func LoadCFModel(ctx context.Context, s Store) (*cf.Model, error) {
	data, err := s.Get(ctx, KeyCFModel)
	if err != nil {
		return nil, err
	}
	var snap cf.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("store: unmarshal cf snapshot: %w", err)
	}
	return cf.Restore(&snap)
}

// SaveContentModel 将内容模型以 JSON 快照写入存储。
func SaveContentModel(ctx context.Context, s Store, m *content.Model, ttl ...int) error {
	snap := m.Snapshot()
	if snap == nil {
		return fmt.Errorf("store: content model is not fitted")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: marshal content snapshot: %w", err)
	}
	return s.Set(ctx, KeyContentModel, data, ttl...)
}

// LoadContentModel 从存储读取并还原内容模型。
func LoadContentModel(ctx context.Context, s Store) (*content.Model, error) {
	data, err := s.Get(ctx, KeyContentModel)
	if err != nil {
		return nil, err
	}
	var snap content.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("store: unmarshal content snapshot: %w", err)
	}
	return content.Restore(&snap)
}
