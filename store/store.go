// Package store 提供模型工件与推荐结果缓存的键值存储。
// Memory 实现用于测试与单机原型，Redis 实现用于多实例共享模型快照。
package store

import (
	"context"

	"github.com/reelsense/cinekit/core"
)

// ErrNotFound 表示请求的键不存在（或已过期）。
var ErrNotFound = core.NewNotFoundError(core.ModuleStore, "store: key not found")

// Store 是字节级键值存储接口。
// ttl 以秒为单位，可选；省略或非正值表示不过期。
type Store interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl ...int) error
	Delete(ctx context.Context, key string) error
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)
	BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error
	Close() error
}
