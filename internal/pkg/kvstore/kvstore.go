// internal/pkg/kvstore/kvstore.go
package kvstore

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound 表示路径下没有值。
var ErrNotFound = errors.New("kvstore: path not found")

// EventKind 是订阅通道上收到的变更类型。
type EventKind string

const (
	EventSet    EventKind = "SET"
	EventRemove EventKind = "REMOVE"
)

// Event 描述某个路径上发生的一次变更。Value 是变更后的 JSON 原文，删除时为空。
type Event struct {
	Kind  EventKind `json:"kind"`
	Path  string    `json:"path"`
	Value []byte    `json:"value,omitempty"`
}

// Store 是一个按路径寻址的远程键值存储。
// 路径用 '/' 分层，例如 notifications/{userID}/{id}、reviews/{productID}/{id}。
// 值统一以 JSON 编解码。
type Store interface {
	// Get 读取 path 下的值并反序列化到 dest，不存在时返回 ErrNotFound。
	Get(ctx context.Context, path string, dest interface{}) error
	// Set 整体覆盖 path 下的值。
	Set(ctx context.Context, path string, value interface{}) error
	// Update 对 path 下的 JSON 对象做字段级合并，路径不存在时等价于 Set。
	Update(ctx context.Context, path string, fields map[string]interface{}) error
	// Remove 删除 path 下的值，删除不存在的路径不是错误。
	Remove(ctx context.Context, path string) error
	// Keys 列出指定前缀下的所有路径。
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Subscribe 订阅某个前缀下的变更事件，ctx 取消后通道关闭。
	Subscribe(ctx context.Context, prefix string) (<-chan Event, error)
}
