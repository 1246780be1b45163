// internal/service/cart/domain/repository.go
package domain

import "context"

// CartRepository 定义了购物车行的持久化接口。
// 它位于领域层，但由基础设施层实现。
type CartRepository interface {
	// MergeLine 原子地把 delta 件合并到已有行上；行不存在时按 line 新建。
	// 返回合并后的数量。两个并发加购不会丢失增量。
	MergeLine(ctx context.Context, userID string, line CartLine, delta int) (int, error)

	// SaveLine 整行覆盖（直接设置数量时用）。
	SaveLine(ctx context.Context, userID string, line CartLine) error

	// GetLine 读取一行，不存在时返回 ErrLineNotFound。
	GetLine(ctx context.Context, userID, productID string) (*CartLine, error)

	// RemoveLine 删除一行，删除不存在的行不是错误。
	RemoveLine(ctx context.Context, userID, productID string) error

	// Lines 返回购物车当前所有行。
	Lines(ctx context.Context, userID string) ([]CartLine, error)
}
