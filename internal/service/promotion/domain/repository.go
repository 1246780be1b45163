// internal/service/promotion/domain/repository.go
package domain

import "context"

// VoucherRepository 定义了优惠券数据的持久化接口
// 这是领域层与基础设施层之间的"插座"
type VoucherRepository interface {
	FindByCode(ctx context.Context, code string) (*Voucher, error)
	List(ctx context.Context) ([]*Voucher, error)

	// Save 创建或整体更新一张券（管理后台用）。
	Save(ctx context.Context, voucher *Voucher) error
	Delete(ctx context.Context, code string) error

	// IncrementUsedCount 带条件地把 usedCount 加一：
	// 只有 usedCount < quantity 时才生效，返回是否真的加上了。
	IncrementUsedCount(ctx context.Context, code string) (bool, error)
}

// RuleEngine 评估券上的附加资格规则。
// 它位于领域层，由基础设施层用具体的表达式引擎实现。
type RuleEngine interface {
	Evaluate(ruleDefinition string, fact Fact) (bool, error)
}

// Fact 是规则评估的输入事实集。
type Fact map[string]interface{}
