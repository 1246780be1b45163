// internal/service/promotion/domain/voucher.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType 定义了优惠的计算方式。
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage" // 按小计打折
	DiscountTypeAmount     DiscountType = "amount"     // 立减固定金额
)

// Voucher 是一张优惠券的定义，含兑换额度账本（Quantity / UsedCount）。
// 管理员创建和编辑；UsedCount 只允许通过核销入口递增。
type Voucher struct {
	ID             int64
	Code           string // 用户可见的兑换码，全局唯一
	Description    string
	DiscountType   DiscountType
	DiscountValue  decimal.Decimal // percentage 时取 [0,100]，amount 时是盾金额
	MinOrderAmount decimal.Decimal // 满足门槛才可用
	ExpirationDate time.Time       // 严格晚于此日即失效
	Quantity       int             // 总共可兑换次数
	UsedCount      int             // 已兑换次数，恒 <= Quantity

	// RuleDefinition 是可选的 CEL 表达式，管理员用它追加资格条件，
	// 例如 "subtotal >= 200000.0 && item_count >= 2"。空串表示无附加条件。
	RuleDefinition string
}

// Redeemable 判断券在给定小计和时刻下是否可用。
func (v *Voucher) Redeemable(subtotal decimal.Decimal, now time.Time) bool {
	if now.After(v.ExpirationDate) {
		return false
	}
	if subtotal.LessThan(v.MinOrderAmount) {
		return false
	}
	return v.UsedCount < v.Quantity
}

// Remaining 剩余可兑换次数。
func (v *Voucher) Remaining() int {
	if v.UsedCount >= v.Quantity {
		return 0
	}
	return v.Quantity - v.UsedCount
}
