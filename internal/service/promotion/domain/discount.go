// internal/service/promotion/domain/discount.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"petshop/internal/pkg/money"
)

var oneHundred = decimal.NewFromInt(100)

// ComputeDiscount 根据小计和候选券计算折扣金额。纯函数，没有副作用。
//
// 约定（兼容源系统，调用方依赖这些行为）：
//   - voucher 为 nil（没选券）、券不可用（过期 / 未达门槛 / 额度用尽）都静默返回 0，
//     不走错误路径；
//   - percentage: subtotal * value / 100；amount: 取 value；
//   - 折扣永远不超过小计，返回值落在 [0, subtotal] 区间内。
func ComputeDiscount(subtotal decimal.Decimal, voucher *Voucher, now time.Time) decimal.Decimal {
	if voucher == nil || subtotal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if !voucher.Redeemable(subtotal, now) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch voucher.DiscountType {
	case DiscountTypePercentage:
		discount = subtotal.Mul(voucher.DiscountValue).Div(oneHundred)
	case DiscountTypeAmount:
		discount = voucher.DiscountValue
	default:
		return decimal.Zero
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	return money.Min(discount, subtotal)
}
