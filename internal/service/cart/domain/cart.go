// internal/service/cart/domain/cart.go
package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrLineNotFound 表示购物车里没有这个商品的行。
var ErrLineNotFound = errors.New("cart: line not found")

// CartLine 是购物车里的一行。
// 同一个 productId 在一个购物车里最多只有一行：重复加购合并数量，而不是追加新行。
// 展示字段（名称、图片、描述）只是下单时的快照素材，不是权威数据。
type CartLine struct {
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unitPrice"` // 已在入口归一化，缺失价格按 0 处理
	Quantity    int             `json:"quantity"`  // 恒 >= 1，降到 1 以下即整行删除
}

// LineTotal 单行小计。
func (l *CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// TotalQuantity 所有行的数量之和。
func TotalQuantity(lines []CartLine) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice 所有行的金额之和。
func TotalPrice(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}
