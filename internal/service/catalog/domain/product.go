// internal/service/catalog/domain/product.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus 由库存派生，不单独存储
type ProductStatus string

const (
	StatusAvailable  ProductStatus = "available"
	StatusOutOfStock ProductStatus = "out_of_stock"
)

// Product 商品读模型。Price 在入库边界已归一化为数值，
// 展示层需要的 "1.234.567đ" 样式由前端自己格式化。
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	Image         string          `json:"image"`
	Description   string          `json:"description"`
}

// Status 库存为 0 即缺货。缺货只影响展示，不拦截加购。
func (p *Product) Status() ProductStatus {
	if p.StockQuantity <= 0 {
		return StatusOutOfStock
	}
	return StatusAvailable
}

// Review 商品评价，挂在 reviews/{productId} 路径下
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"` // 1..5
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}
