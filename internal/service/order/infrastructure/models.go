// internal/service/order/infrastructure/models.go
package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderModel 是订单表的 GORM 模型。
// 行快照整体存成 JSON 列，订单行不参与任何关系查询。
type OrderModel struct {
	ID            string          `gorm:"primaryKey;size:128"`
	UserID        string          `gorm:"size:64;index"`
	LinesJSON     string          `gorm:"column:lines_json;type:text"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(15,2)"`
	ShippingFee   decimal.Decimal `gorm:"type:decimal(15,2)"`
	Discount      decimal.Decimal `gorm:"type:decimal(15,2)"`
	FinalAmount   decimal.Decimal `gorm:"type:decimal(15,2)"`
	VoucherCode   string          `gorm:"size:64"`
	ShippingName  string          `gorm:"size:128"`
	ShippingPhone string          `gorm:"size:32"`
	Address       string          `gorm:"size:512"`
	PaymentMethod string          `gorm:"size:32"`
	Status        string          `gorm:"size:32;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}
