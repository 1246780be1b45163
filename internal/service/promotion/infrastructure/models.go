// internal/service/promotion/infrastructure/models.go
package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VoucherModel 对应数据库中的 vouchers 表
type VoucherModel struct {
	gorm.Model
	Code           string          `gorm:"uniqueIndex;size:64"`
	Description    string          `gorm:"type:text"`
	DiscountType   string          `gorm:"size:16"`
	DiscountValue  decimal.Decimal `gorm:"type:decimal(15,2)"`
	MinOrderAmount decimal.Decimal `gorm:"type:decimal(15,2)"`
	ExpirationDate time.Time
	Quantity       int
	UsedCount      int
	RuleDefinition string `gorm:"type:text"`
}

// TableName 指定 GORM 应该使用的表名
func (VoucherModel) TableName() string {
	return "vouchers"
}
