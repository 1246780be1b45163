// internal/service/catalog/infrastructure/models.go
package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"

	"petshop/internal/service/catalog/domain"
)

// ProductModel 是商品表的 GORM 模型
type ProductModel struct {
	ID            string          `gorm:"primaryKey;size:64"`
	Name          string          `gorm:"size:255"`
	Category      string          `gorm:"size:64;index"`
	Price         decimal.Decimal `gorm:"type:decimal(15,2)"`
	StockQuantity int             `gorm:"not null;default:0"`
	Image         string          `gorm:"size:512"`
	Description   string          `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ProductModel) TableName() string {
	return "products"
}

func toDomainProduct(m *ProductModel) *domain.Product {
	return &domain.Product{
		ID:            m.ID,
		Name:          m.Name,
		Category:      m.Category,
		Price:         m.Price,
		StockQuantity: m.StockQuantity,
		Image:         m.Image,
		Description:   m.Description,
	}
}

func fromDomainProduct(p *domain.Product) *ProductModel {
	return &ProductModel{
		ID:            p.ID,
		Name:          p.Name,
		Category:      p.Category,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		Image:         p.Image,
		Description:   p.Description,
	}
}
