// internal/service/catalog/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"petshop/internal/service/catalog/domain"
)

// GormProductRepository 基于 GORM 的商品仓储实现
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var model ProductModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, errors.Wrap(err, "failed to query product")
	}
	return toDomainProduct(&model), nil
}

func (r *GormProductRepository) FindByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	var models []ProductModel
	if err := r.db.WithContext(ctx).Where("category = ?", category).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query products by category")
	}
	return toDomainProducts(models), nil
}

func (r *GormProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	var models []ProductModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query products")
	}
	return toDomainProducts(models), nil
}

// Save 写入或覆盖商品。种子导入和后台保存走同一条路径，
// 重复导入同一批种子数据是幂等的。
func (r *GormProductRepository) Save(ctx context.Context, product *domain.Product) error {
	model := fromDomainProduct(product)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error
	return errors.Wrap(err, "failed to save product")
}

func (r *GormProductRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ProductModel{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete product")
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func toDomainProducts(models []ProductModel) []*domain.Product {
	products := make([]*domain.Product, 0, len(models))
	for i := range models {
		products = append(products, toDomainProduct(&models[i]))
	}
	return products
}
