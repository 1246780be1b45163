// internal/service/promotion/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"petshop/internal/service/promotion/domain"
)

// GormVoucherRepository 是 VoucherRepository 的 GORM 实现
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewGormVoucherRepository 创建一个新的 GORM 仓储实例
func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// FindByCode 使用 GORM 从数据库中查找优惠券
func (r *GormVoucherRepository) FindByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	var model VoucherModel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVoucherNotFound
		}
		return nil, err
	}
	return toDomainVoucher(&model), nil
}

func (r *GormVoucherRepository) List(ctx context.Context) ([]*domain.Voucher, error) {
	var models []*VoucherModel
	if err := r.db.WithContext(ctx).Order("expiration_date").Find(&models).Error; err != nil {
		return nil, err
	}
	vouchers := make([]*domain.Voucher, len(models))
	for i, m := range models {
		vouchers[i] = toDomainVoucher(m)
	}
	return vouchers, nil
}

func (r *GormVoucherRepository) Save(ctx context.Context, voucher *domain.Voucher) error {
	model := fromDomainVoucher(voucher)
	err := r.db.WithContext(ctx).Save(model).Error
	if err != nil && strings.Contains(err.Error(), "Duplicate entry") {
		return domain.ErrDuplicateCode
	}
	return err
}

func (r *GormVoucherRepository) Delete(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).Where("code = ?", code).Delete(&VoucherModel{}).Error
}

// IncrementUsedCount 带条件递增：WHERE used_count < quantity 保证
// 即使多个实例同时核销，也不会把额度打穿。
func (r *GormVoucherRepository) IncrementUsedCount(ctx context.Context, code string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&VoucherModel{}).
		Where("code = ? AND used_count < quantity", code).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
