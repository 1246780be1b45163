// internal/service/order/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"petshop/internal/service/order/domain"
)

// GormOrderRepository 基于 GORM 的订单仓储实现
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save 持久化订单。主键冲突说明同一个幂等键已经落过库，
// 静默返回成功，让上层把已有订单读出来。
func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	model, err := fromDomainOrder(order)
	if err != nil {
		return errors.Wrap(err, "failed to encode order")
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return nil
		}
		return errors.Wrap(err, "failed to save order")
	}
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "failed to query order")
	}
	return toDomainOrder(&model)
}

func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	var models []OrderModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query user orders")
	}
	return toDomainOrders(models)
}

func (r *GormOrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	var models []OrderModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query orders")
	}
	return toDomainOrders(models)
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	result := r.db.WithContext(ctx).Model(&OrderModel{}).Where("id = ?", id).Update("status", string(status))
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update order status")
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func fromDomainOrder(order *domain.Order) (*OrderModel, error) {
	linesJSON, err := json.Marshal(order.Lines)
	if err != nil {
		return nil, err
	}
	return &OrderModel{
		ID:            order.ID,
		UserID:        order.UserID,
		LinesJSON:     string(linesJSON),
		Subtotal:      order.Subtotal,
		ShippingFee:   order.ShippingFee,
		Discount:      order.Discount,
		FinalAmount:   order.FinalAmount,
		VoucherCode:   order.VoucherCode,
		ShippingName:  order.ShippingName,
		ShippingPhone: order.ShippingPhone,
		Address:       order.Address,
		PaymentMethod: order.PaymentMethod,
		Status:        string(order.Status),
		CreatedAt:     order.CreatedAt,
	}, nil
}

func toDomainOrder(model *OrderModel) (*domain.Order, error) {
	var lines []domain.OrderLine
	if model.LinesJSON != "" {
		if err := json.Unmarshal([]byte(model.LinesJSON), &lines); err != nil {
			return nil, errors.Wrap(err, "failed to decode order lines")
		}
	}
	return &domain.Order{
		ID:            model.ID,
		UserID:        model.UserID,
		Lines:         lines,
		Subtotal:      model.Subtotal,
		ShippingFee:   model.ShippingFee,
		Discount:      model.Discount,
		FinalAmount:   model.FinalAmount,
		VoucherCode:   model.VoucherCode,
		ShippingName:  model.ShippingName,
		ShippingPhone: model.ShippingPhone,
		Address:       model.Address,
		PaymentMethod: model.PaymentMethod,
		Status:        domain.Status(model.Status),
		CreatedAt:     model.CreatedAt,
	}, nil
}

func toDomainOrders(models []OrderModel) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0, len(models))
	for i := range models {
		order, err := toDomainOrder(&models[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}
