// internal/service/order/infrastructure/memory_repository.go
package infrastructure

import (
	"context"
	"sort"
	"sync"

	"petshop/internal/service/order/domain"
)

// MemoryOrderRepository 是内存订单仓储，语义与 GORM 实现对齐，供测试使用
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]*domain.Order)}
}

func (r *MemoryOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// 与 MySQL 实现一致：主键已存在时不覆盖
	if _, ok := r.orders[order.ID]; ok {
		return nil
	}
	cloned := *order
	cloned.Lines = append([]domain.OrderLine(nil), order.Lines...)
	r.orders[order.ID] = &cloned
	return nil
}

func (r *MemoryOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cloned := *order
	cloned.Lines = append([]domain.OrderLine(nil), order.Lines...)
	return &cloned, nil
}

func (r *MemoryOrderRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			cloned := *order
			result = append(result, &cloned)
		}
	}
	sortByCreatedAtDesc(result)
	return result, nil
}

func (r *MemoryOrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		cloned := *order
		result = append(result, &cloned)
	}
	sortByCreatedAtDesc(result)
	return result, nil
}

func (r *MemoryOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func sortByCreatedAtDesc(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
