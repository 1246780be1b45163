// internal/service/cart/infrastructure/memory_repository.go
package infrastructure

import (
	"context"
	"sync"

	"petshop/internal/service/cart/domain"
)

// CartMemoryRepository 是 CartRepository 的进程内实现，语义与 Redis 版对齐，测试用。
type CartMemoryRepository struct {
	mu    sync.Mutex
	carts map[string]map[string]domain.CartLine // userID -> productID -> line
}

func NewCartMemoryRepository() *CartMemoryRepository {
	return &CartMemoryRepository{carts: make(map[string]map[string]domain.CartLine)}
}

func (r *CartMemoryRepository) cart(userID string) map[string]domain.CartLine {
	if r.carts[userID] == nil {
		r.carts[userID] = make(map[string]domain.CartLine)
	}
	return r.carts[userID]
}

func (r *CartMemoryRepository) MergeLine(_ context.Context, userID string, line domain.CartLine, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart := r.cart(userID)
	if existing, ok := cart[line.ProductID]; ok {
		existing.Quantity += delta
		cart[line.ProductID] = existing
		return existing.Quantity, nil
	}
	if line.Quantity < 1 {
		line.Quantity = delta
	}
	cart[line.ProductID] = line
	return line.Quantity, nil
}

func (r *CartMemoryRepository) SaveLine(_ context.Context, userID string, line domain.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cart(userID)[line.ProductID] = line
	return nil
}

func (r *CartMemoryRepository) GetLine(_ context.Context, userID, productID string) (*domain.CartLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line, ok := r.cart(userID)[productID]
	if !ok {
		return nil, domain.ErrLineNotFound
	}
	return &line, nil
}

func (r *CartMemoryRepository) RemoveLine(_ context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cart(userID), productID)
	return nil
}

func (r *CartMemoryRepository) Lines(_ context.Context, userID string) ([]domain.CartLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart := r.cart(userID)
	lines := make([]domain.CartLine, 0, len(cart))
	for _, line := range cart {
		lines = append(lines, line)
	}
	return lines, nil
}
