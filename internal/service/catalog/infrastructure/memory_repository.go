// internal/service/catalog/infrastructure/memory_repository.go
package infrastructure

import (
	"context"
	"sort"
	"sync"

	"petshop/internal/service/catalog/domain"
)

// MemoryProductRepository 内存商品仓储，语义与 GORM 实现对齐，供测试使用
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[string]*domain.Product)}
}

func (r *MemoryProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cloned := *product
	return &cloned, nil
}

func (r *MemoryProductRepository) FindByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domain.Product
	for _, p := range r.products {
		if p.Category == category {
			cloned := *p
			result = append(result, &cloned)
		}
	}
	sortByID(result)
	return result, nil
}

func (r *MemoryProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		cloned := *p
		result = append(result, &cloned)
	}
	sortByID(result)
	return result, nil
}

func (r *MemoryProductRepository) Save(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cloned := *product
	r.products[product.ID] = &cloned
	return nil
}

func (r *MemoryProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func sortByID(products []*domain.Product) {
	sort.Slice(products, func(i, j int) bool {
		return products[i].ID < products[j].ID
	})
}
