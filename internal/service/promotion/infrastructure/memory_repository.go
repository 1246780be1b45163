// internal/service/promotion/infrastructure/memory_repository.go
package infrastructure

import (
	"context"
	"sort"
	"sync"

	"petshop/internal/service/promotion/domain"
)

// MemoryVoucherRepository 是 VoucherRepository 的进程内实现，测试用。
type MemoryVoucherRepository struct {
	mu       sync.Mutex
	vouchers map[string]*domain.Voucher
	nextID   int64
}

func NewMemoryVoucherRepository() *MemoryVoucherRepository {
	return &MemoryVoucherRepository{vouchers: make(map[string]*domain.Voucher), nextID: 1}
}

func (r *MemoryVoucherRepository) FindByCode(_ context.Context, code string) (*domain.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[code]
	if !ok {
		return nil, domain.ErrVoucherNotFound
	}
	clone := *v
	return &clone, nil
}

func (r *MemoryVoucherRepository) List(_ context.Context) ([]*domain.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Voucher, 0, len(r.vouchers))
	for _, v := range r.vouchers {
		clone := *v
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpirationDate.Before(out[j].ExpirationDate) })
	return out, nil
}

// Save 与 GORM 实现对齐：主键为零是新建，撞上已有 code 返回
// ErrDuplicateCode（对应唯一索引冲突）；主键非零按主键覆盖更新。
func (r *MemoryVoucherRepository) Save(_ context.Context, voucher *domain.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.vouchers[voucher.Code]; ok && existing.ID != voucher.ID {
		return domain.ErrDuplicateCode
	}
	if voucher.ID == 0 {
		voucher.ID = r.nextID
		r.nextID++
	}
	clone := *voucher
	r.vouchers[voucher.Code] = &clone
	return nil
}

func (r *MemoryVoucherRepository) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.vouchers, code)
	return nil
}

func (r *MemoryVoucherRepository) IncrementUsedCount(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[code]
	if !ok || v.UsedCount >= v.Quantity {
		return false, nil
	}
	v.UsedCount++
	return true, nil
}
