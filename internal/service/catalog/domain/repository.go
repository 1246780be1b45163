// internal/service/catalog/domain/repository.go
package domain

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
)

// ProductRepository 定义商品持久化接口
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	FindByCategory(ctx context.Context, category string) ([]*Product, error)
	FindAll(ctx context.Context) ([]*Product, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id string) error
}

// ReviewStore 定义评价的读写接口
type ReviewStore interface {
	Append(ctx context.Context, review *Review) error
	ListByProduct(ctx context.Context, productID string) ([]*Review, error)
}
