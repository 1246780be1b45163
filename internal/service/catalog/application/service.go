// internal/service/catalog/application/service.go
package application

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pkg/errors"

	"petshop/internal/service/catalog/domain"
)

// CatalogService 提供商品目录的查询与后台维护
type CatalogService struct {
	repo    domain.ProductRepository
	reviews domain.ReviewStore
	tracer  trace.Tracer
	now     func() time.Time
}

func NewCatalogService(repo domain.ProductRepository, reviews domain.ReviewStore) *CatalogService {
	return &CatalogService{
		repo:    repo,
		reviews: reviews,
		tracer:  otel.Tracer("catalog-service"),
		now:     time.Now,
	}
}

// GetProduct 查询单个商品
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.GetProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))
	return s.repo.FindByID(ctx, id)
}

// ListProducts 按类目查询，category 为空时返回全量
func (s *CatalogService) ListProducts(ctx context.Context, category string) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.ListProducts")
	defer span.End()
	if category == "" {
		return s.repo.FindAll(ctx)
	}
	span.SetAttributes(attribute.String("product.category", category))
	return s.repo.FindByCategory(ctx, category)
}

// SaveProduct 后台新建或更新商品
func (s *CatalogService) SaveProduct(ctx context.Context, product *domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "CatalogService.SaveProduct")
	defer span.End()

	if strings.TrimSpace(product.ID) == "" {
		return errors.New("product id is required")
	}
	if strings.TrimSpace(product.Name) == "" {
		return errors.New("product name is required")
	}
	if product.StockQuantity < 0 {
		return errors.New("stock quantity cannot be negative")
	}
	if err := s.repo.Save(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save product")
		return err
	}
	return nil
}

// DeleteProduct 后台删除商品
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "CatalogService.DeleteProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))
	return s.repo.Delete(ctx, id)
}

// AddReview 追加一条商品评价。商品必须存在，评分限定 1 到 5。
func (s *CatalogService) AddReview(ctx context.Context, productID, username string, rating int, comment string) (*domain.Review, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.AddReview")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	if rating < 1 || rating > 5 {
		return nil, domain.ErrInvalidRating
	}
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ProductID: productID,
		Username:  username,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: s.now(),
	}
	if err := s.reviews.Append(ctx, review); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store review")
		return nil, err
	}
	return review, nil
}

// ListReviews 查询商品的全部评价，按时间倒序
func (s *CatalogService) ListReviews(ctx context.Context, productID string) ([]*domain.Review, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.ListReviews")
	defer span.End()
	return s.reviews.ListByProduct(ctx, productID)
}
