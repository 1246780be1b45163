// internal/service/cart/application/service.go
package application

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"petshop/internal/pkg/logger"
	"petshop/internal/service/cart/domain"
)

// CartService 是活动购物车的唯一写入方。
// 所有对购物车行的变更都经过这里，其他模块（结算等）只读。
type CartService struct {
	repo   domain.CartRepository
	tracer trace.Tracer
}

func NewCartService(repo domain.CartRepository, tracer trace.Tracer) *CartService {
	return &CartService{repo: repo, tracer: tracer}
}

// AddToCart 把一件商品加进购物车。
// 已有同一商品的行时合并数量而不是新建行；没有价格的商品按 0 计价，不报错。
func (s *CartService) AddToCart(ctx context.Context, userID string, item domain.CartLine) (int, error) {
	ctx, span := s.tracer.Start(ctx, "cart.AddToCart")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("product.id", item.ProductID),
	)

	item.Quantity = 1
	quantity, err := s.repo.MergeLine(ctx, userID, item, 1)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to merge cart line")
		return 0, err
	}
	logger.Ctx(ctx).Info().
		Str("user", userID).
		Str("product", item.ProductID).
		Int("quantity", quantity).
		Msg("item added to cart")
	return quantity, nil
}

// UpdateQuantity 直接设置某一行的数量。数量低于 1 等价于删除整行。
// 上限不与库存挂钩：源系统从未限制，这里保留该行为。
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error {
	ctx, span := s.tracer.Start(ctx, "cart.UpdateQuantity")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	)

	if quantity < 1 {
		return s.RemoveFromCart(ctx, userID, productID)
	}

	line, err := s.repo.GetLine(ctx, userID, productID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	line.Quantity = quantity
	if err := s.repo.SaveLine(ctx, userID, *line); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save cart line")
		return err
	}
	return nil
}

// RemoveFromCart 删除一行。删除不存在的行不是错误（幂等）。
func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID string) error {
	ctx, span := s.tracer.Start(ctx, "cart.RemoveFromCart")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("product.id", productID),
	)
	return s.repo.RemoveLine(ctx, userID, productID)
}

// ClearCart 清空购物车，逐行删除。
// 某一行删除失败时中断并返回错误，已删掉的行不回滚——和远端存储的既有语义一致。
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "cart.ClearCart")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	lines, err := s.repo.Lines(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	for _, line := range lines {
		if err := s.repo.RemoveLine(ctx, userID, line.ProductID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "cart partially cleared")
			logger.Ctx(ctx).Error().Err(err).
				Str("user", userID).
				Str("product", line.ProductID).
				Msg("failed to remove line while clearing cart")
			return err
		}
	}
	return nil
}

// Lines 返回购物车当前所有行。
func (s *CartService) Lines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	ctx, span := s.tracer.Start(ctx, "cart.Lines")
	defer span.End()
	return s.repo.Lines(ctx, userID)
}

// GetTotalQuantity 购物车内商品件数。
func (s *CartService) GetTotalQuantity(ctx context.Context, userID string) (int, error) {
	lines, err := s.repo.Lines(ctx, userID)
	if err != nil {
		return 0, err
	}
	return domain.TotalQuantity(lines), nil
}

// GetTotalPrice 购物车总金额。
func (s *CartService) GetTotalPrice(ctx context.Context, userID string) (decimal.Decimal, error) {
	lines, err := s.repo.Lines(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.TotalPrice(lines), nil
}
