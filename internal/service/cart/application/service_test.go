package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"petshop/internal/pkg/money"
	"petshop/internal/service/cart/domain"
	"petshop/internal/service/cart/infrastructure"
)

func newTestService() *CartService {
	return NewCartService(infrastructure.NewCartMemoryRepository(), otel.Tracer("cart-test"))
}

func line(productID string, price int64) domain.CartLine {
	return domain.CartLine{
		ProductID: productID,
		Name:      "sp-" + productID,
		UnitPrice: money.VND(price),
	}
}

// 同一商品重复加购必须合并成一行，数量等于加购次数
func TestAddToCartMergesSameProduct(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	for i := 0; i < 3; i++ {
		_, err := svc.AddToCart(ctx, "u1", line("P1", 100))
		require.NoError(t, err)
	}

	lines, err := svc.Lines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "P1", lines[0].ProductID)
	assert.Equal(t, 3, lines[0].Quantity)

	total, err := svc.GetTotalPrice(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, total.Equal(money.VND(300)), "got %s", total)
}

func TestUpdateQuantityFloor(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.AddToCart(ctx, "u1", line("P1", 100))
	require.NoError(t, err)

	// 数量低于 1 时整行删除
	require.NoError(t, svc.UpdateQuantity(ctx, "u1", "P1", 0))
	lines, err := svc.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestUpdateQuantityOverwrites(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.AddToCart(ctx, "u1", line("P1", 250))
	require.NoError(t, err)
	require.NoError(t, svc.UpdateQuantity(ctx, "u1", "P1", 7))

	qty, err := svc.GetTotalQuantity(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, qty)

	total, err := svc.GetTotalPrice(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, total.Equal(money.VND(1750)))

	// 更新不存在的行报 ErrLineNotFound
	err = svc.UpdateQuantity(ctx, "u1", "P9", 2)
	assert.ErrorIs(t, err, domain.ErrLineNotFound)
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	assert.NoError(t, svc.RemoveFromCart(ctx, "u1", "never-added"))
}

func TestClearCart(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.AddToCart(ctx, "u1", line("P1", 100))
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "u1", line("P2", 200))
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, "u1"))
	lines, err := svc.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

// 价格在入口被归一化后，混合来源的价格参与总价计算
func TestTotalPriceWithNormalizedStringPrices(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.AddToCart(ctx, "u1", domain.CartLine{
		ProductID: "P1",
		UnitPrice: money.ParsePrice("1.234.567đ"),
	})
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "u1", domain.CartLine{
		ProductID: "P2",
		UnitPrice: money.ParsePrice("không bán"), // 解析失败按 0
	})
	require.NoError(t, err)

	total, err := svc.GetTotalPrice(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, total.Equal(money.VND(1234567)), "got %s", total)
}
