// internal/service/order/application/service_test.go
package application

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	cartapp "petshop/internal/service/cart/application"
	cartdomain "petshop/internal/service/cart/domain"
	cartinfra "petshop/internal/service/cart/infrastructure"
	"petshop/internal/service/order/domain"
	"petshop/internal/service/order/infrastructure"
)

type stubResolver struct {
	discount decimal.Decimal
	err      error
}

func (s *stubResolver) ResolveDiscount(ctx context.Context, code string, subtotal decimal.Decimal, itemCount int) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Zero, s.err
	}
	if code == "" {
		return decimal.Zero, nil
	}
	return s.discount, nil
}

type recordingPublisher struct {
	events []*domain.OrderPlacedEvent
	err    error
}

func (p *recordingPublisher) PublishOrderPlaced(ctx context.Context, event *domain.OrderPlacedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

var testShippingFees = map[string]int64{"standard": 20000, "express": 45000}

func newTestCheckout(t *testing.T, resolver DiscountResolver, publisher domain.EventPublisher) (*CheckoutService, *cartapp.CartService, *infrastructure.MemoryOrderRepository) {
	t.Helper()
	cartRepo := cartinfra.NewCartMemoryRepository()
	cartService := cartapp.NewCartService(cartRepo, otel.Tracer("checkout-test"))
	orderRepo := infrastructure.NewMemoryOrderRepository()
	svc := NewCheckoutService(orderRepo, cartService, resolver, publisher, testShippingFees)
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) }
	return svc, cartService, orderRepo
}

func fillCart(t *testing.T, cart *cartapp.CartService, userID string, lines ...cartdomain.CartLine) {
	t.Helper()
	ctx := context.Background()
	for _, line := range lines {
		for i := 0; i < line.Quantity; i++ {
			item := line
			item.Quantity = 1
			_, err := cart.AddToCart(ctx, userID, item)
			require.NoError(t, err)
		}
	}
}

func TestCalculateTotalAmountSelectedOnly(t *testing.T) {
	lines := []cartdomain.CartLine{
		{ProductID: "p1", UnitPrice: decimal.NewFromInt(100000), Quantity: 2},
		{ProductID: "p2", UnitPrice: decimal.NewFromInt(50000), Quantity: 1},
		{ProductID: "p3", UnitPrice: decimal.NewFromInt(30000), Quantity: 3},
	}

	// 只结算勾选的行
	subtotal := CalculateTotalAmount(lines, []string{"p1", "p3"})
	assert.True(t, subtotal.Equal(decimal.NewFromInt(290000)), "got %s", subtotal)

	// 没有勾选列表就一行都不计，不存在“默认全选”
	none := CalculateTotalAmount(lines, nil)
	assert.True(t, none.Equal(decimal.Zero))
}

func TestComputeFinalAmountNeverNegative(t *testing.T) {
	final := ComputeFinalAmount(decimal.NewFromInt(50000), decimal.NewFromInt(20000), decimal.NewFromInt(100000))
	assert.True(t, final.Equal(decimal.Zero))

	final = ComputeFinalAmount(decimal.NewFromInt(100000), decimal.NewFromInt(20000), decimal.NewFromInt(30000))
	assert.True(t, final.Equal(decimal.NewFromInt(90000)))
}

func TestConfirmOrderHappyPath(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	svc, cart, _ := newTestCheckout(t, &stubResolver{discount: decimal.NewFromInt(30000)}, publisher)

	fillCart(t, cart, "u1",
		cartdomain.CartLine{ProductID: "p1", Name: "Mèo Anh lông ngắn", UnitPrice: decimal.NewFromInt(1234567), Quantity: 1},
		cartdomain.CartLine{ProductID: "p2", Name: "Hạt cho mèo", UnitPrice: decimal.NewFromInt(120000), Quantity: 2},
	)

	order, err := svc.ConfirmOrder(ctx, CheckoutRequest{
		UserID:         "u1",
		SelectedItems:  []string{"p1", "p2"},
		VoucherCode:    "SALE30",
		ShippingMethod: "express",
		ShippingName:   "Nguyen Van A",
		ShippingPhone:  "0901234567",
		Address:        "123 Lê Lợi, Q1, TP.HCM",
		PaymentMethod:  "cod",
		IdempotencyKey: "ck-001",
	})
	require.NoError(t, err)

	assert.Equal(t, "ORD-u1-ck-001", order.ID)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(1474567)))
	assert.True(t, order.ShippingFee.Equal(decimal.NewFromInt(45000)))
	assert.True(t, order.Discount.Equal(decimal.NewFromInt(30000)))
	assert.True(t, order.FinalAmount.Equal(decimal.NewFromInt(1489567)))
	assert.Len(t, order.Lines, 2)

	// 下单事件已发布
	require.Len(t, publisher.events, 1)
	assert.Equal(t, order.ID, publisher.events[0].OrderID)

	// 已结算的行从购物车移除
	remaining, err := cart.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestConfirmOrderRemovesOnlySelectedLines(t *testing.T) {
	ctx := context.Background()
	svc, cart, _ := newTestCheckout(t, &stubResolver{}, &recordingPublisher{})

	fillCart(t, cart, "u1",
		cartdomain.CartLine{ProductID: "p1", UnitPrice: decimal.NewFromInt(100000), Quantity: 1},
		cartdomain.CartLine{ProductID: "p2", UnitPrice: decimal.NewFromInt(200000), Quantity: 1},
	)

	order, err := svc.ConfirmOrder(ctx, CheckoutRequest{
		UserID:        "u1",
		SelectedItems: []string{"p1"},
		ShippingName:  "A",
		ShippingPhone: "0900000000",
		Address:       "somewhere",
	})
	require.NoError(t, err)
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(100000)))

	remaining, err := cart.Lines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "p2", remaining[0].ProductID)
}

func TestConfirmOrderPreconditions(t *testing.T) {
	ctx := context.Background()
	svc, cart, repo := newTestCheckout(t, &stubResolver{}, &recordingPublisher{})

	fillCart(t, cart, "u1", cartdomain.CartLine{ProductID: "p1", UnitPrice: decimal.NewFromInt(100000), Quantity: 1})

	// 缺地址
	_, err := svc.ConfirmOrder(ctx, CheckoutRequest{
		UserID: "u1", SelectedItems: []string{"p1"},
		ShippingName: "A", ShippingPhone: "0900000000",
	})
	assert.ErrorIs(t, err, domain.ErrMissingAddress)

	// 缺收件人
	_, err = svc.ConfirmOrder(ctx, CheckoutRequest{
		UserID: "u1", SelectedItems: []string{"p1"}, Address: "somewhere",
	})
	assert.ErrorIs(t, err, domain.ErrMissingRecipient)

	// 勾选的商品都不在购物车里
	_, err = svc.ConfirmOrder(ctx, CheckoutRequest{
		UserID: "u1", SelectedItems: []string{"ghost"},
		ShippingName: "A", ShippingPhone: "0900000000", Address: "somewhere",
	})
	assert.ErrorIs(t, err, domain.ErrEmptySelection)

	// 校验失败时什么都没写
	orders, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	// 购物车原封不动
	lines, err := cart.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestConfirmOrderRejectsEmptySelection(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	svc, cart, repo := newTestCheckout(t, &stubResolver{}, publisher)

	fillCart(t, cart, "u1",
		cartdomain.CartLine{ProductID: "p1", UnitPrice: decimal.NewFromInt(100000), Quantity: 1},
		cartdomain.CartLine{ProductID: "p2", UnitPrice: decimal.NewFromInt(200000), Quantity: 1},
	)

	// 购物车有货但一件都没勾选：拒单，而不是把整车都结了
	_, err := svc.ConfirmOrder(ctx, CheckoutRequest{
		UserID:        "u1",
		SelectedItems: []string{},
		ShippingName:  "A",
		ShippingPhone: "0900000000",
		Address:       "somewhere",
	})
	assert.ErrorIs(t, err, domain.ErrEmptySelection)

	// 没有订单、没有事件、购物车原样
	orders, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, publisher.events)

	lines, err := cart.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestConfirmOrderIdempotentReplay(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	svc, cart, _ := newTestCheckout(t, &stubResolver{}, publisher)

	fillCart(t, cart, "u1", cartdomain.CartLine{ProductID: "p1", UnitPrice: decimal.NewFromInt(100000), Quantity: 1})

	req := CheckoutRequest{
		UserID:         "u1",
		SelectedItems:  []string{"p1"},
		ShippingName:   "A",
		ShippingPhone:  "0900000000",
		Address:        "somewhere",
		IdempotencyKey: "retry-1",
	}
	first, err := svc.ConfirmOrder(ctx, req)
	require.NoError(t, err)

	// 同一个幂等键重试：返回原订单，不重复发事件
	replay, err := svc.ConfirmOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, replay.ID)
	assert.True(t, first.FinalAmount.Equal(replay.FinalAmount))
	assert.Len(t, publisher.events, 1)
}

func TestConfirmOrderDiscountFailureFallsBackToZero(t *testing.T) {
	ctx := context.Background()
	svc, cart, _ := newTestCheckout(t, &stubResolver{err: errors.New("promotion backend down")}, &recordingPublisher{})

	fillCart(t, cart, "u1", cartdomain.CartLine{ProductID: "p1", UnitPrice: decimal.NewFromInt(100000), Quantity: 1})

	order, err := svc.ConfirmOrder(ctx, CheckoutRequest{
		UserID:        "u1",
		SelectedItems: []string{"p1"},
		VoucherCode:   "BROKEN",
		ShippingName:  "A",
		ShippingPhone: "0900000000",
		Address:       "somewhere",
	})
	require.NoError(t, err)
	assert.True(t, order.Discount.Equal(decimal.Zero))
	assert.True(t, order.FinalAmount.Equal(decimal.NewFromInt(120000)))
}

func TestConfirmOrderPublishFailureDoesNotFailOrder(t *testing.T) {
	ctx := context.Background()
	svc, cart, repo := newTestCheckout(t, &stubResolver{}, &recordingPublisher{err: errors.New("kafka unavailable")})

	fillCart(t, cart, "u1", cartdomain.CartLine{ProductID: "p1", UnitPrice: decimal.NewFromInt(100000), Quantity: 1})

	order, err := svc.ConfirmOrder(ctx, CheckoutRequest{
		UserID:        "u1",
		SelectedItems: []string{"p1"},
		ShippingName:  "A",
		ShippingPhone: "0900000000",
		Address:       "somewhere",
	})
	require.NoError(t, err)

	persisted, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, persisted.ID)
}

func TestPrepareQuoteIsReadOnly(t *testing.T) {
	ctx := context.Background()
	svc, cart, repo := newTestCheckout(t, &stubResolver{discount: decimal.NewFromInt(10000)}, &recordingPublisher{})

	fillCart(t, cart, "u1", cartdomain.CartLine{ProductID: "p1", UnitPrice: decimal.NewFromInt(100000), Quantity: 2})

	quote, err := svc.PrepareQuote(ctx, "u1", []string{"p1"}, "SALE", "standard")
	require.NoError(t, err)
	assert.True(t, quote.Subtotal.Equal(decimal.NewFromInt(200000)))
	assert.True(t, quote.ShippingFee.Equal(decimal.NewFromInt(20000)))
	assert.True(t, quote.FinalAmount.Equal(decimal.NewFromInt(210000)))

	// 算价不落库、不动购物车
	orders, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	lines, err := cart.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	svc, cart, _ := newTestCheckout(t, &stubResolver{}, &recordingPublisher{})

	fillCart(t, cart, "u1", cartdomain.CartLine{ProductID: "p1", UnitPrice: decimal.NewFromInt(100000), Quantity: 1})
	order, err := svc.ConfirmOrder(ctx, CheckoutRequest{
		UserID: "u1", SelectedItems: []string{"p1"},
		ShippingName: "A", ShippingPhone: "0900000000", Address: "somewhere",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateOrderStatus(ctx, order.ID, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)

	// 跳过 Shipped 直接 Delivered 属于非法流转
	_, err = svc.UpdateOrderStatus(ctx, order.ID, domain.StatusDelivered)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// 未知订单
	_, err = svc.UpdateOrderStatus(ctx, "ORD-missing", domain.StatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

// lookupErrorRepo 让 FindByID 一直报存储故障
type lookupErrorRepo struct {
	*infrastructure.MemoryOrderRepository
	err error
}

func (r *lookupErrorRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return nil, r.err
}

func TestConfirmOrderIdempotencyCheckFailure(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	base := infrastructure.NewMemoryOrderRepository()
	repo := &lookupErrorRepo{MemoryOrderRepository: base, err: errors.New("mysql gone away")}

	cartRepo := cartinfra.NewCartMemoryRepository()
	cartService := cartapp.NewCartService(cartRepo, otel.Tracer("checkout-test"))
	svc := NewCheckoutService(repo, cartService, &stubResolver{}, publisher, testShippingFees)

	fillCart(t, cartService, "u1", cartdomain.CartLine{ProductID: "p1", UnitPrice: decimal.NewFromInt(100000), Quantity: 1})

	// 幂等检查查不动存储时必须把错误抛上去，不能当成“订单不存在”继续下单
	_, err := svc.ConfirmOrder(ctx, CheckoutRequest{
		UserID: "u1", SelectedItems: []string{"p1"},
		ShippingName: "A", ShippingPhone: "0900000000", Address: "somewhere",
		IdempotencyKey: "ck-err",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrOrderNotFound)

	// 没写订单、没发事件
	orders, err := base.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, publisher.events)
}

// racingLookupRepo 模拟并发重试：幂等检查的窗口里另一次请求已经落了同号订单
type racingLookupRepo struct {
	*infrastructure.MemoryOrderRepository
	misses int
}

func (r *racingLookupRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	if r.misses > 0 {
		r.misses--
		return nil, domain.ErrOrderNotFound
	}
	return r.MemoryOrderRepository.FindByID(ctx, id)
}

func TestConfirmOrderDuplicateRaceReturnsPersistedOrder(t *testing.T) {
	ctx := context.Background()
	base := infrastructure.NewMemoryOrderRepository()

	// 先到的重试已经落库，金额以这一份为准
	winner := &domain.Order{
		ID:          "ORD-u1-ck-race",
		UserID:      "u1",
		Subtotal:    decimal.NewFromInt(100000),
		ShippingFee: decimal.NewFromInt(20000),
		Discount:    decimal.Zero,
		FinalAmount: decimal.NewFromInt(120000),
		Status:      domain.StatusPending,
		CreatedAt:   time.Date(2024, 6, 15, 9, 59, 0, 0, time.UTC),
	}
	require.NoError(t, base.Save(ctx, winner))

	repo := &racingLookupRepo{MemoryOrderRepository: base, misses: 1}
	cartRepo := cartinfra.NewCartMemoryRepository()
	cartService := cartapp.NewCartService(cartRepo, otel.Tracer("checkout-test"))
	// 本次请求有 30000 折扣，如果写入生效金额会和先落库的那份不一样
	svc := NewCheckoutService(repo, cartService, &stubResolver{discount: decimal.NewFromInt(30000)}, &recordingPublisher{}, testShippingFees)

	fillCart(t, cartService, "u1", cartdomain.CartLine{ProductID: "p1", UnitPrice: decimal.NewFromInt(100000), Quantity: 1})

	order, err := svc.ConfirmOrder(ctx, CheckoutRequest{
		UserID: "u1", SelectedItems: []string{"p1"}, VoucherCode: "SALE30",
		ShippingName: "A", ShippingPhone: "0900000000", Address: "somewhere",
		IdempotencyKey: "ck-race",
	})
	require.NoError(t, err)

	// 写入被已存在的主键挡掉，回读后返回的是先落库的那一份
	assert.True(t, order.FinalAmount.Equal(winner.FinalAmount), "got %s", order.FinalAmount)
	assert.True(t, order.Discount.Equal(decimal.Zero))
}
