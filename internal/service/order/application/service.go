// internal/service/order/application/service.go
package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"petshop/internal/pkg/logger"
	"petshop/internal/pkg/money"
	cartdomain "petshop/internal/service/cart/domain"
	"petshop/internal/service/order/domain"
)

// CartGateway 是结算编排器对购物车的窄依赖。
// 结算只需要读行和删行，不需要购物车的全部能力。
type CartGateway interface {
	Lines(ctx context.Context, userID string) ([]cartdomain.CartLine, error)
	RemoveFromCart(ctx context.Context, userID, productID string) error
}

// DiscountResolver 解析优惠码得到抵扣金额。
// 解析是只读的，不会动用券量台账。
type DiscountResolver interface {
	ResolveDiscount(ctx context.Context, code string, subtotal decimal.Decimal, itemCount int) (decimal.Decimal, error)
}

// CheckoutService 实现结算编排。
// 下单是两阶段的：先算价（只读），再确认（落库 + 发事件 + 清理购物车）。
type CheckoutService struct {
	orders       domain.OrderRepository
	cart         CartGateway
	discounts    DiscountResolver
	publisher    domain.EventPublisher
	shippingFees map[string]int64
	tracer       trace.Tracer
	now          func() time.Time
}

func NewCheckoutService(orders domain.OrderRepository, cart CartGateway, discounts DiscountResolver, publisher domain.EventPublisher, shippingFees map[string]int64) *CheckoutService {
	return &CheckoutService{
		orders:       orders,
		cart:         cart,
		discounts:    discounts,
		publisher:    publisher,
		shippingFees: shippingFees,
		tracer:       otel.Tracer("order-service"),
		now:          time.Now,
	}
}

// CheckoutRequest 是确认下单的入参
type CheckoutRequest struct {
	UserID         string
	SelectedItems  []string // 勾选结算的商品 ID，未勾选的行留在购物车里
	VoucherCode    string
	ShippingMethod string // standard / express
	ShippingName   string
	ShippingPhone  string
	Address        string
	PaymentMethod  string
	IdempotencyKey string // 客户端生成，重试时带同一个值
}

// Quote 是算价阶段的输出，不产生任何副作用
type Quote struct {
	Lines       []domain.OrderLine `json:"lines"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
	ShippingFee decimal.Decimal    `json:"shippingFee"`
	Discount    decimal.Decimal    `json:"discount"`
	FinalAmount decimal.Decimal    `json:"finalAmount"`
}

// CalculateTotalAmount 只对勾选的行求和。没勾选的行一分钱也不计。
func CalculateTotalAmount(lines []cartdomain.CartLine, selected []string) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		if !isSelected(line.ProductID, selected) {
			continue
		}
		subtotal = subtotal.Add(line.LineTotal())
	}
	return subtotal
}

// ComputeFinalAmount 计算实付金额，折扣再大也不会出现负数订单
func ComputeFinalAmount(subtotal, shippingFee, discount decimal.Decimal) decimal.Decimal {
	return money.Max(subtotal.Add(shippingFee).Sub(discount), money.Zero)
}

func isSelected(productID string, selected []string) bool {
	for _, id := range selected {
		if id == productID {
			return true
		}
	}
	return false
}

// PrepareQuote 算价：勾选行小计 + 运费 - 折扣。只读，不写任何状态。
func (s *CheckoutService) PrepareQuote(ctx context.Context, userID string, selected []string, voucherCode, shippingMethod string) (*Quote, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.PrepareQuote")
	defer span.End()

	cartLines, err := s.cart.Lines(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load cart")
		return nil, err
	}

	orderLines := snapshotLines(cartLines, selected)
	subtotal := CalculateTotalAmount(cartLines, selected)
	shippingFee := s.shippingFee(shippingMethod)

	// 无效券静默归零，算价不因为优惠码失败
	discount, err := s.discounts.ResolveDiscount(ctx, voucherCode, subtotal, len(orderLines))
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("voucher_code", voucherCode).Msg("discount resolution failed, proceeding without discount")
		discount = decimal.Zero
	}

	quote := &Quote{
		Lines:       orderLines,
		Subtotal:    subtotal,
		ShippingFee: shippingFee,
		Discount:    discount,
		FinalAmount: ComputeFinalAmount(subtotal, shippingFee, discount),
	}
	span.SetAttributes(
		attribute.String("checkout.subtotal", subtotal.String()),
		attribute.String("checkout.final_amount", quote.FinalAmount.String()),
	)
	return quote, nil
}

// ConfirmOrder 确认下单。
// 前置校验全部通过之前不写任何东西；订单落库之后的失败只记日志不回滚，
// 因为订单号对同一个幂等键是稳定的，客户端重试不会产生第二笔订单。
func (s *CheckoutService) ConfirmOrder(ctx context.Context, req CheckoutRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.ConfirmOrder")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	// 一件都没勾选就不算结算，校验先于任何 I/O
	if len(req.SelectedItems) == 0 {
		return nil, domain.ErrEmptySelection
	}
	if strings.TrimSpace(req.Address) == "" {
		return nil, domain.ErrMissingAddress
	}
	if strings.TrimSpace(req.ShippingName) == "" || strings.TrimSpace(req.ShippingPhone) == "" {
		return nil, domain.ErrMissingRecipient
	}

	cartLines, err := s.cart.Lines(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load cart")
		return nil, err
	}
	orderLines := snapshotLines(cartLines, req.SelectedItems)
	if len(orderLines) == 0 {
		return nil, domain.ErrEmptySelection
	}

	orderID := s.deriveOrderID(req.UserID, req.IdempotencyKey)
	span.SetAttributes(attribute.String("order.id", orderID))

	// 幂等检查：同一个幂等键的重试直接返回已生成的订单。
	// 只有确定不存在才继续往下走，查询本身失败不能当成不存在。
	existing, err := s.orders.FindByID(ctx, orderID)
	if err == nil {
		span.AddEvent("idempotent replay, returning existing order")
		return existing, nil
	}
	if !errors.Is(err, domain.ErrOrderNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "idempotency check failed")
		return nil, err
	}

	subtotal := CalculateTotalAmount(cartLines, req.SelectedItems)
	shippingFee := s.shippingFee(req.ShippingMethod)
	discount, err := s.discounts.ResolveDiscount(ctx, req.VoucherCode, subtotal, len(orderLines))
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("voucher_code", req.VoucherCode).Msg("discount resolution failed, proceeding without discount")
		discount = decimal.Zero
	}

	order := &domain.Order{
		ID:            orderID,
		UserID:        req.UserID,
		Lines:         orderLines,
		Subtotal:      subtotal,
		ShippingFee:   shippingFee,
		Discount:      discount,
		FinalAmount:   ComputeFinalAmount(subtotal, shippingFee, discount),
		VoucherCode:   req.VoucherCode,
		ShippingName:  req.ShippingName,
		ShippingPhone: req.ShippingPhone,
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
		Status:        domain.StatusPending,
		CreatedAt:     s.now(),
	}

	if err := s.orders.Save(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist order")
		return nil, err
	}

	// 并发重试可能抢先落过同号订单（Save 对重复主键是容忍的），
	// 回读一次，返回的金额以持久化的那一份为准。
	persisted, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Msg("failed to re-read persisted order")
		persisted = order
	}

	// 落库即成功，后面的步骤是尽力而为
	s.publishOrderPlaced(ctx, persisted)
	s.removePurchasedLines(ctx, req.UserID, persisted.Lines)

	return persisted, nil
}

// GetOrder 查询单个订单
func (s *CheckoutService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.GetOrder")
	defer span.End()
	return s.orders.FindByID(ctx, id)
}

// ListUserOrders 查询用户的历史订单
func (s *CheckoutService) ListUserOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.ListUserOrders")
	defer span.End()
	return s.orders.FindByUserID(ctx, userID)
}

// ListAllOrders 后台全量订单列表
func (s *CheckoutService) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.ListAllOrders")
	defer span.End()
	return s.orders.FindAll(ctx)
}

// UpdateOrderStatus 后台状态流转，非法流转返回 ErrInvalidTransition
func (s *CheckoutService) UpdateOrderStatus(ctx context.Context, id string, target domain.Status) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.UpdateOrderStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id), attribute.String("order.target_status", string(target)))

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := order.Transition(target); err != nil {
		span.AddEvent("rejected invalid status transition")
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, id, target); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return order, nil
}

// deriveOrderID 由幂等键推导订单号。
// 没带幂等键的旧客户端退回到时间戳派生，保持原有订单号样式。
func (s *CheckoutService) deriveOrderID(userID, idempotencyKey string) string {
	if idempotencyKey != "" {
		return fmt.Sprintf("ORD-%s-%s", userID, idempotencyKey)
	}
	return fmt.Sprintf("ORD-%s-%d", userID, s.now().UnixNano())
}

func (s *CheckoutService) shippingFee(method string) decimal.Decimal {
	if fee, ok := s.shippingFees[method]; ok {
		return decimal.NewFromInt(fee)
	}
	// 未知配送方式按标准运费兜底
	return decimal.NewFromInt(s.shippingFees["standard"])
}

func (s *CheckoutService) publishOrderPlaced(ctx context.Context, order *domain.Order) {
	event := &domain.OrderPlacedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		FinalAmount: order.FinalAmount.String(),
		CreatedAt:   order.CreatedAt.Format(time.RFC3339),
	}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).Msg("failed to publish OrderPlaced event")
	}
}

// removePurchasedLines 只清掉已结算的行，未勾选的行留在购物车。
// 删行失败只记日志，订单已经生成，购物车残留由用户下次操作自愈。
func (s *CheckoutService) removePurchasedLines(ctx context.Context, userID string, lines []domain.OrderLine) {
	for _, line := range lines {
		if err := s.cart.RemoveFromCart(ctx, userID, line.ProductID); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Str("user_id", userID).
				Str("product_id", line.ProductID).
				Msg("failed to remove purchased line from cart")
		}
	}
}

func snapshotLines(cartLines []cartdomain.CartLine, selected []string) []domain.OrderLine {
	var lines []domain.OrderLine
	for _, cl := range cartLines {
		if !isSelected(cl.ProductID, selected) {
			continue
		}
		lines = append(lines, domain.OrderLine{
			ProductID: cl.ProductID,
			Name:      cl.Name,
			Image:     cl.Image,
			UnitPrice: cl.UnitPrice,
			Quantity:  cl.Quantity,
		})
	}
	return lines
}
