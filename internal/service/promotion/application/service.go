// internal/service/promotion/application/service.go
package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"petshop/internal/pkg/logger"
	"petshop/internal/service/promotion/domain"
)

// VoucherLocker 把同一张券的核销串行化（单写者）。
type VoucherLocker interface {
	Acquire(code string) (func(), error)
}

// NoopLocker 在单实例部署和测试里使用。
type NoopLocker struct{}

func (NoopLocker) Acquire(string) (func(), error) { return func() {}, nil }

// PromotionService 定义了优惠服务提供的所有业务用例
type PromotionService struct {
	repo         domain.VoucherRepository
	rules        domain.RuleEngine
	locker       VoucherLocker
	rulesEnabled bool
	tracer       trace.Tracer
	now          func() time.Time
}

// NewPromotionService 创建一个新的优惠服务实例
func NewPromotionService(repo domain.VoucherRepository, rules domain.RuleEngine, locker VoucherLocker, rulesEnabled bool, tracer trace.Tracer) *PromotionService {
	if locker == nil {
		locker = NoopLocker{}
	}
	return &PromotionService{
		repo:         repo,
		rules:        rules,
		locker:       locker,
		rulesEnabled: rulesEnabled,
		tracer:       tracer,
		now:          time.Now,
	}
}

// ResolveDiscount 解析结算时选中的券并计算折扣。
//
// 保留源系统的静默失败语义：码不存在、券不可用、附加规则不通过
// 都返回零折扣而不是错误，结算流程照常继续。只有存储本身出错才向上抛。
// 这里只读 usedCount 做资格判断，从不递增它——递增只发生在 ClaimVoucher。
func (s *PromotionService) ResolveDiscount(ctx context.Context, code string, subtotal decimal.Decimal, itemCount int) (decimal.Decimal, *domain.Voucher, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.ResolveDiscount")
	defer span.End()
	span.SetAttributes(
		attribute.String("voucher.code", code),
		attribute.String("order.subtotal", subtotal.String()),
	)

	if code == "" {
		return decimal.Zero, nil, nil
	}

	voucher, err := s.repo.FindByCode(ctx, code)
	if errors.Is(err, domain.ErrVoucherNotFound) {
		span.AddEvent("voucher code not found, zero discount")
		return decimal.Zero, nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return decimal.Zero, nil, err
	}

	if s.rulesEnabled && s.rules != nil && voucher.RuleDefinition != "" {
		ok, err := s.rules.Evaluate(voucher.RuleDefinition, domain.Fact{
			"subtotal":   subtotal.InexactFloat64(),
			"item_count": int64(itemCount),
		})
		if err != nil {
			// 规则坏了不应该挡住下单：按不通过处理，留日志给管理员
			logger.Ctx(ctx).Warn().Err(err).Str("code", code).Msg("voucher rule evaluation failed")
			span.RecordError(err)
			return decimal.Zero, voucher, nil
		}
		if !ok {
			span.AddEvent("voucher rule rejected")
			return decimal.Zero, voucher, nil
		}
	}

	discount := domain.ComputeDiscount(subtotal, voucher, s.now())
	span.SetAttributes(attribute.String("voucher.discount", discount.String()))
	return discount, voucher, nil
}

// ClaimVoucher 核销一张券：usedCount 加一。
//
// 这是整个代码库里唯一允许递增 usedCount 的地方。
// 领取入口（券列表页）调用它，而结算时的折扣计算只读不写——
// 两条路径的这种脱节是从源系统继承下来的，修复入口已经收敛到这一个函数。
func (s *PromotionService) ClaimVoucher(ctx context.Context, code string) (*domain.Voucher, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.ClaimVoucher")
	defer span.End()
	span.SetAttributes(attribute.String("voucher.code", code))

	release, err := s.locker.Acquire(code)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to acquire voucher lock")
	}
	defer release()

	voucher, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if voucher.UsedCount >= voucher.Quantity {
		span.AddEvent("voucher exhausted")
		return nil, domain.ErrVoucherExhausted
	}

	ok, err := s.repo.IncrementUsedCount(ctx, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to increment used count")
		return nil, err
	}
	if !ok {
		// 条件更新没生效：并发核销把最后一个名额抢走了
		return nil, domain.ErrVoucherExhausted
	}

	voucher.UsedCount++
	logger.Ctx(ctx).Info().
		Str("code", code).
		Int("usedCount", voucher.UsedCount).
		Int("quantity", voucher.Quantity).
		Msg("voucher claimed")
	return voucher, nil
}

// ListVouchers 返回全部券，供前台展示和后台管理。
func (s *PromotionService) ListVouchers(ctx context.Context) ([]*domain.Voucher, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.ListVouchers")
	defer span.End()
	return s.repo.List(ctx)
}

// SaveVoucher 创建或更新一张券（管理后台）。
// 同码即同券：编辑沿用已有记录的主键，台账计数（usedCount）
// 从存储里带过来，后台编辑永远不能重置它——递增只属于 ClaimVoucher。
func (s *PromotionService) SaveVoucher(ctx context.Context, voucher *domain.Voucher) error {
	ctx, span := s.tracer.Start(ctx, "promotion.SaveVoucher")
	defer span.End()
	span.SetAttributes(attribute.String("voucher.code", voucher.Code))

	if voucher.Code == "" {
		return errors.New("voucher code is required")
	}
	if voucher.DiscountType == domain.DiscountTypePercentage {
		hundred := decimal.NewFromInt(100)
		if voucher.DiscountValue.IsNegative() || voucher.DiscountValue.GreaterThan(hundred) {
			return errors.New("percentage discount must be within [0,100]")
		}
	}

	existing, err := s.repo.FindByCode(ctx, voucher.Code)
	switch {
	case err == nil:
		voucher.ID = existing.ID
		voucher.UsedCount = existing.UsedCount
	case errors.Is(err, domain.ErrVoucherNotFound):
		voucher.ID = 0
		voucher.UsedCount = 0
	default:
		span.RecordError(err)
		return err
	}
	if voucher.Quantity < voucher.UsedCount {
		return errors.New("quantity cannot be below used count")
	}
	return s.repo.Save(ctx, voucher)
}

// DeleteVoucher 删除一张券（管理后台）。
func (s *PromotionService) DeleteVoucher(ctx context.Context, code string) error {
	ctx, span := s.tracer.Start(ctx, "promotion.DeleteVoucher")
	defer span.End()
	return s.repo.Delete(ctx, code)
}
