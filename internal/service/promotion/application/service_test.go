package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"petshop/internal/pkg/money"
	"petshop/internal/service/promotion/domain"
	"petshop/internal/service/promotion/infrastructure"
	"petshop/internal/service/promotion/infrastructure/rule"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, vouchers ...*domain.Voucher) (*PromotionService, *infrastructure.MemoryVoucherRepository) {
	t.Helper()
	repo := infrastructure.NewMemoryVoucherRepository()
	for _, v := range vouchers {
		require.NoError(t, repo.Save(context.Background(), v))
	}
	engine, err := rule.NewCELRuleEngine()
	require.NoError(t, err)

	svc := NewPromotionService(repo, engine, nil, true, otel.Tracer("promotion-test"))
	svc.now = func() time.Time { return testNow }
	return svc, repo
}

func sale10() *domain.Voucher {
	return &domain.Voucher{
		Code:           "SALE10",
		DiscountType:   domain.DiscountTypePercentage,
		DiscountValue:  decimal.NewFromInt(10),
		MinOrderAmount: money.VND(100000),
		ExpirationDate: testNow.AddDate(0, 1, 0),
		Quantity:       5,
	}
}

func TestResolveDiscountHappyPath(t *testing.T) {
	svc, _ := newTestService(t, sale10())

	discount, voucher, err := svc.ResolveDiscount(context.Background(), "SALE10", money.VND(500000), 2)
	require.NoError(t, err)
	require.NotNil(t, voucher)
	assert.True(t, discount.Equal(money.VND(50000)), "got %s", discount)
}

func TestResolveDiscountSilentZero(t *testing.T) {
	expired := sale10()
	expired.Code = "OLD"
	expired.ExpirationDate = testNow.AddDate(0, 0, -1)

	svc, _ := newTestService(t, sale10(), expired)
	ctx := context.Background()

	// 没选券
	discount, voucher, err := svc.ResolveDiscount(ctx, "", money.VND(500000), 1)
	require.NoError(t, err)
	assert.Nil(t, voucher)
	assert.True(t, discount.IsZero())

	// 码不存在：静默零而不是错误
	discount, voucher, err = svc.ResolveDiscount(ctx, "KHONGCO", money.VND(500000), 1)
	require.NoError(t, err)
	assert.Nil(t, voucher)
	assert.True(t, discount.IsZero())

	// 昨天过期
	discount, _, err = svc.ResolveDiscount(ctx, "OLD", money.VND(500000), 1)
	require.NoError(t, err)
	assert.True(t, discount.IsZero())
}

func TestResolveDiscountAppliesCELRule(t *testing.T) {
	gated := sale10()
	gated.Code = "COMBO"
	gated.RuleDefinition = "item_count >= 2"

	svc, _ := newTestService(t, gated)
	ctx := context.Background()

	discount, _, err := svc.ResolveDiscount(ctx, "COMBO", money.VND(500000), 1)
	require.NoError(t, err)
	assert.True(t, discount.IsZero(), "rule should reject single-item order")

	discount, _, err = svc.ResolveDiscount(ctx, "COMBO", money.VND(500000), 3)
	require.NoError(t, err)
	assert.True(t, discount.Equal(money.VND(50000)))
}

func TestResolveDiscountBrokenRuleYieldsZero(t *testing.T) {
	broken := sale10()
	broken.Code = "BROKEN"
	broken.RuleDefinition = "subtotal >>> oops"

	svc, _ := newTestService(t, broken)
	discount, voucher, err := svc.ResolveDiscount(context.Background(), "BROKEN", money.VND(500000), 1)
	require.NoError(t, err)
	require.NotNil(t, voucher)
	assert.True(t, discount.IsZero())
}

func TestClaimVoucher(t *testing.T) {
	v := sale10()
	v.Quantity = 2
	svc, repo := newTestService(t, v)
	ctx := context.Background()

	claimed, err := svc.ClaimVoucher(ctx, "SALE10")
	require.NoError(t, err)
	assert.Equal(t, 1, claimed.UsedCount)

	_, err = svc.ClaimVoucher(ctx, "SALE10")
	require.NoError(t, err)

	// 额度用尽后核销失败，usedCount 不再增长
	_, err = svc.ClaimVoucher(ctx, "SALE10")
	assert.ErrorIs(t, err, domain.ErrVoucherExhausted)

	stored, err := repo.FindByCode(ctx, "SALE10")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.UsedCount)
}

func TestClaimVoucherUnknownCode(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ClaimVoucher(context.Background(), "KHONGCO")
	assert.ErrorIs(t, err, domain.ErrVoucherNotFound)
}

func TestSaveVoucherValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.Error(t, svc.SaveVoucher(ctx, &domain.Voucher{}))

	bad := sale10()
	bad.DiscountValue = decimal.NewFromInt(120)
	assert.Error(t, svc.SaveVoucher(ctx, bad))

	assert.NoError(t, svc.SaveVoucher(ctx, sale10()))
}

func TestSaveVoucherUpdatesExistingCode(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SaveVoucher(ctx, sale10()))
	created, err := repo.FindByCode(ctx, "SALE10")
	require.NoError(t, err)

	// 核销一次，让台账有记录
	_, err = svc.ClaimVoucher(ctx, "SALE10")
	require.NoError(t, err)

	// 同码再保存是编辑而不是新建：不报重复码，主键不变，台账计数保留
	edited := sale10()
	edited.Description = "giảm 10% cho đơn từ 100k"
	edited.Quantity = 10
	require.NoError(t, svc.SaveVoucher(ctx, edited))

	stored, err := repo.FindByCode(ctx, "SALE10")
	require.NoError(t, err)
	assert.Equal(t, created.ID, stored.ID)
	assert.Equal(t, 1, stored.UsedCount)
	assert.Equal(t, 10, stored.Quantity)
	assert.Equal(t, "giảm 10% cho đơn từ 100k", stored.Description)

	// 额度不能压到已核销数以下
	shrunk := sale10()
	shrunk.Quantity = 0
	assert.Error(t, svc.SaveVoucher(ctx, shrunk))
}
