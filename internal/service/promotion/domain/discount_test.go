package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"petshop/internal/pkg/money"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func voucher(mutate func(*Voucher)) *Voucher {
	v := &Voucher{
		Code:           "SALE10",
		DiscountType:   DiscountTypePercentage,
		DiscountValue:  decimal.NewFromInt(10),
		MinOrderAmount: money.VND(100000),
		ExpirationDate: now.AddDate(0, 1, 0),
		Quantity:       5,
		UsedCount:      0,
	}
	if mutate != nil {
		mutate(v)
	}
	return v
}

func TestComputeDiscountPercentage(t *testing.T) {
	// 小计 500.000，10% 券，运费 20.000 → 折扣 50.000
	got := ComputeDiscount(money.VND(500000), voucher(nil), now)
	assert.True(t, got.Equal(money.VND(50000)), "got %s", got)
}

func TestComputeDiscountAmountClampsToSubtotal(t *testing.T) {
	v := voucher(func(v *Voucher) {
		v.DiscountType = DiscountTypeAmount
		v.DiscountValue = money.VND(50000)
		v.MinOrderAmount = decimal.Zero
	})
	got := ComputeDiscount(money.VND(10000), v, now)
	assert.True(t, got.Equal(money.VND(10000)), "got %s", got)
}

func TestComputeDiscountSilentZeroPaths(t *testing.T) {
	subtotal := money.VND(500000)

	cases := []struct {
		name string
		v    *Voucher
	}{
		{"nil voucher", nil},
		{"expired yesterday", voucher(func(v *Voucher) { v.ExpirationDate = now.AddDate(0, 0, -1) })},
		{"below min order", voucher(func(v *Voucher) { v.MinOrderAmount = money.VND(600000) })},
		{"exhausted", voucher(func(v *Voucher) { v.UsedCount = v.Quantity })},
		{"unknown type", voucher(func(v *Voucher) { v.DiscountType = "points" })},
		{"negative value", voucher(func(v *Voucher) { v.DiscountValue = decimal.NewFromInt(-5) })},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeDiscount(subtotal, tc.v, now)
			assert.True(t, got.IsZero(), "expected zero discount, got %s", got)
		})
	}
}

// 对任意合法输入，折扣都落在 [0, subtotal]
func TestComputeDiscountBounds(t *testing.T) {
	subtotals := []int64{0, 1, 9999, 100000, 500000, 123456789}
	vouchers := []*Voucher{
		voucher(nil),
		voucher(func(v *Voucher) { v.DiscountValue = decimal.NewFromInt(100) }),
		voucher(func(v *Voucher) {
			v.DiscountType = DiscountTypeAmount
			v.DiscountValue = money.VND(1000000)
			v.MinOrderAmount = decimal.Zero
		}),
	}
	for _, s := range subtotals {
		subtotal := money.VND(s)
		for _, v := range vouchers {
			got := ComputeDiscount(subtotal, v, now)
			assert.False(t, got.IsNegative(), "subtotal=%d", s)
			assert.False(t, got.GreaterThan(subtotal), "subtotal=%d got=%s", s, got)
		}
	}
}

func TestRedeemableBoundary(t *testing.T) {
	// 到期日当天仍然可用，严格晚于到期日才失效
	v := voucher(func(v *Voucher) { v.ExpirationDate = now })
	assert.True(t, v.Redeemable(money.VND(200000), now))
	assert.False(t, v.Redeemable(money.VND(200000), now.Add(time.Second)))

	// 门槛金额是闭区间下界
	assert.True(t, voucher(nil).Redeemable(money.VND(100000), now))
	assert.False(t, voucher(nil).Redeemable(money.VND(99999), now))
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 5, voucher(nil).Remaining())
	assert.Equal(t, 0, voucher(func(v *Voucher) { v.UsedCount = 9 }).Remaining())
}
