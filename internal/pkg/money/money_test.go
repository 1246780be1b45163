package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int64
	}{
		{"plain number", "120000", 120000},
		{"vnd formatted", "1.234.567đ", 1234567},
		{"vnd with spaces", " 250.000 đ ", 250000},
		{"single group", "999", 999},
		{"decimal point kept", "99.5", 0}, // 不是千分位格式，也不是整数盾，按小数解析
		{"empty", "", 0},
		{"garbage", "miễn phí", 0},
		{"currency prefix", "VND 45.000", 45000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParsePrice(tc.raw)
			if tc.name == "decimal point kept" {
				assert.True(t, got.Equal(decimal.RequireFromString("99.5")), "got %s", got)
				return
			}
			assert.True(t, got.Equal(decimal.NewFromInt(tc.want)), "raw=%q got=%s", tc.raw, got)
		})
	}
}

func TestMaxMin(t *testing.T) {
	a, b := VND(100), VND(200)
	assert.True(t, Max(a, b).Equal(b))
	assert.True(t, Min(a, b).Equal(a))
}
