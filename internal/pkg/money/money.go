// internal/pkg/money/money.go
package money

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// 历史数据里的价格字段一部分是数字，一部分是 "1.234.567đ" 这样的越南盾格式字符串。
// 所有价格必须在数据进入系统的边界上经过这里归一化一次，下游只处理 decimal。

var (
	// 千分位格式：1.234.567 （越南习惯用 '.' 做千分位分隔符）
	thousandsPattern = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
	// 去掉货币符号、空格等所有与数值无关的字符，保留数字和 '.'
	stripPattern = regexp.MustCompile(`[^0-9.]`)
)

// Zero 是金额零值。
var Zero = decimal.Zero

// ParsePrice 将任意来源的价格字符串归一化为金额。
// 解析失败时返回 0 而不是错误，这是源系统的既有行为，调用方依赖它。
func ParsePrice(raw string) decimal.Decimal {
	s := stripPattern.ReplaceAllString(strings.TrimSpace(raw), "")
	if s == "" {
		return decimal.Zero
	}
	// "1.234.567" 里的 '.' 是千分位而不是小数点
	if thousandsPattern.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// VND 按整数越南盾构造金额，测试和种子数据用。
func VND(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount)
}

// Max 返回两个金额中较大的一个。
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Min 返回两个金额中较小的一个。
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
