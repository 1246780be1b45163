package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop/internal/service/promotion/domain"
)

func TestCELRuleEngine(t *testing.T) {
	engine, err := NewCELRuleEngine()
	require.NoError(t, err)

	fact := domain.Fact{
		"subtotal":   float64(500000),
		"item_count": int64(3),
	}

	cases := []struct {
		name string
		rule string
		want bool
	}{
		{"empty rule passes", "", true},
		{"threshold met", "subtotal >= 200000.0", true},
		{"threshold not met", "subtotal >= 600000.0", false},
		{"combined condition", "subtotal >= 200000.0 && item_count >= 2", true},
		{"item count gate", "item_count > 5", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.Evaluate(tc.rule, fact)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCELRuleEngineRejectsBadRules(t *testing.T) {
	engine, err := NewCELRuleEngine()
	require.NoError(t, err)

	fact := domain.Fact{"subtotal": float64(1000), "item_count": int64(1)}

	_, err = engine.Evaluate("subtotal >>> 12", fact)
	assert.Error(t, err)

	// 非布尔结果的规则同样拒绝
	_, err = engine.Evaluate("subtotal + 1.0", fact)
	assert.Error(t, err)

	// 未声明的变量在编译期报错
	_, err = engine.Evaluate("user_age > 18", fact)
	assert.Error(t, err)
}
