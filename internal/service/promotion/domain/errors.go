// internal/service/promotion/domain/errors.go
package domain

import "github.com/pkg/errors"

var (
	// ErrVoucherNotFound 表示兑换码不存在。
	ErrVoucherNotFound = errors.New("voucher not found")
	// ErrVoucherExhausted 表示兑换额度已用尽（usedCount 已到 quantity）。
	ErrVoucherExhausted = errors.New("voucher redemption limit reached")
	// ErrDuplicateCode 表示创建时兑换码冲突。
	ErrDuplicateCode = errors.New("voucher code already exists")
)
