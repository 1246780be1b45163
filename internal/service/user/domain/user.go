// internal/service/user/domain/user.go
package domain

import "github.com/pkg/errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrOTPMismatch        = errors.New("otp verification failed")
)

// Account 是认证后端返回的账号信息。RoleAdmin 的判定只发生在服务端。
type Account struct {
	Username string
	Role     int
}

const RoleAdmin = 1

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
