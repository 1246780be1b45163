// internal/service/user/application/service_test.go
package application

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"petshop/internal/pkg/httpclient"
	"petshop/internal/pkg/kvstore"
	"petshop/internal/pkg/session"
	"petshop/internal/service/user/domain"
	"petshop/internal/service/user/infrastructure"
)

// fakeAuthBackend 模拟遗留认证后端：HTTP 永远 200，结果看响应体里的 status
func fakeAuthBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/user.ctr/login":
			// 角色在 data 信封里，顶层只有 status/message
			switch {
			case r.Form.Get("username") == "admin" && r.Form.Get("password") == "secret":
				fmt.Fprint(w, `{"status": 200, "data": {"role": 1, "username": "admin"}}`)
			case r.Form.Get("username") == "user1" && r.Form.Get("password") == "pass":
				fmt.Fprint(w, `{"status": 200, "data": {"role": 0, "username": "user1"}}`)
			default:
				fmt.Fprint(w, `{"status": 401, "message": "sai tài khoản hoặc mật khẩu"}`)
			}
		case "/user.ctr/forgot_password", "/user.ctr/send_otp":
			fmt.Fprint(w, `{"status": 200}`)
		case "/user.ctr/verify_otp":
			if r.Form.Get("otp") == "123456" {
				fmt.Fprint(w, `{"status": 200}`)
			} else {
				fmt.Fprint(w, `{"status": 401, "message": "otp sai"}`)
			}
		default:
			http.NotFound(w, r)
		}
	}))
}

func newAuthService(t *testing.T, backendURL string) (*AuthService, *session.Manager) {
	t.Helper()
	client := infrastructure.NewRestAuthClient(httpclient.NewClient(otel.Tracer("user-test")), backendURL)
	sessions := session.NewManager(kvstore.NewMemoryStore(), 30*time.Minute)
	return NewAuthService(client, sessions), sessions
}

func TestLoginCreatesServerSideSession(t *testing.T) {
	backend := fakeAuthBackend(t)
	defer backend.Close()
	ctx := context.Background()
	svc, sessions := newAuthService(t, backend.URL)

	result, err := svc.Login(ctx, "admin", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.IsAdmin)

	// 角色存在服务端会话里，客户端声明不作数
	sess, err := sessions.Get(ctx, result.Token)
	require.NoError(t, err)
	assert.True(t, sess.IsAdmin())
	assert.Equal(t, "admin", sess.Username)
}

func TestLoginRegularUserIsNotAdmin(t *testing.T) {
	backend := fakeAuthBackend(t)
	defer backend.Close()
	svc, _ := newAuthService(t, backend.URL)

	result, err := svc.Login(context.Background(), "user1", "pass")
	require.NoError(t, err)
	assert.False(t, result.IsAdmin)
}

func TestLoginRejectedByBackend(t *testing.T) {
	backend := fakeAuthBackend(t)
	defer backend.Close()
	svc, _ := newAuthService(t, backend.URL)

	_, err := svc.Login(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogoutDestroysSession(t *testing.T) {
	backend := fakeAuthBackend(t)
	defer backend.Close()
	ctx := context.Background()
	svc, sessions := newAuthService(t, backend.URL)

	result, err := svc.Login(ctx, "user1", "pass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.Token))
	_, err = sessions.Get(ctx, result.Token)
	assert.Error(t, err)

	// 重复登出不是错误
	assert.NoError(t, svc.Logout(ctx, result.Token))
}

func TestOTPFlow(t *testing.T) {
	backend := fakeAuthBackend(t)
	defer backend.Close()
	ctx := context.Background()
	svc, _ := newAuthService(t, backend.URL)

	require.NoError(t, svc.SendOTP(ctx, "user1"))
	require.NoError(t, svc.VerifyOTP(ctx, "user1", "123456"))

	err := svc.VerifyOTP(ctx, "user1", "000000")
	assert.ErrorIs(t, err, domain.ErrOTPMismatch)
}

func TestForgotPassword(t *testing.T) {
	backend := fakeAuthBackend(t)
	defer backend.Close()
	svc, _ := newAuthService(t, backend.URL)

	assert.NoError(t, svc.ForgotPassword(context.Background(), "user1"))
}
