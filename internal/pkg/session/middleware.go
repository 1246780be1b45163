// internal/pkg/session/middleware.go
package session

import (
	"context"
	"net/http"
	"strings"

	"petshop/internal/pkg/logger"
)

type contextKey struct{}

// FromContext 取出中间件放进请求上下文的会话。
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*Session)
	return sess, ok
}

// RequireAuth 校验 Bearer 令牌并把会话注入请求上下文。
// 空闲超时由 Manager.Get 在服务端判定，客户端无法绕过。
func RequireAuth(mgr *Manager, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
		sess, err := mgr.Get(r.Context(), token)
		if err != nil {
			logger.Ctx(r.Context()).Info().Err(err).Msg("rejected request with invalid session")
			http.Error(w, "session invalid or expired", http.StatusUnauthorized)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, sess)))
	}
}

// RequireAdmin 在 RequireAuth 之上再校验服务端保存的角色。
// 角色只认服务端会话里的值，请求体或本地存储里的 role 字段不作数。
func RequireAdmin(mgr *Manager, next http.HandlerFunc) http.HandlerFunc {
	return RequireAuth(mgr, func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromContext(r.Context())
		if sess == nil || !sess.IsAdmin() {
			http.Error(w, "admin privilege required", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	// 旧客户端把令牌放在查询参数里
	return r.URL.Query().Get("token")
}
