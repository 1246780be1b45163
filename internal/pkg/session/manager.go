// internal/pkg/session/manager.go
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"petshop/internal/pkg/kvstore"
)

const pathPrefix = "sessions/"

var (
	// ErrNotFound 表示会话不存在或已被登出。
	ErrNotFound = errors.New("session: not found")
	// ErrExpired 表示会话因长时间无操作被服务端判定过期。
	ErrExpired = errors.New("session: idle timeout exceeded")
)

// Session 是服务端持有的登录态。角色只存在于这里，客户端拿不到可以篡改的副本。
type Session struct {
	Token        string `json:"token"`
	Username     string `json:"username"`
	Role         int    `json:"role"` // 1 = 管理员，其余为普通用户
	LastActivity int64  `json:"lastActivity"` // epoch millis，空闲登出用
	CreatedAt    int64  `json:"createdAt"`
}

// IsAdmin 判断会话是否具有管理员权限。
func (s *Session) IsAdmin() bool {
	return s.Role == 1
}

// Manager 基于键值存储维护会话，并在每次访问时执行空闲超时检查。
type Manager struct {
	store       kvstore.Store
	idleTimeout time.Duration
	now         func() time.Time
}

func NewManager(store kvstore.Store, idleTimeout time.Duration) *Manager {
	return &Manager{store: store, idleTimeout: idleTimeout, now: time.Now}
}

// Create 为登录成功的用户创建一个新会话，返回会话令牌。
func (m *Manager) Create(ctx context.Context, username string, role int) (*Session, error) {
	nowMs := m.now().UnixMilli()
	sess := &Session{
		Token:        uuid.New().String(),
		Username:     username,
		Role:         role,
		LastActivity: nowMs,
		CreatedAt:    nowMs,
	}
	if err := m.store.Set(ctx, pathPrefix+sess.Token, sess); err != nil {
		return nil, errors.Wrap(err, "failed to persist session")
	}
	return sess, nil
}

// Get 读取并续期一个会话。超过空闲窗口的会话会被删除并返回 ErrExpired。
func (m *Manager) Get(ctx context.Context, token string) (*Session, error) {
	var sess Session
	err := m.store.Get(ctx, pathPrefix+token, &sess)
	if err == kvstore.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	idle := m.now().Sub(time.UnixMilli(sess.LastActivity))
	if idle > m.idleTimeout {
		// 自动登出：删除失败不影响判定，下一次访问仍然会过期
		_ = m.store.Remove(ctx, pathPrefix+token)
		return nil, ErrExpired
	}

	sess.LastActivity = m.now().UnixMilli()
	if err := m.store.Update(ctx, pathPrefix+token, map[string]interface{}{
		"lastActivity": sess.LastActivity,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to touch session")
	}
	return &sess, nil
}

// Destroy 登出，删除不存在的会话不是错误。
func (m *Manager) Destroy(ctx context.Context, token string) error {
	return m.store.Remove(ctx, pathPrefix+token)
}
