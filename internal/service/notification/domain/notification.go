// internal/service/notification/domain/notification.go
package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Notification 用户站内通知。读状态在服务端维护，
// 多端登录时以服务端为准同步。
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	OrderID   string    `json:"orderId,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationStore 定义通知的读写接口
type NotificationStore interface {
	Append(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID string) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
}
