// internal/service/notification/application/service_test.go
package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop/internal/pkg/kvstore"
	"petshop/internal/service/notification/domain"
	"petshop/internal/service/notification/infrastructure"
)

func newTestService() *NotificationService {
	svc := NewNotificationService(infrastructure.NewKvNotificationStore(kvstore.NewMemoryStore()))
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestHandleOrderPlacedCreatesNotification(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	err := svc.HandleOrderPlaced(ctx, &OrderPlacedEvent{
		OrderID:     "ORD-u1-1",
		UserID:      "u1",
		FinalAmount: "1489567",
	})
	require.NoError(t, err)

	notifications, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "ORD-u1-1", notifications[0].OrderID)
	assert.False(t, notifications[0].Read)
	assert.Contains(t, notifications[0].Message, "ORD-u1-1")

	// 其他用户看不到
	other, err := svc.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	require.NoError(t, svc.HandleOrderPlaced(ctx, &OrderPlacedEvent{OrderID: "ORD-1", UserID: "u1"}))
	notifications, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	require.NoError(t, svc.MarkRead(ctx, "u1", notifications[0].ID))
	notifications, err = svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, notifications[0].Read)

	// 标记不存在的通知
	err = svc.MarkRead(ctx, "u1", "ghost")
	assert.ErrorIs(t, err, domain.ErrNotificationNotFound)
}

func TestMarkAllRead(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.HandleOrderPlaced(ctx, &OrderPlacedEvent{OrderID: "ORD-1", UserID: "u1"}))
	}
	require.NoError(t, svc.MarkAllRead(ctx, "u1"))

	notifications, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notifications, 3)
	for _, n := range notifications {
		assert.True(t, n.Read)
	}
}
