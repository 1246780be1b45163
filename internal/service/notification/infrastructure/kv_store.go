// internal/service/notification/infrastructure/kv_store.go
package infrastructure

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"petshop/internal/pkg/kvstore"
	"petshop/internal/pkg/logger"
	"petshop/internal/service/notification/domain"
)

// KvNotificationStore 把通知存在键值存储的 notifications/{userID}/{id} 路径下。
// 写入会触发存储层的变更事件，推送网关订阅这些事件做实时下发。
type KvNotificationStore struct {
	store kvstore.Store
}

func NewKvNotificationStore(store kvstore.Store) *KvNotificationStore {
	return &KvNotificationStore{store: store}
}

func notificationPath(userID, id string) string {
	return fmt.Sprintf("notifications/%s/%s", userID, id)
}

func (s *KvNotificationStore) Append(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return errors.Wrap(s.store.Set(ctx, notificationPath(n.UserID, n.ID), n), "failed to store notification")
}

func (s *KvNotificationStore) ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	prefix := fmt.Sprintf("notifications/%s/", userID)
	keys, err := s.store.Keys(ctx, prefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notification keys")
	}

	notifications := make([]*domain.Notification, 0, len(keys))
	for _, key := range keys {
		var n domain.Notification
		if err := s.store.Get(ctx, key, &n); err != nil {
			if errors.Is(err, kvstore.ErrNotFound) {
				continue
			}
			logger.Ctx(ctx).Warn().Err(err).Str("path", key).Msg("skipping unreadable notification")
			continue
		}
		notifications = append(notifications, &n)
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

// MarkRead 只改 read 字段，不整体覆盖，避免并发写丢字段
func (s *KvNotificationStore) MarkRead(ctx context.Context, userID, id string) error {
	path := notificationPath(userID, id)
	var n domain.Notification
	if err := s.store.Get(ctx, path, &n); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return domain.ErrNotificationNotFound
		}
		return errors.Wrap(err, "failed to load notification")
	}
	return errors.Wrap(s.store.Update(ctx, path, map[string]interface{}{"read": true}), "failed to mark notification read")
}

func (s *KvNotificationStore) MarkAllRead(ctx context.Context, userID string) error {
	notifications, err := s.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, n := range notifications {
		if n.Read {
			continue
		}
		if err := s.store.Update(ctx, notificationPath(userID, n.ID), map[string]interface{}{"read": true}); err != nil {
			return errors.Wrap(err, "failed to mark notification read")
		}
	}
	return nil
}
