// internal/pkg/kvstore/redis_store.go
package kvstore

import (
	"context"
	"encoding/json"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"petshop/internal/pkg/logger"
	pkgredis "petshop/internal/pkg/redis"
)

const (
	keyPrefix     = "kv:"
	channelPrefix = "kvevents:"
)

// RedisStore 是 Store 的 Redis 实现。
// 值按 JSON 字符串存储，变更事件通过 pub/sub 广播，订阅端用模式订阅按前缀过滤。
type RedisStore struct {
	client *pkgredis.Client
}

func NewRedisStore(client *pkgredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, path string, dest interface{}) error {
	raw, err := s.client.GetClient().Get(ctx, keyPrefix+path).Bytes()
	if err == goredis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (s *RedisStore) Set(ctx context.Context, path string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.client.GetClient().Set(ctx, keyPrefix+path, raw, 0).Err(); err != nil {
		return err
	}
	s.publish(ctx, Event{Kind: EventSet, Path: path, Value: raw})
	return nil
}

func (s *RedisStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	current := map[string]interface{}{}
	if err := s.Get(ctx, path, &current); err != nil && err != ErrNotFound {
		return err
	}
	for k, v := range fields {
		current[k] = v
	}
	return s.Set(ctx, path, current)
}

func (s *RedisStore) Remove(ctx context.Context, path string) error {
	if err := s.client.GetClient().Del(ctx, keyPrefix+path).Err(); err != nil {
		return err
	}
	s.publish(ctx, Event{Kind: EventRemove, Path: path})
	return nil
}

func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	iter := s.client.GetClient().Scan(ctx, 0, keyPrefix+prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		paths = append(paths, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	return paths, iter.Err()
}

func (s *RedisStore) Subscribe(ctx context.Context, prefix string) (<-chan Event, error) {
	sub := s.client.GetClient().PSubscribe(ctx, channelPrefix+prefix+"*")
	// 确认订阅建立后再返回，避免调用方丢失紧随其后的事件
	if _, err := sub.Receive(ctx); err != nil {
		return nil, err
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.Ctx(ctx).Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed kv event")
					continue
				}
				out <- ev
			}
		}
	}()
	return out, nil
}

func (s *RedisStore) publish(ctx context.Context, ev Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.client.GetClient().Publish(ctx, channelPrefix+ev.Path, raw).Err(); err != nil {
		// 事件广播是尽力而为，失败只记日志，不影响写入本身
		logger.Ctx(ctx).Warn().Err(err).Str("path", ev.Path).Msg("failed to publish kv event")
	}
}
