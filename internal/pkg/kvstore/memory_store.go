// internal/pkg/kvstore/memory_store.go
package kvstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// MemoryStore 是 Store 的进程内实现，语义与 RedisStore 对齐，单元测试用。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	subs []*memorySub
}

type memorySub struct {
	prefix string
	ch     chan Event
	done   <-chan struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, path string, dest interface{}) error {
	s.mu.RLock()
	raw, ok := s.data[path]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (s *MemoryStore) Set(_ context.Context, path string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[path] = raw
	s.mu.Unlock()
	s.broadcast(Event{Kind: EventSet, Path: path, Value: raw})
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	current := map[string]interface{}{}
	if err := s.Get(ctx, path, &current); err != nil && err != ErrNotFound {
		return err
	}
	for k, v := range fields {
		current[k] = v
	}
	return s.Set(ctx, path, current)
}

func (s *MemoryStore) Remove(_ context.Context, path string) error {
	s.mu.Lock()
	delete(s.data, path)
	s.mu.Unlock()
	s.broadcast(Event{Kind: EventRemove, Path: path})
	return nil
}

func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var paths []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			paths = append(paths, k)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, prefix string) (<-chan Event, error) {
	sub := &memorySub{prefix: prefix, ch: make(chan Event, 16), done: ctx.Done()}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		for i, existing := range s.subs {
			if existing == sub {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		close(sub.ch)
	}()
	return sub.ch, nil
}

func (s *MemoryStore) broadcast(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if !strings.HasPrefix(ev.Path, sub.prefix) {
			continue
		}
		select {
		case sub.ch <- ev:
		case <-sub.done:
		default:
			// 慢消费者直接丢弃，行为与 pub/sub 的尽力而为语义一致
		}
	}
}
