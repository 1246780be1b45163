// internal/service/catalog/infrastructure/review_store.go
package infrastructure

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"petshop/internal/pkg/kvstore"
	"petshop/internal/pkg/logger"
	"petshop/internal/service/catalog/domain"
)

// KvReviewStore 把商品评价存在键值存储的 reviews/{productId}/{id} 路径下
type KvReviewStore struct {
	store kvstore.Store
}

func NewKvReviewStore(store kvstore.Store) *KvReviewStore {
	return &KvReviewStore{store: store}
}

func (s *KvReviewStore) Append(ctx context.Context, review *domain.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	path := fmt.Sprintf("reviews/%s/%s", review.ProductID, review.ID)
	return errors.Wrap(s.store.Set(ctx, path, review), "failed to store review")
}

func (s *KvReviewStore) ListByProduct(ctx context.Context, productID string) ([]*domain.Review, error) {
	prefix := fmt.Sprintf("reviews/%s/", productID)
	keys, err := s.store.Keys(ctx, prefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list review keys")
	}

	reviews := make([]*domain.Review, 0, len(keys))
	for _, key := range keys {
		var review domain.Review
		if err := s.store.Get(ctx, key, &review); err != nil {
			if errors.Is(err, kvstore.ErrNotFound) {
				continue // 列举与读取之间被删了
			}
			logger.Ctx(ctx).Warn().Err(err).Str("path", key).Msg("skipping unreadable review")
			continue
		}
		reviews = append(reviews, &review)
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}
