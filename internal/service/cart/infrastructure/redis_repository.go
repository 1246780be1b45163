// internal/service/cart/infrastructure/redis_repository.go
package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"petshop/internal/pkg/logger"
	pkgredis "petshop/internal/pkg/redis"
	"petshop/internal/service/cart/domain"
)

const cartMergeScriptName = "cart_merge"

// CartRedisRepository 把每个用户的购物车存成一个 Redis hash：
// key 是 cart:{userID}，field 是 productId，value 是整行的 JSON。
// 加购合并走 Lua 脚本，读-改-写在服务端一步完成，并发加购不会丢增量。
type CartRedisRepository struct {
	redisClient *pkgredis.Client
}

// NewCartRedisRepository 创建仓储实例，并加载合并脚本。
func NewCartRedisRepository(redisClient *pkgredis.Client) (*CartRedisRepository, error) {
	if err := redisClient.LoadScriptFromContent(cartMergeScriptName, cartMergeScript); err != nil {
		return nil, fmt.Errorf("failed to load cart merge script: %w", err)
	}
	return &CartRedisRepository{redisClient: redisClient}, nil
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:{%s}", userID)
}

func cartChannel(userID string) string {
	return fmt.Sprintf("cartevents:{%s}", userID)
}

func (r *CartRedisRepository) MergeLine(ctx context.Context, userID string, line domain.CartLine, delta int) (int, error) {
	if line.Quantity < 1 {
		line.Quantity = delta
	}
	raw, err := json.Marshal(line)
	if err != nil {
		return 0, err
	}

	keys := []string{cartKey(userID)}
	result, err := r.redisClient.RunScript(ctx, cartMergeScriptName, keys, line.ProductID, raw, delta)
	if err != nil {
		return 0, fmt.Errorf("cart merge script failed: %w", err)
	}
	quantity, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected result type from cart merge script: %T", result)
	}

	r.publishChange(ctx, userID)
	return int(quantity), nil
}

func (r *CartRedisRepository) SaveLine(ctx context.Context, userID string, line domain.CartLine) error {
	raw, err := json.Marshal(line)
	if err != nil {
		return err
	}
	if err := r.redisClient.GetClient().HSet(ctx, cartKey(userID), line.ProductID, raw).Err(); err != nil {
		return err
	}
	r.publishChange(ctx, userID)
	return nil
}

func (r *CartRedisRepository) GetLine(ctx context.Context, userID, productID string) (*domain.CartLine, error) {
	raw, err := r.redisClient.GetClient().HGet(ctx, cartKey(userID), productID).Bytes()
	if err == goredis.Nil {
		return nil, domain.ErrLineNotFound
	}
	if err != nil {
		return nil, err
	}
	var line domain.CartLine
	if err := json.Unmarshal(raw, &line); err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *CartRedisRepository) RemoveLine(ctx context.Context, userID, productID string) error {
	if err := r.redisClient.GetClient().HDel(ctx, cartKey(userID), productID).Err(); err != nil {
		return err
	}
	r.publishChange(ctx, userID)
	return nil
}

func (r *CartRedisRepository) Lines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	raw, err := r.redisClient.GetClient().HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	lines := make([]domain.CartLine, 0, len(raw))
	for _, v := range raw {
		var line domain.CartLine
		if err := json.Unmarshal([]byte(v), &line); err != nil {
			// 坏数据跳过而不是让整个购物车打不开
			logger.Ctx(ctx).Warn().Err(err).Str("user", userID).Msg("skipping malformed cart line")
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// publishChange 在用户的购物车频道上广播一次变更，其他会话可据此刷新。
// 尽力而为，失败只记日志。
func (r *CartRedisRepository) publishChange(ctx context.Context, userID string) {
	if err := r.redisClient.GetClient().Publish(ctx, cartChannel(userID), "changed").Err(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("user", userID).Msg("failed to publish cart change")
	}
}

var cartMergeScript = `
-- KEYS[1]: 购物车 hash 的 Key, 例如: cart:{user-1}
-- ARGV[1]: productId
-- ARGV[2]: 新建行时写入的整行 JSON
-- ARGV[3]: 合并的数量增量

local existing = redis.call('HGET', KEYS[1], ARGV[1])
if existing then
    local line = cjson.decode(existing)
    line['quantity'] = line['quantity'] + tonumber(ARGV[3])
    redis.call('HSET', KEYS[1], ARGV[1], cjson.encode(line))
    return line['quantity']
end

redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
local line = cjson.decode(ARGV[2])
return line['quantity']
`
