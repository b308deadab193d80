package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amisra31/localpick-market-demo-sub001/internal/config"
	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
)

// Redis key patterns:
// {prefix}:user:{user_id}            STRING<role>    - online marker, TTL'd
// {prefix}:shop:{shop_id}:online     SET<user_id>    - merchants online per shop

type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed presence store.
func NewRedisStore(cfg config.RedisConfig) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &redisStore{
		client: client,
		prefix: cfg.PresencePrefix,
		ttl:    cfg.PresenceTTL,
	}, nil
}

func (s *redisStore) userKey(userID string) string {
	return fmt.Sprintf("%s:user:%s", s.prefix, userID)
}

func (s *redisStore) shopKey(shopID string) string {
	return fmt.Sprintf("%s:shop:%s:online", s.prefix, shopID)
}

func (s *redisStore) Connect(ctx context.Context, userID string, role domain.Role, shopID *string) error {
	if err := s.client.Set(ctx, s.userKey(userID), string(role), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark user online: %w", err)
	}

	if role == domain.RoleMerchant && shopID != nil {
		key := s.shopKey(*shopID)
		if err := s.client.SAdd(ctx, key, userID).Err(); err != nil {
			return fmt.Errorf("failed to add merchant to shop set: %w", err)
		}
		s.client.Expire(ctx, key, s.ttl)
	}

	return nil
}

func (s *redisStore) Disconnect(ctx context.Context, userID string, role domain.Role, shopID *string) error {
	if err := s.client.Del(ctx, s.userKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear user online marker: %w", err)
	}

	if role == domain.RoleMerchant && shopID != nil {
		if err := s.client.SRem(ctx, s.shopKey(*shopID), userID).Err(); err != nil {
			return fmt.Errorf("failed to remove merchant from shop set: %w", err)
		}
	}

	return nil
}

func (s *redisStore) OnlineForShop(ctx context.Context, shopID string) ([]string, error) {
	users, err := s.client.SMembers(ctx, s.shopKey(shopID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read shop presence: %w", err)
	}
	return users, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
