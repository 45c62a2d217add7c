package nullifier

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"partyreg/pkg/platform/sentinel"
)

const keyPrefix = "partyreg:nullifier:"

// Redis persists consumed nullifiers so replay protection survives restarts
// and is shared across replicas. SETNX gives first-writer-wins semantics.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Consume(ctx context.Context, nullifierHash string) error {
	// No expiry: a nullifier is burned forever.
	ok, err := s.client.SetNX(ctx, keyPrefix+nullifierHash, "1", 0).Result()
	if err != nil {
		return fmt.Errorf("consume nullifier: %w", err)
	}
	if !ok {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Redis) Used(ctx context.Context, nullifierHash string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+nullifierHash).Result()
	if err != nil {
		return false, fmt.Errorf("check nullifier: %w", err)
	}
	return n > 0, nil
}
