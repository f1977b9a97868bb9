package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const pollOffsetKeyPrefix = "accessgate:poll:offset:"

// OffsetStore persists the last acknowledged provider offset of each branch across restarts.
type OffsetStore struct {
	client *redis.Client
}

func NewOffsetStore(client *redis.Client) *OffsetStore {
	return &OffsetStore{client: client}
}

func (s *OffsetStore) key(branchID string) string {
	return pollOffsetKeyPrefix + branchID
}

// GetOffset returns the last saved offset, or 0 if not found.
func (s *OffsetStore) GetOffset(ctx context.Context, branchID string) (int64, error) {
	val, err := s.client.Get(ctx, s.key(branchID)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get poll offset: %w", err)
	}

	offset, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse poll offset: %w", err)
	}
	return offset, nil
}

// SaveOffset persists the acknowledged offset. Offsets never move backwards.
func (s *OffsetStore) SaveOffset(ctx context.Context, branchID string, offset int64) error {
	current, err := s.GetOffset(ctx, branchID)
	if err != nil {
		return err
	}
	if offset <= current {
		return nil
	}
	if err := s.client.Set(ctx, s.key(branchID), strconv.FormatInt(offset, 10), 0).Err(); err != nil {
		return fmt.Errorf("failed to save poll offset: %w", err)
	}
	return nil
}
