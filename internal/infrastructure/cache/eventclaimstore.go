package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Format: accessgate:event:{event_id}
	eventClaimKeyPrefix = "accessgate:event:"

	claimPending = "pending"
	claimDone    = "done"
)

// EventClaimStore provides Redis-based cross-instance deduplication of provider events.
// A claim is "pending" while one worker processes the event and "done" afterwards.
type EventClaimStore struct {
	client *redis.Client
}

func NewEventClaimStore(client *redis.Client) *EventClaimStore {
	return &EventClaimStore{client: client}
}

func (s *EventClaimStore) key(eventID string) string {
	return eventClaimKeyPrefix + eventID
}

// claimScript sets a pending claim if the key is free. Otherwise it reports
// whether the holder already finished: 1 claimed, 2 done, 0 pending elsewhere.
var claimScript = redis.NewScript(`
if redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2]) then
	return 1
end
if redis.call("GET", KEYS[1]) == ARGV[3] then
	return 2
end
return 0
`)

// Claim atomically reserves eventID for processing. When the claim is lost,
// done tells a completed event apart from one another worker is still processing.
func (s *EventClaimStore) Claim(ctx context.Context, eventID string, ttl time.Duration) (claimed, done bool, err error) {
	ttlMillis := ttl.Milliseconds()
	if ttlMillis < 1 {
		ttlMillis = 1
	}
	res, err := claimScript.Run(ctx, s.client, []string{s.key(eventID)}, claimPending, ttlMillis, claimDone).Int()
	if err != nil {
		return false, false, fmt.Errorf("failed to claim event: %w", err)
	}
	return res == 1, res == 2, nil
}

// MarkDone records that eventID was fully processed; the key is kept for ttl.
func (s *EventClaimStore) MarkDone(ctx context.Context, eventID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(eventID), claimDone, ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark event done: %w", err)
	}
	return nil
}

// releaseScript deletes the claim only while it is still pending.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Release drops a pending claim so a redelivery can retry the event.
func (s *EventClaimStore) Release(ctx context.Context, eventID string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.key(eventID)}, claimPending).Err(); err != nil {
		return fmt.Errorf("failed to release event claim: %w", err)
	}
	return nil
}
