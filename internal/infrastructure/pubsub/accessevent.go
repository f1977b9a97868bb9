package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/shared/goroutine"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

const accessEventChannelPrefix = "accessgate:events:"

// AccessEventMessage is the JSON payload published for every processed door event.
type AccessEventMessage struct {
	EventID    string    `json:"event_id"`
	BranchID   string    `json:"branch_id"`
	EventType  string    `json:"event_type"`
	EventTime  time.Time `json:"event_time"`
	DeviceID   string    `json:"device_id"`
	DoorID     string    `json:"door_id,omitempty"`
	PersonID   string    `json:"person_id,omitempty"`
	MemberID   string    `json:"member_id,omitempty"`
	CardNo     string    `json:"card_no,omitempty"`
	PictureURL string    `json:"picture_url,omitempty"`
	Source     string    `json:"source"`
	InstanceID string    `json:"instance_id,omitempty"` // publishing instance
}

// AccessEventChannel returns the channel carrying events of one branch.
func AccessEventChannel(branchID string) string {
	return accessEventChannelPrefix + branchID
}

// RedisAccessEventBus publishes normalized access events to Redis Pub/Sub
// for attendance and dashboard subscribers.
type RedisAccessEventBus struct {
	client     *redis.Client
	logger     logger.Interface
	instanceID string
}

func NewRedisAccessEventBus(client *redis.Client, logger logger.Interface) *RedisAccessEventBus {
	return &RedisAccessEventBus{
		client:     client,
		logger:     logger,
		instanceID: uuid.NewString(),
	}
}

// HandleEvent implements the pipeline consumer contract. A publish failure is
// returned so the event is retried on redelivery.
func (b *RedisAccessEventBus) HandleEvent(ctx context.Context, event *accesscontrol.Event) error {
	msg := AccessEventMessage{
		EventID:    event.EventID(),
		BranchID:   event.BranchID(),
		EventType:  string(event.Type()),
		EventTime:  event.Time(),
		DeviceID:   event.DeviceID(),
		DoorID:     event.DoorID(),
		PersonID:   event.PersonID(),
		MemberID:   event.MemberID(),
		CardNo:     event.CardNo(),
		PictureURL: event.PictureURL(),
		Source:     string(event.Source()),
		InstanceID: b.instanceID,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal access event: %w", err)
	}

	if err := b.client.Publish(ctx, AccessEventChannel(msg.BranchID), data).Err(); err != nil {
		b.logger.Errorw("failed to publish access event",
			"event_id", msg.EventID,
			"branch_id", msg.BranchID,
			"error", err,
		)
		return fmt.Errorf("failed to publish access event: %w", err)
	}

	b.logger.Debugw("access event published to Redis",
		"event_id", msg.EventID,
		"branch_id", msg.BranchID,
		"event_type", msg.EventType,
	)
	return nil
}

// Subscribe delivers events of branchID to handler until ctx is cancelled,
// reconnecting with exponential backoff.
func (b *RedisAccessEventBus) Subscribe(ctx context.Context, branchID string, handler func(AccessEventMessage)) error {
	channel := AccessEventChannel(branchID)
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		err := b.subscribe(ctx, channel, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b.logger.Warnw("access event subscription disconnected, reconnecting",
			"channel", channel,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

func (b *RedisAccessEventBus) subscribe(ctx context.Context, channel string, handler func(AccessEventMessage)) error {
	sub := b.client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
	}

	b.logger.Infow("subscribed to access event channel", "channel", channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("access event channel closed", "channel", channel)
				return nil
			}

			var event AccessEventMessage
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warnw("failed to unmarshal access event",
					"payload", msg.Payload,
					"error", err,
				)
				continue
			}
			goroutine.SafeGo(b.logger, "access-event-handler-"+channel, func() {
				handler(event)
			})
		}
	}
}
