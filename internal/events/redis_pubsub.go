package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// resubscribeDelay paces reconnect attempts after Redis drops the
// subscription.
const resubscribeDelay = time.Second

// RedisPublisher fans simulation activity (clicks, challenges, completions)
// out over Redis pub/sub. Callers treat delivery as fire-and-forget: the
// dashboard feed is advisory and a dropped event must never block the click
// path.
type RedisPublisher struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisPublisher(client *redis.Client, log *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, stream string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	if err := p.client.Publish(ctx, stream, payload).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, stream, err)
	}
	return nil
}

// RedisSubscriber feeds the dashboard hub from a Redis pub/sub stream.
type RedisSubscriber struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisSubscriber(client *redis.Client, log *zap.Logger) *RedisSubscriber {
	return &RedisSubscriber{client: client, log: log}
}

// Subscribe consumes the stream until ctx is cancelled, invoking handler per
// decoded event. A dropped subscription is re-established after a short
// delay; events published while disconnected are lost, which the advisory
// feed tolerates. Malformed payloads are logged and skipped so one bad
// message cannot stall the feed.
func (s *RedisSubscriber) Subscribe(ctx context.Context, stream string, handler func(Event)) {
	go func() {
		for {
			pubsub := s.client.Subscribe(ctx, stream)
			s.drain(ctx, stream, pubsub.Channel(), handler)
			pubsub.Close()

			select {
			case <-ctx.Done():
				return
			case <-time.After(resubscribeDelay):
				s.log.Warn("activity feed subscription lost, resubscribing",
					zap.String("stream", stream))
			}
		}
	}()
}

func (s *RedisSubscriber) drain(ctx context.Context, stream string, ch <-chan *redis.Message, handler func(Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.log.Warn("dropping malformed activity event",
					zap.String("stream", stream), zap.Error(err))
				continue
			}
			handler(event)
		}
	}
}
