package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/meeting-copilot/internal/usecase/copilot"
)

// RedisPublisher broadcasts events on the meeting's pub/sub channel
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Channel is the pub/sub channel of a meeting
func Channel(event copilot.Event) string {
	return "meeting_" + event.MeetingID.String()
}

func (p *RedisPublisher) Publish(ctx context.Context, event copilot.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, Channel(event), data).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}
