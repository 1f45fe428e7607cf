package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients backs the websocket hub's fan-out. ChatService publishes one
// exchange per reply on Publish, while the hub parks one SUBSCRIBE per watched
// phone on PubSub. Keeping them apart means a burst of watchers never starves
// the /chat request path of connections.
type RedisClients struct {
	Publish *redis.Client
	PubSub  *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	publishOpt := *opt
	publishOpt.ClientName = "chat-relay:publish"
	publishClient := redis.NewClient(&publishOpt)
	if err := publishClient.Ping(ctx).Err(); err != nil {
		publishClient.Close()
		return nil, fmt.Errorf("failed to ping Redis (exchange publisher): %w", err)
	}

	subscribeOpt := *opt
	subscribeOpt.ClientName = "chat-relay:subscribe"
	pubsubClient := redis.NewClient(&subscribeOpt)
	if err := pubsubClient.Ping(ctx).Err(); err != nil {
		publishClient.Close()
		pubsubClient.Close()
		return nil, fmt.Errorf("failed to ping Redis (hub subscriber): %w", err)
	}

	return &RedisClients{
		Publish: publishClient,
		PubSub:  pubsubClient,
	}, nil
}

func (r *RedisClients) Close() {
	r.Publish.Close()
	r.PubSub.Close()
}
