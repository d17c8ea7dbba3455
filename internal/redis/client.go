package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// EventChannel is the pub/sub channel carrying events addressed to one user.
func EventChannel(userID string) string {
	return fmt.Sprintf("events:%s", userID)
}

// ReminderThrottleKey holds the last reminder send time for a user and prompt kind.
func ReminderThrottleKey(userID, kind string) string {
	return fmt.Sprintf("throttle:reminder:%s:%s", userID, kind)
}

// APIRateLimitKey is the sliding-window set for per-user API limiting.
func APIRateLimitKey(userID string) string {
	return fmt.Sprintf("ratelimit:api:%s", userID)
}
