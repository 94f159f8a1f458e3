package redis

import (
	"context"
	"fmt"
	"time"
)

// Cooldown suppresses repeated events for a fixed window, backed by
// Redis SET NX so multiple processes share the same window. With Redis
// disabled every acquire succeeds, which keeps single-process setups
// working without infrastructure.
type Cooldown struct {
	client *Client
	prefix string
}

// NewCooldown creates a new cooldown helper
func NewCooldown(client *Client, prefix string) *Cooldown {
	return &Cooldown{
		client: client,
		prefix: prefix,
	}
}

// Acquire returns true when the key was not in cooldown and marks it
// for the given window. Returns false while the window is active.
func (c *Cooldown) Acquire(ctx context.Context, key string, window time.Duration) (bool, error) {
	if !c.client.Enabled() {
		return true, nil
	}

	fullKey := fmt.Sprintf("%s:cooldown:%s", c.prefix, key)
	ok, err := c.client.Redis().SetNX(ctx, fullKey, time.Now().Unix(), window).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown acquire failed: %w", err)
	}

	return ok, nil
}

// Clear drops an active cooldown so the next Acquire succeeds.
func (c *Cooldown) Clear(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	fullKey := fmt.Sprintf("%s:cooldown:%s", c.prefix, key)
	return c.client.Redis().Del(ctx, fullKey).Err()
}
