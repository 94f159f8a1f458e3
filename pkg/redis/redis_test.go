package redis

import (
	"context"
	"testing"
	"time"

	"github.com/newer-zhu/investment/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestCooldown_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	cooldown := NewCooldown(client, "test")

	// When Redis is disabled, every acquire succeeds
	for i := 0; i < 3; i++ {
		ok, err := cooldown.Acquire(context.Background(), "stop_loss:600000", time.Minute)
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if !ok {
			t.Error("Expected acquire to succeed when Redis disabled")
		}
	}
}

func TestCache_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	cache := NewCache(client, "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(context.Background(), "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "DatasetKey",
			fn:       func() string { return DatasetKey("20240105") },
			expected: "dataset:20240105",
		},
		{
			name:     "DatesKey",
			fn:       func() string { return DatesKey() },
			expected: "dates",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
