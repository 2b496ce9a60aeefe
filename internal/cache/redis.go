package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type Cache struct {
	client *redis.Client
}

func New(redisAddr string, db int) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   db,
	})

	return &Cache{
		client: client,
	}
}

// Set stores a key-value pair with an expiration time
func (c *Cache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value by key
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

// Delete removes a key from the cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Rolling withdrawal totals, one key per user per calendar day and month.
// These feed dashboards and the limits-usage endpoint cheaply; limit
// enforcement itself always sums the transaction log, which stays
// authoritative.

func dailyWithdrawalKey(userID string, t time.Time) string {
	return fmt.Sprintf("withdrawals:daily:%s:%s", userID, t.UTC().Format("2006-01-02"))
}

func monthlyWithdrawalKey(userID string, t time.Time) string {
	return fmt.Sprintf("withdrawals:monthly:%s:%s", userID, t.UTC().Format("2006-01"))
}

func (c *Cache) TrackWithdrawal(ctx context.Context, userID string, amount decimal.Decimal) error {
	now := time.Now()
	value, _ := amount.Float64()

	dailyKey := dailyWithdrawalKey(userID, now)
	if err := c.client.IncrByFloat(ctx, dailyKey, value).Err(); err != nil {
		return fmt.Errorf("failed to track daily withdrawal: %w", err)
	}
	if err := c.client.Expire(ctx, dailyKey, 48*time.Hour).Err(); err != nil {
		return err
	}

	monthlyKey := monthlyWithdrawalKey(userID, now)
	if err := c.client.IncrByFloat(ctx, monthlyKey, value).Err(); err != nil {
		return fmt.Errorf("failed to track monthly withdrawal: %w", err)
	}
	return c.client.Expire(ctx, monthlyKey, 62*24*time.Hour).Err()
}

func (c *Cache) DailyWithdrawalTotal(ctx context.Context, userID string) (decimal.Decimal, error) {
	return c.withdrawalTotal(ctx, dailyWithdrawalKey(userID, time.Now()))
}

func (c *Cache) MonthlyWithdrawalTotal(ctx context.Context, userID string) (decimal.Decimal, error) {
	return c.withdrawalTotal(ctx, monthlyWithdrawalKey(userID, time.Now()))
}

func (c *Cache) withdrawalTotal(ctx context.Context, key string) (decimal.Decimal, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	total, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
