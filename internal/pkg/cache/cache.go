package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/StorePlanHQ/StorePlan/internal/pkg/env"
	"github.com/redis/go-redis/v9"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache initializes the connection to the Redis cache server
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	// Test the connection
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Printf("Warning: Could not connect to Redis cache: %v", err)
	} else {
		log.Printf("Successfully connected to Redis cache: %s", pong)
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// Set stores a value in the cache with the given key and expiration time
func Set(key string, value interface{}, expiration time.Duration) error {
	return GetClient().Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value from the cache by key
func Get(key string) (string, error) {
	return GetClient().Get(ctx, key).Result()
}

// Delete removes a value from the cache by key
func Delete(key string) error {
	return GetClient().Del(ctx, key).Err()
}

// SubscriptionSyncKey is the per-shop key throttling pull-path calls to
// the billing platform.
func SubscriptionSyncKey(shopDomain string) string {
	return fmt.Sprintf("billing:sync:%s", shopDomain)
}

// MarkSubscriptionSynced records that a pull-path sync ran for the shop,
// suppressing further remote queries for the given window.
func MarkSubscriptionSynced(shopDomain string, window time.Duration) {
	if err := Set(SubscriptionSyncKey(shopDomain), time.Now().UTC().Format(time.RFC3339), window); err != nil {
		log.Printf("Failed to mark subscription sync for %s: %v", shopDomain, err)
	}
}

// SubscriptionRecentlySynced reports whether a pull-path sync ran for the
// shop inside the throttle window. Cache errors count as not synced so a
// cache outage never blocks reconciliation.
func SubscriptionRecentlySynced(shopDomain string) bool {
	_, err := Get(SubscriptionSyncKey(shopDomain))
	return err == nil
}
