package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache key formats for fee data
const (
	FeeRecordKeyFmt  = "fee_records:%d"
	StructuresKey    = "fee_structures:list"
	CollectionsKey   = "reports:collection_summary"
	DuesKey          = "reports:dues"
	ModeBreakdownKey = "reports:mode_breakdown"
)

var client *redis.Client

// Init initializes the Redis connection. Reads are best-effort: the rest of
// the package degrades to a nil client and callers fall through to the DB.
func Init() error {
	host := os.Getenv("REDIS_SERVICE_HOST")
	if host == "" {
		host = "redis" // fallback to service name
	}
	port := os.Getenv("REDIS_SERVICE_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

// hashCredentials creates a hash of email+password for cache key
func hashCredentials(email, password string) string {
	h := sha256.New()
	h.Write([]byte(email + ":" + password))
	return "auth:" + hex.EncodeToString(h.Sum(nil))[:32]
}

// GetCachedAuth checks if credentials are cached and valid
func GetCachedAuth(ctx context.Context, email, password string) (int64, bool) {
	if client == nil {
		return 0, false
	}
	key := hashCredentials(email, password)
	userID, err := client.Get(ctx, key).Int64()
	if err != nil {
		return 0, false
	}
	return userID, true
}

// CacheAuth caches valid credentials for 15 minutes
func CacheAuth(ctx context.Context, email, password string, userID int64) {
	if client == nil {
		return
	}
	client.Set(ctx, hashCredentials(email, password), userID, 15*time.Minute)
}

// InvalidateAuth removes cached auth for a user (on password change/logout)
func InvalidateAuth(ctx context.Context, email, password string) {
	if client == nil {
		return
	}
	client.Del(ctx, hashCredentials(email, password))
}

// ============================================
// Generic Cache Functions
// ============================================

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidatePattern removes all keys matching a glob pattern
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		return
	}
	keys, err := client.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// ============================================
// Entity-Based Cache Invalidators
// ============================================

// FeeRecordKey is the cache key for one record's detail payload
func FeeRecordKey(recordID int) string {
	return fmt.Sprintf(FeeRecordKeyFmt, recordID)
}

// InvalidateFeeRecordCaches clears record and report caches.
// Called when: AssignStructure, RecordPayment, RecordRefund, Waive
func InvalidateFeeRecordCaches(ctx context.Context, recordID int) {
	InvalidatePattern(ctx, "fee_records:*")
	InvalidatePattern(ctx, "reports:*")
	if recordID > 0 {
		InvalidateKeys(ctx, FeeRecordKey(recordID))
	}
}

// InvalidateStructureCaches clears structure list caches.
// Called when: CreateStructure, ArchiveStructure
func InvalidateStructureCaches(ctx context.Context) {
	InvalidatePattern(ctx, "fee_structures:*")
}

// InvalidateMemberCaches clears member list caches.
// Called when: CreateMember, UpdateMember, DeleteMember
func InvalidateMemberCaches(ctx context.Context) {
	InvalidatePattern(ctx, "members:*")
	InvalidatePattern(ctx, "fee_records:*")
}

// InvalidateSettingCaches clears setting caches.
// Called when: UpdateSetting
func InvalidateSettingCaches(ctx context.Context) {
	InvalidatePattern(ctx, "settings:*")
}

// IsHealthy returns true if Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}
