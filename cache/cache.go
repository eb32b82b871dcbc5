package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/qitt/qitt-backend/pkg/metrics"
)

// Freshness window after which an entry is treated as absent.
const CacheDuration = 5 * time.Minute

// Cache categories mirror the per-user library data sets.
const (
	CategorySavedMaterials = "saved_materials"
	CategoryUserUploads    = "user_uploads"
	CategoryUploadsToday   = "uploads_today"
	CategoryDailyLimit     = "daily_limit"
)

var categories = []string{
	CategorySavedMaterials,
	CategoryUserUploads,
	CategoryUploadsToday,
	CategoryDailyLimit,
}

const keyPrefix = "qitt_"

type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // unix millis at capture
}

// LibraryCache is a key-prefixed read-through cache over a KV store. Entries
// older than CacheDuration, and entries that fail to decode, are treated as
// misses. Keys are namespaced per user so sessions never collide.
type LibraryCache struct {
	kv  KV
	now func() time.Time
}

func NewLibraryCache(kv KV) *LibraryCache {
	return &LibraryCache{kv: kv, now: time.Now}
}

func Key(userID, category string) string {
	return keyPrefix + category + "_" + userID
}

// Get decodes a fresh entry into out and reports whether one was found.
func (c *LibraryCache) Get(ctx context.Context, userID, category string, out any) bool {
	raw, err := c.kv.Get(ctx, Key(userID, category))
	if err != nil {
		metrics.CacheLookupsTotal.WithLabelValues(category, "miss").Inc()
		return false
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		metrics.CacheLookupsTotal.WithLabelValues(category, "miss").Inc()
		return false
	}

	age := c.now().UnixMilli() - env.Timestamp
	if age > CacheDuration.Milliseconds() {
		_ = c.kv.Del(ctx, Key(userID, category))
		metrics.CacheLookupsTotal.WithLabelValues(category, "expired").Inc()
		return false
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		metrics.CacheLookupsTotal.WithLabelValues(category, "miss").Inc()
		return false
	}
	metrics.CacheLookupsTotal.WithLabelValues(category, "hit").Inc()
	return true
}

// Set is best effort: a failed write only costs the next reader a fetch.
func (c *LibraryCache) Set(ctx context.Context, userID, category string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	env := envelope{Data: data, Timestamp: c.now().UnixMilli()}
	raw, err := json.Marshal(env)
	if err != nil {
		return
	}
	_ = c.kv.Set(ctx, Key(userID, category), string(raw), CacheDuration)
}

func (c *LibraryCache) Delete(ctx context.Context, userID, category string) {
	_ = c.kv.Del(ctx, Key(userID, category))
}

// Clear drops every cached category for the user.
func (c *LibraryCache) Clear(ctx context.Context, userID string) {
	keys := make([]string, 0, len(categories))
	for _, cat := range categories {
		keys = append(keys, Key(userID, cat))
	}
	_ = c.kv.Del(ctx, keys...)
}
