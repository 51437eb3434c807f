// Package cache short-circuits unchanged provider payloads. Losing the
// cache is always safe: the detector diffs against persisted state, so an
// unnecessary re-process emits no events.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchside/internal/models"
)

// SnapshotCache remembers the hash of the last processed snapshot per
// match so the poller can skip the store round-trip when nothing changed.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

// Hash produces a stable digest of a normalized snapshot.
func Hash(snap models.MatchSnapshot) string {
	payload, err := json.Marshal(snap)
	if err != nil {
		// Marshaling a plain struct cannot fail in practice; an empty hash
		// just disables the short-circuit for this item.
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func key(externalID string) string {
	return fmt.Sprintf("snapshot:hash:%s", externalID)
}

// Unchanged reports whether the cached hash for the match equals hash.
// Redis errors degrade to "changed" so the pipeline keeps moving.
func (c *SnapshotCache) Unchanged(ctx context.Context, externalID, hash string) bool {
	if c == nil || hash == "" {
		return false
	}
	cached, err := c.client.Get(ctx, key(externalID)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("snapshot cache read failed")
		}
		return false
	}
	return cached == hash
}

// Remember stores the hash of a processed snapshot.
func (c *SnapshotCache) Remember(ctx context.Context, externalID, hash string) {
	if c == nil || hash == "" {
		return
	}
	if err := c.client.Set(ctx, key(externalID), hash, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("snapshot cache write failed")
	}
}
