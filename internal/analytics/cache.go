package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/durabrake/findash/internal/period"
)

// BumpChannel carries cache version bumps between the web and worker processes.
const BumpChannel = "snapshots.bump"

const (
	keyPrefix  = "analytics"
	versionKey = keyPrefix + ":version"
)

var errNoLoader = errors.New("analytics/cache: loader required")

// Loader derives a report on a cache miss.
type Loader func(context.Context) (interface{}, error)

// Cache stores derived reports in Redis under a global version number.
// Bumping the version orphans every entry at once; the TTL reaps them.
// A nil Cache or one without a client calls the loader every time.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns a cache writing entries with the given TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) disabled() bool { return c == nil || c.client == nil }

// Version returns the live version, seeding it at 1.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c.disabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		if err := c.client.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, fmt.Errorf("analytics/cache: seed version: %w", err)
		}
		return c.client.Get(ctx, versionKey).Int64()
	case err != nil:
		return 0, fmt.Errorf("analytics/cache: read version: %w", err)
	case ver < 1:
		if err := c.client.Set(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, fmt.Errorf("analytics/cache: reset version: %w", err)
		}
		return 1, nil
	}
	return ver, nil
}

// BuildKey joins parts and suffixes the live version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	base := strings.Join(parts, ":")
	if c.disabled() {
		return base, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return base + ":" + strconv.FormatInt(ver, 10), nil
}

// FetchJSON decodes the entry at key into dest, calling load and storing its
// JSON on a miss. Loader errors are returned unchanged and never cached.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest interface{}, load Loader) error {
	if load == nil {
		return errNoLoader
	}
	if !c.disabled() {
		raw, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(raw, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return fmt.Errorf("analytics/cache: get %s: %w", key, err)
		}
	}

	value, err := load(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("analytics/cache: encode %s: %w", key, err)
	}
	if !c.disabled() {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return fmt.Errorf("analytics/cache: set %s: %w", key, err)
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump increments the version and announces it on BumpChannel.
func (c *Cache) Bump(ctx context.Context) (int64, error) {
	if c.disabled() {
		return 0, nil
	}
	ver, err := c.client.Incr(ctx, versionKey).Result()
	if err != nil {
		return 0, fmt.Errorf("analytics/cache: bump: %w", err)
	}
	if err := c.client.Publish(ctx, BumpChannel, strconv.FormatInt(ver, 10)).Err(); err != nil {
		return ver, fmt.Errorf("analytics/cache: publish bump: %w", err)
	}
	return ver, nil
}

// ListenForInvalidation subscribes to channel (BumpChannel when empty) and
// fast-forwards the local version key whenever a peer publishes a newer one.
// It returns once the subscription is confirmed; the listener stops with ctx.
func (c *Cache) ListenForInvalidation(ctx context.Context, channel string) error {
	if c.disabled() {
		return nil
	}
	if channel == "" {
		channel = BumpChannel
	}
	sub := c.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("analytics/cache: subscribe %s: %w", channel, err)
	}
	go c.listen(ctx, sub)
	return nil
}

func (c *Cache) listen(ctx context.Context, sub *redis.PubSub) {
	defer sub.Close()
	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			c.adopt(ctx, msg.Payload)
		}
	}
}

// adopt applies a published version. Unparseable payloads force a bump.
func (c *Cache) adopt(ctx context.Context, payload string) {
	ver, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		_ = c.client.Incr(ctx, versionKey).Err()
		return
	}
	if current, _ := c.client.Get(ctx, versionKey).Int64(); ver > current {
		_ = c.client.Set(ctx, versionKey, ver, 0).Err()
	}
}

func keySection(section string, key period.Key) string {
	return keyPrefix + ":" + section + ":" + key.String()
}

func keyPeriods() string {
	return keyPrefix + ":periods"
}
