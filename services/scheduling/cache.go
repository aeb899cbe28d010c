package scheduling

import (
	"context"
	"encoding/json"
	"time"

	"medislot/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// AvailabilityCache holds read copies of doctor availability tagged with the doctor
// version they were read at. Get errors are logged and treated as a miss.
type AvailabilityCache interface {
	Get(ctx context.Context, doctorID string) ([]models.DayAvailability, bool)
	// Set stores availability read at version unless the entry already holds that
	// version or a newer one, so a slow reader cannot overwrite a later write.
	Set(ctx context.Context, doctorID string, version int, availability []models.DayAvailability) error
	Invalidate(ctx context.Context, doctorID string)
}

// setIfNewer compares and writes in one step on the server.
var setIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

type redisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisAvailabilityCache returns a cache backed by client, or a no-op cache when
// client is nil.
func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) AvailabilityCache {
	if client == nil {
		return NoopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisAvailabilityCache{client: client, ttl: ttl, logger: logger}
}

func availabilityKey(doctorID string) string {
	return "availability:" + doctorID
}

func (c *redisAvailabilityCache) Get(ctx context.Context, doctorID string) ([]models.DayAvailability, bool) {
	raw, err := c.client.HGet(ctx, availabilityKey(doctorID), "data").Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("availability cache read failed", zap.String("doctorID", doctorID), zap.Error(err))
		}
		return nil, false
	}
	var availability []models.DayAvailability
	if err := json.Unmarshal(raw, &availability); err != nil {
		c.logger.Warn("availability cache entry corrupt", zap.String("doctorID", doctorID), zap.Error(err))
		return nil, false
	}
	return availability, true
}

func (c *redisAvailabilityCache) Set(ctx context.Context, doctorID string, version int, availability []models.DayAvailability) error {
	raw, err := json.Marshal(availability)
	if err != nil {
		return err
	}
	err = setIfNewer.Run(ctx, c.client, []string{availabilityKey(doctorID)}, version, raw, c.ttl.Milliseconds()).Err()
	if err != nil {
		c.logger.Warn("availability cache write failed", zap.String("doctorID", doctorID), zap.Error(err))
	}
	return err
}

func (c *redisAvailabilityCache) Invalidate(ctx context.Context, doctorID string) {
	if err := c.client.Del(ctx, availabilityKey(doctorID)).Err(); err != nil {
		c.logger.Warn("availability cache invalidation failed", zap.String("doctorID", doctorID), zap.Error(err))
	}
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]models.DayAvailability, bool) { return nil, false }
func (NoopCache) Set(context.Context, string, int, []models.DayAvailability) error {
	return nil
}
func (NoopCache) Invalidate(context.Context, string) {}
