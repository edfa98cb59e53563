package extract

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oncoweave/pipeline/pkg/common/logger"
	"github.com/oncoweave/pipeline/pkg/common/models"
	"github.com/redis/go-redis/v9"
)

// Cache keeps raw extraction results so resetting the ledger does not re-bill
// the model API for reports it has already seen. It is advisory: a nil Cache
// or an unreachable Redis simply means every report is extracted fresh.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(fileName string) string {
	return "extraction:" + fileName
}

func (c *Cache) Get(ctx context.Context, fileName string) (models.PathologyExtraction, bool) {
	if c == nil {
		return models.PathologyExtraction{}, false
	}
	raw, err := c.client.Get(ctx, cacheKey(fileName)).Result()
	if err != nil {
		return models.PathologyExtraction{}, false
	}
	var extraction models.PathologyExtraction
	if err := json.Unmarshal([]byte(raw), &extraction); err != nil {
		return models.PathologyExtraction{}, false
	}
	return extraction, true
}

func (c *Cache) Put(ctx context.Context, fileName string, extraction models.PathologyExtraction) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(extraction)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(fileName), raw, c.ttl).Err(); err != nil {
		logger.Log.WithError(err).WithField("file", fileName).Debug("Extraction cache write failed")
	}
}
