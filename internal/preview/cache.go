package preview

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	docKeyPrefix = "preview:doc:" // preview:doc:{project_public_id}
	docTTL       = 24 * time.Hour
)

// Cache keeps the most recently rendered document per project in Redis,
// keyed by fingerprint: a Get with a different fingerprint is a miss and the
// stale entry is simply overwritten by the next Put. A nil client disables
// caching, every lookup misses.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

type cachedDoc struct {
	Fingerprint string `json:"fingerprint"`
	EntryFile   string `json:"entry_file"`
	HTML        string `json:"html"`
}

// Get returns the cached document for the project if its fingerprint still
// matches the current file-set state. Cache errors degrade to a miss.
func (c *Cache) Get(ctx context.Context, projectID, fingerprint string) (*Document, bool) {
	if c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, docKeyPrefix+projectID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[warn] preview cache get project=%s: %v", projectID, err)
		}
		return nil, false
	}

	var doc cachedDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, false
	}
	if doc.Fingerprint != fingerprint {
		return nil, false
	}
	return &Document{HTML: doc.HTML, EntryFile: doc.EntryFile, Fingerprint: doc.Fingerprint}, true
}

// Put stores the freshly rendered document, replacing whatever was there.
func (c *Cache) Put(ctx context.Context, projectID string, doc *Document) {
	if c.client == nil {
		return
	}

	data, err := json.Marshal(cachedDoc{
		Fingerprint: doc.Fingerprint,
		EntryFile:   doc.EntryFile,
		HTML:        doc.HTML,
	})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, docKeyPrefix+projectID, data, docTTL).Err(); err != nil {
		log.Printf("[warn] preview cache put project=%s: %v", projectID, err)
	}
}

// Invalidate drops the cached document, used when the project is deleted.
func (c *Cache) Invalidate(ctx context.Context, projectID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, docKeyPrefix+projectID).Err(); err != nil {
		log.Printf("[warn] preview cache del project=%s: %v", projectID, err)
	}
}
