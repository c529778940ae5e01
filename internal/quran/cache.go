package quran

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/franz/hifz/internal/util"
)

// DefaultCatalogTTL is how long a cached catalog stays fresh
const DefaultCatalogTTL = 24 * time.Hour

// CatalogCache provides database-backed caching for catalog lookups so the
// app can browse translations and reciters offline once fetched.
type CatalogCache struct {
	db     *sql.DB
	client *Client
	ttl    time.Duration
}

// NewCatalogCache creates a cache over the given database and client.
// A zero ttl selects DefaultCatalogTTL.
func NewCatalogCache(db *sql.DB, client *Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogCache{db: db, client: client, ttl: ttl}
}

// Translations returns the translation catalog, from cache when fresh
func (c *CatalogCache) Translations(ctx context.Context) ([]TranslationInfo, error) {
	var cached []TranslationInfo
	if ok, _ := c.getFresh("translations", &cached); ok {
		util.DebugLog("Catalog cache hit: translations (%d entries)", len(cached))
		return cached, nil
	}

	list, err := c.client.FetchTranslationCatalog(ctx)
	if err != nil {
		// A stale cache is still better than nothing when offline
		if ok, _ := c.getAny("translations", &cached); ok {
			util.WarnLog("Catalog fetch failed, serving stale translations cache: %v", err)
			return cached, nil
		}
		return nil, err
	}

	c.put("translations", list)
	return list, nil
}

// Reciters returns the reciter catalog, from cache when fresh
func (c *CatalogCache) Reciters(ctx context.Context) ([]Reciter, error) {
	var cached []Reciter
	if ok, _ := c.getFresh("reciters", &cached); ok {
		util.DebugLog("Catalog cache hit: reciters (%d entries)", len(cached))
		return cached, nil
	}

	list, err := c.client.FetchReciterCatalog(ctx)
	if err != nil {
		if ok, _ := c.getAny("reciters", &cached); ok {
			util.WarnLog("Catalog fetch failed, serving stale reciters cache: %v", err)
			return cached, nil
		}
		return nil, err
	}

	c.put("reciters", list)
	return list, nil
}

// Clear removes all cached catalogs
func (c *CatalogCache) Clear() error {
	_, err := c.db.Exec("DELETE FROM catalog_cache")
	return err
}

func (c *CatalogCache) getFresh(catalog string, out any) (bool, error) {
	return c.get(catalog, out, true)
}

func (c *CatalogCache) getAny(catalog string, out any) (bool, error) {
	return c.get(catalog, out, false)
}

func (c *CatalogCache) get(catalog string, out any, freshOnly bool) (bool, error) {
	var payload string
	var cachedAt time.Time
	err := c.db.QueryRow(`
		SELECT payload, cached_at FROM catalog_cache WHERE catalog = ?
	`, catalog).Scan(&payload, &cachedAt)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query catalog cache: %w", err)
	}

	if freshOnly && time.Since(cachedAt) > c.ttl {
		return false, nil
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("%w: corrupt catalog cache entry: %v", util.ErrDecode, err)
	}

	return true, nil
}

func (c *CatalogCache) put(catalog string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		util.WarnLog("Failed to encode %s catalog for cache: %v", catalog, err)
		return
	}

	_, err = c.db.Exec(`
		INSERT INTO catalog_cache (catalog, payload, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT(catalog) DO UPDATE SET
			payload = excluded.payload,
			cached_at = excluded.cached_at
	`, catalog, string(payload), time.Now())
	if err != nil {
		// Caching is best-effort; the fetched result is still returned
		util.WarnLog("Failed to cache %s catalog: %v", catalog, err)
	}
}
