package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Cache is a TTL key/value store for remote responses. Payloads are stored
// zstd-compressed; GitHub commit listings compress well.
type Cache struct {
	db *DB

	codecOnce sync.Once
	codecErr  error
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
}

// NewCache creates a new cache instance
func NewCache(db *DB) *Cache {
	return &Cache{db: db}
}

func (c *Cache) codec() error {
	c.codecOnce.Do(func() {
		c.encoder, c.codecErr = zstd.NewWriter(nil)
		if c.codecErr != nil {
			return
		}
		c.decoder, c.codecErr = zstd.NewReader(nil)
	})
	return c.codecErr
}

// Get retrieves a payload. Expired entries are deleted and reported as misses.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	if err := c.codec(); err != nil {
		return nil, false, err
	}

	var payload []byte
	var expiresAt int64
	err := c.db.QueryRow(`
		SELECT payload, expires_at FROM commit_cache WHERE key = ?
	`, key).Scan(&payload, &expiresAt)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup failed: %w", err)
	}

	if time.Now().Unix() >= expiresAt {
		_, _ = c.db.Exec("DELETE FROM commit_cache WHERE key = ?", key)
		return nil, false, nil
	}

	data, err := c.decoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry %q: %w", key, err)
	}
	return data, true, nil
}

// Set stores a payload for ttl.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.codec(); err != nil {
		return err
	}

	now := time.Now()
	compressed := c.encoder.EncodeAll(value, nil)

	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO commit_cache (key, payload, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, key, compressed, now.Add(ttl).Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// PurgeExpired deletes all expired entries and returns how many were removed.
func (c *Cache) PurgeExpired() (int64, error) {
	res, err := c.db.Exec("DELETE FROM commit_cache WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return res.RowsAffected()
}
