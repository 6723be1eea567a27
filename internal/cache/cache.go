// Package cache provides a disk cache for upstream API responses.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultExpiry is the longest any response is kept (24 hours).
	DefaultExpiry = 24 * time.Hour
	// ResponseSubdir is the subdirectory for cached responses.
	ResponseSubdir = "responses"
	// AppName is used for the cache directory name.
	AppName = "quranradio"
)

// Revalidation windows by volatility of the upstream data.
const (
	TTLStatic   = 24 * time.Hour // chapters, juzs, section text
	TTLCatalog  = 6 * time.Hour  // reciter list
	TTLAudioMap = time.Hour      // per-reciter audio files
)

// Cache manages disk-based caching of response bodies.
type Cache struct {
	baseDir string
	expiry  time.Duration
}

// NewCache creates a new Cache instance with the default expiry.
func NewCache() (*Cache, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return nil, err
	}

	return &Cache{
		baseDir: cacheDir,
		expiry:  DefaultExpiry,
	}, nil
}

// NewCacheAt creates a cache rooted at dir.
func NewCacheAt(dir string) *Cache {
	return &Cache{baseDir: dir, expiry: DefaultExpiry}
}

// GetCacheDir returns the platform-specific cache directory for the application.
func GetCacheDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}

	cacheDir := filepath.Join(userCacheDir, AppName)
	return cacheDir, nil
}

// Dir returns the root directory of the cache.
func (c *Cache) Dir() string {
	return c.baseDir
}

func (c *Cache) ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

func hashKey(key string) string {
	hash := md5.Sum([]byte(key))
	return hex.EncodeToString(hash[:])
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.baseDir, ResponseSubdir, hashKey(key)+".json")
}

// Get returns the cached body for key if it is younger than maxAge.
// A maxAge of zero or above the cache expiry is capped at the expiry.
func (c *Cache) Get(key string, maxAge time.Duration) ([]byte, bool) {
	if maxAge <= 0 || maxAge > c.expiry {
		maxAge = c.expiry
	}

	filePath := c.path(key)
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, false
	}

	if time.Since(info.ModTime()) > maxAge {
		if time.Since(info.ModTime()) > c.expiry {
			if err := os.Remove(filePath); err != nil {
				log.Debug().Err(err).Str("file", filePath).Msg("Failed to remove expired cache file")
			}
		}
		return nil, false
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Debug().Err(err).Str("file", filePath).Msg("Failed to read cached response")
		return nil, false
	}

	return data, true
}

// Set stores a body in the cache, keyed by key.
func (c *Cache) Set(key string, data []byte) error {
	dir := filepath.Join(c.baseDir, ResponseSubdir)

	if err := c.ensureDir(dir); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".entry-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmpPath, c.path(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	return nil
}

// CleanExpired removes cache files older than the expiry duration.
func (c *Cache) CleanExpired() error {
	dir := filepath.Join(c.baseDir, ResponseSubdir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	now := time.Now()
	var removed, failed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Debug().Err(err).Str("file", entry.Name()).Msg("Failed to get file info")
			continue
		}

		if now.Sub(info.ModTime()) > c.expiry {
			filePath := filepath.Join(dir, entry.Name())
			if err := os.Remove(filePath); err != nil {
				log.Debug().Err(err).Str("file", filePath).Msg("Failed to remove expired cache file")
				failed++
			} else {
				removed++
			}
		}
	}

	if removed > 0 || failed > 0 {
		log.Debug().Int("removed", removed).Int("failed", failed).Msg("Cache cleanup completed")
	}

	return nil
}
