package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHashKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"chapters", "qurancom:chapters"},
		{"with query", "alquran:surah/36?edition=ar.alafasy"},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := hashKey(tt.key)

			if len(result) != 32 {
				t.Errorf("hashKey(%q) length = %d, want 32", tt.key, len(result))
			}

			for _, c := range result {
				if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
					t.Errorf("hashKey(%q) contains non-hex character: %c", tt.key, c)
				}
			}
		})
	}

	if hashKey("a") == hashKey("b") {
		t.Error("different keys produced the same hash")
	}
}

func TestSetAndGet(t *testing.T) {
	c := &Cache{baseDir: t.TempDir(), expiry: DefaultExpiry}

	if err := c.Set("chapters", []byte(`{"chapters":[]}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	data, ok := c.Get("chapters", TTLStatic)
	if !ok {
		t.Fatal("Get() missed a fresh entry")
	}
	if string(data) != `{"chapters":[]}` {
		t.Errorf("Get() = %s", data)
	}
}

func TestGetNonExistent(t *testing.T) {
	c := &Cache{baseDir: t.TempDir(), expiry: DefaultExpiry}

	if _, ok := c.Get("missing", TTLStatic); ok {
		t.Error("Get() for missing key should miss")
	}
}

func TestGetStaleKeepsFileWithinExpiry(t *testing.T) {
	tmpDir := t.TempDir()
	c := &Cache{baseDir: tmpDir, expiry: DefaultExpiry}

	if err := c.Set("audio", []byte("x")); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(c.path("audio"), old, old); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("audio", TTLAudioMap); ok {
		t.Error("Get() should miss an entry older than maxAge")
	}
	if _, err := os.Stat(c.path("audio")); err != nil {
		t.Error("stale entry within expiry should stay on disk")
	}
	if _, ok := c.Get("audio", TTLStatic); !ok {
		t.Error("Get() with a longer window should hit")
	}
}

func TestGetExpiredRemovesFile(t *testing.T) {
	tmpDir := t.TempDir()
	c := &Cache{baseDir: tmpDir, expiry: time.Millisecond}

	if err := c.Set("juzs", []byte("x")); err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, ok := c.Get("juzs", 0); ok {
		t.Error("Get() for expired entry should miss")
	}
	if _, err := os.Stat(c.path("juzs")); !os.IsNotExist(err) {
		t.Error("expired cache file should have been deleted")
	}
}

func TestCleanExpired(t *testing.T) {
	tmpDir := t.TempDir()
	c := &Cache{baseDir: tmpDir, expiry: time.Millisecond}

	for _, key := range []string{"a", "b", "c"} {
		if err := c.Set(key, []byte(key)); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	time.Sleep(10 * time.Millisecond)

	if err := c.CleanExpired(); err != nil {
		t.Fatalf("CleanExpired() error = %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(tmpDir, ResponseSubdir))
	if err != nil {
		t.Fatalf("Failed to read cache directory: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("CleanExpired() left %d files, want 0", len(entries))
	}
}

func TestCleanExpiredKeepsValidFiles(t *testing.T) {
	c := &Cache{baseDir: t.TempDir(), expiry: 24 * time.Hour}

	if err := c.Set("reciters", []byte("[]")); err != nil {
		t.Fatal(err)
	}
	if err := c.CleanExpired(); err != nil {
		t.Fatalf("CleanExpired() error = %v", err)
	}
	if _, ok := c.Get("reciters", TTLCatalog); !ok {
		t.Error("CleanExpired() should not remove valid entries")
	}
}

func TestCleanExpiredNonExistentDirectory(t *testing.T) {
	c := &Cache{baseDir: t.TempDir(), expiry: DefaultExpiry}

	if err := c.CleanExpired(); err != nil {
		t.Errorf("CleanExpired() should not error on non-existent directory, got %v", err)
	}
}

func TestGetCacheDir(t *testing.T) {
	dir, err := GetCacheDir()
	if err != nil {
		t.Fatalf("GetCacheDir() error = %v", err)
	}

	if !filepath.IsAbs(dir) {
		t.Errorf("GetCacheDir() = %q, want absolute path", dir)
	}

	if filepath.Base(dir) != AppName {
		t.Errorf("GetCacheDir() directory name = %q, want %q", filepath.Base(dir), AppName)
	}
}
