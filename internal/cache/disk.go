package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version, bump when Entry changes.
const schemaVersion uint16 = 1

// App is the cache directory name under the user cache root.
const App = "clangfmt"

// Entry records that a file's content was already in formatted form.
type Entry struct {
	Schema   uint16
	Engine   string
	Path     string
	Size     int
	StoredAt int64 // unix seconds
}

// Disk stores entries under a directory, one msgpack file per key.
// A small in-memory set sits in front of it for the lifetime of the process.
// Thread-safe for concurrent access.
type Disk struct {
	mu   sync.RWMutex
	dir  string
	seen map[Digest]struct{}
}

// Dir returns the standard cache location for app:
// $XDG_CACHE_HOME/app, falling back to ~/.cache/app.
func Dir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// Open initializes the cache at the standard location.
func Open(app string) (*Disk, error) {
	dir, err := Dir(app)
	if err != nil {
		return nil, err
	}
	return OpenAt(dir)
}

// OpenAt initializes the cache at dir, creating it if needed.
func OpenAt(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Disk{dir: dir, seen: make(map[Digest]struct{})}, nil
}

// Path returns the cache directory.
func (c *Disk) Path() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Disk) pathFor(key Digest) string {
	hexKey := key.String()
	// two-level fan-out keeps directories small
	return filepath.Join(c.dir, "fmt", hexKey[:2], hexKey+".mp")
}

// Put stores e under key. The write is atomic.
func (c *Disk) Put(key Digest, e *Entry) (err error) {
	if c == nil || e == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	stored := *e
	stored.Schema = schemaVersion
	if stored.StoredAt == 0 {
		stored.StoredAt = time.Now().Unix()
	}
	if err := msgpack.NewEncoder(f).Encode(&stored); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(f.Name(), p); err != nil {
		return err
	}
	c.seen[key] = struct{}{}
	return nil
}

// Get loads the entry for key into out. Entries written with another schema
// count as misses.
func (c *Disk) Get(key Digest, out *Entry) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	var e Entry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil {
		return false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	if e.Schema != schemaVersion {
		return false, nil
	}
	if out != nil {
		*out = e
	}
	return true, nil
}

// Has reports whether key is cached. Read errors count as misses.
func (c *Disk) Has(key Digest) bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	_, ok := c.seen[key]
	c.mu.RUnlock()
	if ok {
		return true
	}
	hit, err := c.Get(key, nil)
	if err != nil || !hit {
		return false
	}
	c.mu.Lock()
	c.seen[key] = struct{}{}
	c.mu.Unlock()
	return true
}

// Clean removes every entry.
func (c *Disk) Clean() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// rename first so a concurrent reader never sees a half-deleted tree
	old := c.dir + ".old-" + time.Now().Format("20060102150405.000000000")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	clear(c.seen)
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
