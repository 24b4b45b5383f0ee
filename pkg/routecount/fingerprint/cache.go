// Package fingerprint provides a durable membership set of opaque search
// sub-state fingerprints.
//
// The set is a pruning hint only: presence may let the explorer skip work,
// absence proves nothing. Losing or truncating the backing file affects
// speed, never results.
//
// The file holds one lowercase hex fingerprint per line. Lines are
// order-independent and the file is append-only.
package fingerprint

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrUnavailable indicates the cache file cannot be used.
// It is recoverable: callers continue without pruning.
var ErrUnavailable = errors.New("fingerprint cache unavailable")

// maxLine bounds a single fingerprint line (hex encoded).
const maxLine = 1 << 20

// Cache is a set of fingerprints backed by an append-only file.
// A nil *Cache is valid and always empty.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]struct{}
	file    *os.File
	w       *bufio.Writer
	path    string
	skipped int
	err     error

	// unterminated is set when the file does not end in a newline.
	unterminated bool
}

// Open loads the fingerprints stored at path and opens the file for
// appending. A missing file yields an empty cache. Damaged lines are skipped.
func Open(path string) (*Cache, error) {
	c := &Cache{
		entries: make(map[string]struct{}),
		path:    path,
	}
	if err := c.load(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	c.file = f
	c.w = bufio.NewWriter(f)
	if c.unterminated {
		// Keep the next entry off the damaged tail line.
		_ = c.w.WriteByte('\n')
	}
	return c, nil
}

// NewMemory returns a cache without a backing file.
func NewMemory() *Cache {
	return &Cache{entries: make(map[string]struct{})}
}

func (c *Cache) load() error {
	f, err := os.Open(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), maxLine)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		raw, err := hex.DecodeString(line)
		if err != nil || len(raw) == 0 {
			c.skipped++
			continue
		}
		c.entries[string(raw)] = struct{}{}
	}
	// A truncated tail line surfaces as a decode failure above; a scanner
	// error here means the rest of the file is unusable but what was read is fine.
	if err := sc.Err(); err != nil {
		c.skipped++
	}

	var last [1]byte
	if _, err := f.ReadAt(last[:], sizeOf(f)-1); err == nil && last[0] != '\n' {
		c.unterminated = true
	}
	return nil
}

func sizeOf(f *os.File) int64 {
	info, err := f.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

// Contains reports whether fp was recorded.
func (c *Cache) Contains(fp []byte) bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[string(fp)]
	return ok
}

// Add records fp. Duplicate additions are ignored. Write failures disable
// persistence for the rest of the session; the in-memory set keeps working.
func (c *Cache) Add(fp []byte) {
	if c == nil || len(fp) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := string(fp)
	if _, ok := c.entries[key]; ok {
		return
	}
	c.entries[key] = struct{}{}

	if c.w == nil || c.err != nil {
		return
	}
	if _, err := c.w.WriteString(hex.EncodeToString(fp) + "\n"); err != nil {
		c.err = err
	}
}

// Len returns the number of fingerprints in the set.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Skipped returns how many damaged lines were ignored on load.
func (c *Cache) Skipped() int {
	if c == nil {
		return 0
	}
	return c.skipped
}

// Path returns the backing file path, or "" for a memory cache.
func (c *Cache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Flush writes buffered additions to the file.
func (c *Cache) Flush() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

func (c *Cache) flushLocked() error {
	if c.w == nil {
		return nil
	}
	if c.err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, c.path, c.err)
	}
	if err := c.w.Flush(); err != nil {
		c.err = err
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, c.path, err)
	}
	return nil
}

// Close flushes and closes the backing file.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	flushErr := c.flushLocked()
	if c.file == nil {
		return flushErr
	}
	closeErr := c.file.Close()
	c.file = nil
	c.w = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
