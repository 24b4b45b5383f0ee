package fingerprint_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/routecount/pkg/routecount/fingerprint"
)

func TestCache_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid-3-0.fingerprints")

	c, err := fingerprint.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())

	c.Add([]byte{0x01, 0x02})
	c.Add([]byte{0xff})
	c.Add([]byte{0x01, 0x02})
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Contains([]byte{0x01, 0x02}))
	assert.False(t, c.Contains([]byte{0x01}))
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0102\nff\n", string(data))

	reopened, err := fingerprint.Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 2, reopened.Len())
	assert.True(t, reopened.Contains([]byte{0xff}))
	assert.Equal(t, path, reopened.Path())
}

func TestCache_SkipsDamagedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fp")
	require.NoError(t, os.WriteFile(path, []byte("0a0b\nnot-hex\n\nabc\n0c"), 0o644))

	c, err := fingerprint.Open(path)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Skipped(), "odd-length and non-hex lines")
	assert.True(t, c.Contains([]byte{0x0a, 0x0b}))
	assert.True(t, c.Contains([]byte{0x0c}))

	// The file ended mid-line; a new entry must start on its own line.
	c.Add([]byte{0xee})
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "0c\nee\n"))

	reopened, err := fingerprint.Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.True(t, reopened.Contains([]byte{0xee}))
}

func TestCache_Unavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// A path below a regular file can never be created.
	_, err := fingerprint.Open(filepath.Join(blocker, "sub", "fp"))
	assert.ErrorIs(t, err, fingerprint.ErrUnavailable)
}

func TestCache_Nil(t *testing.T) {
	var c *fingerprint.Cache

	c.Add([]byte{1})
	assert.False(t, c.Contains([]byte{1}))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.Skipped())
	assert.Equal(t, "", c.Path())
	assert.NoError(t, c.Flush())
	assert.NoError(t, c.Close())
}

func TestCache_Memory(t *testing.T) {
	c := fingerprint.NewMemory()
	c.Add([]byte("abc"))
	c.Add(nil)

	assert.True(t, c.Contains([]byte("abc")))
	assert.Equal(t, 1, c.Len())
	assert.NoError(t, c.Flush())
	assert.NoError(t, c.Close())
}

func TestCache_Concurrent(t *testing.T) {
	c, err := fingerprint.Open(filepath.Join(t.TempDir(), "fp"))
	require.NoError(t, err)
	defer c.Close()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				fp := []byte{byte(i), byte(j)}
				c.Add(fp)
				assert.True(t, c.Contains(fp))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, c.Len())
}
