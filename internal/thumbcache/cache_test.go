package thumbcache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockedCache(ttl time.Duration, capacity int) (*Cache, *time.Time) {
	c := New(ttl, capacity)
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestGetHitWithinTTL(t *testing.T) {
	t.Parallel()

	c, now := newClockedCache(30*time.Minute, 4)
	c.Set("1,2,3", []byte(`{"data":[]}`))

	*now = now.Add(29 * time.Minute)
	payload, ok := c.Get("1,2,3")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"data":[]}`), payload)
}

func TestGetMissAfterTTL(t *testing.T) {
	t.Parallel()

	c, now := newClockedCache(30*time.Minute, 4)
	c.Set("1,2,3", []byte(`{}`))

	*now = now.Add(31 * time.Minute)
	_, ok := c.Get("1,2,3")
	assert.False(t, ok)

	// Stale entries linger until overwritten.
	assert.Equal(t, 1, c.Len())
}

func TestGetMissForUnknownKey(t *testing.T) {
	t.Parallel()

	c, _ := newClockedCache(time.Minute, 4)
	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestKeysAreExactStrings(t *testing.T) {
	t.Parallel()

	c, _ := newClockedCache(time.Minute, 4)
	c.Set("1,2", []byte(`a`))

	// A reordered id list is a different key.
	_, ok := c.Get("2,1")
	assert.False(t, ok)
}

func TestSetEvictsOldestAtCapacity(t *testing.T) {
	t.Parallel()

	c, now := newClockedCache(time.Hour, 3)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("key-%d", i), []byte{byte(i)})
		*now = now.Add(time.Minute)
	}

	c.Set("key-3", []byte{3})
	assert.Equal(t, 3, c.Len())

	_, ok := c.Get("key-0")
	assert.False(t, ok, "oldest entry should be gone")
	for i := 1; i <= 3; i++ {
		_, ok := c.Get(fmt.Sprintf("key-%d", i))
		assert.True(t, ok)
	}
}

func TestSetOverwriteDoesNotEvict(t *testing.T) {
	t.Parallel()

	c, _ := newClockedCache(time.Hour, 2)
	c.Set("a", []byte(`1`))
	c.Set("b", []byte(`2`))
	c.Set("a", []byte(`3`))

	assert.Equal(t, 2, c.Len())
	payload, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte(`3`), payload)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	c := New(0, 0)
	assert.Equal(t, DefaultTTL, c.ttl)
	assert.Equal(t, DefaultCapacity, c.capacity)
}
