package dict

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFindDelete(t *testing.T) {
	d := NewStringDict[int]()

	require.True(t, d.Add("a", 1))
	require.False(t, d.Add("a", 2), "duplicate add must fail")

	v, ok := d.Find("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	require.True(t, d.Delete("a"))
	require.False(t, d.Delete("a"), "deleting an absent key must fail")

	_, ok = d.Find("a")
	assert.False(t, ok)
}

func TestReplaceIsIdempotentUpsert(t *testing.T) {
	d := NewStringDict[int]()
	d.Replace("k", 1)
	d.Replace("k", 2)

	v, ok := d.Find("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, d.Size())
}

func TestRehashPreservesAllKeys(t *testing.T) {
	d := NewStringDict[int]()
	const n = 5000
	for i := 0; i < n; i++ {
		require.True(t, d.Add(fmt.Sprintf("key-%d", i), i))
	}

	assert.Equal(t, n, d.Size())
	assert.Equal(t, d.Used0()+d.Used1(), d.Size())

	for i := 0; i < n; i++ {
		v, ok := d.Find(fmt.Sprintf("key-%d", i))
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestSizeInvariantAfterRehashSettles(t *testing.T) {
	d := NewStringDict[int]()
	for i := 0; i < 2000; i++ {
		d.Add(fmt.Sprintf("k%d", i), i)
	}
	// Drive rehash steps to completion via repeated finds.
	for i := 0; i < 200000 && d.IsRehashing(); i++ {
		d.Find("k0")
	}
	require.False(t, d.IsRehashing())
	assert.Equal(t, 0, d.Used1())
	assert.Equal(t, d.Used0(), d.Size())
}

func TestScanVisitsEveryStableKeyExactlyOnce(t *testing.T) {
	d := NewStringDict[int]()
	const n = 3000
	for i := 0; i < n; i++ {
		d.Add(fmt.Sprintf("k%d", i), i)
	}

	seen := make(map[string]int)
	cursor := Cursor(0)
	for {
		cursor = d.Scan(cursor, func(k string, v int) {
			seen[k]++
		})
		if cursor == 0 {
			break
		}
	}

	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k%d", i)
		assert.Equal(t, 1, seen[key], "key %s must be visited exactly once", key)
	}
}

func TestUnlinkReturnsValue(t *testing.T) {
	d := NewStringDict[string]()
	d.Add("a", "hello")
	v, ok := d.Unlink("a")
	require.True(t, ok)
	assert.Equal(t, "hello", v)
	_, ok = d.Find("a")
	assert.False(t, ok)
}
