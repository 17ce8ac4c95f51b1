package keyspace

import (
	"testing"
	"time"

	"github.com/armandparser/goredis/internal/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndLookup(t *testing.T) {
	db := New()
	db.Set("a", valueobject.CreateString([]byte("1")), 0, 0)
	v, ok := db.Lookup("a")
	require.True(t, ok)
	b, _ := v.AsString()
	assert.Equal(t, "1", string(b))
}

func TestLazyExpiration(t *testing.T) {
	db := New()
	past := time.Now().Add(-time.Second).UnixMilli()
	db.Set("a", valueobject.CreateString([]byte("1")), past, 0)

	_, ok := db.Lookup("a")
	assert.False(t, ok)
	assert.Equal(t, 0, db.Size())
}

func TestKeepTTLFlag(t *testing.T) {
	db := New()
	future := time.Now().Add(time.Hour).UnixMilli()
	db.Set("a", valueobject.CreateString([]byte("1")), future, 0)
	db.Set("a", valueobject.CreateString([]byte("2")), 0, KeepTTL)

	v, ok := db.Lookup("a")
	require.True(t, ok)
	b, _ := v.AsString()
	assert.Equal(t, "2", string(b))

	deadline, has := db.expires.Find("a")
	require.True(t, has)
	assert.Equal(t, future, deadline)
}

func TestSetWithoutKeepTTLClearsExpiration(t *testing.T) {
	db := New()
	future := time.Now().Add(time.Hour).UnixMilli()
	db.Set("a", valueobject.CreateString([]byte("1")), future, 0)
	db.Set("a", valueobject.CreateString([]byte("2")), 0, 0)

	_, has := db.expires.Find("a")
	assert.False(t, has)
}

func TestDelete(t *testing.T) {
	db := New()
	db.Set("a", valueobject.CreateString([]byte("1")), 0, 0)
	assert.True(t, db.Delete("a"))
	assert.False(t, db.Delete("a"))
}

func TestScanExpiresDeletesDueKeys(t *testing.T) {
	db := New()
	past := time.Now().Add(-time.Second).UnixMilli()
	for _, k := range []string{"a", "b", "c"} {
		db.main.Add(k, valueobject.CreateString([]byte("v")))
		db.expires.Add(k, past)
	}

	var expired []string
	res := db.ScanExpires(time.Second, func(key string) { expired = append(expired, key) })
	assert.Equal(t, 3, res.Expired)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, expired)
	assert.Equal(t, 0, db.Size())
}

func TestShouldActiveExpire(t *testing.T) {
	db := New()
	assert.False(t, db.ShouldActiveExpire())

	future := time.Now().Add(time.Hour).UnixMilli()
	db.main.Add("a", valueobject.CreateString([]byte("1")))
	db.expires.Add("a", future)
	assert.True(t, db.ShouldActiveExpire())
}
