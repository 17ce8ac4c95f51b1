package set

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartsAsIntSetAndAddsIntegers(t *testing.T) {
	s := New()
	assert.True(t, s.Add("1"))
	assert.True(t, s.Add("2"))
	assert.False(t, s.Add("1"))
	assert.Equal(t, EncodingIntSet, s.Encoding())
	assert.Equal(t, 2, s.Size())
	assert.True(t, s.Contains("2"))
}

func TestNonIntegerUpgradesToListPack(t *testing.T) {
	s := New()
	s.Add("1")
	s.Add("hello")
	assert.Equal(t, EncodingListPack, s.Encoding())
	assert.True(t, s.Contains("1"))
	assert.True(t, s.Contains("hello"))
	assert.Equal(t, 2, s.Size())
}

func TestLongElementUpgradesToDict(t *testing.T) {
	s := New()
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'x'
	}
	s.Add(string(long))
	assert.Equal(t, EncodingDict, s.Encoding())
	assert.True(t, s.Contains(string(long)))
}

func TestManyEntriesUpgradesToDict(t *testing.T) {
	s := New()
	for i := 0; i < 200; i++ {
		s.Add(fmt.Sprintf("m%d", i))
	}
	assert.Equal(t, EncodingDict, s.Encoding())
	assert.Equal(t, 200, s.Size())
}

func TestRemove(t *testing.T) {
	s := New()
	s.Add("1")
	s.Add("abc")
	require.True(t, s.Remove("1"))
	assert.False(t, s.Contains("1"))
	assert.False(t, s.Remove("1"))
}

func TestListAllContainsEveryMember(t *testing.T) {
	s := New()
	members := []string{"1", "2", "abc", "def"}
	for _, m := range members {
		s.Add(m)
	}
	got := s.ListAll()
	assert.ElementsMatch(t, members, got)
}

func TestUpgradeIsMonotone(t *testing.T) {
	s := New()
	s.Add("hello")
	assert.Equal(t, EncodingListPack, s.Encoding())
	for i := 0; i < 200; i++ {
		s.Add(fmt.Sprintf("m%d", i))
	}
	assert.Equal(t, EncodingDict, s.Encoding())
	s.Remove("hello")
	// Removing members never demotes the encoding.
	assert.Equal(t, EncodingDict, s.Encoding())
}
