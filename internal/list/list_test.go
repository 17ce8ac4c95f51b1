package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopOrder(t *testing.T) {
	l := New()
	l.RPush([]byte("a"), []byte("b"), []byte("c"))
	l.LPush([]byte("z"))
	assert.Equal(t, 4, l.Size())

	v, err := l.LPop()
	require.NoError(t, err)
	assert.Equal(t, "z", string(v))

	v, err = l.RPop()
	require.NoError(t, err)
	assert.Equal(t, "c", string(v))

	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, l.All())
}

func TestPopEmpty(t *testing.T) {
	l := New()
	_, err := l.LPop()
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = l.RPop()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestIndexNegative(t *testing.T) {
	l := New()
	l.RPush([]byte("a"), []byte("b"), []byte("c"))
	v, err := l.Index(-1)
	require.NoError(t, err)
	assert.Equal(t, "c", string(v))

	_, err = l.Index(10)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestRangeClampsAndHandlesNegatives(t *testing.T) {
	l := New()
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		l.RPush([]byte(s))
	}
	got := l.Range(1, 3)
	assert.Equal(t, [][]byte{[]byte("b"), []byte("c"), []byte("d")}, got)

	got = l.Range(-2, -1)
	assert.Equal(t, [][]byte{[]byte("d"), []byte("e")}, got)

	got = l.Range(3, 100)
	assert.Equal(t, [][]byte{[]byte("d"), []byte("e")}, got)

	got = l.Range(4, 1)
	assert.Nil(t, got)
}
