package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStringAndAccessor(t *testing.T) {
	v := CreateString([]byte("hello"))
	assert.Equal(t, KindString, v.Kind())
	b, err := v.AsString()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	_, err = v.AsSet()
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestSetStringMutatesInPlace(t *testing.T) {
	v := CreateString([]byte("a"))
	require.NoError(t, v.SetString([]byte("b")))
	b, _ := v.AsString()
	assert.Equal(t, "b", string(b))

	vs := CreateSet()
	assert.ErrorIs(t, vs.SetString([]byte("x")), ErrWrongType)
}

func TestRefcounting(t *testing.T) {
	v := CreateString([]byte("x"))
	assert.Equal(t, int32(1), v.Refs())
	v.Incref()
	assert.Equal(t, int32(2), v.Refs())
	assert.False(t, v.Decref())
	assert.True(t, v.Decref())
}

func TestCreateSetZSetList(t *testing.T) {
	vs := CreateSet()
	s, err := vs.AsSet()
	require.NoError(t, err)
	assert.Equal(t, 0, s.Size())

	vz := CreateZSet()
	z, err := vz.AsZSet()
	require.NoError(t, err)
	assert.Equal(t, 0, z.Size())

	vl := CreateList()
	l, err := vl.AsList()
	require.NoError(t, err)
	assert.Equal(t, 0, l.Size())
}
