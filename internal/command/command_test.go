package command

import (
	"testing"

	"github.com/armandparser/goredis/internal/keyspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetDel(t *testing.T) {
	db := keyspace.New()
	r := NewRegistry()

	reply, ok := r.Dispatch(db, "SET", []string{"k", "v"})
	require.True(t, ok)
	assert.Equal(t, "+OK\r\n", string(reply))

	reply, _ = r.Dispatch(db, "GET", []string{"k"})
	assert.Equal(t, "$1\r\nv\r\n", string(reply))

	reply, _ = r.Dispatch(db, "DEL", []string{"k"})
	assert.Equal(t, ":1\r\n", string(reply))

	reply, _ = r.Dispatch(db, "GET", []string{"k"})
	assert.Equal(t, "$-1\r\n", string(reply))
}

func TestUnknownCommand(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Dispatch(keyspace.New(), "NOSUCH", nil)
	assert.False(t, ok)
}

func TestSetOperations(t *testing.T) {
	db := keyspace.New()
	r := NewRegistry()

	reply, _ := r.Dispatch(db, "SADD", []string{"s", "a", "b", "a"})
	assert.Equal(t, ":2\r\n", string(reply))

	reply, _ = r.Dispatch(db, "SISMEMBER", []string{"s", "a"})
	assert.Equal(t, ":1\r\n", string(reply))

	reply, _ = r.Dispatch(db, "SCARD", []string{"s"})
	assert.Equal(t, ":2\r\n", string(reply))

	reply, _ = r.Dispatch(db, "SREM", []string{"s", "a"})
	assert.Equal(t, ":1\r\n", string(reply))
}

func TestZSetOperations(t *testing.T) {
	db := keyspace.New()
	r := NewRegistry()

	r.Dispatch(db, "ZADD", []string{"z", "1", "a", "2", "b"})
	reply, _ := r.Dispatch(db, "ZSCORE", []string{"z", "b"})
	assert.Equal(t, "$1\r\n2\r\n", string(reply))

	reply, _ = r.Dispatch(db, "ZRANK", []string{"z", "a"})
	assert.Equal(t, ":0\r\n", string(reply))

	reply, _ = r.Dispatch(db, "ZRANGE", []string{"z", "0", "-1"})
	assert.Equal(t, "*2\r\n$1\r\na\r\n$1\r\nb\r\n", string(reply))
}

func TestListOperations(t *testing.T) {
	db := keyspace.New()
	r := NewRegistry()

	r.Dispatch(db, "RPUSH", []string{"l", "a", "b"})
	r.Dispatch(db, "LPUSH", []string{"l", "z"})

	reply, _ := r.Dispatch(db, "LPOP", []string{"l"})
	assert.Equal(t, "$1\r\nz\r\n", string(reply))

	reply, _ = r.Dispatch(db, "RPOP", []string{"l"})
	assert.Equal(t, "$1\r\nb\r\n", string(reply))
}

func TestWrongTypeReply(t *testing.T) {
	db := keyspace.New()
	r := NewRegistry()
	r.Dispatch(db, "SET", []string{"k", "v"})
	reply, _ := r.Dispatch(db, "SADD", []string{"k", "x"})
	assert.Contains(t, string(reply), "WRONGTYPE")
}
