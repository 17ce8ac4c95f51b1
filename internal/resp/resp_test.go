package resp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleString(t *testing.T) {
	assert.Equal(t, "+OK\r\n", string(SimpleString("OK")))
}

func TestIntegerAndErrorSentinel(t *testing.T) {
	assert.Equal(t, ":42\r\n", string(Integer(42)))
	assert.Equal(t, ":-1\r\n", string(ErrorSentinel))
}

func TestBulkStringAndNull(t *testing.T) {
	assert.Equal(t, "$5\r\nhello\r\n", string(BulkString([]byte("hello"))))
	assert.Equal(t, "$-1\r\n", string(BulkString(nil)))
}

func TestArray(t *testing.T) {
	got := Array([][]byte{BulkString([]byte("a")), BulkString([]byte("bb"))})
	assert.Equal(t, "*2\r\n$1\r\na\r\n$2\r\nbb\r\n", string(got))
}
