package connection

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindAndListenAcceptRoundTrip(t *testing.T) {
	listener, err := BindAndListen("127.0.0.1:0", 16)
	require.NoError(t, err)
	defer listener.Close()

	addr := listener.Addr()

	dialed := make(chan net.Conn, 1)
	go func() {
		c, err := net.Dial("tcp", addr)
		if err == nil {
			dialed <- c
		}
	}()

	accepted, err := listener.Accept()
	require.NoError(t, err)
	defer accepted.Close()
	assert.Equal(t, StateConnected, accepted.State())
	assert.NotEmpty(t, accepted.RemoteAddr())

	clientConn := <-dialed
	defer clientConn.Close()
}

func TestReadWriteNonBlocking(t *testing.T) {
	listener, err := BindAndListen("127.0.0.1:0", 16)
	require.NoError(t, err)
	defer listener.Close()
	addr := listener.Addr()

	clientDone := make(chan struct{})
	go func() {
		c, err := net.Dial("tcp", addr)
		if err != nil {
			close(clientDone)
			return
		}
		defer c.Close()
		c.Write([]byte("hello"))
		time.Sleep(50 * time.Millisecond)
		close(clientDone)
	}()

	accepted, err := listener.Accept()
	require.NoError(t, err)
	defer accepted.Close()

	var buf [16]byte
	var n int
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		n, err = accepted.Read(buf[:])
		require.NoError(t, err)
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, "hello", string(buf[:n]))
	<-clientDone
}
