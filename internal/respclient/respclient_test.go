package respclient

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/armandparser/goredis/internal/connection"
	"github.com/armandparser/goredis/internal/eventloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		conn.Write([]byte("PONG for " + line))
	}()

	loop, err := eventloop.New()
	require.NoError(t, err)
	defer loop.Close()

	conn, err := connection.BindAndConnect(ln.Addr().String(), "")
	require.NoError(t, err)
	defer conn.Close()
	n := loop.Wait(conn.FD(), eventloop.Writable, 2000)
	require.Greater(t, n, 0)
	require.NoError(t, conn.CompleteConnect())

	c := New(conn, loop)
	reply := c.Call("PING", 2*time.Second)
	require.NoError(t, reply.Err)
	assert.Contains(t, reply.Line, "PONG for PING")
}

func TestCallAsyncAndThen(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		reader.ReadString('\n')
		conn.Write([]byte("done\n"))
	}()

	loop, err := eventloop.New()
	require.NoError(t, err)
	defer loop.Close()

	conn, err := connection.BindAndConnect(ln.Addr().String(), "")
	require.NoError(t, err)
	defer conn.Close()
	loop.Wait(conn.FD(), eventloop.Writable, 2000)
	require.NoError(t, conn.CompleteConnect())

	c := New(conn, loop)
	replies := c.CallAsync("HELLO", 2*time.Second)
	lens := Then(replies, func(r Reply) int { return len(r.Line) })

	select {
	case n := <-lens:
		assert.Greater(t, n, 0)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for async reply")
	}
}
