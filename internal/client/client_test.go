package client

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/armandparser/goredis/internal/command"
	"github.com/armandparser/goredis/internal/connection"
	"github.com/armandparser/goredis/internal/keyspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientInputOutputPipelineRoundTrip(t *testing.T) {
	listener, err := connection.BindAndListen("127.0.0.1:0", 16)
	require.NoError(t, err)
	defer listener.Close()

	addr := listener.Addr()
	db := keyspace.New()
	registry := command.NewRegistry()

	connected := make(chan net.Conn, 1)
	go func() {
		c, dialErr := net.Dial("tcp", addr)
		if dialErr == nil {
			connected <- c
		}
	}()

	accepted, err := listener.Accept()
	require.NoError(t, err)
	defer accepted.Close()

	cl := New(accepted, db, registry, nil, nil)
	sock := <-connected
	defer sock.Close()

	_, err = sock.Write([]byte("SET foo bar\r\n"))
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		cl.onReadable()
		if !cl.reply.IsEmpty() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	sock.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(sock)

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		cl.onWritable()
		if cl.reply.IsEmpty() {
			break
		}
	}

	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "+OK\r\n", line)
}
