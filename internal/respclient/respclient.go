// Package respclient implements an async client-side helper around a raw
// connection: Call blocks for a reply, CallAsync returns a channel that
// resolves once the reply line arrives, mirroring a future/promise
// primitive chained with Then.
package respclient

import (
	"time"

	"github.com/armandparser/goredis/internal/connection"
	"github.com/armandparser/goredis/internal/eventloop"
)

// Reply is one command's raw response line, or an error if the round
// trip failed.
type Reply struct {
	Line string
	Err  error
}

// Client issues line-oriented commands over an already-connected
// connection and reads back one line per command.
type Client struct {
	conn *connection.Connection
	loop *eventloop.Loop
}

// New wraps an established connection.
func New(conn *connection.Connection, loop *eventloop.Loop) *Client {
	return &Client{conn: conn, loop: loop}
}

// Call sends line (a command, without its terminator) and blocks for the
// matching reply line, up to timeout.
func (c *Client) Call(line string, timeout time.Duration) Reply {
	if err := c.conn.SyncWrite([]byte(line+"\r\n"), c.loop, timeout); err != nil {
		return Reply{Err: err}
	}
	resp, err := c.conn.SyncReadline(c.loop, timeout)
	return Reply{Line: resp, Err: err}
}

// CallAsync runs Call on its own goroutine and returns a channel that
// receives exactly one Reply. This stands in for a Future<String> with
// then_apply/then_apply_async chaining: callers compose further work by
// ranging the returned channel and launching their own continuation.
func (c *Client) CallAsync(line string, timeout time.Duration) <-chan Reply {
	out := make(chan Reply, 1)
	go func() {
		out <- c.Call(line, timeout)
		close(out)
	}()
	return out
}

// Then chains a continuation onto a pending reply channel, itself
// returning a channel so further continuations can be attached —
// the then_apply_async pattern expressed over Go channels and goroutines
// instead of a dedicated future type.
func Then[T any](in <-chan Reply, fn func(Reply) T) <-chan T {
	out := make(chan T, 1)
	go func() {
		out <- fn(<-in)
		close(out)
	}()
	return out
}
