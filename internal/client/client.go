// Package client implements the per-connection Client: the input pipeline
// (read → inline-parse → dispatch → reply) and the output pipeline
// (writev-drain of the reply buffer), wired onto a connection.Connection.
package client

import (
	"strings"

	"github.com/armandparser/goredis/internal/bufpool"
	"github.com/armandparser/goredis/internal/buffer"
	"github.com/armandparser/goredis/internal/command"
	"github.com/armandparser/goredis/internal/connection"
	"github.com/armandparser/goredis/internal/keyspace"
)

const readChunkSize = 16 * 1024

// OpObserver is notified of each successfully dispatched command verb,
// letting the owning server maintain operation counters without the
// client package knowing anything about stats.
type OpObserver func(verb string)

// Client is one connection's command-processing state.
type Client struct {
	conn     *connection.Connection
	db       *keyspace.DB
	registry *command.Registry
	bufs     *bufpool.Pool
	onOp     OpObserver

	query *buffer.QueryBuffer
	reply *buffer.ReplyBuffer

	closed bool
}

// New wires a Client to a freshly accepted connection, installing the
// read handler immediately. bufs and onOp may be nil.
func New(conn *connection.Connection, db *keyspace.DB, registry *command.Registry, bufs *bufpool.Pool, onOp OpObserver) *Client {
	if bufs == nil {
		bufs = bufpool.New()
	}
	c := &Client{
		conn:     conn,
		db:       db,
		registry: registry,
		bufs:     bufs,
		onOp:     onOp,
		query:    buffer.NewQuery(),
		reply:    buffer.NewReply(),
	}
	conn.SetReadHandler(func(*connection.Connection) { c.onReadable() })
	return c
}

// onReadable is the connection's read handler: it reads up to a fixed
// chunk into the query buffer, then repeatedly peels off complete lines
// and dispatches them until no more complete lines remain.
func (c *Client) onReadable() {
	buf := c.bufs.Get(readChunkSize)
	defer c.bufs.Put(buf)

	n, err := c.conn.Read(buf)
	if err != nil {
		c.closed = true
		return
	}
	if c.conn.State() == connection.StateClosed {
		c.closed = true
		return
	}
	if n > 0 {
		c.query.Write(buf[:n])
	}

	for {
		line, ok := c.query.ProcessInline()
		if !ok {
			break
		}
		c.dispatchLine(line)
	}
	c.query.TrimProcessed()

	if !c.reply.IsEmpty() {
		c.installWriteHandler()
	}
}

func (c *Client) dispatchLine(line []byte) {
	fields := strings.Fields(string(line))
	if len(fields) == 0 {
		return
	}
	verb := strings.ToUpper(fields[0])
	args := fields[1:]

	reply, ok := c.registry.Dispatch(c.db, verb, args)
	if !ok {
		return
	}
	if c.onOp != nil {
		c.onOp(verb)
	}
	c.reply.Add(reply)
}

func (c *Client) installWriteHandler() {
	c.conn.SetWriteHandler(func(*connection.Connection) { c.onWritable() }, false)
}

// onWritable is the connection's write handler: it drains the reply
// buffer via vectored writes until either the buffer empties or a write
// would block, uninstalling itself once empty.
func (c *Client) onWritable() {
	for !c.reply.IsEmpty() {
		segs := c.reply.MemVec()
		n, err := c.conn.Writev(segs)
		if err != nil {
			c.closed = true
			c.conn.SetWriteHandler(nil, false)
			return
		}
		if n == 0 {
			return
		}
		c.reply.ClearProcessed(n)
	}
	c.conn.SetWriteHandler(nil, false)
}

// Closed reports whether the connection's read side observed EOF or an
// I/O error.
func (c *Client) Closed() bool { return c.closed }
