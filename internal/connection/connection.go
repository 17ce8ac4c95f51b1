// Package connection implements the non-blocking socket lifecycle that
// sits between a raw file descriptor and the event loop: state machine,
// read/write handler installation with BARRIER bookkeeping, and the sync
// (blocking, single-fd) helpers used outside of file-event callbacks.
package connection

import (
	"errors"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/armandparser/goredis/internal/eventloop"
)

// State is one lifecycle stage of a Connection.
type State uint8

const (
	StateConnect State = iota
	StateConnecting
	StateAccepting
	StateHandshake
	StateConnected
	StateError
	StateClosed
)

// ErrTimeout is returned by sync helpers whose deadline elapsed.
var ErrTimeout = errors.New("connection: sync operation timed out")

// ErrClosed is returned by operations on a connection that already
// transitioned to Closed.
var ErrClosed = errors.New("connection: already closed")

// Handler is invoked when a registered readiness condition fires.
type Handler func(c *Connection)

// Connection wraps one non-blocking socket fd plus the bookkeeping the
// event loop needs: its current lifecycle state, installed handlers, and
// the BARRIER flag controlling read/write ordering.
type Connection struct {
	fd    int
	state State

	loop       *eventloop.Loop
	readH      Handler
	writeH     Handler
	barrier    bool
	remoteAddr string

	// netConn keeps the underlying net.Conn/net.Listener reachable so the
	// Go runtime doesn't finalize (and close) the fd out from under us;
	// all actual I/O goes through the raw fd via golang.org/x/sys/unix.
	netConn net.Conn
	netListener net.Listener
}

// FD returns the raw file descriptor, for registration with an
// eventloop.Loop.
func (c *Connection) FD() int { return c.fd }

// State reports the current lifecycle stage.
func (c *Connection) State() State { return c.state }

// RemoteAddr reports the peer address, populated after Accept or Connect.
func (c *Connection) RemoteAddr() string { return c.remoteAddr }

// Addr reports the local listening address, for a Connection created by
// BindAndListen.
func (c *Connection) Addr() string {
	if c.netListener == nil {
		return ""
	}
	return c.netListener.Addr().String()
}

func rawFD(conn syscall.Conn) (int, error) {
	rc, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}
	var fd int
	var ctrlErr error
	err = rc.Control(func(u uintptr) {
		fd = int(u)
		if e := unix.SetNonblock(fd, true); e != nil {
			ctrlErr = e
		}
	})
	if err != nil {
		return 0, err
	}
	return fd, ctrlErr
}

// BindAndListen creates a listening TCP socket on addr with the given
// backlog (the model's accept-queue depth hint; Go's net package owns the
// actual backlog value, so this is carried for parity with the spec and
// surfaced to callers that want to record it).
func BindAndListen(addr string, backlog int) (*Connection, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	tl, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return nil, errors.New("connection: listener is not TCP")
	}
	fd, err := rawFD(tl)
	if err != nil {
		ln.Close()
		return nil, err
	}
	return &Connection{fd: fd, state: StateAccepting, netListener: ln}, nil
}

// Accept accepts one pending connection, transitioning it straight to
// Connected.
func (c *Connection) Accept() (*Connection, error) {
	conn, err := c.netListener.Accept()
	if err != nil {
		return nil, err
	}
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return nil, errors.New("connection: accepted conn is not TCP")
	}
	fd, err := rawFD(tc)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Connection{
		fd:         fd,
		state:      StateConnected,
		remoteAddr: conn.RemoteAddr().String(),
		netConn:    conn,
	}, nil
}

// BindAndConnect dials remote and returns the connection in the Connecting
// state. The dial itself completes synchronously; only afterwards is the
// socket switched to non-blocking mode. CompleteConnect (typically called
// from a writable event, see SetWriteHandler) checks SO_ERROR and moves the
// connection to Connected or Error.
func BindAndConnect(remote, local string) (*Connection, error) {
	d := net.Dialer{Timeout: 0}
	if local != "" {
		if laddr, err := net.ResolveTCPAddr("tcp", local); err == nil {
			d.LocalAddr = laddr
		}
	}
	conn, err := d.Dial("tcp", remote)
	if err != nil {
		return nil, err
	}
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return nil, errors.New("connection: dialed conn is not TCP")
	}
	fd, err := rawFD(tc)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Connection{fd: fd, state: StateConnecting, remoteAddr: remote, netConn: conn}, nil
}

// BindAndBlockingConnect is BindAndConnect followed by an immediate
// Wait(WRITABLE, timeout) so the connection is Connected (or Error) by
// the time it returns.
func BindAndBlockingConnect(loop *eventloop.Loop, remote, local string, timeout time.Duration) (*Connection, error) {
	c, err := BindAndConnect(remote, local)
	if err != nil {
		return nil, err
	}
	n := loop.Wait(c.fd, eventloop.Writable, int(timeout/time.Millisecond))
	if n < 0 {
		c.state = StateError
		return c, errors.New("connection: connect failed")
	}
	if n == 0 {
		return c, ErrTimeout
	}
	c.state = StateConnected
	return c, nil
}

// CompleteConnect finalizes a Connecting connection once its writable
// event fires, checking SO_ERROR to decide between Connected and Error.
func (c *Connection) CompleteConnect() error {
	errno, err := unix.GetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		c.state = StateError
		return err
	}
	if errno != 0 {
		c.state = StateError
		return unix.Errno(errno)
	}
	c.state = StateConnected
	return nil
}

// SetReadHandler installs or removes the read handler.
func (c *Connection) SetReadHandler(h Handler) {
	c.readH = h
	c.sync()
}

// SetWriteHandler installs or removes the write handler, also setting the
// BARRIER flag: when set, the write handler fires before the read handler
// in a given dispatch pass.
func (c *Connection) SetWriteHandler(h Handler, barrier bool) {
	c.writeH = h
	c.barrier = barrier
	c.sync()
}

// Attach binds this connection to an event loop and begins dispatching
// its installed handlers.
func (c *Connection) Attach(loop *eventloop.Loop) error {
	c.loop = loop
	return c.sync()
}

func (c *Connection) sync() error {
	if c.loop == nil {
		return nil
	}
	var mask eventloop.Mask
	if c.readH != nil {
		mask |= eventloop.Readable
	}
	if c.writeH != nil {
		mask |= eventloop.Writable
	}
	if c.barrier {
		mask |= eventloop.Barrier
	}
	all := eventloop.Readable | eventloop.Writable | eventloop.Barrier
	if mask == 0 {
		return c.loop.DeleteFileEvent(c.fd, all)
	}
	// CreateFileEvent only merges bits in, so turn off the ones whose
	// handler (or barrier) was removed first.
	if err := c.loop.DeleteFileEvent(c.fd, all&^mask); err != nil {
		return err
	}
	return c.loop.CreateFileEvent(c.fd, mask,
		func(int, any) { c.readH(c) },
		func(int, any) { c.writeH(c) },
		nil)
}

// Read performs one non-blocking read into buf. A completed read of 0
// bytes transitions the connection to Closed; EAGAIN/EINTR leave the
// state unchanged and report (0, nil); any other error transitions
// Connected to Error.
func (c *Connection) Read(buf []byte) (int, error) {
	n, err := unix.Read(c.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return 0, nil
		}
		c.state = StateError
		return 0, err
	}
	if n == 0 {
		c.state = StateClosed
	}
	return n, nil
}

// Write performs one non-blocking write of buf.
func (c *Connection) Write(buf []byte) (int, error) {
	n, err := unix.Write(c.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return 0, nil
		}
		c.state = StateError
		return 0, err
	}
	return n, nil
}

// Writev writes each segment in order via successive non-blocking writes,
// stopping at the first short write (the caller resumes from there on the
// next writable event).
func (c *Connection) Writev(segments [][]byte) (int, error) {
	total := 0
	for _, seg := range segments {
		n, err := c.Write(seg)
		total += n
		if err != nil {
			return total, err
		}
		if n < len(seg) {
			break
		}
	}
	return total, nil
}

// SyncRead blocks, via a single-fd poll, until data is available or
// timeout elapses.
func (c *Connection) SyncRead(buf []byte, loop *eventloop.Loop, timeout time.Duration) (int, error) {
	n := loop.Wait(c.fd, eventloop.Readable, int(timeout/time.Millisecond))
	if n < 0 {
		return 0, errors.New("connection: poll error")
	}
	if n == 0 {
		return 0, ErrTimeout
	}
	return c.Read(buf)
}

// SyncReadline blocks until a full line (terminated by \n) is available
// or timeout elapses, accumulating into an internal scratch buffer.
func (c *Connection) SyncReadline(loop *eventloop.Loop, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	var line []byte
	buf := make([]byte, 1)
	for time.Now().Before(deadline) {
		n, err := c.SyncRead(buf, loop, time.Until(deadline))
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				continue
			}
			return "", err
		}
		if n == 0 {
			continue
		}
		if buf[0] == '\n' {
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			return string(line), nil
		}
		line = append(line, buf[0])
	}
	return "", ErrTimeout
}

// SyncWrite blocks until buf is fully written or timeout elapses.
func (c *Connection) SyncWrite(buf []byte, loop *eventloop.Loop, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for len(buf) > 0 {
		n := loop.Wait(c.fd, eventloop.Writable, int(time.Until(deadline)/time.Millisecond))
		if n < 0 {
			return errors.New("connection: poll error")
		}
		if n == 0 {
			return ErrTimeout
		}
		written, err := c.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[written:]
		if time.Now().After(deadline) {
			return ErrTimeout
		}
	}
	return nil
}

// Close tears down the connection exactly once.
func (c *Connection) Close() error {
	if c.state == StateClosed && c.netConn == nil && c.netListener == nil {
		return nil
	}
	c.state = StateClosed
	if c.loop != nil {
		c.loop.DeleteFileEvent(c.fd, eventloop.Readable|eventloop.Writable|eventloop.Barrier)
	}
	if c.netConn != nil {
		err := c.netConn.Close()
		c.netConn = nil
		return err
	}
	if c.netListener != nil {
		err := c.netListener.Close()
		c.netListener = nil
		return err
	}
	return nil
}
