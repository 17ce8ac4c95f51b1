// Package eventloop implements the single-threaded cooperative reactor:
// a kernel-readiness poll over a file-event table plus a time-event list,
// modeled the way a kqueue/epoll based event loop is structured, but built
// on an OS-specific poller backend (see epoll_linux.go / poll_other.go).
package eventloop

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Mask is a bitset of readiness conditions a file event cares about.
type Mask uint8

const (
	Readable Mask = 1 << iota
	Writable
	Barrier
)

// FileProc handles a readiness notification for a single fd.
type FileProc func(fd int, userData any)

// NoMore is returned by a TimeProc to mean "do not reschedule me".
const NoMore = -1

// TimeProc runs a time event; it returns the number of seconds until the
// next run, or NoMore to cancel.
type TimeProc func(id int64, userData any) int

// deleteSentinel marks a time event for removal on the next pass.
const deleteSentinel = -1

type fileEvent struct {
	mask     Mask
	readCB   FileProc
	writeCB  FileProc
	userData any
}

type timeEvent struct {
	id       int64
	whenMs   int64
	proc     TimeProc
	finalize func(id int64, userData any)
	userData any
	prev     *timeEvent
	next     *timeEvent
}

// poller abstracts the OS-specific kernel readiness mechanism.
type poller interface {
	Add(fd int, mask Mask) error
	Modify(fd int, mask Mask) error
	Remove(fd int) error
	// Poll blocks up to timeoutMs milliseconds (negative = forever) and
	// returns the set of ready fds with the mask of conditions observed.
	Poll(timeoutMs int) ([]ReadyFD, error)
	// WaitOne blocks on a single fd for mask with a millisecond timeout.
	// Returns -1 on error, 0 on timeout, >0 on ready.
	WaitOne(fd int, mask Mask, timeoutMs int) int
	Close() error
}

// ReadyFD is one readiness result from Poll.
type ReadyFD struct {
	FD   int
	Mask Mask
}

// Loop is the reactor: one goroutine drives Process in a loop, exactly as
// the model's single dispatch thread would.
type Loop struct {
	mu     sync.Mutex
	poll   poller
	files  map[int]*fileEvent
	times  *timeEvent
	nextID int64
	running atomic.Bool
}

// ErrNoPoller is returned if no readiness backend could be constructed.
var ErrNoPoller = errors.New("eventloop: no readiness backend available")

// New creates a loop bound to the platform's readiness backend.
func New() (*Loop, error) {
	p, err := newPoller()
	if err != nil {
		return nil, err
	}
	return &Loop{poll: p, files: make(map[int]*fileEvent)}, nil
}

// CreateFileEvent installs or merges a file event for fd. A nil callback
// for a bit that's already present is a no-op for that callback; a
// non-null existing callback always wins over a later nil one, matching
// the model's merge semantics.
func (l *Loop) CreateFileEvent(fd int, mask Mask, read, write FileProc, userData any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fe, ok := l.files[fd]
	if !ok {
		fe = &fileEvent{}
		l.files[fd] = fe
	}
	if mask&Readable != 0 && fe.readCB == nil {
		fe.readCB = read
	}
	if mask&Writable != 0 && fe.writeCB == nil {
		fe.writeCB = write
	}
	if userData != nil {
		fe.userData = userData
	}
	fe.mask |= mask

	if ok {
		return l.poll.Modify(fd, fe.mask)
	}
	return l.poll.Add(fd, fe.mask)
}

// DeleteFileEvent turns off the given bits, freeing the slot once none
// remain.
func (l *Loop) DeleteFileEvent(fd int, mask Mask) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fe, ok := l.files[fd]
	if !ok {
		return nil
	}
	fe.mask &^= mask
	if mask&Readable != 0 {
		fe.readCB = nil
	}
	if mask&Writable != 0 {
		fe.writeCB = nil
	}
	if fe.mask == 0 {
		delete(l.files, fd)
		return l.poll.Remove(fd)
	}
	return l.poll.Modify(fd, fe.mask)
}

// SetBarrier toggles the BARRIER bit for fd without affecting readable or
// writable registration.
func (l *Loop) SetBarrier(fd int, on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fe, ok := l.files[fd]
	if !ok {
		return nil
	}
	if on {
		fe.mask |= Barrier
	} else {
		fe.mask &^= Barrier
	}
	return l.poll.Modify(fd, fe.mask)
}

// CreateTimeEvent schedules proc to run after delayMs milliseconds, and
// returns its id.
func (l *Loop) CreateTimeEvent(delayMs int64, proc TimeProc, finalize func(id int64, userData any), userData any) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	te := &timeEvent{
		id:       l.nextID,
		whenMs:   nowMs() + delayMs,
		proc:     proc,
		finalize: finalize,
		userData: userData,
		next:     l.times,
	}
	if l.times != nil {
		l.times.prev = te
	}
	l.times = te
	return te.id
}

// DeleteTimeEvent marks a time event for removal on the next Process pass.
func (l *Loop) DeleteTimeEvent(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for te := l.times; te != nil; te = te.next {
		if te.id == id {
			te.id = deleteSentinel
			return
		}
	}
}

func nowMs() int64 { return time.Now().UnixMilli() }

// Process polls the readiness handle with a 1-second timeout, dispatches
// ready file events honoring BARRIER ordering, then walks the time-event
// list once.
func (l *Loop) Process() error {
	ready, err := l.poll.Poll(1000)
	if err != nil {
		return err
	}

	for _, r := range ready {
		l.mu.Lock()
		fe, ok := l.files[r.FD]
		l.mu.Unlock()
		if !ok {
			continue
		}
		barrier := fe.mask&Barrier != 0
		if barrier {
			if r.Mask&Writable != 0 && fe.writeCB != nil {
				fe.writeCB(r.FD, fe.userData)
			}
			if r.Mask&Readable != 0 && fe.readCB != nil {
				fe.readCB(r.FD, fe.userData)
			}
		} else {
			if r.Mask&Readable != 0 && fe.readCB != nil {
				fe.readCB(r.FD, fe.userData)
			}
			if r.Mask&Writable != 0 && fe.writeCB != nil {
				fe.writeCB(r.FD, fe.userData)
			}
		}
	}

	l.processTimeEvents()
	return nil
}

func (l *Loop) processTimeEvents() {
	now := nowMs()
	l.mu.Lock()
	te := l.times
	l.mu.Unlock()

	for te != nil {
		next := te.next
		if te.id == deleteSentinel {
			l.unlinkTimeEvent(te)
			if te.finalize != nil {
				te.finalize(te.id, te.userData)
			}
		} else if te.whenMs <= now {
			ret := te.proc(te.id, te.userData)
			if ret == NoMore {
				te.id = deleteSentinel
				l.unlinkTimeEvent(te)
				if te.finalize != nil {
					te.finalize(te.id, te.userData)
				}
			} else {
				te.whenMs = now + int64(ret)*1000
			}
		}
		te = next
	}
}

func (l *Loop) unlinkTimeEvent(te *timeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if te.prev != nil {
		te.prev.next = te.next
	} else {
		l.times = te.next
	}
	if te.next != nil {
		te.next.prev = te.prev
	}
}

// Run drives Process in a loop until Stop is called.
func (l *Loop) Run() error {
	l.running.Store(true)
	for l.running.Load() {
		if err := l.Process(); err != nil {
			return err
		}
	}
	return nil
}

// Stop requests the Run loop to exit after its current pass.
func (l *Loop) Stop() { l.running.Store(false) }

// Close releases the underlying readiness handle.
func (l *Loop) Close() error { return l.poll.Close() }

// Wait blocks on a single fd for the given mask with a millisecond
// timeout: -1 on error, 0 on timeout, >0 on ready.
func (l *Loop) Wait(fd int, mask Mask, timeoutMs int) int {
	return l.poll.WaitOne(fd, mask, timeoutMs)
}
