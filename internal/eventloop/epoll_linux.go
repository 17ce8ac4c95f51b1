//go:build linux

package eventloop

import (
	"golang.org/x/sys/unix"
)

// epollPoller is the Linux readiness backend, built directly on
// epoll_create1/epoll_ctl/epoll_wait via golang.org/x/sys/unix.
type epollPoller struct {
	epfd int
}

func newPoller() (poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: fd}, nil
}

func toEpollEvents(m Mask) uint32 {
	var ev uint32
	if m&Readable != 0 {
		ev |= unix.EPOLLIN
	}
	if m&Writable != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func (p *epollPoller) Add(fd int, mask Mask) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: toEpollEvents(mask),
		Fd:     int32(fd),
	})
}

func (p *epollPoller) Modify(fd int, mask Mask) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: toEpollEvents(mask),
		Fd:     int32(fd),
	})
}

func (p *epollPoller) Remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) Poll(timeoutMs int) ([]ReadyFD, error) {
	events := make([]unix.EpollEvent, 128)
	n, err := unix.EpollWait(p.epfd, events, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	out := make([]ReadyFD, 0, n)
	for i := 0; i < n; i++ {
		var m Mask
		if events[i].Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			m |= Readable
		}
		if events[i].Events&unix.EPOLLOUT != 0 {
			m |= Writable
		}
		out = append(out, ReadyFD{FD: int(events[i].Fd), Mask: m})
	}
	return out, nil
}

func (p *epollPoller) WaitOne(fd int, mask Mask, timeoutMs int) int {
	pfd := []unix.PollFd{{Fd: int32(fd), Events: int16(toEpollEvents(mask))}}
	n, err := unix.Poll(pfd, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0
		}
		return -1
	}
	return n
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}
