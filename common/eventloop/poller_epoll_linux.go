//go:build linux

package eventloop

import (
	"golang.org/x/sys/unix"
)

type epollPoller struct {
	epollFD int
	pipeFDs [2]int
	events  []unix.EpollEvent
}

func newPoller() (poller, error) {
	epollFD, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	var pipeFDs [2]int
	err = unix.Pipe2(pipeFDs[:], unix.O_NONBLOCK|unix.O_CLOEXEC)
	if err != nil {
		unix.Close(epollFD)
		return nil, err
	}

	pipeEvent := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(pipeFDs[0])}
	err = unix.EpollCtl(epollFD, unix.EPOLL_CTL_ADD, pipeFDs[0], pipeEvent)
	if err != nil {
		unix.Close(pipeFDs[0])
		unix.Close(pipeFDs[1])
		unix.Close(epollFD)
		return nil, err
	}

	return &epollPoller{
		epollFD: epollFD,
		pipeFDs: pipeFDs,
		events:  make([]unix.EpollEvent, 64),
	}, nil
}

func epollEvents(events uint32) uint32 {
	var epollEvents uint32
	if events&eventRead != 0 {
		epollEvents |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if events&eventWrite != 0 {
		epollEvents |= unix.EPOLLOUT
	}
	return epollEvents
}

func (p *epollPoller) add(fd int, events uint32) error {
	event := &unix.EpollEvent{Events: epollEvents(events), Fd: int32(fd)}
	err := unix.EpollCtl(p.epollFD, unix.EPOLL_CTL_ADD, fd, event)
	if err == unix.EPERM {
		return errNotPollable
	}
	return err
}

func (p *epollPoller) modify(fd int, events uint32) error {
	event := &unix.EpollEvent{Events: epollEvents(events), Fd: int32(fd)}
	return unix.EpollCtl(p.epollFD, unix.EPOLL_CTL_MOD, fd, event)
}

func (p *epollPoller) remove(fd int) error {
	return unix.EpollCtl(p.epollFD, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) wait(timeout int, dispatch func(fd int, events uint32)) error {
	n, err := unix.EpollWait(p.epollFD, p.events, timeout)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	var buffer [64]byte
	for i := 0; i < n; i++ {
		event := p.events[i]
		fd := int(event.Fd)
		if fd == p.pipeFDs[0] {
			for {
				_, err = unix.Read(p.pipeFDs[0], buffer[:])
				if err != nil {
					break
				}
			}
			continue
		}
		var events uint32
		if event.Events&(unix.EPOLLIN|unix.EPOLLRDHUP|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			events |= eventRead
		}
		if event.Events&(unix.EPOLLOUT|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			events |= eventWrite
		}
		dispatch(fd, events)
	}
	return nil
}

func (p *epollPoller) wakeup() {
	unix.Write(p.pipeFDs[1], []byte{0})
}

func (p *epollPoller) close() error {
	err := unix.Close(p.epollFD)
	unix.Close(p.pipeFDs[0])
	unix.Close(p.pipeFDs[1])
	return err
}
