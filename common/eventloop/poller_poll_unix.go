//go:build unix && !linux

package eventloop

import (
	"slices"

	"golang.org/x/sys/unix"
)

type pollPoller struct {
	entries map[int]uint32
	pipeFDs [2]int
	pollFDs []unix.PollFd
}

func newPoller() (poller, error) {
	var pipeFDs [2]int
	err := unix.Pipe(pipeFDs[:])
	if err != nil {
		return nil, err
	}
	for _, fd := range pipeFDs {
		unix.CloseOnExec(fd)
		err = unix.SetNonblock(fd, true)
		if err != nil {
			unix.Close(pipeFDs[0])
			unix.Close(pipeFDs[1])
			return nil, err
		}
	}
	return &pollPoller{
		entries: make(map[int]uint32),
		pipeFDs: pipeFDs,
	}, nil
}

func (p *pollPoller) add(fd int, events uint32) error {
	p.entries[fd] = events
	return nil
}

func (p *pollPoller) modify(fd int, events uint32) error {
	p.entries[fd] = events
	return nil
}

func (p *pollPoller) remove(fd int) error {
	delete(p.entries, fd)
	return nil
}

func (p *pollPoller) wait(timeout int, dispatch func(fd int, events uint32)) error {
	fdList := make([]int, 0, len(p.entries))
	for fd := range p.entries {
		fdList = append(fdList, fd)
	}
	slices.Sort(fdList)
	p.pollFDs = append(p.pollFDs[:0], unix.PollFd{Fd: int32(p.pipeFDs[0]), Events: unix.POLLIN})
	for _, fd := range fdList {
		var pollEvents int16
		events := p.entries[fd]
		if events&eventRead != 0 {
			pollEvents |= unix.POLLIN
		}
		if events&eventWrite != 0 {
			pollEvents |= unix.POLLOUT
		}
		p.pollFDs = append(p.pollFDs, unix.PollFd{Fd: int32(fd), Events: pollEvents})
	}
	_, err := unix.Poll(p.pollFDs, timeout)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	if p.pollFDs[0].Revents != 0 {
		var buffer [64]byte
		for {
			_, err = unix.Read(p.pipeFDs[0], buffer[:])
			if err != nil {
				break
			}
		}
	}
	for _, pollFD := range p.pollFDs[1:] {
		if pollFD.Revents == 0 {
			continue
		}
		var events uint32
		if pollFD.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
			events |= eventRead
		}
		if pollFD.Revents&(unix.POLLOUT|unix.POLLHUP|unix.POLLERR) != 0 {
			events |= eventWrite
		}
		dispatch(int(pollFD.Fd), events)
	}
	return nil
}

func (p *pollPoller) wakeup() {
	unix.Write(p.pipeFDs[1], []byte{0})
}

func (p *pollPoller) close() error {
	unix.Close(p.pipeFDs[0])
	return unix.Close(p.pipeFDs[1])
}
