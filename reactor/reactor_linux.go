//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux poll(2)-based wait and factory.

package reactor

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// pollPoller converts the ReadySet to a pollfd array on every wait.
type pollPoller struct {
	pfds []unix.PollFd
}

// NewPoller constructs the default Poller for Linux.
func NewPoller() (Poller, error) {
	return &pollPoller{}, nil
}

// Wait implements Poller. POLLNVAL is reported as EBADF, matching select(2)
// on a closed descriptor.
func (p *pollPoller) Wait(set *ReadySet, timeout time.Duration) (int, error) {
	p.pfds = p.pfds[:0]
	set.Each(func(fd int) bool {
		p.pfds = append(p.pfds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
		return true
	})

	n, err := unix.Poll(p.pfds, timeoutMillis(timeout))
	if err != nil {
		return 0, fmt.Errorf("poll: %w", err)
	}
	set.Clear()
	if n == 0 {
		return 0, nil
	}

	ready := 0
	for _, pfd := range p.pfds {
		if pfd.Revents&unix.POLLNVAL != 0 {
			return 0, fmt.Errorf("poll fd %d: %w", pfd.Fd, unix.EBADF)
		}
		if pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			set.Add(int(pfd.Fd))
			ready++
		}
	}
	return ready, nil
}
