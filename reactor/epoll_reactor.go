//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor - Linux epoll Poller.

package reactor

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// EpollPoller keeps an epoll interest list in step with the ReadySet it is
// handed on each wait.
type EpollPoller struct {
	epfd    int
	watched ReadySet
	events  []unix.EpollEvent
}

// NewEpollPoller creates an epoll-backed Poller. Close releases the epoll descriptor.
func NewEpollPoller() (*EpollPoller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &EpollPoller{
		epfd:   epfd,
		events: make([]unix.EpollEvent, 64),
	}, nil
}

// Wait implements Poller. Every descriptor is (re)added on each call:
// a closed descriptor drops out of epoll on its own, and its number may
// already belong to a freshly registered socket.
func (p *EpollPoller) Wait(set *ReadySet, timeout time.Duration) (int, error) {
	var stale []int
	p.watched.Each(func(fd int) bool {
		if !set.Contains(fd) {
			stale = append(stale, fd)
		}
		return true
	})
	for _, fd := range stale {
		// ENOENT / EBADF: already gone with its file
		_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		p.watched.Remove(fd)
	}

	var ctlErr error
	set.Each(func(fd int) bool {
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
		if err != nil && !errors.Is(err, unix.EEXIST) {
			ctlErr = fmt.Errorf("epoll ctl add fd %d: %w", fd, err)
			return false
		}
		p.watched.Add(fd)
		return true
	})
	if ctlErr != nil {
		return 0, ctlErr
	}

	if len(p.events) < set.Len() {
		p.events = make([]unix.EpollEvent, set.Len())
	}
	n, err := unix.EpollWait(p.epfd, p.events, timeoutMillis(timeout))
	if err != nil {
		return 0, fmt.Errorf("epoll wait: %w", err)
	}

	set.Clear()
	for i := 0; i < n; i++ {
		set.Add(int(p.events[i].Fd))
	}
	return set.Len(), nil
}

// Close releases the epoll descriptor.
func (p *EpollPoller) Close() error {
	return unix.Close(p.epfd)
}
