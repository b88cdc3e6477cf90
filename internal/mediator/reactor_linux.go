//go:build linux

// File: internal/mediator/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Package mediator wires the channel table, request pool, framer and
// whitelist into the three-thread pipeline: a core task multiplexing
// channel readiness, and dedicated rx/tx workers draining the pool's
// queues. The reactor here is grounded on reactor/epoll_reactor.go,
// generalized from per-connection callbacks over many short-lived sockets
// to a handful of long-lived channel fds polled with an infinite, level-
// triggered, EINTR-tolerant wait.
package mediator

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/momentics/ioc-mediator/api"
)

type epollReactor struct {
	epfd int
	mu   sync.Mutex
	cbs  map[int32]api.FDCallback
}

// newReactor constructs the Linux epoll-based api.Reactor.
func newReactor() (api.Reactor, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, api.NewInitError(api.ErrCodeReactorCreate, "epoll create", err)
	}
	return &epollReactor{epfd: epfd, cbs: make(map[int32]api.FDCallback)}, nil
}

// Register watches fd for events, level-triggered (no EPOLLET): readiness
// persists across wakeups until actually drained.
func (r *epollReactor) Register(fd uintptr, events api.FDEventType, cb api.FDCallback) error {
	var ev unix.EpollEvent
	if events&api.EventRead != 0 {
		ev.Events |= unix.EPOLLIN
	}
	if events&api.EventWrite != 0 {
		ev.Events |= unix.EPOLLOUT
	}
	ev.Fd = int32(fd)
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		return err
	}
	r.mu.Lock()
	r.cbs[int32(fd)] = cb
	r.mu.Unlock()
	return nil
}

// Unregister stops watching fd.
func (r *epollReactor) Unregister(fd uintptr) error {
	err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
	r.mu.Lock()
	delete(r.cbs, int32(fd))
	r.mu.Unlock()
	return err
}

// Poll waits for readiness and dispatches callbacks. An EINTR is not an
// error: the core task's wait loop simply resumes, confirmed against
// ioc_core_thread's epoll_wait handling.
func (r *epollReactor) Poll(timeoutMs int) error {
	var events [64]unix.EpollEvent
	n, err := unix.EpollWait(r.epfd, events[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	for i := 0; i < n; i++ {
		ev := events[i]
		r.mu.Lock()
		cb, ok := r.cbs[ev.Fd]
		r.mu.Unlock()
		if !ok {
			continue
		}
		var et api.FDEventType
		if ev.Events&unix.EPOLLIN != 0 {
			et |= api.EventRead
		}
		if ev.Events&unix.EPOLLOUT != 0 {
			et |= api.EventWrite
		}
		cb(uintptr(ev.Fd), et)
	}
	return nil
}

// Close releases the epoll fd. Closing it while the core task blocks in
// Poll is how shutdown unblocks it.
func (r *epollReactor) Close() error {
	return unix.Close(r.epfd)
}
