// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thread

import (
	"errors"
	"fmt"
	"runtime"

	"v.io/x/lib/nsync"

	"v.io/x/kern/internal/logger"
)

// ErrTooManyThreads is returned by Fork and Bootstrap when the configured
// thread limit has been reached.
var ErrTooManyThreads = errors.New("too many threads")

// Config configures a scheduler.
type Config struct {
	// MaxThreads bounds the number of live threads; zero means no bound.
	MaxThreads int
}

// Sched creates, tracks and terminates threads.
type Sched struct {
	cfg Config
	log logger.Logging

	mu      nsync.Mu
	idle    nsync.CV
	nextID  int        // GUARDED_BY(mu)
	live    map[int]*T // GUARDED_BY(mu)
	nforked int        // GUARDED_BY(mu)
}

// New returns a scheduler. A nil log selects the global logger.
func New(cfg Config, log logger.Logging) *Sched {
	return &Sched{
		cfg:  cfg,
		log:  logger.Or(log),
		live: make(map[int]*T),
	}
}

func (s *Sched) newThread(name string, forked bool) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.MaxThreads > 0 && len(s.live) >= s.cfg.MaxThreads {
		return nil, ErrTooManyThreads
	}
	s.nextID++
	t := &T{
		id:     s.nextID,
		name:   name,
		sched:  s,
		forked: forked,
		done:   make(chan struct{}),
	}
	s.live[t.id] = t
	if forked {
		s.nforked++
	}
	return t, nil
}

// Bootstrap adopts the calling goroutine as a thread. The goroutine must
// call Detach when it no longer acts as a thread.
func (s *Sched) Bootstrap(name string) (*T, error) {
	t, err := s.newThread(name, false)
	if err != nil {
		return nil, fmt.Errorf("bootstrap %q: %w", name, err)
	}
	s.log.VI(3).Infof("thread: bootstrap %v", t)
	return t, nil
}

// Detach releases a thread created by Bootstrap.
func (s *Sched) Detach(t *T) {
	if t.forked {
		panic(fmt.Sprintf("thread %v: Detach of a forked thread", t))
	}
	s.retire(t)
}

// Fork creates a new thread running entry on its own goroutine. The thread
// exits when entry returns or calls Exit.
func (s *Sched) Fork(name string, entry func(t *T)) (*T, error) {
	t, err := s.newThread(name, true)
	if err != nil {
		return nil, fmt.Errorf("fork %q: %w", name, err)
	}
	s.log.VI(3).Infof("thread: fork %v", t)
	go func() {
		defer s.retire(t)
		entry(t)
	}()
	return t, nil
}

// Exit terminates the calling forked thread. It does not return.
func (s *Sched) Exit(t *T) {
	if !t.forked {
		panic(fmt.Sprintf("thread %v: Exit of a bootstrap thread", t))
	}
	if n := t.Spinlocks(); n != 0 {
		panic(fmt.Sprintf("thread %v: exiting with %d spinlock(s) held", t, n))
	}
	runtime.Goexit()
}

func (s *Sched) retire(t *T) {
	t.mu.Lock()
	t.state = Zombie
	t.mu.Unlock()

	s.mu.Lock()
	delete(s.live, t.id)
	if t.forked {
		s.nforked--
		if s.nforked == 0 {
			s.idle.Broadcast()
		}
	}
	s.mu.Unlock()
	close(t.done)
	s.log.VI(3).Infof("thread: exit %v", t)
}

// Len returns the number of live threads.
func (s *Sched) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// WaitIdle blocks the calling goroutine until every forked thread has
// exited. It is not a kernel suspension point and must not be called by a
// thread that other threads are waiting on.
func (s *Sched) WaitIdle() {
	s.mu.Lock()
	for s.nforked > 0 {
		s.idle.WaitWithDeadline(&s.mu, nsync.NoDeadline, nil)
	}
	s.mu.Unlock()
}
