// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package synch

import (
	"fmt"
	"sync/atomic"

	"v.io/x/kern/thread"
)

// Lock is a sleep lock with an owner. At most one thread holds it, and
// only the holder may release it.
type Lock interface {
	// Name returns the name the lock was created with.
	Name() string
	// Acquire blocks until the lock is free and takes it. Acquiring a
	// lock the caller already holds is fatal.
	Acquire(t *thread.T)
	// Release frees the lock. Releasing a lock the caller does not hold
	// is fatal.
	Release(t *thread.T)
	// HeldBy reports, without blocking, whether t holds the lock.
	HeldBy(t *thread.T) bool
	// Destroy checks that the lock is free and has no waiters.
	Destroy()
}

// LockImpl selects how a Lock is built.
type LockImpl int

const (
	// WchanLock sleeps directly on a wait channel.
	WchanLock LockImpl = iota
	// SemLock is a semaphore with an initial value of one plus an owner.
	SemLock
)

func (i LockImpl) String() string {
	switch i {
	case WchanLock:
		return "wchan"
	case SemLock:
		return "sem"
	}
	return fmt.Sprintf("LockImpl(%d)", int(i))
}

// ParseLockImpl parses the String form of a LockImpl.
func ParseLockImpl(s string) (LockImpl, error) {
	switch s {
	case "wchan":
		return WchanLock, nil
	case "sem":
		return SemLock, nil
	}
	return 0, fmt.Errorf("unknown lock implementation %q", s)
}

// DefaultLockImpl is the implementation used by NewLock. It is fixed at
// build time by the locksem build tag.
const DefaultLockImpl = defaultLockImpl

// LockOpt configures a lock at creation.
type LockOpt func(*lockOpts)

type lockOpts struct {
	observer Observer
}

// WithObserver attaches a diagnostic observer to the lock.
func WithObserver(o Observer) LockOpt {
	return func(opts *lockOpts) {
		opts.observer = o
	}
}

// NewLock returns a lock built with DefaultLockImpl.
func NewLock(name string, opts ...LockOpt) Lock {
	return NewLockImpl(DefaultLockImpl, name, opts...)
}

// NewLockImpl returns a lock built with the given implementation.
func NewLockImpl(impl LockImpl, name string, opts ...LockOpt) Lock {
	var o lockOpts
	for _, opt := range opts {
		opt(&o)
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	switch impl {
	case WchanLock:
		return &wchanLock{name: name, obs: o.observer, wchan: NewWaitChannel(name)}
	case SemLock:
		return &semLock{name: name, obs: o.observer, sem: NewSemaphore(name, 1)}
	}
	panic(fmt.Sprintf("lock %s: unknown implementation %v", name, impl))
}

// NewWchanLock returns a lock that sleeps on its own wait channel.
func NewWchanLock(name string, opts ...LockOpt) Lock {
	return NewLockImpl(WchanLock, name, opts...)
}

// NewSemLock returns a lock built on a semaphore with a value of one.
func NewSemLock(name string, opts ...LockOpt) Lock {
	return NewLockImpl(SemLock, name, opts...)
}

type wchanLock struct {
	name   string
	obs    Observer
	wchan  *WaitChannel
	spl    Spinlock
	holder atomic.Pointer[thread.T] // written under spl
}

func (l *wchanLock) Name() string { return l.name }

func (l *wchanLock) Acquire(t *thread.T) {
	if l.HeldBy(t) {
		panic(fmt.Sprintf("lock %s: %v acquiring a lock it already holds", l.name, t))
	}
	if t.InInterrupt() {
		panic(fmt.Sprintf("lock %s: acquire in interrupt context", l.name))
	}
	l.obs.Waiting(t, l)
	l.spl.Acquire(t)
	for l.holder.Load() != nil {
		l.wchan.Sleep(t, &l.spl)
	}
	l.holder.Store(t)
	l.spl.Release(t)
	l.obs.Acquired(t, l)
}

func (l *wchanLock) Release(t *thread.T) {
	if !l.HeldBy(t) {
		panic(fmt.Sprintf("lock %s: release by %v, which does not hold it", l.name, t))
	}
	l.obs.Released(t, l)
	l.spl.Acquire(t)
	l.holder.Store(nil)
	l.wchan.WakeOne(&l.spl)
	l.spl.Release(t)
}

func (l *wchanLock) HeldBy(t *thread.T) bool {
	return l.holder.Load() == t
}

func (l *wchanLock) Destroy() {
	if h := l.holder.Load(); h != nil {
		panic(fmt.Sprintf("lock %s: destroyed while held by %v", l.name, h))
	}
	l.spl.Cleanup()
	l.wchan.Destroy()
}

type semLock struct {
	name   string
	obs    Observer
	sem    *Semaphore
	holder atomic.Pointer[thread.T]
}

func (l *semLock) Name() string { return l.name }

func (l *semLock) Acquire(t *thread.T) {
	if l.HeldBy(t) {
		panic(fmt.Sprintf("lock %s: %v acquiring a lock it already holds", l.name, t))
	}
	l.obs.Waiting(t, l)
	l.sem.P(t)
	l.holder.Store(t)
	l.obs.Acquired(t, l)
}

func (l *semLock) Release(t *thread.T) {
	if !l.HeldBy(t) {
		panic(fmt.Sprintf("lock %s: release by %v, which does not hold it", l.name, t))
	}
	l.obs.Released(t, l)
	l.holder.Store(nil)
	l.sem.V(t)
}

func (l *semLock) HeldBy(t *thread.T) bool {
	return l.holder.Load() == t
}

func (l *semLock) Destroy() {
	if h := l.holder.Load(); h != nil {
		panic(fmt.Sprintf("lock %s: destroyed while held by %v", l.name, h))
	}
	l.sem.Destroy()
}
