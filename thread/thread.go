// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package thread provides the kernel's execution contexts.
//
// A *T is a schedulable thread of control. Threads created with Sched.Fork
// run on their own goroutine; Sched.Bootstrap adopts an existing goroutine
// (a test, or the boot path of a command) as a thread so that it can take
// part in the synchronization protocol.
//
// The kernel never asks which thread is running: every operation that needs
// the caller's identity takes the calling *T as its first argument.
//
// Blocking is implemented by parking the thread's goroutine on an nsync
// condition variable owned by the thread. A thread blocks in two steps so
// that a wait channel can enqueue it and drop its guard in between:
//
//	t.MarkBlocked()   // under the wait channel's guard
//	... enqueue t, release the guard ...
//	t.Block()         // returns once some other thread calls t.Unblock()
//
// An Unblock that lands between MarkBlocked and Block is not lost.
package thread

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"v.io/x/lib/nsync"
)

// State is the scheduling state of a thread.
type State int

const (
	Running State = iota
	Sleeping
	Zombie
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Sleeping:
		return "sleeping"
	case Zombie:
		return "zombie"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// T is an execution context.
type T struct {
	id     int
	name   string
	sched  *Sched
	forked bool

	mu     nsync.Mu
	wakeup nsync.CV
	state  State                       // GUARDED_BY(mu)
	values map[interface{}]interface{} // GUARDED_BY(mu)

	// Only ever modified by the thread itself.
	spinlocks   int32
	inInterrupt int32

	done chan struct{}
}

// ID returns the thread's identifier, unique within its scheduler.
func (t *T) ID() int { return t.id }

// Name returns the name the thread was created with.
func (t *T) Name() string { return t.name }

func (t *T) String() string {
	return fmt.Sprintf("%s#%d", t.name, t.id)
}

// State returns the thread's current scheduling state.
func (t *T) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Done returns a channel that is closed once a forked thread has exited.
func (t *T) Done() <-chan struct{} {
	return t.done
}

// Value returns the value associated with key, or nil.
func (t *T) Value(key interface{}) interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.values[key]
}

// SetValue associates val with key; a nil val removes the association.
func (t *T) SetValue(key, val interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if val == nil {
		delete(t.values, key)
		return
	}
	if t.values == nil {
		t.values = make(map[interface{}]interface{})
	}
	t.values[key] = val
}

// EnterInterrupt marks the thread as running an interrupt handler. Nothing
// may block until the matching LeaveInterrupt.
func (t *T) EnterInterrupt() {
	atomic.AddInt32(&t.inInterrupt, 1)
}

// LeaveInterrupt undoes EnterInterrupt.
func (t *T) LeaveInterrupt() {
	if atomic.AddInt32(&t.inInterrupt, -1) < 0 {
		panic(fmt.Sprintf("thread %v: LeaveInterrupt without EnterInterrupt", t))
	}
}

// InInterrupt reports whether the thread is in interrupt context.
func (t *T) InInterrupt() bool {
	return atomic.LoadInt32(&t.inInterrupt) > 0
}

// AddSpinlocks adjusts the count of spinlocks held by the thread. It is
// maintained by the spinlock implementation.
func (t *T) AddSpinlocks(delta int) {
	if atomic.AddInt32(&t.spinlocks, int32(delta)) < 0 {
		panic(fmt.Sprintf("thread %v: negative spinlock count", t))
	}
}

// Spinlocks returns the number of spinlocks the thread holds.
func (t *T) Spinlocks() int {
	return int(atomic.LoadInt32(&t.spinlocks))
}

// MarkBlocked records that the thread is about to block. The caller must
// be t itself.
func (t *T) MarkBlocked() {
	t.mu.Lock()
	if st := t.state; st != Running {
		t.mu.Unlock()
		panic(fmt.Sprintf("thread %v: MarkBlocked in state %v", t, st))
	}
	t.state = Sleeping
	t.mu.Unlock()
}

// Block parks the calling thread until Unblock is called. It returns
// immediately if Unblock already ran after MarkBlocked. Blocking with a
// spinlock held or in interrupt context is fatal.
func (t *T) Block() {
	if n := t.Spinlocks(); n != 0 {
		panic(fmt.Sprintf("thread %v: blocking with %d spinlock(s) held", t, n))
	}
	if t.InInterrupt() {
		panic(fmt.Sprintf("thread %v: blocking in interrupt context", t))
	}
	t.mu.Lock()
	for t.state == Sleeping {
		t.wakeup.WaitWithDeadline(&t.mu, nsync.NoDeadline, nil)
	}
	t.mu.Unlock()
}

// Unblock makes a thread that called MarkBlocked runnable again.
func (t *T) Unblock() {
	t.mu.Lock()
	if st := t.state; st != Sleeping {
		t.mu.Unlock()
		panic(fmt.Sprintf("thread %v: Unblock in state %v", t, st))
	}
	t.state = Running
	t.mu.Unlock()
	t.wakeup.Signal()
}

// Yield gives up the processor without blocking.
func (t *T) Yield() {
	runtime.Gosched()
}
