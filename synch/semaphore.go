// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package synch

import (
	"fmt"
	"math"

	"v.io/x/kern/thread"
)

// Semaphore is a counting semaphore. Abstractly, a semaphore holds a
// nonnegative integer value, and supports operations to increment (V) and
// decrement (P) the value. The value is not allowed to be negative; P blocks
// until the value is positive.
//
// The semaphore is not fair. A thread woken by V must recheck the count,
// since another thread may have decremented it in the meantime, and a
// thread calling P may succeed at once even though others are sleeping.
type Semaphore struct {
	name  string
	wchan *WaitChannel
	spl   Spinlock
	count uint // GUARDED_BY(spl)
}

// NewSemaphore returns a semaphore with the given initial value.
func NewSemaphore(name string, initial uint) *Semaphore {
	return &Semaphore{
		name:  name,
		wchan: NewWaitChannel(name),
		count: initial,
	}
}

// Name returns the semaphore's name.
func (s *Semaphore) Name() string { return s.name }

// Destroy checks that the semaphore is idle. Destroying a semaphore that
// has waiters is fatal.
func (s *Semaphore) Destroy() {
	s.spl.Cleanup()
	s.wchan.Destroy()
}

// P decrements the semaphore, blocking while its value is zero. It may not
// be called in interrupt context, even when it would not need to block.
func (s *Semaphore) P(t *thread.T) {
	if t.InInterrupt() {
		panic(fmt.Sprintf("semaphore %s: P in interrupt context", s.name))
	}
	s.spl.Acquire(t)
	for s.count == 0 {
		s.wchan.Sleep(t, &s.spl)
	}
	s.count--
	s.spl.Release(t)
}

// V increments the semaphore and wakes one waiter.
func (s *Semaphore) V(t *thread.T) {
	s.spl.Acquire(t)
	if s.count == math.MaxUint {
		s.spl.Release(t)
		panic(fmt.Sprintf("semaphore %s: count overflow", s.name))
	}
	s.count++
	s.wchan.WakeOne(&s.spl)
	s.spl.Release(t)
}

// Count returns the current value.
func (s *Semaphore) Count(t *thread.T) uint {
	s.spl.Acquire(t)
	defer s.spl.Release(t)
	return s.count
}

// Waiters returns the number of threads sleeping in P.
func (s *Semaphore) Waiters(t *thread.T) int {
	s.spl.Acquire(t)
	defer s.spl.Release(t)
	return s.wchan.Len(&s.spl)
}
