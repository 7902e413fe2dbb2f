// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package synch

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"v.io/x/kern/thread"
)

// Spinlock is a busy-wait lock. Its zero value is unlocked. The holder
// must not block until it releases the lock; the thread's spinlock count
// makes any attempt to do so fatal.
type Spinlock struct {
	word   uint32
	holder atomic.Pointer[thread.T]
}

// spinDelay backs off in a busy-wait loop, yielding the processor once the
// lock has been contended for a while.
func spinDelay(attempts uint) uint {
	if attempts < 7 {
		for i := 0; i != 1<<attempts; i++ {
		}
		return attempts + 1
	}
	runtime.Gosched()
	return attempts
}

// Acquire spins until the lock is free and then takes it.
func (s *Spinlock) Acquire(t *thread.T) {
	if s.holder.Load() == t {
		panic(fmt.Sprintf("spinlock: deadlock, %v already holds the lock", t))
	}
	t.AddSpinlocks(1)
	var attempts uint
	for !atomic.CompareAndSwapUint32(&s.word, 0, 1) {
		attempts = spinDelay(attempts)
	}
	s.holder.Store(t)
}

// Release frees a lock held by t.
func (s *Spinlock) Release(t *thread.T) {
	if s.holder.Load() != t {
		panic(fmt.Sprintf("spinlock: release by %v, which does not hold the lock", t))
	}
	s.holder.Store(nil)
	atomic.StoreUint32(&s.word, 0)
	t.AddSpinlocks(-1)
}

// HeldBy reports whether t holds the lock.
func (s *Spinlock) HeldBy(t *thread.T) bool {
	return s.holder.Load() == t
}

// Held reports whether any thread holds the lock.
func (s *Spinlock) Held() bool {
	return atomic.LoadUint32(&s.word) != 0
}

// Cleanup checks that the lock is free before its memory is reused.
func (s *Spinlock) Cleanup() {
	if s.Held() {
		panic(fmt.Sprintf("spinlock: cleanup while held by %v", s.holder.Load()))
	}
}
