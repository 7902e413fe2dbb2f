// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package synch implements the kernel's synchronization primitives.
//
// The layering is:
//
//	Spinlock      busy-wait mutual exclusion for short, non-blocking sections
//	WaitChannel   a named sleep queue, guarded at each call by one Spinlock
//	Semaphore     counting semaphore (WaitChannel + Spinlock)
//	Lock          mutex with an owner (WaitChannel + Spinlock, or Semaphore(1))
//	CV            Mesa-style condition variable used with a caller-held Lock
//
// All operations take the calling thread explicitly. Misuse, such as
// releasing a lock that the caller does not hold, blocking while a spinlock
// is held, or destroying a primitive that has waiters, is a bug in the
// caller and panics.
//
// None of the primitives are fair: a thread woken from a wait channel
// competes with threads that have not yet slept, so every sleeper re-checks
// its condition in a loop.
package synch
