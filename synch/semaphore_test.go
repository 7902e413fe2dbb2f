// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package synch_test

import (
	"sync/atomic"
	"testing"

	"v.io/x/kern/synch"
	"v.io/x/kern/thread"
)

func TestSemaphoreBlocksAtZero(t *testing.T) {
	s, boot := newSched(t)
	sem := synch.NewSemaphore("sem", 0)
	var passed int32
	ct, err := s.Fork("waiter", func(ct *thread.T) {
		sem.P(ct)
		atomic.StoreInt32(&passed, 1)
	})
	if err != nil {
		t.Fatal(err)
	}
	waitFor(boot, func() bool { return sem.Waiters(boot) == 1 })
	if atomic.LoadInt32(&passed) != 0 {
		t.Fatalf("P returned with a count of zero")
	}
	sem.V(boot)
	<-ct.Done()
	if got, want := atomic.LoadInt32(&passed), int32(1); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := sem.Count(boot), uint(0); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	sem.Destroy()
}

func TestSemaphoreCount(t *testing.T) {
	s, boot := newSched(t)
	const initial, threads, iters = 3, 10, 200
	sem := synch.NewSemaphore("count", initial)
	var inside, maxInside int32
	forkN(t, s, threads, func(ct *thread.T, _ int) {
		for i := 0; i < iters; i++ {
			sem.P(ct)
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			ct.Yield()
			atomic.AddInt32(&inside, -1)
			sem.V(ct)
		}
	})
	if got, limit := atomic.LoadInt32(&maxInside), int32(initial); got > limit {
		t.Errorf("got %v threads inside, want at most %v", got, limit)
	}
	if got, want := sem.Count(boot), uint(initial); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	sem.Destroy()
}

func TestSemaphoreContract(t *testing.T) {
	s, boot := newSched(t)
	sem := synch.NewSemaphore("contract", 1)
	boot.EnterInterrupt()
	expectPanic(t, "interrupt context", func() { sem.P(boot) })
	boot.LeaveInterrupt()

	sem = synch.NewSemaphore("busy", 0)
	ct, err := s.Fork("waiter", func(ct *thread.T) { sem.P(ct) })
	if err != nil {
		t.Fatal(err)
	}
	waitFor(boot, func() bool { return sem.Waiters(boot) == 1 })
	expectPanic(t, "sleeper", sem.Destroy)
	sem.V(boot)
	<-ct.Done()
	sem.Destroy()
}
