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

var lockImpls = []synch.LockImpl{synch.WchanLock, synch.SemLock}

func TestLockMutualExclusion(t *testing.T) {
	for _, impl := range lockImpls {
		t.Run(impl.String(), func(t *testing.T) {
			s, _ := newSched(t)
			lk := synch.NewLockImpl(impl, "lk")
			var (
				inside  int32
				counter int
			)
			const threads, iters = 8, 200
			forkN(t, s, threads, func(ct *thread.T, _ int) {
				for i := 0; i < iters; i++ {
					lk.Acquire(ct)
					if atomic.AddInt32(&inside, 1) != 1 {
						panic("Race detected")
					}
					if !lk.HeldBy(ct) {
						panic("holder not recorded")
					}
					counter++
					ct.Yield()
					atomic.AddInt32(&inside, -1)
					lk.Release(ct)
				}
			})
			if got, want := counter, threads*iters; got != want {
				t.Errorf("got %v, want %v", got, want)
			}
			lk.Destroy()
		})
	}
}

func TestLockContract(t *testing.T) {
	for _, impl := range lockImpls {
		t.Run(impl.String(), func(t *testing.T) {
			s, boot := newSched(t)
			other, err := s.Bootstrap("other")
			if err != nil {
				t.Fatal(err)
			}
			defer s.Detach(other)

			lk := synch.NewLockImpl(impl, "contract")
			if lk.HeldBy(boot) {
				t.Errorf("fresh lock is held")
			}
			expectPanic(t, "does not hold", func() { lk.Release(boot) })
			lk.Acquire(boot)
			if !lk.HeldBy(boot) || lk.HeldBy(other) {
				t.Errorf("wrong holder")
			}
			expectPanic(t, "already holds", func() { lk.Acquire(boot) })
			expectPanic(t, "does not hold", func() { lk.Release(other) })
			expectPanic(t, "destroyed while held", lk.Destroy)
			lk.Release(boot)
			if lk.HeldBy(boot) {
				t.Errorf("lock still held after release")
			}
			lk.Destroy()
		})
	}
}

func TestLockHandoff(t *testing.T) {
	for _, impl := range lockImpls {
		t.Run(impl.String(), func(t *testing.T) {
			s, boot := newSched(t)
			lk := synch.NewLockImpl(impl, "handoff")
			lk.Acquire(boot)
			var got int32
			ct, err := s.Fork("waiter", func(ct *thread.T) {
				lk.Acquire(ct)
				atomic.StoreInt32(&got, 1)
				lk.Release(ct)
			})
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 100; i++ {
				boot.Yield()
			}
			if atomic.LoadInt32(&got) != 0 {
				t.Fatalf("lock acquired while held")
			}
			lk.Release(boot)
			<-ct.Done()
			if atomic.LoadInt32(&got) != 1 {
				t.Fatalf("waiter did not acquire the lock")
			}
		})
	}
}

func TestParseLockImpl(t *testing.T) {
	for _, impl := range lockImpls {
		got, err := synch.ParseLockImpl(impl.String())
		if err != nil {
			t.Fatal(err)
		}
		if got != impl {
			t.Errorf("got %v, want %v", got, impl)
		}
	}
	if _, err := synch.ParseLockImpl("spin"); err == nil {
		t.Errorf("expected an error")
	}
}

type countingObserver struct {
	waiting, acquired, released int32
}

func (o *countingObserver) Waiting(*thread.T, synch.Lock)  { atomic.AddInt32(&o.waiting, 1) }
func (o *countingObserver) Acquired(*thread.T, synch.Lock) { atomic.AddInt32(&o.acquired, 1) }
func (o *countingObserver) Released(*thread.T, synch.Lock) { atomic.AddInt32(&o.released, 1) }

func TestObserver(t *testing.T) {
	for _, impl := range lockImpls {
		t.Run(impl.String(), func(t *testing.T) {
			_, boot := newSched(t)
			obs := &countingObserver{}
			lk := synch.NewLockImpl(impl, "observed", synch.WithObserver(obs))
			for i := 0; i < 3; i++ {
				lk.Acquire(boot)
				lk.Release(boot)
			}
			if got, want := *obs, (countingObserver{3, 3, 3}); got != want {
				t.Errorf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestHangman(t *testing.T) {
	_, boot := newSched(t)
	h := synch.NewHangman(nil)
	defer h.Close()
	a := synch.NewLock("a", synch.WithObserver(h))
	b := synch.NewLock("b", synch.WithObserver(h))
	c := synch.NewLock("c", synch.WithObserver(h))

	a.Acquire(boot)
	b.Acquire(boot)
	b.Release(boot)
	a.Release(boot)
	if got, want := len(h.Cycles()), 0; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}

	b.Acquire(boot)
	c.Acquire(boot)
	c.Release(boot)
	b.Release(boot)
	if got, want := len(h.Cycles()), 0; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}

	// c then a closes a -> b -> c -> a.
	c.Acquire(boot)
	a.Acquire(boot)
	a.Release(boot)
	c.Release(boot)
	cycles := h.Cycles()
	if got, want := len(cycles), 1; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := cycles[0], "c -> a -> b -> c"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// The same order again is not reported twice.
	c.Acquire(boot)
	a.Acquire(boot)
	a.Release(boot)
	c.Release(boot)
	if got, want := len(h.Cycles()), 1; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
