// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package synch

import (
	"fmt"

	"v.io/x/kern/internal/lib/deque"
	"v.io/x/kern/thread"
)

// WaitChannel is a named queue of sleeping threads. Each call takes the
// spinlock that guards the channel; the same spinlock must be used for
// every call on a given channel.
type WaitChannel struct {
	name    string
	threads deque.T[*thread.T] // GUARDED_BY(guard)
}

// NewWaitChannel returns an empty wait channel.
func NewWaitChannel(name string) *WaitChannel {
	return &WaitChannel{name: name}
}

// Name returns the channel's name.
func (wc *WaitChannel) Name() string { return wc.name }

// Sleep puts t to sleep on the channel. t must hold guard and no other
// spinlock. The guard is released once t is on the queue and reacquired
// before Sleep returns.
func (wc *WaitChannel) Sleep(t *thread.T, guard *Spinlock) {
	if !guard.HeldBy(t) {
		panic(fmt.Sprintf("wchan %s: sleep by %v without holding the guard", wc.name, t))
	}
	if n := t.Spinlocks(); n != 1 {
		panic(fmt.Sprintf("wchan %s: sleep by %v holding %d spinlocks", wc.name, t, n))
	}
	if t.InInterrupt() {
		panic(fmt.Sprintf("wchan %s: sleep by %v in interrupt context", wc.name, t))
	}
	t.MarkBlocked()
	wc.threads.PushBack(t)
	guard.Release(t)
	t.Block()
	guard.Acquire(t)
}

// WakeOne wakes one sleeping thread, if there is one. Which one is not
// specified.
func (wc *WaitChannel) WakeOne(guard *Spinlock) {
	wc.checkGuard(guard)
	if t, ok := wc.threads.PopFront(); ok {
		t.Unblock()
	}
}

// WakeAll wakes every sleeping thread.
func (wc *WaitChannel) WakeAll(guard *Spinlock) {
	wc.checkGuard(guard)
	for {
		t, ok := wc.threads.PopFront()
		if !ok {
			return
		}
		t.Unblock()
	}
}

// IsEmpty reports whether no thread is sleeping on the channel.
func (wc *WaitChannel) IsEmpty(guard *Spinlock) bool {
	wc.checkGuard(guard)
	return wc.threads.Size() == 0
}

// Len returns the number of sleepers.
func (wc *WaitChannel) Len(guard *Spinlock) int {
	wc.checkGuard(guard)
	return wc.threads.Size()
}

// Destroy checks that nobody is sleeping on the channel.
func (wc *WaitChannel) Destroy() {
	if n := wc.threads.Size(); n != 0 {
		panic(fmt.Sprintf("wchan %s: destroyed with %d sleeper(s)", wc.name, n))
	}
}

func (wc *WaitChannel) checkGuard(guard *Spinlock) {
	if !guard.Held() {
		panic(fmt.Sprintf("wchan %s: guard not held", wc.name))
	}
}
