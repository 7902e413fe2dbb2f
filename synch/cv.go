// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package synch

import (
	"fmt"

	"v.io/x/kern/thread"
)

// CV is a condition variable used together with a Lock. A Signal or
// Broadcast with no waiters has no effect; it is not remembered for a later
// Wait.
type CV struct {
	name  string
	wchan *WaitChannel
	spl   Spinlock
}

// NewCV returns a condition variable.
func NewCV(name string) *CV {
	return &CV{name: name, wchan: NewWaitChannel(name)}
}

// Name returns the condition variable's name.
func (cv *CV) Name() string { return cv.name }

// Destroy checks that no thread is waiting on cv.
func (cv *CV) Destroy() {
	cv.spl.Cleanup()
	cv.wchan.Destroy()
}

// Wait releases lk, sleeps until signalled and then reacquires lk. t must
// hold lk. A wakeup does not imply that the condition holds, so callers
// wait in a loop.
func (cv *CV) Wait(t *thread.T, lk Lock) {
	cv.checkHolder(t, lk, "wait")
	// cv.spl is taken before lk is released, so a Signal made as soon as lk
	// is free cannot run before t is on the queue.
	cv.spl.Acquire(t)
	lk.Release(t)
	cv.wchan.Sleep(t, &cv.spl)
	cv.spl.Release(t)
	lk.Acquire(t)
}

// Signal wakes one thread waiting on cv. t must hold lk.
func (cv *CV) Signal(t *thread.T, lk Lock) {
	cv.checkHolder(t, lk, "signal")
	cv.spl.Acquire(t)
	cv.wchan.WakeOne(&cv.spl)
	cv.spl.Release(t)
}

// Broadcast wakes every thread waiting on cv. t must hold lk.
func (cv *CV) Broadcast(t *thread.T, lk Lock) {
	cv.checkHolder(t, lk, "broadcast")
	cv.spl.Acquire(t)
	cv.wchan.WakeAll(&cv.spl)
	cv.spl.Release(t)
}

// Waiters returns the number of threads waiting on cv.
func (cv *CV) Waiters(t *thread.T) int {
	cv.spl.Acquire(t)
	defer cv.spl.Release(t)
	return cv.wchan.Len(&cv.spl)
}

func (cv *CV) checkHolder(t *thread.T, lk Lock, op string) {
	if !lk.HeldBy(t) {
		panic(fmt.Sprintf("cv %s: %s by %v without holding lock %s", cv.name, op, t, lk.Name()))
	}
}
