// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thread_test

import (
	"errors"
	"strings"
	"testing"

	"v.io/x/kern/thread"
)

func expectPanic(t *testing.T, substr string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected a panic containing %q", substr)
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, substr) {
			t.Fatalf("got panic %v, want one containing %q", r, substr)
		}
	}()
	fn()
}

func TestForkAndExit(t *testing.T) {
	s := thread.New(thread.Config{}, nil)
	ran := make(chan int, 2)
	t1, err := s.Fork("returns", func(*thread.T) {
		ran <- 1
	})
	if err != nil {
		t.Fatal(err)
	}
	t2, err := s.Fork("exits", func(ct *thread.T) {
		ran <- 2
		s.Exit(ct)
		ran <- 3
	})
	if err != nil {
		t.Fatal(err)
	}
	<-t1.Done()
	<-t2.Done()
	s.WaitIdle()
	close(ran)
	sum := 0
	for v := range ran {
		sum += v
	}
	if got, want := sum, 3; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := t2.State(), thread.Zombie; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := s.Len(), 0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMaxThreads(t *testing.T) {
	s := thread.New(thread.Config{MaxThreads: 2}, nil)
	boot, err := s.Bootstrap("boot")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Detach(boot)
	release := make(chan struct{})
	if _, err := s.Fork("one", func(*thread.T) { <-release }); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Fork("two", func(*thread.T) {}); !errors.Is(err, thread.ErrTooManyThreads) {
		t.Errorf("got %v, want %v", err, thread.ErrTooManyThreads)
	}
	close(release)
	s.WaitIdle()
	if _, err := s.Fork("three", func(*thread.T) {}); err != nil {
		t.Errorf("Fork after exit: %v", err)
	}
	s.WaitIdle()
}

func TestUnblockBeforeBlock(t *testing.T) {
	s := thread.New(thread.Config{}, nil)
	self, err := s.Bootstrap("self")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Detach(self)
	self.MarkBlocked()
	if got, want := self.State(), thread.Sleeping; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	self.Unblock()
	// Must not park: the wakeup already happened.
	self.Block()
	if got, want := self.State(), thread.Running; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBlockUnblock(t *testing.T) {
	s := thread.New(thread.Config{}, nil)
	marked := make(chan *thread.T)
	woken := make(chan struct{})
	if _, err := s.Fork("sleeper", func(ct *thread.T) {
		ct.MarkBlocked()
		marked <- ct
		ct.Block()
		close(woken)
	}); err != nil {
		t.Fatal(err)
	}
	sleeper := <-marked
	sleeper.Unblock()
	<-woken
	s.WaitIdle()
}

func TestBlockingContractViolations(t *testing.T) {
	s := thread.New(thread.Config{}, nil)
	self, err := s.Bootstrap("self")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Detach(self)

	self.AddSpinlocks(1)
	expectPanic(t, "spinlock(s) held", self.Block)
	self.AddSpinlocks(-1)

	self.EnterInterrupt()
	expectPanic(t, "interrupt context", self.Block)
	self.LeaveInterrupt()

	expectPanic(t, "Unblock in state running", self.Unblock)
	expectPanic(t, "Exit of a bootstrap thread", func() { s.Exit(self) })
	expectPanic(t, "LeaveInterrupt without EnterInterrupt", self.LeaveInterrupt)
}

func TestValues(t *testing.T) {
	s := thread.New(thread.Config{}, nil)
	self, err := s.Bootstrap("self")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Detach(self)
	type key struct{}
	if v := self.Value(key{}); v != nil {
		t.Errorf("got %v, want nil", v)
	}
	self.SetValue(key{}, 42)
	if got, want := self.Value(key{}), 42; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	self.SetValue(key{}, nil)
	if v := self.Value(key{}); v != nil {
		t.Errorf("got %v, want nil", v)
	}
}

func TestFuncFrame(t *testing.T) {
	f := thread.NewFuncFrame(func(_ *thread.T, rv int) int { return rv + 1 })
	f.SetReturn(41)
	dup, err := f.Dup()
	if err != nil {
		t.Fatal(err)
	}
	dup.SetReturn(0)
	if got, want := f.Resume(nil), 42; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := dup.Resume(nil), 1; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
