// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package synch_test

import (
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

// newSched returns a scheduler and a thread for the test goroutine.
func newSched(t *testing.T) (*thread.Sched, *thread.T) {
	t.Helper()
	s := thread.New(thread.Config{}, nil)
	boot, err := s.Bootstrap(t.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Detach(boot) })
	return s, boot
}

// forkN starts n threads running fn and returns once they have all exited.
func forkN(t *testing.T, s *thread.Sched, n int, fn func(ct *thread.T, i int)) {
	t.Helper()
	threads := make([]*thread.T, 0, n)
	for i := 0; i < n; i++ {
		i := i
		ct, err := s.Fork("worker", func(ct *thread.T) { fn(ct, i) })
		if err != nil {
			t.Fatal(err)
		}
		threads = append(threads, ct)
	}
	for _, ct := range threads {
		<-ct.Done()
	}
}

// waitFor polls cond until it holds, yielding between attempts.
func waitFor(boot *thread.T, cond func() bool) {
	for !cond() {
		boot.Yield()
	}
}
