// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syscalls_test

import (
	"errors"
	"fmt"
	"testing"

	"v.io/x/kern/bitmap"
	"v.io/x/kern/kern"
	"v.io/x/kern/proc"
	"v.io/x/kern/syscalls"
	"v.io/x/kern/thread"
	"v.io/x/kern/vm"
)

func TestErrnoOf(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want syscalls.Errno
	}{
		{nil, 0},
		{syscalls.EINVAL, syscalls.EINVAL},
		{fmt.Errorf("waitpid 3: %w", proc.ErrNoSuchChild), syscalls.ECHILD},
		{fmt.Errorf("fork: %w", proc.ErrNoProcs), syscalls.ENPROC},
		{fmt.Errorf("fork: %w", thread.ErrTooManyThreads), syscalls.ENPROC},
		{fmt.Errorf("fork: %w", vm.ErrNoMemory), syscalls.ENOMEM},
		{bitmap.ErrNoSpace, syscalls.ENOMEM},
		{bitmap.ErrInvalidSize, syscalls.EINVAL},
		{errors.New("frame copy failed"), syscalls.ENOMEM},
	} {
		if got, want := syscalls.ErrnoOf(tc.err), tc.want; got != want {
			t.Errorf("%v: got %v, want %v", tc.err, got, want)
		}
	}
	if got, want := syscalls.ECHILD.Error(), "no child processes"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := syscalls.Errno(99).Error(), "errno 99"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExitStatus(t *testing.T) {
	for _, code := range []int{0, 1, 7, 255} {
		if got, want := syscalls.ExitStatus(syscalls.MakeExitStatus(code)), code; got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	}
	if got, want := syscalls.MakeExitStatus(7), 28; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestForkExitWaitpid(t *testing.T) {
	cfg := kern.DefaultConfig()
	cfg.PidMin, cfg.PidMax = 2, 4
	k, err := kern.Boot(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	sys := k.Syscalls()
	if _, err := k.Run("parent", func(pt *thread.T) int {
		child := func(code int) thread.Frame {
			return thread.NewFuncFrame(func(ct *thread.T, rv int) int {
				if rv != 0 {
					return -1
				}
				sys.Exit(ct, code)
				panic("exit returned")
			})
		}
		pids := map[int]int{}
		for code := 1; ; code++ {
			pid, err := sys.Fork(pt, child(code))
			if err != nil {
				if got, want := syscalls.ErrnoOf(err), syscalls.ENPROC; got != want {
					t.Errorf("got %v, want %v", got, want)
				}
				if got, want := pid, -1; got != want {
					t.Errorf("got %v, want %v", got, want)
				}
				break
			}
			pids[pid] = code
		}
		if got, want := len(pids), 2; got != want {
			t.Errorf("got %v, want %v", got, want)
		}
		for pid, code := range pids {
			var status int
			got, err := sys.Waitpid(pt, pid, &status, 0)
			if err != nil {
				t.Fatal(err)
			}
			if got != pid || syscalls.ExitStatus(status) != code {
				t.Errorf("got (%v, %v), want (%v, %v)", got, syscalls.ExitStatus(status), pid, code)
			}
			if _, err := sys.Waitpid(pt, pid, &status, 0); syscalls.ErrnoOf(err) != syscalls.ECHILD {
				t.Errorf("second waitpid: got %v, want %v", err, syscalls.ECHILD)
			}
		}
		return 0
	}); err != nil {
		t.Fatal(err)
	}
	if err := k.Shutdown(); err != nil {
		t.Fatal(err)
	}
}
