// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"

	"v.io/x/lib/cmdline"

	"v.io/x/kern/bitmap"
	"v.io/x/kern/kern"
	"v.io/x/kern/thread"
)

var flagBits int

func init() {
	cmdBt.Flags.IntVar(&flagBits, "bits", 100, "Size of the bitmap.")
}

var cmdBt = &cmdline.Command{
	Runner: cmdline.RunnerFunc(runBt),
	Name:   "bt",
	Short:  "Bitmap test",
	Long: `
Allocates every bit of a bitmap, frees and reallocates some of them, and
allocates contiguous runs.
`,
}

var cmdMemstats = &cmdline.Command{
	Runner: cmdline.RunnerFunc(runMemstats),
	Name:   "memstats",
	Short:  "Show memory statistics",
	Long: `
Shows coremap and host memory statistics before and after running a program
that forks a child, and reports any pages the program leaked.
`,
}

func runBt(env *cmdline.Env, args []string) error {
	if len(args) != 0 {
		return env.UsageErrorf("expected 0 args, got %d", len(args))
	}
	b, err := bitmap.New(flagBits)
	if err != nil {
		return env.UsageErrorf("%v", err)
	}
	defer b.Destroy()
	for want := 0; want < flagBits; want++ {
		got, err := b.Alloc()
		if err != nil {
			return fmt.Errorf("bt: alloc %d: %w", want, err)
		}
		if got != want || !b.IsSet(got) {
			return fmt.Errorf("bt: alloc returned %d, want %d", got, want)
		}
	}
	if _, err := b.Alloc(); !errors.Is(err, bitmap.ErrNoSpace) {
		return fmt.Errorf("bt: alloc of a full bitmap: got %v, want %v", err, bitmap.ErrNoSpace)
	}
	for i := 0; i < flagBits; i += 2 {
		b.Unmark(i)
	}
	for want := 0; want < flagBits; want += 2 {
		if got, err := b.Alloc(); err != nil || got != want {
			return fmt.Errorf("bt: realloc returned %d, %v, want %d", got, err, want)
		}
	}
	half := flagBits / 2
	b.UnmarkN(half, 0)
	if half > 0 {
		i, err := b.AllocN(half)
		if err != nil || i != 0 {
			return fmt.Errorf("bt: run of %d returned %d, %v, want 0", half, i, err)
		}
		b.MarkN(half, i)
		if _, err := b.AllocN(1); !errors.Is(err, bitmap.ErrNoSpace) {
			return fmt.Errorf("bt: run in a full bitmap: got %v, want %v", err, bitmap.ErrNoSpace)
		}
	}
	fmt.Fprintf(env.Stdout, "bt: %d bits: passed\n", flagBits)
	return nil
}

func runMemstats(env *cmdline.Env, args []string) error {
	if len(args) != 0 {
		return env.UsageErrorf("expected 0 args, got %d", len(args))
	}
	return withKernel(env, func(k *kern.Kernel) error {
		show := func(when string) kern.MemStats {
			ms, err := k.MemStats()
			if err != nil {
				fmt.Fprintf(env.Stdout, "%v\n", err)
			}
			fmt.Fprintf(env.Stdout, "%s:\n", when)
			ms.Print(env.Stdout)
			return ms
		}
		before := show("before")
		var during kern.MemStats
		if _, err := k.Run("memstats", func(pt *thread.T) int {
			pid, err := k.Syscalls().Fork(pt, thread.NewFuncFrame(func(*thread.T, int) int { return 0 }))
			if err != nil {
				return 1
			}
			during = show("with two processes")
			if _, err := k.Syscalls().Waitpid(pt, pid, nil, 0); err != nil {
				return 1
			}
			return 0
		}); err != nil {
			return err
		}
		after := show("after")
		if leaked := after.Coremap.Used - before.Coremap.Used; leaked > 0 {
			fmt.Fprintf(env.Stdout, "Leakage detected: %d pages\n", leaked)
			return fmt.Errorf("memstats: %d page(s) leaked", leaked)
		}
		if during.Coremap.Used == 0 {
			return fmt.Errorf("memstats: no pages in use while processes ran")
		}
		fmt.Fprintf(env.Stdout, "No leakage detected\n")
		return nil
	})
}
