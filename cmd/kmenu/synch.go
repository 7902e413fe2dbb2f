// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"sync/atomic"

	"v.io/x/lib/cmdline"

	"v.io/x/kern/kern"
	"v.io/x/kern/synch"
	"v.io/x/kern/thread"
)

var (
	flagThreads int
	flagIters   int
)

func init() {
	for _, cmd := range []*cmdline.Command{cmdSy1, cmdSy2, cmdSy3} {
		cmd.Flags.IntVar(&flagThreads, "threads", 16, "Number of threads.")
		cmd.Flags.IntVar(&flagIters, "iters", 100, "Iterations per thread.")
	}
}

var cmdSy1 = &cmdline.Command{
	Runner: cmdline.RunnerFunc(runSy1),
	Name:   "sy1",
	Short:  "Semaphore test",
	Long: `
Runs threads that use a semaphore with an initial count of one to protect a
shared counter, and checks that the count never admits two of them at once.
`,
}

var cmdSy2 = &cmdline.Command{
	Runner: cmdline.RunnerFunc(runSy2),
	Name:   "sy2",
	Short:  "Lock test",
	Long: `
Runs threads that update a shared counter under a lock, and checks mutual
exclusion and lock ownership.
`,
}

var cmdSy3 = &cmdline.Command{
	Runner: cmdline.RunnerFunc(runSy3),
	Name:   "sy3",
	Short:  "Condition variable test",
	Long: `
Runs threads that take turns in a fixed order, each waiting on a condition
variable for its turn and broadcasting when done.
`,
}

func checkArgs(env *cmdline.Env, args []string) error {
	if len(args) != 0 {
		return env.UsageErrorf("expected 0 args, got %d", len(args))
	}
	if flagThreads <= 0 || flagIters <= 0 {
		return env.UsageErrorf("-threads and -iters must be positive")
	}
	return nil
}

func runSy1(env *cmdline.Env, args []string) error {
	if err := checkArgs(env, args); err != nil {
		return err
	}
	return withKernel(env, func(k *kern.Kernel) error {
		sem := synch.NewSemaphore("sy1", 1)
		var inside int32
		counter := 0
		err := forkAll(k, "sy1", flagThreads, func(t *thread.T, i int) error {
			for j := 0; j < flagIters; j++ {
				sem.P(t)
				if atomic.AddInt32(&inside, 1) != 1 {
					sem.V(t)
					return fmt.Errorf("sy1: thread %d: two threads past P", i)
				}
				counter++
				t.Yield()
				atomic.AddInt32(&inside, -1)
				sem.V(t)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if got, want := counter, flagThreads*flagIters; got != want {
			return fmt.Errorf("sy1: counter is %d, want %d", got, want)
		}
		if got := sem.Count(k.BootThread()); got != 1 {
			return fmt.Errorf("sy1: final count is %d, want 1", got)
		}
		sem.Destroy()
		fmt.Fprintf(env.Stdout, "sy1: %d threads, %d iterations: passed\n", flagThreads, flagIters)
		return nil
	})
}

func runSy2(env *cmdline.Env, args []string) error {
	if err := checkArgs(env, args); err != nil {
		return err
	}
	return withKernel(env, func(k *kern.Kernel) error {
		lk := k.NewLock("sy2")
		var inside int32
		counter := 0
		err := forkAll(k, "sy2", flagThreads, func(t *thread.T, i int) error {
			for j := 0; j < flagIters; j++ {
				lk.Acquire(t)
				if !lk.HeldBy(t) {
					return fmt.Errorf("sy2: thread %d: lock not held after Acquire", i)
				}
				if atomic.AddInt32(&inside, 1) != 1 {
					lk.Release(t)
					return fmt.Errorf("sy2: thread %d: two threads hold the lock", i)
				}
				counter++
				t.Yield()
				atomic.AddInt32(&inside, -1)
				lk.Release(t)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if got, want := counter, flagThreads*flagIters; got != want {
			return fmt.Errorf("sy2: counter is %d, want %d", got, want)
		}
		lk.Destroy()
		fmt.Fprintf(env.Stdout, "sy2: %d threads, %d iterations, %v lock: passed\n",
			flagThreads, flagIters, k.Config().LockImpl)
		return nil
	})
}

func runSy3(env *cmdline.Env, args []string) error {
	if err := checkArgs(env, args); err != nil {
		return err
	}
	return withKernel(env, func(k *kern.Kernel) error {
		lk := k.NewLock("sy3")
		cv := synch.NewCV("sy3")
		n := flagThreads
		turn := 0 // GUARDED_BY(lk)
		err := forkAll(k, "sy3", n, func(t *thread.T, i int) error {
			for j := 0; j < flagIters; j++ {
				lk.Acquire(t)
				for turn%n != i {
					cv.Wait(t, lk)
				}
				if !lk.HeldBy(t) {
					lk.Release(t)
					return fmt.Errorf("sy3: thread %d: lock not held after Wait", i)
				}
				turn++
				cv.Broadcast(t, lk)
				lk.Release(t)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if got, want := turn, n*flagIters; got != want {
			return fmt.Errorf("sy3: %d turns taken, want %d", got, want)
		}
		cv.Destroy()
		lk.Destroy()
		fmt.Fprintf(env.Stdout, "sy3: %d threads, %d rounds: passed\n", n, flagIters)
		return nil
	})
}
