// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"v.io/x/lib/cmdline"

	"v.io/x/kern/kern"
	"v.io/x/kern/proc"
	"v.io/x/kern/syscalls"
	"v.io/x/kern/thread"
)

var (
	flagCode       int
	flagChildren   int
	flagPsChildren int
)

func init() {
	cmdSimplefork.Flags.IntVar(&flagCode, "code", 7, "Exit code of the child.")
	cmdForkbomb.Flags.IntVar(&flagChildren, "n", 0, "Number of children to fork, 0 to fork until fork fails.")
	cmdPs.Flags.IntVar(&flagPsChildren, "n", 3, "Number of children to fork.")
}

var cmdSimplefork = &cmdline.Command{
	Runner: cmdline.RunnerFunc(runSimplefork),
	Name:   "simplefork",
	Short:  "Fork a child and wait for it",
	Long: `
Runs a program that forks once. The child exits with the code given by
-code; the parent waits for it and prints its exit status.
`,
}

var cmdForkbomb = &cmdline.Command{
	Runner: cmdline.RunnerFunc(runForkbomb),
	Name:   "forkbomb",
	Short:  "Fork until out of resources",
	Long: `
Runs a program that forks children that stay alive until fork fails or -n
children exist, then reaps them all and checks that no process id or page
was leaked.
`,
}

var cmdPs = &cmdline.Command{
	Runner: cmdline.RunnerFunc(runPs),
	Name:   "ps",
	Short:  "Show the process table",
	Long: `
Runs a program that forks -n children that exit at once, dumps the process
table while they are zombies, and then reaps them.
`,
}

func runSimplefork(env *cmdline.Env, args []string) error {
	if len(args) != 0 {
		return env.UsageErrorf("expected 0 args, got %d", len(args))
	}
	out := &lockedWriter{w: env.Stdout}
	return withKernel(env, func(k *kern.Kernel) error {
		sys := k.Syscalls()
		var failed error
		// body runs in both processes once fork returns.
		body := func(t *thread.T, pid int) int {
			fmt.Fprintf(out, "fork() returned %d, should print twice\n", pid)
			switch pid {
			case 0:
				fmt.Fprintf(out, "In child AFTER fork(), pid %d\n", sys.Getpid(t))
				return flagCode
			default:
				fmt.Fprintf(out, "In parent AFTER fork(), waiting child with pid = %d\n", pid)
				var status int
				if _, err := sys.Waitpid(t, pid, &status, 0); err != nil {
					failed = fmt.Errorf("waitpid: %w", err)
					return 1
				}
				fmt.Fprintf(out, "In parent AFTER fork(), child has exited with status = %d (code %d)\n",
					status, syscalls.ExitStatus(status))
				if got := syscalls.ExitStatus(status); got != flagCode {
					failed = fmt.Errorf("child exit code %d, want %d", got, flagCode)
				}
				return 0
			}
		}
		_, err := k.Run("simplefork", func(pt *thread.T) int {
			fmt.Fprintf(out, "In the parent BEFORE fork()\n")
			pid, err := sys.Fork(pt, thread.NewFuncFrame(body))
			if err != nil {
				failed = fmt.Errorf("fork: %w", err)
				return 1
			}
			return body(pt, pid)
		})
		if err != nil {
			return err
		}
		return failed
	})
}

func runForkbomb(env *cmdline.Env, args []string) error {
	if len(args) != 0 {
		return env.UsageErrorf("expected 0 args, got %d", len(args))
	}
	return withKernel(env, func(k *kern.Kernel) error {
		sys := k.Syscalls()
		var reaped int
		var failed error
		_, err := k.Run("forkbomb", func(pt *thread.T) int {
			release := make(chan struct{})
			child := thread.NewFuncFrame(func(*thread.T, int) int {
				<-release
				return 0
			})
			var pids []int
			for flagChildren == 0 || len(pids) < flagChildren {
				pid, err := sys.Fork(pt, child)
				if err != nil {
					fmt.Fprintf(env.Stdout, "fork %d failed: %v (errno %d)\n", len(pids)+1, err, int(syscalls.ErrnoOf(err)))
					break
				}
				pids = append(pids, pid)
			}
			fmt.Fprintf(env.Stdout, "forked %d children\n", len(pids))
			close(release)
			for _, pid := range pids {
				if _, err := sys.Waitpid(pt, pid, nil, 0); err != nil {
					failed = fmt.Errorf("waitpid %d: %w", pid, err)
					continue
				}
				reaped++
			}
			return 0
		})
		if err != nil {
			return err
		}
		if failed != nil {
			return failed
		}
		if n := k.Procs().Len(k.BootThread()); n != 0 {
			return fmt.Errorf("forkbomb: %d process(es) leaked", n)
		}
		ms, _ := k.MemStats()
		if ms.Coremap.Used != 0 {
			return fmt.Errorf("forkbomb: %d page(s) leaked", ms.Coremap.Used)
		}
		fmt.Fprintf(env.Stdout, "reaped %d children, nothing leaked\n", reaped)
		return nil
	})
}

func runPs(env *cmdline.Env, args []string) error {
	if len(args) != 0 {
		return env.UsageErrorf("expected 0 args, got %d", len(args))
	}
	return withKernel(env, func(k *kern.Kernel) error {
		procs := k.Procs()
		var failed error
		_, err := k.Run("ps", func(pt *thread.T) int {
			var pids []int
			for i := 0; i < flagPsChildren; i++ {
				code := i + 1
				pid, err := procs.Fork(pt, thread.NewFuncFrame(func(*thread.T, int) int {
					return code
				}))
				if err != nil {
					failed = err
					break
				}
				pids = append(pids, pid)
			}
			for zombies(pt, procs) < len(pids) {
				pt.Yield()
			}
			k.Dump(pt, env.Stdout)
			for _, pid := range pids {
				if _, _, err := procs.Waitpid(pt, pid); err != nil && failed == nil {
					failed = err
				}
			}
			return 0
		})
		if err != nil {
			return err
		}
		return failed
	})
}

func zombies(t *thread.T, procs *proc.Table) int {
	n := 0
	for _, info := range procs.Snapshot(t) {
		if info.State == proc.Zombie {
			n++
		}
	}
	return n
}
