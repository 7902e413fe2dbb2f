// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The following enables go generate to generate the doc.go file.
//go:generate go run v.io/x/lib/cmdline/gendoc .

package main

import (
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
	"v.io/x/lib/cmdline"
	"v.io/x/lib/nsync"

	"v.io/x/kern/internal/logger"
	"v.io/x/kern/kern"
	"v.io/x/kern/synch"
	"v.io/x/kern/thread"
)

var (
	flagMaxThreads int
	flagPidMax     int
	flagPages      int
	flagLock       string
	flagLockOrder  bool
)

func main() {
	cmdline.Main(cmdKmenu)
}

func init() {
	def := kern.DefaultConfig()
	cmdKmenu.Flags.IntVar(&flagMaxThreads, "max-threads", def.MaxThreads, "Maximum number of live kernel threads, 0 for no limit.")
	cmdKmenu.Flags.IntVar(&flagPidMax, "pid-max", def.PidMax, "Largest process id.")
	cmdKmenu.Flags.IntVar(&flagPages, "pages", def.Pages, "Number of physical pages.")
	cmdKmenu.Flags.StringVar(&flagLock, "lock", def.LockImpl.String(), "Lock implementation, one of wchan or sem.")
	cmdKmenu.Flags.BoolVar(&flagLockOrder, "lock-order", false, "If true, report lock order cycles.")
}

var cmdKmenu = &cmdline.Command{
	Name:  "kmenu",
	Short: "runs kernel tests",
	Long: `
Command kmenu boots a kernel and runs one of its tests: stress tests of the
synchronization primitives, a bitmap test, and user-level process tests
built on fork, waitpid and exit.
`,
	Children: []*cmdline.Command{
		cmdSy1, cmdSy2, cmdSy3, cmdBt,
		cmdSimplefork, cmdForkbomb, cmdMemstats, cmdPs,
	},
}

func configFromFlags() (kern.Config, error) {
	cfg := kern.DefaultConfig()
	impl, err := synch.ParseLockImpl(flagLock)
	if err != nil {
		return cfg, err
	}
	cfg.MaxThreads = flagMaxThreads
	cfg.PidMax = flagPidMax
	cfg.Pages = flagPages
	cfg.LockImpl = impl
	cfg.LockOrder = flagLockOrder
	return cfg, nil
}

// withKernel boots a kernel, runs fn on its boot thread and shuts it down.
func withKernel(env *cmdline.Env, fn func(k *kern.Kernel) error) error {
	if err := logger.ConfigureFromFlags(); err != nil {
		return err
	}
	cfg, err := configFromFlags()
	if err != nil {
		return env.UsageErrorf("%v", err)
	}
	k, err := kern.Boot(cfg, nil)
	if err != nil {
		return err
	}
	if err := fn(k); err != nil {
		return err
	}
	if lo := k.LockOrder(); lo != nil {
		for _, c := range lo.Cycles() {
			fmt.Fprintf(env.Stdout, "lock order cycle: %s\n", c)
		}
	}
	return k.Shutdown()
}

// forkAll runs fn on n new kernel threads and waits for all of them. It
// returns the first error any of them reports.
func forkAll(k *kern.Kernel, name string, n int, fn func(t *thread.T, i int) error) error {
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			var ferr error
			ct, err := k.Sched().Fork(fmt.Sprintf("%s.%d", name, i), func(t *thread.T) {
				ferr = fn(t, i)
			})
			if err != nil {
				return err
			}
			<-ct.Done()
			return ferr
		})
	}
	return g.Wait()
}

// lockedWriter serializes writes from several kernel threads.
type lockedWriter struct {
	mu nsync.Mu
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
