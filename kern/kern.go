// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kern assembles a kernel from its parts: the scheduler, the
// coremap and VM, the process table and the system call handlers. Each
// Kernel is independent, so tests can boot as many as they like.
package kern

import (
	"fmt"
	"io"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"

	"v.io/x/kern/internal/logger"
	"v.io/x/kern/proc"
	"v.io/x/kern/synch"
	"v.io/x/kern/syscalls"
	"v.io/x/kern/thread"
	"v.io/x/kern/vm"
)

// Kernel is a booted kernel.
type Kernel struct {
	cfg    Config
	log    logger.Logging
	id     uuid.UUID
	booted time.Time

	sched    *thread.Sched
	coremap  *vm.Coremap
	vm       *vm.VM
	procs    *proc.Table
	syscalls *syscalls.Handler
	hangman  *synch.Hangman
	boot     *thread.T
}

// Boot brings up a kernel. The calling goroutine becomes the kernel's boot
// thread and must be the one to call Shutdown. A nil log selects the
// global logger.
func Boot(cfg Config, log logger.Logging) (_ *Kernel, err error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	k := &Kernel{
		cfg:    cfg,
		log:    logger.Or(log),
		id:     uuid.New(),
		booted: time.Now(),
	}
	k.sched = thread.New(thread.Config{MaxThreads: cfg.MaxThreads}, k.log)
	boot, err := k.sched.Bootstrap("boot")
	if err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	k.boot = boot
	defer func() {
		if err != nil {
			k.sched.Detach(boot)
		}
	}()
	if k.coremap, err = vm.NewCoremap(cfg.Pages); err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	k.vm = vm.New(k.coremap, cfg.Layout, k.log)
	pc := proc.Config{
		PidMin:   cfg.PidMin,
		PidMax:   cfg.PidMax,
		LockImpl: cfg.LockImpl,
	}
	if cfg.LockOrder {
		k.hangman = synch.NewHangman(k.log)
		pc.Observer = k.hangman
	}
	if k.procs, err = proc.NewTable(pc, k.sched, vmAdapter{k.vm}, k.log); err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	k.syscalls = syscalls.New(k.procs, k.log)
	k.log.Infof("kernel %v booted: %d pages, pids [%d, %d], %v locks",
		k.id, cfg.Pages, cfg.PidMin, cfg.PidMax, cfg.LockImpl)
	return k, nil
}

// ID returns the identifier chosen for this boot.
func (k *Kernel) ID() uuid.UUID { return k.id }

// Config returns the configuration the kernel was booted with.
func (k *Kernel) Config() Config { return k.cfg }

// BootThread returns the thread adopted at boot.
func (k *Kernel) BootThread() *thread.T { return k.boot }

// Sched returns the scheduler.
func (k *Kernel) Sched() *thread.Sched { return k.sched }

// Procs returns the process table.
func (k *Kernel) Procs() *proc.Table { return k.procs }

// Syscalls returns the system call handlers.
func (k *Kernel) Syscalls() *syscalls.Handler { return k.syscalls }

// LockOrder returns the lock order checker, or nil if it is disabled.
func (k *Kernel) LockOrder() *synch.Hangman { return k.hangman }

// NewLock returns a lock of the configured implementation, checked for
// lock order if that is enabled.
func (k *Kernel) NewLock(name string) synch.Lock {
	if k.hangman != nil {
		return synch.NewLockImpl(k.cfg.LockImpl, name, synch.WithObserver(k.hangman))
	}
	return synch.NewLockImpl(k.cfg.LockImpl, name)
}

// Run starts a program as a new process on the boot thread and returns its
// exit code once it and every process it created have finished.
func (k *Kernel) Run(name string, prog func(t *thread.T) int) (int, error) {
	if _, err := k.procs.Spawn(k.boot, name); err != nil {
		return 0, err
	}
	code := prog(k.boot)
	k.procs.Detach(k.boot, code)
	k.sched.WaitIdle()
	k.log.VI(1).Infof("%s exited with %d", name, code)
	return code, nil
}

// Dump writes a description of every process to w.
func (k *Kernel) Dump(t *thread.T, w io.Writer) {
	cfg := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	fmt.Fprintf(w, "kernel %v, up %v\n", k.id, time.Since(k.booted).Round(time.Millisecond))
	cfg.Fdump(w, k.procs.Snapshot(t))
}

// Shutdown waits for every thread to finish and tears the kernel down.
// Every process must have exited and been reaped.
func (k *Kernel) Shutdown() error {
	k.sched.WaitIdle()
	if err := k.procs.Shutdown(k.boot); err != nil {
		return err
	}
	if used := k.coremap.Stats().Used; used != 0 {
		return fmt.Errorf("shutdown: %d page(s) still in use", used)
	}
	k.coremap.Destroy()
	if k.hangman != nil {
		k.hangman.Close()
	}
	k.sched.Detach(k.boot)
	k.log.Infof("kernel %v shut down", k.id)
	return nil
}

type vmAdapter struct{ vm *vm.VM }

func (a vmAdapter) Create() (proc.AddressSpace, error) {
	as, err := a.vm.Create()
	if err != nil {
		return nil, err
	}
	return addrSpace{as}, nil
}

type addrSpace struct{ as *vm.AddressSpace }

func (a addrSpace) Copy() (proc.AddressSpace, error) {
	as, err := a.as.Copy()
	if err != nil {
		return nil, err
	}
	return addrSpace{as}, nil
}

func (a addrSpace) Destroy() { a.as.Destroy() }
