// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proc

import (
	"errors"
	"fmt"
	"sort"

	"v.io/x/kern/bitmap"
	"v.io/x/kern/internal/logger"
	"v.io/x/kern/synch"
	"v.io/x/kern/thread"
)

// Config configures a process table.
type Config struct {
	// Pids in [PidMin, PidMax] are handed out.
	PidMin, PidMax int
	// LockImpl selects the table lock's implementation.
	LockImpl synch.LockImpl
	// Observer, if set, is attached to the table lock.
	Observer synch.Observer
}

// DefaultConfig returns the configuration used at boot.
func DefaultConfig() Config {
	return Config{
		PidMin:   2,
		PidMax:   32767,
		LockImpl: synch.DefaultLockImpl,
	}
}

// Table is the process table. It owns the pid space and every process
// control block.
type Table struct {
	cfg   Config
	sched Scheduler
	vm    VM
	log   logger.Logging

	lk    synch.Lock
	pids  *bitmap.T     // GUARDED_BY(lk)
	procs map[int]*Proc // GUARDED_BY(lk)
}

// NewTable returns an empty process table. A nil log selects the global
// logger.
func NewTable(cfg Config, sched Scheduler, vm VM, log logger.Logging) (*Table, error) {
	if cfg.PidMin < 1 || cfg.PidMax < cfg.PidMin {
		return nil, fmt.Errorf("invalid pid range [%d, %d]", cfg.PidMin, cfg.PidMax)
	}
	pids, err := bitmap.New(cfg.PidMax + 1)
	if err != nil {
		return nil, err
	}
	pids.MarkN(cfg.PidMin, 0)
	var opts []synch.LockOpt
	if cfg.Observer != nil {
		opts = append(opts, synch.WithObserver(cfg.Observer))
	}
	return &Table{
		cfg:   cfg,
		sched: sched,
		vm:    vm,
		log:   logger.Or(log),
		lk:    synch.NewLockImpl(cfg.LockImpl, "proctable", opts...),
		pids:  pids,
		procs: make(map[int]*Proc),
	}, nil
}

// newProcLocked allocates a pid and registers a new running process.
func (tb *Table) newProcLocked(name string, parent *Proc) (*Proc, error) {
	pid, err := tb.pids.Alloc()
	if err != nil {
		if errors.Is(err, bitmap.ErrNoSpace) {
			return nil, ErrNoProcs
		}
		return nil, err
	}
	p := &Proc{
		pid:      pid,
		name:     name,
		cv:       synch.NewCV(fmt.Sprintf("proc %d", pid)),
		parent:   parent,
		nthreads: 1,
	}
	tb.procs[pid] = p
	return p, nil
}

func (tb *Table) removeLocked(p *Proc) {
	delete(tb.procs, p.pid)
	tb.pids.Unmark(p.pid)
	p.cv.Destroy()
}

func (tb *Table) remove(t *thread.T, p *Proc) {
	tb.lk.Acquire(t)
	tb.removeLocked(p)
	tb.lk.Release(t)
}

// Spawn creates a parentless process with a fresh address space and makes
// t its only thread.
func (tb *Table) Spawn(t *thread.T, name string) (*Proc, error) {
	if p := Current(t); p != nil {
		panic(fmt.Sprintf("proc: spawn by %v, which already belongs to %v", t, p))
	}
	tb.lk.Acquire(t)
	p, err := tb.newProcLocked(name, nil)
	tb.lk.Release(t)
	if err != nil {
		return nil, fmt.Errorf("spawn %q: %w", name, err)
	}
	as, err := tb.vm.Create()
	if err != nil {
		tb.remove(t, p)
		return nil, fmt.Errorf("spawn %q: %w", name, err)
	}
	p.as = as
	t.SetValue(procKey{}, p)
	tb.log.VI(2).Infof("proc: spawned %v on %v", p, t)
	return p, nil
}

// Attach adds t as another thread of the running process p.
func (tb *Table) Attach(t *thread.T, p *Proc) {
	if cur := Current(t); cur != nil {
		panic(fmt.Sprintf("proc: attach of %v, which already belongs to %v", t, cur))
	}
	tb.lk.Acquire(t)
	if p.state != Running {
		tb.lk.Release(t)
		panic(fmt.Sprintf("proc: attach to %v in state %v", p, p.state))
	}
	p.nthreads++
	tb.lk.Release(t)
	t.SetValue(procKey{}, p)
}

// Fork creates a child of the caller's process. The child runs a copy of
// tf, in which the trapped call returns zero, on a copy of the caller's
// address space. Fork returns the child's pid once the child is running
// on its own state. On failure nothing allocated along the way survives.
func (tb *Table) Fork(t *thread.T, tf thread.Frame) (int, error) {
	parent := mustCurrent(t, "fork")
	tb.lk.Acquire(t)
	child, err := tb.newProcLocked(parent.name, parent)
	tb.lk.Release(t)
	if err != nil {
		return 0, fmt.Errorf("fork: %w", err)
	}

	ctf, err := tf.Dup()
	if err != nil {
		tb.remove(t, child)
		return 0, fmt.Errorf("fork: duplicate frame: %w", err)
	}
	if parent.as != nil {
		if child.as, err = parent.as.Copy(); err != nil {
			tb.remove(t, child)
			return 0, fmt.Errorf("fork: copy address space: %w", err)
		}
	}

	started := synch.NewSemaphore(fmt.Sprintf("fork %d", child.pid), 0)
	_, err = tb.sched.Fork(child.String(), func(ct *thread.T) {
		ct.SetValue(procKey{}, child)
		ctf.SetReturn(0)
		started.V(ct)
		tb.Exit(ct, ctf.Resume(ct))
	})
	if err != nil {
		if child.as != nil {
			child.as.Destroy()
		}
		tb.remove(t, child)
		started.Destroy()
		return 0, fmt.Errorf("fork: %w", err)
	}
	started.P(t)
	started.Destroy()
	tb.log.VI(2).Infof("proc: %v forked %v", parent, child)
	return child.pid, nil
}

// Exit ends the caller's process with the given exit code and terminates
// the calling thread. It does not return.
func (tb *Table) Exit(t *thread.T, code int) {
	tb.exit(t, code)
	tb.sched.Exit(t)
}

// Detach ends the caller's process like Exit, but returns so that a
// bootstrap thread can carry on without a process.
func (tb *Table) Detach(t *thread.T, code int) {
	tb.exit(t, code)
}

func (tb *Table) exit(t *thread.T, code int) {
	p := mustCurrent(t, "exit")
	t.SetValue(procKey{}, nil)

	tb.lk.Acquire(t)
	defer tb.lk.Release(t)
	p.nthreads--
	if p.state != Running {
		// Another thread already ended the process.
		return
	}
	p.state = Zombie
	p.exitCode = code
	if p.as != nil {
		p.as.Destroy()
		p.as = nil
	}
	for _, c := range tb.procs {
		if c.parent != p {
			continue
		}
		if c.state == Zombie {
			tb.removeLocked(c)
			continue
		}
		c.parent = nil
		// Threads of p waiting for c must notice that it is no longer
		// their child.
		c.cv.Broadcast(t, tb.lk)
	}
	if p.parent == nil {
		tb.removeLocked(p)
		tb.log.VI(2).Infof("proc: %v exited with %d, released", p, code)
		return
	}
	p.cv.Broadcast(t, tb.lk)
	tb.log.VI(2).Infof("proc: %v exited with %d", p, code)
}

// Waitpid waits for the child pid of the caller's process to exit, reaps
// it and returns its pid and exit code. A pid that is the caller's own, is
// unknown, or belongs to a process that is not the caller's child is
// reported as ErrNoSuchChild.
func (tb *Table) Waitpid(t *thread.T, pid int) (int, int, error) {
	self := mustCurrent(t, "waitpid")
	if pid == self.pid {
		return 0, 0, fmt.Errorf("waitpid %d: own pid: %w", pid, ErrNoSuchChild)
	}
	tb.lk.Acquire(t)
	defer tb.lk.Release(t)
	for {
		child := tb.procs[pid]
		if child == nil || child.parent != self {
			return 0, 0, fmt.Errorf("waitpid %d: %w", pid, ErrNoSuchChild)
		}
		if child.state == Zombie {
			code := child.exitCode
			tb.removeLocked(child)
			tb.log.VI(2).Infof("proc: %v reaped %v", self, child)
			return pid, code, nil
		}
		child.cv.Wait(t, tb.lk)
	}
}

// Getpid returns the pid of the caller's process.
func (tb *Table) Getpid(t *thread.T) int {
	return mustCurrent(t, "getpid").pid
}

// Len returns the number of processes in the table, zombies included.
func (tb *Table) Len(t *thread.T) int {
	tb.lk.Acquire(t)
	defer tb.lk.Release(t)
	return len(tb.procs)
}

// Snapshot describes every process in the table, in pid order.
func (tb *Table) Snapshot(t *thread.T) []Info {
	tb.lk.Acquire(t)
	infos := make([]Info, 0, len(tb.procs))
	for _, p := range tb.procs {
		info := Info{
			PID:      p.pid,
			Name:     p.name,
			State:    p.state,
			ExitCode: p.exitCode,
			Threads:  p.nthreads,
		}
		if p.parent != nil {
			info.PPID = p.parent.pid
		}
		infos = append(infos, info)
	}
	tb.lk.Release(t)
	sort.Slice(infos, func(i, j int) bool { return infos[i].PID < infos[j].PID })
	return infos
}

// Shutdown tears the table down. Every process must have been exited and
// reaped.
func (tb *Table) Shutdown(t *thread.T) error {
	tb.lk.Acquire(t)
	if n := len(tb.procs); n != 0 {
		tb.lk.Release(t)
		return fmt.Errorf("proc: shutdown with %d process(es) left", n)
	}
	tb.pids.Destroy()
	tb.lk.Release(t)
	tb.lk.Destroy()
	return nil
}
