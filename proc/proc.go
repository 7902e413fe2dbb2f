// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package proc implements processes and their lifecycle: fork, exit,
// waitpid and getpid.
//
// A process is RUNNING until one of its threads exits it, then a ZOMBIE
// until its parent reaps it with Waitpid, at which point it is removed from
// the table. Each transition happens exactly once. A process whose parent
// has gone is removed as soon as it exits, since nobody can wait for it.
package proc

import (
	"errors"
	"fmt"

	"v.io/x/kern/synch"
	"v.io/x/kern/thread"
)

var (
	// ErrNoProcs is returned by Fork and Spawn when every pid is in use.
	ErrNoProcs = errors.New("too many processes")
	// ErrNoSuchChild is returned by Waitpid for a pid that is not a child
	// of the caller's process.
	ErrNoSuchChild = errors.New("no such child process")
)

// AddressSpace is a process's memory. Its contents are opaque here.
type AddressSpace interface {
	// Copy returns an independent clone.
	Copy() (AddressSpace, error)
	// Destroy releases the address space.
	Destroy()
}

// VM creates address spaces.
type VM interface {
	Create() (AddressSpace, error)
}

// Scheduler creates and terminates threads.
type Scheduler interface {
	Fork(name string, entry func(*thread.T)) (*thread.T, error)
	Exit(t *thread.T)
}

// State is the state of a process.
type State int

const (
	Running State = iota
	Zombie
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Zombie:
		return "zombie"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Proc is a process control block.
type Proc struct {
	pid  int
	name string
	cv   *synch.CV // signalled when the process becomes a zombie

	// GUARDED_BY(Table.lk)
	parent   *Proc
	state    State
	exitCode int
	nthreads int

	// Only used by the process's own threads.
	as AddressSpace
}

// PID returns the process id.
func (p *Proc) PID() int { return p.pid }

// Name returns the process name, inherited from the parent on fork.
func (p *Proc) Name() string { return p.name }

func (p *Proc) String() string {
	return fmt.Sprintf("%s[%d]", p.name, p.pid)
}

type procKey struct{}

// Current returns the process t belongs to, or nil.
func Current(t *thread.T) *Proc {
	p, _ := t.Value(procKey{}).(*Proc)
	return p
}

func mustCurrent(t *thread.T, op string) *Proc {
	p := Current(t)
	if p == nil {
		panic(fmt.Sprintf("proc: %s by %v, which has no process", op, t))
	}
	return p
}

// Info describes a process for diagnostics.
type Info struct {
	PID      int
	PPID     int // zero if the process has no parent
	Name     string
	State    State
	ExitCode int
	Threads  int
}
