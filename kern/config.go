// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kern

import (
	"fmt"

	"v.io/x/kern/proc"
	"v.io/x/kern/synch"
	"v.io/x/kern/vm"
)

// Config configures a kernel.
type Config struct {
	// MaxThreads bounds the number of live threads; zero means no bound.
	MaxThreads int
	// PidMin and PidMax bound the pids handed out to processes.
	PidMin, PidMax int
	// Pages is the number of physical pages in the coremap.
	Pages int
	// Layout is the shape of a new process's address space.
	Layout vm.Layout
	// LockImpl selects the implementation of kernel locks.
	LockImpl synch.LockImpl
	// LockOrder enables lock order checking on kernel locks.
	LockOrder bool
}

// DefaultConfig returns the configuration of a small machine: 4MB of
// memory and up to 256 threads.
func DefaultConfig() Config {
	pc := proc.DefaultConfig()
	return Config{
		MaxThreads: 256,
		PidMin:     pc.PidMin,
		PidMax:     pc.PidMax,
		Pages:      1024,
		Layout:     vm.DefaultLayout,
		LockImpl:   synch.DefaultLockImpl,
	}
}

func (c Config) validate() error {
	switch {
	case c.MaxThreads < 0:
		return fmt.Errorf("negative thread limit %d", c.MaxThreads)
	case c.Pages <= 0:
		return fmt.Errorf("invalid page count %d", c.Pages)
	case c.Layout.Pages() > c.Pages:
		return fmt.Errorf("a process needs %d pages, only %d exist", c.Layout.Pages(), c.Pages)
	}
	return nil
}
