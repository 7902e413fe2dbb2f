// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package syscalls implements the process system calls on top of a process
// table, translating kernel errors into errno values.
package syscalls

import (
	"v.io/x/kern/internal/logger"
	"v.io/x/kern/proc"
	"v.io/x/kern/thread"
)

// MakeExitStatus encodes the status waitpid reports for a process that
// exited with code.
func MakeExitStatus(code int) int {
	return code << 2
}

// ExitStatus decodes the exit code from a status reported by waitpid.
func ExitStatus(status int) int {
	return status >> 2
}

// Handler serves system calls for the processes of one table.
type Handler struct {
	table *proc.Table
	log   logger.Logging
}

// New returns a handler for table. A nil log selects the global logger.
func New(table *proc.Table, log logger.Logging) *Handler {
	return &Handler{table: table, log: logger.Or(log)}
}

func (h *Handler) fail(t *thread.T, call string, err error) Errno {
	e := ErrnoOf(err)
	h.log.VI(2).Infof("syscall: %s by %v: %v (errno %d)", call, t, err, int(e))
	return e
}

// Fork creates a child process resuming from tf. It returns the child's
// pid to the caller; the child sees zero.
func (h *Handler) Fork(t *thread.T, tf thread.Frame) (int, error) {
	pid, err := h.table.Fork(t, tf)
	if err != nil {
		return -1, h.fail(t, "fork", err)
	}
	return pid, nil
}

// Exit ends the calling process. It does not return.
func (h *Handler) Exit(t *thread.T, code int) {
	h.table.Exit(t, code)
}

// Waitpid waits for the child pid to exit and stores its encoded status in
// status, if status is not nil. No options are supported.
func (h *Handler) Waitpid(t *thread.T, pid int, status *int, options int) (int, error) {
	if options != 0 {
		return -1, h.fail(t, "waitpid", EINVAL)
	}
	got, code, err := h.table.Waitpid(t, pid)
	if err != nil {
		return -1, h.fail(t, "waitpid", err)
	}
	if status != nil {
		*status = MakeExitStatus(code)
	}
	return got, nil
}

// Getpid returns the calling process's pid.
func (h *Handler) Getpid(t *thread.T) int {
	return h.table.Getpid(t)
}
