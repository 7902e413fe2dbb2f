// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syscalls

import (
	"errors"
	"fmt"

	"v.io/x/kern/bitmap"
	"v.io/x/kern/proc"
	"v.io/x/kern/thread"
	"v.io/x/kern/vm"
)

// Errno is an error number as seen by user programs.
type Errno int

const (
	ENOSYS Errno = 1
	ENOMEM Errno = 3
	EINVAL Errno = 8
	ENPROC Errno = 12
	ECHILD Errno = 16
)

var errnoText = map[Errno]string{
	ENOSYS: "function not implemented",
	ENOMEM: "out of memory",
	EINVAL: "invalid argument",
	ENPROC: "too many processes in system",
	ECHILD: "no child processes",
}

func (e Errno) Error() string {
	if s, ok := errnoText[e]; ok {
		return s
	}
	return fmt.Sprintf("errno %d", int(e))
}

// ErrnoOf maps a kernel error to the errno a user program sees. Errors
// with no better match are reported as ENOMEM, since every failure the
// kernel returns rather than panics on is resource exhaustion.
func ErrnoOf(err error) Errno {
	var e Errno
	switch {
	case err == nil:
		return 0
	case errors.As(err, &e):
		return e
	case errors.Is(err, proc.ErrNoSuchChild):
		return ECHILD
	case errors.Is(err, proc.ErrNoProcs), errors.Is(err, thread.ErrTooManyThreads):
		return ENPROC
	case errors.Is(err, vm.ErrNoMemory), errors.Is(err, bitmap.ErrNoSpace):
		return ENOMEM
	case errors.Is(err, bitmap.ErrInvalidSize):
		return EINVAL
	}
	return ENOMEM
}
