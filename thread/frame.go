// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thread

// Frame is an opaque, resumable snapshot of the user-level state of an
// execution context: what a trap saved and what returning from the trap
// restores. The kernel only copies frames, sets the value the interrupted
// system call will report, and resumes them.
type Frame interface {
	// Dup returns an independent copy of the frame.
	Dup() (Frame, error)
	// SetReturn sets the value the trapped call reports on resumption.
	SetReturn(rv int)
	// Resume runs the user-level code on t until it finishes and returns
	// its exit status.
	Resume(t *T) int
}

// FuncFrame is a Frame whose user-level continuation is a Go function. The
// function receives the resumed thread and the return value of the trapped
// call, and returns the program's exit status.
type FuncFrame struct {
	fn func(t *T, rv int) int
	rv int
}

// NewFuncFrame returns a frame that resumes into fn.
func NewFuncFrame(fn func(t *T, rv int) int) *FuncFrame {
	return &FuncFrame{fn: fn}
}

// Dup implements Frame.
func (f *FuncFrame) Dup() (Frame, error) {
	cp := *f
	return &cp, nil
}

// SetReturn implements Frame.
func (f *FuncFrame) SetReturn(rv int) {
	f.rv = rv
}

// Resume implements Frame.
func (f *FuncFrame) Resume(t *T) int {
	return f.fn(t, f.rv)
}
