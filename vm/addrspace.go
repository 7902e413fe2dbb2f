// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import (
	"fmt"
	"sync/atomic"

	"v.io/x/kern/internal/logger"
)

// Layout gives the number of pages in each segment of a new address space.
type Layout struct {
	Text, Data, Stack int
}

// DefaultLayout is a small program: two text pages, one data page and a
// four page stack.
var DefaultLayout = Layout{Text: 2, Data: 1, Stack: 4}

// Pages returns the total number of pages in the layout.
func (l Layout) Pages() int { return l.Text + l.Data + l.Stack }

// Segment is a contiguous run of physical pages.
type Segment struct {
	Name  string
	Base  int
	Pages int
}

// VM creates address spaces backed by a coremap.
type VM struct {
	cm     *Coremap
	layout Layout
	log    logger.Logging
}

// New returns a VM that lays out address spaces with layout. A nil log
// selects the global logger.
func New(cm *Coremap, layout Layout, log logger.Logging) *VM {
	return &VM{cm: cm, layout: layout, log: logger.Or(log)}
}

// Coremap returns the VM's coremap.
func (v *VM) Coremap() *Coremap { return v.cm }

// Create returns a fresh address space.
func (v *VM) Create() (*AddressSpace, error) {
	return v.build([]Segment{
		{Name: "text", Pages: v.layout.Text},
		{Name: "data", Pages: v.layout.Data},
		{Name: "stack", Pages: v.layout.Stack},
	})
}

func (v *VM) build(shape []Segment) (*AddressSpace, error) {
	as := &AddressSpace{vm: v}
	for _, seg := range shape {
		if seg.Pages == 0 {
			continue
		}
		base, err := v.cm.Alloc(seg.Pages)
		if err != nil {
			as.free()
			return nil, fmt.Errorf("%s segment: %w", seg.Name, err)
		}
		seg.Base = base
		as.segs = append(as.segs, seg)
	}
	if v.log.V(3) {
		v.log.VI(3).Infof("vm: created address space of %d page(s)", as.Pages())
	}
	return as, nil
}

// AddressSpace is a set of segments owned by one process.
type AddressSpace struct {
	vm        *VM
	segs      []Segment
	destroyed int32
}

// Segments returns the address space's segments.
func (as *AddressSpace) Segments() []Segment {
	return append([]Segment(nil), as.segs...)
}

// Pages returns the number of pages the address space holds.
func (as *AddressSpace) Pages() int {
	n := 0
	for _, seg := range as.segs {
		n += seg.Pages
	}
	return n
}

// Copy returns a new address space with the same shape. On failure nothing
// is left allocated.
func (as *AddressSpace) Copy() (*AddressSpace, error) {
	if atomic.LoadInt32(&as.destroyed) != 0 {
		panic("vm: copy of a destroyed address space")
	}
	shape := make([]Segment, len(as.segs))
	for i, seg := range as.segs {
		shape[i] = Segment{Name: seg.Name, Pages: seg.Pages}
	}
	return as.vm.build(shape)
}

// Destroy returns the address space's pages to the coremap. Destroying an
// address space twice is fatal.
func (as *AddressSpace) Destroy() {
	if !atomic.CompareAndSwapInt32(&as.destroyed, 0, 1) {
		panic("vm: address space destroyed twice")
	}
	as.free()
}

func (as *AddressSpace) free() {
	for _, seg := range as.segs {
		as.vm.cm.Free(seg.Base, seg.Pages)
	}
	as.segs = nil
}
