// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm_test

import (
	"errors"
	"testing"

	"v.io/x/kern/vm"
)

func TestCoremap(t *testing.T) {
	cm, err := vm.NewCoremap(10)
	if err != nil {
		t.Fatal(err)
	}
	a, err := cm.Alloc(4)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cm.Alloc(4)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := []int{a, b}, []int{0, 4}; got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := cm.Alloc(3); !errors.Is(err, vm.ErrNoMemory) {
		t.Errorf("got %v, want %v", err, vm.ErrNoMemory)
	}
	if got, want := cm.Stats(), (vm.Stats{Total: 10, Used: 8, Largest: 2}); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	cm.Free(a, 4)
	if got, want := cm.Stats().Free(), 6; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := cm.Stats().Largest, 4; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	total, used := cm.Stats().Bytes()
	if got, want := total, uint64(10*vm.PageSize); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := used, uint64(4*vm.PageSize); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	cm.Free(b, 4)
	cm.Destroy()
}

func TestAddressSpace(t *testing.T) {
	cm, err := vm.NewCoremap(20)
	if err != nil {
		t.Fatal(err)
	}
	v := vm.New(cm, vm.Layout{Text: 2, Data: 1, Stack: 3}, nil)
	as, err := v.Create()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := as.Pages(), 6; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := len(as.Segments()), 3; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	cp, err := as.Copy()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := cm.Stats().Used, 12; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	for i, seg := range cp.Segments() {
		orig := as.Segments()[i]
		if seg.Name != orig.Name || seg.Pages != orig.Pages || seg.Base == orig.Base {
			t.Errorf("segment %d: got %+v, source %+v", i, seg, orig)
		}
	}

	// 8 pages are left: another copy needs 6, a third does not fit and
	// must not leak the segments it managed to allocate.
	cp2, err := as.Copy()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := as.Copy(); !errors.Is(err, vm.ErrNoMemory) {
		t.Fatalf("got %v, want %v", err, vm.ErrNoMemory)
	}
	if got, want := cm.Stats().Used, 18; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	for _, s := range []*vm.AddressSpace{as, cp, cp2} {
		s.Destroy()
	}
	if got, want := cm.Stats().Used, 0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic")
		}
	}()
	as.Destroy()
}
