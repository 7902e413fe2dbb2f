// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vm implements a minimal virtual memory layer: a coremap of
// physical pages and address spaces made of contiguous page runs.
package vm

import (
	"errors"
	"fmt"

	"v.io/x/lib/nsync"

	"v.io/x/kern/bitmap"
)

// PageSize is the size in bytes of a physical page.
const PageSize = 4096

// ErrNoMemory is returned when no run of free pages is large enough.
var ErrNoMemory = errors.New("out of memory")

// Coremap tracks which physical pages are in use.
type Coremap struct {
	mu    nsync.Mu
	pages *bitmap.T // GUARDED_BY(mu)
}

// NewCoremap returns a coremap of npages free pages.
func NewCoremap(npages int) (*Coremap, error) {
	b, err := bitmap.New(npages)
	if err != nil {
		return nil, fmt.Errorf("coremap: %w", err)
	}
	return &Coremap{pages: b}, nil
}

// Alloc reserves n contiguous pages and returns the first page number.
func (c *Coremap) Alloc(n int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	start, err := c.pages.AllocN(n)
	if err != nil {
		if errors.Is(err, bitmap.ErrNoSpace) {
			return 0, fmt.Errorf("%d page(s): %w", n, ErrNoMemory)
		}
		return 0, err
	}
	c.pages.MarkN(n, start)
	return start, nil
}

// Free releases n pages starting at start.
func (c *Coremap) Free(start, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages.UnmarkN(n, start)
}

// Stats describes coremap usage in pages.
type Stats struct {
	Total, Used int
	// Largest is the length of the longest run of free pages.
	Largest int
}

// Free returns the number of free pages.
func (s Stats) Free() int { return s.Total - s.Used }

// Bytes returns the total and used sizes in bytes.
func (s Stats) Bytes() (total, used uint64) {
	return uint64(s.Total) * PageSize, uint64(s.Used) * PageSize
}

// Stats returns the current usage.
func (c *Coremap) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{Total: c.pages.Len(), Used: c.pages.Count()}
	run := 0
	for i := 0; i < s.Total; i++ {
		if c.pages.IsSet(i) {
			run = 0
			continue
		}
		if run++; run > s.Largest {
			s.Largest = run
		}
	}
	return s
}

// Destroy checks that every page has been freed and releases the map.
func (c *Coremap) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := c.pages.Count(); n != 0 {
		panic(fmt.Sprintf("coremap: destroyed with %d page(s) in use", n))
	}
	c.pages.Destroy()
}
