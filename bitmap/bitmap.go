// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bitmap implements a fixed-size bit allocator, used to hand out
// small integer identifiers and contiguous runs of them.
//
// A bitmap does no locking of its own; callers serialize access.
package bitmap

import (
	"errors"
	"fmt"
	"math/bits"
)

const wordBits = 64

var (
	// ErrNoSpace is returned when no clear bit, or no clear run of the
	// requested length, is left.
	ErrNoSpace = errors.New("no space in bitmap")
	// ErrInvalidSize is returned for a bitmap of no bits or a run of length
	// zero.
	ErrInvalidSize = errors.New("invalid bitmap size")
)

// T is a bitmap of a fixed number of bits.
type T struct {
	nbits int
	words []uint64
}

// New returns a bitmap of n clear bits. The bits of the last word beyond n
// are set so that they are never allocated.
func New(n int) (*T, error) {
	if n <= 0 {
		return nil, fmt.Errorf("bitmap of %d bits: %w", n, ErrInvalidSize)
	}
	b := &T{
		nbits: n,
		words: make([]uint64, (n+wordBits-1)/wordBits),
	}
	if over := n % wordBits; over != 0 {
		b.words[len(b.words)-1] = ^uint64(0) << over
	}
	return b, nil
}

// Len returns the number of usable bits.
func (b *T) Len() int { return b.nbits }

// Alloc sets the lowest clear bit and returns its index.
func (b *T) Alloc() (int, error) {
	for ix, w := range b.words {
		if w == ^uint64(0) {
			continue
		}
		off := bits.TrailingZeros64(^w)
		b.words[ix] |= 1 << off
		i := ix*wordBits + off
		if i >= b.nbits {
			panic(fmt.Sprintf("bitmap: allocated padding bit %d of %d", i, b.nbits))
		}
		return i, nil
	}
	return 0, ErrNoSpace
}

// AllocN finds the lowest index i such that bits [i, i+k) are all clear.
// It does not set them; the caller marks the run with MarkN.
func (b *T) AllocN(k int) (int, error) {
	if k <= 0 {
		return 0, fmt.Errorf("run of %d bits: %w", k, ErrInvalidSize)
	}
	start, run := 0, 0
	for i := 0; i < b.nbits; i++ {
		if b.IsSet(i) {
			run = 0
			continue
		}
		if run == 0 {
			start = i
		}
		run++
		if run == k {
			return start, nil
		}
	}
	return 0, ErrNoSpace
}

func (b *T) translate(i int) (int, uint64) {
	if i < 0 || i >= b.nbits {
		panic(fmt.Sprintf("bitmap: index %d out of range [0, %d)", i, b.nbits))
	}
	return i / wordBits, 1 << (uint(i) % wordBits)
}

// Mark sets bit i, which must be clear.
func (b *T) Mark(i int) {
	ix, mask := b.translate(i)
	if b.words[ix]&mask != 0 {
		panic(fmt.Sprintf("bitmap: mark of set bit %d", i))
	}
	b.words[ix] |= mask
}

// Unmark clears bit i, which must be set.
func (b *T) Unmark(i int) {
	ix, mask := b.translate(i)
	if b.words[ix]&mask == 0 {
		panic(fmt.Sprintf("bitmap: unmark of clear bit %d", i))
	}
	b.words[ix] &^= mask
}

// MarkN sets bits [i, i+k).
func (b *T) MarkN(k, i int) {
	for j := 0; j < k; j++ {
		b.Mark(i + j)
	}
}

// UnmarkN clears bits [i, i+k).
func (b *T) UnmarkN(k, i int) {
	for j := 0; j < k; j++ {
		b.Unmark(i + j)
	}
}

// IsSet reports whether bit i is set.
func (b *T) IsSet(i int) bool {
	ix, mask := b.translate(i)
	return b.words[ix]&mask != 0
}

// Count returns the number of set bits, not counting padding.
func (b *T) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n - (len(b.words)*wordBits - b.nbits)
}

// Destroy releases the bitmap's storage. The bitmap must not be used
// afterwards.
func (b *T) Destroy() {
	b.words = nil
	b.nbits = 0
}
