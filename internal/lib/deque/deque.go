// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package deque implements a deque using a circular array. The wait
// channels use it to hold blocked execution contexts.
package deque

const (
	initialQueueSize = 4
)

// T is the type of queues. The zero value is an empty queue.
type T[E comparable] struct {
	contents []E

	// Boundary cases.
	// o If full, size==len and fx==bx
	// o If empty, size==0 and fx==bx
	// o On initialization, contents=nil, size==0, fx==bx.
	size int // Number of elements in the queue.
	fx   int // Index of the first element.
	bx   int // Index one past the last element (the index of the last element is (bx-1)%len).
}

// Size returns the number of items in the queue.
func (q *T[E]) Size() int {
	return q.size
}

// Clear removes all the elements of the queue.
func (q *T[E]) Clear() {
	q.fx = 0
	q.bx = 0
	q.size = 0
	q.contents = nil
}

// PushBack adds an element to the back of the queue.
func (q *T[E]) PushBack(item E) {
	q.reserve()
	q.contents[q.bx] = item
	q.bx = (q.bx + 1) % len(q.contents)
	q.size++
}

// PushFront adds an element to the front of the deque.
func (q *T[E]) PushFront(item E) {
	q.reserve()
	q.fx = (q.fx + len(q.contents) - 1) % len(q.contents)
	q.contents[q.fx] = item
	q.size++
}

// PopFront removes an element from the front of the queue and returns it.
// ok is false if the queue was empty.
func (q *T[E]) PopFront() (item E, ok bool) {
	if q.size == 0 {
		return item, false
	}
	var zero E
	item = q.contents[q.fx]
	q.contents[q.fx] = zero
	q.fx = (q.fx + 1) % len(q.contents)
	q.size--
	return item, true
}

// PopBack removes an element from the back of the queue and returns it.
func (q *T[E]) PopBack() (item E, ok bool) {
	if q.size == 0 {
		return item, false
	}
	var zero E
	q.bx = (q.bx + len(q.contents) - 1) % len(q.contents)
	item = q.contents[q.bx]
	q.contents[q.bx] = zero
	q.size--
	return item, true
}

// Remove deletes the first occurrence of item, preserving the order of the
// remaining elements. It returns false if item is not in the queue.
func (q *T[E]) Remove(item E) bool {
	for i := 0; i != q.size; i++ {
		ix := (q.fx + i) % len(q.contents)
		if q.contents[ix] != item {
			continue
		}
		for j := i; j != q.size-1; j++ {
			cur := (q.fx + j) % len(q.contents)
			next := (q.fx + j + 1) % len(q.contents)
			q.contents[cur] = q.contents[next]
		}
		q.PopBack()
		return true
	}
	return false
}

// Iter iterates over the elements of the deque.  f should return false to
// terminate the iteration early.
func (q *T[E]) Iter(f func(item E) bool) {
	for i := 0; i != q.size; i++ {
		ix := (q.fx + i) % len(q.contents)
		if !f(q.contents[ix]) {
			break
		}
	}
}

// Reserve space for at least one additional element.
func (q *T[E]) reserve() {
	if q.size == len(q.contents) {
		if q.contents == nil {
			q.contents = make([]E, initialQueueSize)
			return
		}
		contents := make([]E, q.size*2)
		i := copy(contents, q.contents[q.fx:])
		copy(contents[i:], q.contents[:q.fx])
		q.contents = contents
		q.fx = 0
		q.bx = q.size
	}
}
