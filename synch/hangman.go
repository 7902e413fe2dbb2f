// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package synch

import (
	"fmt"
	"strings"

	"golang.org/x/net/trace"
	"v.io/x/lib/nsync"

	"v.io/x/kern/internal/logger"
	"v.io/x/kern/thread"
)

// Observer is notified of lock activity. Calls are made outside the
// lock's internal spinlock, so an Observer may block briefly but must not
// acquire the lock it is observing.
type Observer interface {
	// Waiting is called before t starts to acquire l.
	Waiting(t *thread.T, l Lock)
	// Acquired is called once t holds l.
	Acquired(t *thread.T, l Lock)
	// Released is called just before t gives up l.
	Released(t *thread.T, l Lock)
}

type nopObserver struct{}

func (nopObserver) Waiting(*thread.T, Lock)  {}
func (nopObserver) Acquired(*thread.T, Lock) {}
func (nopObserver) Released(*thread.T, Lock) {}

// Hangman is an Observer that records the order in which each thread
// acquires locks and flags any acquisition that closes a cycle in the
// resulting order graph. A cycle means two code paths take the same locks
// in opposite orders and can deadlock, even if they have not done so yet.
//
// Hangman is purely diagnostic: cycles are logged and recorded, never
// acted upon.
type Hangman struct {
	log    logger.Logging
	events trace.EventLog

	mu     nsync.Mu
	held   map[*thread.T][]Lock   // GUARDED_BY(mu)
	after  map[Lock]map[Lock]bool // GUARDED_BY(mu), a -> b if b was taken while holding a
	cycles []string               // GUARDED_BY(mu)
}

// NewHangman returns a lock-order checker that reports through log, or the
// global logger if log is nil.
func NewHangman(log logger.Logging) *Hangman {
	return &Hangman{
		log:    logger.Or(log),
		events: trace.NewEventLog("synch.Hangman", "lock order"),
		held:   make(map[*thread.T][]Lock),
		after:  make(map[Lock]map[Lock]bool),
	}
}

// Waiting implements Observer.
func (h *Hangman) Waiting(t *thread.T, l Lock) {
	if h.log.V(3) {
		h.log.VI(3).Infof("%v waiting for %s", t, l.Name())
	}
}

// Acquired implements Observer.
func (h *Hangman) Acquired(t *thread.T, l Lock) {
	h.mu.Lock()
	var found []string
	for _, prev := range h.held[t] {
		if h.after[prev][l] {
			continue
		}
		if path := h.pathLocked(l, prev); path != nil {
			found = append(found, fmt.Sprintf("%s -> %s", prev.Name(), strings.Join(path, " -> ")))
		}
		if h.after[prev] == nil {
			h.after[prev] = make(map[Lock]bool)
		}
		h.after[prev][l] = true
	}
	h.held[t] = append(h.held[t], l)
	h.cycles = append(h.cycles, found...)
	h.mu.Unlock()
	for _, c := range found {
		h.log.Errorf("lock order cycle by %v: %s", t, c)
		h.events.Errorf("%v: %s", t, c)
	}
}

// Released implements Observer.
func (h *Hangman) Released(t *thread.T, l Lock) {
	h.mu.Lock()
	defer h.mu.Unlock()
	locks := h.held[t]
	for i := len(locks) - 1; i >= 0; i-- {
		if locks[i] == l {
			locks = append(locks[:i], locks[i+1:]...)
			break
		}
	}
	if len(locks) == 0 {
		delete(h.held, t)
		return
	}
	h.held[t] = locks
}

// pathLocked returns the names along a path from 'from' to 'to' in the
// order graph, or nil if there is none.
func (h *Hangman) pathLocked(from, to Lock) []string {
	seen := map[Lock]bool{}
	var walk func(l Lock) []string
	walk = func(l Lock) []string {
		if l == to {
			return []string{l.Name()}
		}
		if seen[l] {
			return nil
		}
		seen[l] = true
		for next := range h.after[l] {
			if p := walk(next); p != nil {
				return append([]string{l.Name()}, p...)
			}
		}
		return nil
	}
	return walk(from)
}

// Cycles returns a description of each cycle found so far.
func (h *Hangman) Cycles() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.cycles...)
}

// Forget drops every edge that involves l, for use when l is destroyed.
func (h *Hangman) Forget(l Lock) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.after, l)
	for _, succ := range h.after {
		delete(succ, l)
	}
}

// Close finishes the trace event log.
func (h *Hangman) Close() {
	h.events.Finish()
}
