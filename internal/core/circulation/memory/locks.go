// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/libris/internal/core/circulation"
)

// lockTable hands out one exclusive slot per key. A slot lives while someone
// holds or waits for it and is dropped with its last reference.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	held chan struct{}
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]*lockSlot)}
}

// ref returns the slot for key and counts the caller in.
func (table *lockTable) ref(key string) *lockSlot {
	table.mu.Lock()
	defer table.mu.Unlock()

	slot, ok := table.slots[key]
	if !ok {
		slot = &lockSlot{held: make(chan struct{}, 1)}
		table.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (table *lockTable) unref(key string, slot *lockSlot) {
	table.mu.Lock()
	defer table.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(table.slots, key)
	}
}

// acquire waits for key up to timeout. Timing out reads as contention.
func (table *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	slot := table.ref(key)

	select {
	case slot.held <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case slot.held <- struct{}{}:
		return nil
	case <-timer.C:
		table.unref(key, slot)
		return circulation.ErrConflict
	case <-ctx.Done():
		table.unref(key, slot)
		return ctx.Err()
	}
}

func (table *lockTable) release(key string) {
	table.mu.Lock()
	slot := table.slots[key]
	table.mu.Unlock()

	<-slot.held
	table.unref(key, slot)
}

// size counts live slots.
func (table *lockTable) size() int {
	table.mu.Lock()
	defer table.mu.Unlock()
	return len(table.slots)
}
