// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package events provides the synchronous notification channel between a
// tracked container and its subscribers.
//
// A container publishes three event types: a change event when a record is
// committed (or coalesced at batch end), an undo event after a successful
// revert, and a redo event after a successful replay. Publishing with zero
// subscribers is a no-op.
//
// Handlers run inline on the publishing goroutine, in subscription order,
// while the container holds its state lock. That lock is not reentrant:
// a handler must not call back into the same container at all, reads like
// Tree or Position included, or it deadlocks. Handlers should also return
// quickly; slow handlers delay the operation that triggered them.
package events

import (
	"sync"
	"time"

	"github.com/united-manufacturing-hub/docjournal/pkg/delta"
)

// Type identifies the kind of history event.
type Type string

const (
	// TypeChange fires when a new change record enters history or, during
	// a batch with emission enabled, when an intermediate write produced a
	// non-empty diff.
	TypeChange Type = "change"
	// TypeUndo fires after a record was successfully reverted.
	TypeUndo Type = "undo"
	// TypeRedo fires after a record was successfully replayed.
	TypeRedo Type = "redo"
)

// Event is the payload delivered to subscribers.
type Event struct {
	Type        Type
	ContainerID string
	Record      *delta.Record
	Position    int
	Time        time.Time
}

// Handler consumes one event. The Record inside the event is shared and
// immutable; handlers must not modify it.
type Handler func(Event)

// subscription pairs a handler with a removal token.
type subscription struct {
	id      uint64
	handler Handler
}

// Bus dispatches events synchronously to subscribers. Safe for concurrent
// Subscribe/Publish; handlers themselves run one at a time per publish.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Type][]subscription
	nextID uint64
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[Type][]subscription),
	}
}

// Subscribe registers handler for events of type t and returns a function
// that removes the registration. Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(t Type, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[t] = append(b.subs[t], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		current := b.subs[t]
		for i, sub := range current {
			if sub.id == id {
				b.subs[t] = append(current[:i:i], current[i+1:]...)

				break
			}
		}
	}
}

// Publish delivers e to every subscriber of e.Type in subscription order.
// The subscriber list is copied first, so handlers may subscribe or
// unsubscribe without affecting the in-flight delivery.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	current := b.subs[e.Type]
	pending := make([]subscription, len(current))
	copy(pending, current)
	b.mu.RUnlock()

	for _, sub := range pending {
		sub.handler(e)
	}
}

// Subscribers returns how many handlers are registered for t.
func (b *Bus) Subscribers(t Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[t])
}
