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

// Package container ties a JSON-shaped tree to its change history.
//
// A Container owns one tree. Reads and writes go through observed views
// obtained from Root; every write is diffed against the pre-write state by
// the delta provider and, when the diff is non-empty, committed to the
// journal and announced on the event bus. Undo and redo move the history
// cursor by applying records backward or forward through the provider; a
// provider refusal leaves both the tree and the cursor exactly where they
// were.
//
// Freeze suspends writes (and undo/redo) without erroring: frozen writes
// are silently dropped. Batches coalesce a run of writes into at most one
// history record, computed at EndBatch against the tree as it was at
// StartBatch. Batches do not nest.
//
// All operations serialize on one container lock; history is a single
// timeline. Event handlers run inline under that lock, which is not
// reentrant: calling back into the same container from a handler
// deadlocks, read accessors like Tree and Position included.
package container

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/united-manufacturing-hub/expiremap/v2/pkg/expiremap"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/docjournal/pkg/delta"
	"github.com/united-manufacturing-hub/docjournal/pkg/document"
	"github.com/united-manufacturing-hub/docjournal/pkg/events"
	"github.com/united-manufacturing-hub/docjournal/pkg/journal"
	"github.com/united-manufacturing-hub/docjournal/pkg/logger"
	"github.com/united-manufacturing-hub/docjournal/pkg/metrics"
	"github.com/united-manufacturing-hub/docjournal/pkg/observed"

	"golang.org/x/sync/singleflight"
)

// Container holds one tree together with its change history. Safe for
// concurrent use; all operations serialize on an internal lock.
type Container struct {
	mu sync.RWMutex

	id  string
	log *zap.SugaredLogger

	provider delta.Provider
	bus      *events.Bus
	journal  *journal.Journal

	tree   document.Document
	frozen bool

	batch   *batchState
	machine *fsm.FSM

	// generation increments on every mutation of the tree or the journal.
	// It keys the reconstruction cache so stale results are never served
	// as current.
	generation uint64

	cache *expiremap.ExpireMap[string, document.Document]
	group singleflight.Group
}

var _ observed.Controller = (*Container)(nil)

// New returns a container owning a deep copy of initial. A nil initial
// tree starts empty. See Options for the defaults.
func New(initial document.Document, opts Options) *Container {
	provider := opts.Provider
	if provider == nil {
		provider = delta.NewFieldProvider()
	}

	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus()
	}

	log := opts.Logger
	if log == nil {
		log = logger.For(logger.ComponentContainer)
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	c := &Container{
		id:       uuid.New().String(),
		log:      log,
		provider: provider,
		bus:      bus,
		journal:  journal.New(opts.HistoryLimit),
		tree:     document.CloneDocument(initial),
		cache:    expiremap.NewEx[string, document.Document](defaultCacheCullInterval, ttl),
	}
	c.machine = newBatchMachine(c)

	metrics.InitErrorCounter(metrics.ComponentContainer, c.id)

	return c
}

// ID returns the container's unique identifier, as carried in events.
func (c *Container) ID() string {
	return c.id
}

// Root returns the observed view of the tree root. Views are cheap
// stateless handles; every access goes back through the container.
func (c *Container) Root() *observed.Map {
	return observed.NewMap(c, nil)
}

// Get reads a top-level key, shorthand for Root().Get.
func (c *Container) Get(key string) (interface{}, bool) {
	return c.Root().Get(key)
}

// Set writes a top-level key, shorthand for Root().Set.
func (c *Container) Set(key string, value interface{}) {
	c.Root().Set(key, value)
}

// Delete removes a top-level key, shorthand for Root().Delete.
func (c *Container) Delete(key string) {
	c.Root().Delete(key)
}

// Bus returns the event bus this container publishes on.
func (c *Container) Bus() *events.Bus {
	return c.bus
}

// OnChange subscribes handler to change events on this container's bus
// and returns the unsubscribe function. With a shared bus the handler
// sees events from every container publishing there; filter on
// Event.ContainerID.
func (c *Container) OnChange(handler events.Handler) func() {
	return c.bus.Subscribe(events.TypeChange, handler)
}

// OnUndo subscribes handler to undo events, like OnChange.
func (c *Container) OnUndo(handler events.Handler) func() {
	return c.bus.Subscribe(events.TypeUndo, handler)
}

// OnRedo subscribes handler to redo events, like OnChange.
func (c *Container) OnRedo(handler events.Handler) func() {
	return c.bus.Subscribe(events.TypeRedo, handler)
}

// Tree returns a deep copy of the current tree.
func (c *Container) Tree() document.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return document.CloneDocument(c.tree)
}

// Position returns the history cursor: how many retained records,
// applied in order from the baseline, yield the current tree.
func (c *Container) Position() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.journal.Position()
}

// HistoryLen returns the number of retained change records.
func (c *Container) HistoryLen() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.journal.Len()
}

// History returns a copy of the retained change records in commit order.
// The records are shared and immutable.
func (c *Container) History() []*delta.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.journal.Entries()
}

// Freeze suspends writes, undo and redo. Writes while frozen are silently
// dropped; they do not error and do not reach history. Freezing twice is
// a no-op.
func (c *Container) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frozen = true
}

// Thaw lifts a freeze. Thawing an unfrozen container is a no-op.
func (c *Container) Thaw() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frozen = false
}

// Frozen reports whether writes are currently suspended.
func (c *Container) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.frozen
}

// Undoable reports whether Undo would attempt anything: at least one
// record sits below the cursor and the container is not frozen.
func (c *Container) Undoable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return !c.frozen && c.journal.Undoable()
}

// Redoable mirrors Undoable for Redo.
func (c *Container) Redoable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return !c.frozen && c.journal.Redoable()
}

// Undo reverts the most recent record below the cursor. Returns false
// with a nil error when there is nothing to undo or the container is
// frozen. When the provider refuses the record, the tree and the cursor
// stay untouched and the error wraps ErrApplyFailed.
func (c *Container) Undo() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return false, nil
	}

	rec, ok := c.journal.PeekBack()
	if !ok {
		return false, nil
	}

	next, err := c.provider.ApplyBackward(c.tree, rec)
	if err != nil {
		metrics.IncProviderFailure(c.id, metrics.DirectionBackward)
		metrics.IncErrorCount(metrics.ComponentContainer, c.id)
		c.log.Warnf("undo at position %d refused: %v", c.journal.Position(), err)

		return false, fmt.Errorf("%w: %w", ErrApplyFailed, err)
	}

	c.journal.StepBack()
	c.tree = next
	c.generation++
	metrics.IncUndo(c.id)
	metrics.UpdateJournalState(c.id, c.journal.Len(), c.journal.Position())
	c.publish(events.TypeUndo, rec)

	return true, nil
}

// Redo replays the record at the cursor, mirroring Undo.
func (c *Container) Redo() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return false, nil
	}

	rec, ok := c.journal.PeekForward()
	if !ok {
		return false, nil
	}

	next, err := c.provider.ApplyForward(c.tree, rec)
	if err != nil {
		metrics.IncProviderFailure(c.id, metrics.DirectionForward)
		metrics.IncErrorCount(metrics.ComponentContainer, c.id)
		c.log.Warnf("redo at position %d refused: %v", c.journal.Position(), err)

		return false, fmt.Errorf("%w: %w", ErrApplyFailed, err)
	}

	c.journal.StepForward()
	c.tree = next
	c.generation++
	metrics.IncRedo(c.id)
	metrics.UpdateJournalState(c.id, c.journal.Len(), c.journal.Position())
	c.publish(events.TypeRedo, rec)

	return true, nil
}

// ClearHistory drops all retained records and makes the current tree the
// sole reachable baseline. An open batch is cancelled without committing.
// The tree itself is untouched.
func (c *Container) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.journal.Clear()
	c.cancelBatchLocked()
	c.generation++
	metrics.UpdateJournalState(c.id, 0, 0)
}

// mutate runs op against the live tree under the write lock and routes
// the outcome through the freeze, batch and history rules. op reports
// whether it changed anything structurally; a false return ends the
// write silently.
func (c *Container) mutate(op func(document.Document) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		metrics.IncFrozenWriteDrop(c.id)

		return
	}

	if c.batch != nil && !c.batch.emit {
		if op(c.tree) {
			c.generation++
		}

		return
	}

	before := document.CloneDocument(c.tree)
	if !op(c.tree) {
		return
	}

	// Content hashing is much cheaper than a full diff; equal hashes end
	// the no-op write here without consulting the provider.
	if hb, err := document.Hash(before); err == nil {
		if ha, err := document.Hash(c.tree); err == nil && hb == ha {
			return
		}
	}

	rec := c.provider.Diff(before, c.tree)
	if rec == nil {
		return
	}

	c.generation++

	if c.batch == nil {
		truncated := c.journal.Commit(rec)
		metrics.IncCommit(c.id)
		metrics.AddTruncatedRecords(c.id, truncated)
		metrics.UpdateJournalState(c.id, c.journal.Len(), c.journal.Position())
	}

	c.publish(events.TypeChange, rec)
}

// publish delivers an event on the bus. Called with the container lock
// held; handlers run inline.
func (c *Container) publish(t events.Type, rec *delta.Record) {
	c.bus.Publish(events.Event{
		Type:        t,
		ContainerID: c.id,
		Record:      rec,
		Position:    c.journal.Position(),
		Time:        time.Now(),
	})
}
