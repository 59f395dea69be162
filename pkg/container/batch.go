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

package container

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/united-manufacturing-hub/docjournal/pkg/document"
	"github.com/united-manufacturing-hub/docjournal/pkg/events"
	"github.com/united-manufacturing-hub/docjournal/pkg/metrics"
)

const (
	batchStateIdle = "idle"
	batchStateOpen = "open"

	batchEventStart = "start"
	batchEventEnd   = "end"
)

// batchState carries an open batch: the tree as it was when the batch
// started, and whether intermediate writes emit change events.
type batchState struct {
	baseline document.Document
	emit     bool
}

// newBatchMachine builds the two-state machine guarding the batch
// lifecycle. Nesting is rejected by the machine itself: the start event
// is only valid from idle.
func newBatchMachine(c *Container) *fsm.FSM {
	return fsm.NewFSM(
		batchStateIdle,
		fsm.Events{
			{Name: batchEventStart, Src: []string{batchStateIdle}, Dst: batchStateOpen},
			{Name: batchEventEnd, Src: []string{batchStateOpen}, Dst: batchStateIdle},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				c.log.Debugf("batch %s: %s -> %s", c.id, e.Src, e.Dst)
			},
		},
	)
}

// StartBatch opens a batch: subsequent writes accumulate without
// individual history records until EndBatch. Returns ErrBatchActive when
// a batch is already open; batches do not nest.
func (c *Container) StartBatch(opts BatchOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.machine.Event(context.Background(), batchEventStart); err != nil {
		return fmt.Errorf("%w: %v", ErrBatchActive, err)
	}

	c.batch = &batchState{
		baseline: document.CloneDocument(c.tree),
		emit:     opts.EmitChanges,
	}

	return nil
}

// EndBatch closes the open batch and commits at most one record: the
// diff between the tree at StartBatch and the tree now. Returns whether
// a record was committed. Without an open batch it returns
// ErrNoActiveBatch. The batch window always closes, even when the diff
// turns out empty.
func (c *Container) EndBatch() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.batch == nil {
		return false, ErrNoActiveBatch
	}

	baseline := c.batch.baseline
	c.batch = nil

	if err := c.machine.Event(context.Background(), batchEventEnd); err != nil {
		c.log.Debugf("batch %s: end transition: %v", c.id, err)
	}

	rec := c.provider.Diff(baseline, c.tree)
	if rec == nil {
		return false, nil
	}

	truncated := c.journal.Commit(rec)
	c.generation++
	metrics.IncCommit(c.id)
	metrics.IncBatchCommit(c.id)
	metrics.AddTruncatedRecords(c.id, truncated)
	metrics.UpdateJournalState(c.id, c.journal.Len(), c.journal.Position())
	c.publish(events.TypeChange, rec)

	return true, nil
}

// InBatch reports whether a batch is currently open.
func (c *Container) InBatch() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.machine.Current() == batchStateOpen
}

// cancelBatchLocked drops an open batch without committing anything.
// Caller holds the write lock.
func (c *Container) cancelBatchLocked() {
	if c.batch == nil {
		return
	}

	c.batch = nil

	if err := c.machine.Event(context.Background(), batchEventEnd); err != nil {
		c.log.Debugf("batch %s: cancel transition: %v", c.id, err)
	}
}
