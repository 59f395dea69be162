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
	"time"

	"github.com/united-manufacturing-hub/docjournal/pkg/document"
	"github.com/united-manufacturing-hub/docjournal/pkg/metrics"
)

// ReconstructAt returns the tree as it stood at history position pos,
// without moving the live tree or the cursor. Position 0 is the
// reachable baseline, HistoryLen the latest committed state.
//
// Results are cached per container generation; any mutation invalidates
// the cache by moving the generation, and stale entries age out on their
// own. Concurrent calls for the same position share one computation.
func (c *Container) ReconstructAt(ctx context.Context, pos int) (document.Document, error) {
	start := time.Now()

	c.mu.RLock()
	gen := c.generation
	length := c.journal.Len()
	c.mu.RUnlock()

	if pos < 0 || pos > length {
		return nil, fmt.Errorf("%w: position %d, length %d", ErrInvalidPosition, pos, length)
	}

	key := fmt.Sprintf("%d/%d", gen, pos)
	if cached, ok := c.cache.Load(key); ok {
		return document.CloneDocument(*cached), nil
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		defer c.mu.RUnlock()

		if pos > c.journal.Len() {
			return nil, fmt.Errorf("%w: position %d, length %d", ErrInvalidPosition, pos, c.journal.Len())
		}

		tree, err := c.replayLocked(ctx, pos)
		if err != nil {
			return nil, err
		}

		// Only cache when the state the key was derived from still holds.
		if c.generation == gen {
			c.cache.Set(key, tree)
		}

		return tree, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveReconstructTime(c.id, time.Since(start))

	return document.CloneDocument(result.(document.Document)), nil
}

// replayLocked walks the journal from the cursor to pos on a working
// copy of the live tree, applying records backward or forward through
// the provider. Caller holds at least the read lock.
func (c *Container) replayLocked(ctx context.Context, pos int) (document.Document, error) {
	tree := document.CloneDocument(c.tree)
	i := c.journal.Position()

	for i > pos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := c.journal.EntryAt(i - 1)
		if err != nil {
			return nil, err
		}

		tree, err = c.provider.ApplyBackward(tree, rec)
		if err != nil {
			metrics.IncProviderFailure(c.id, metrics.DirectionBackward)
			metrics.IncErrorCount(metrics.ComponentContainer, c.id)

			return nil, fmt.Errorf("%w: %w", ErrApplyFailed, err)
		}

		i--
	}

	for i < pos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := c.journal.EntryAt(i)
		if err != nil {
			return nil, err
		}

		tree, err = c.provider.ApplyForward(tree, rec)
		if err != nil {
			metrics.IncProviderFailure(c.id, metrics.DirectionForward)
			metrics.IncErrorCount(metrics.ComponentContainer, c.id)

			return nil, fmt.Errorf("%w: %w", ErrApplyFailed, err)
		}

		i++
	}

	return tree, nil
}
