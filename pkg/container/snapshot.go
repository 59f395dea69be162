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
	"github.com/united-manufacturing-hub/docjournal/pkg/delta"
	"github.com/united-manufacturing-hub/docjournal/pkg/document"
	"github.com/united-manufacturing-hub/docjournal/pkg/metrics"
)

// Snapshot is a point-in-time copy of a container: the tree, the
// retained history and the cursor, plus the frozen flag. Snapshots are
// inert; they can be held, serialized and restored into any container
// using a compatible provider.
type Snapshot struct {
	Tree     document.Document `json:"tree"               yaml:"tree"`
	Entries  []*delta.Record   `json:"entries,omitempty"  yaml:"entries,omitempty"`
	Position int               `json:"position"           yaml:"position"`
	Frozen   bool              `json:"frozen,omitempty"   yaml:"frozen,omitempty"`
}

// Snapshot captures the current state. The tree is deep copied; the
// records are shared, they are immutable once committed.
func (c *Container) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		Tree:     document.CloneDocument(c.tree),
		Entries:  c.journal.Entries(),
		Position: c.journal.Position(),
		Frozen:   c.frozen,
	}
}

// Restore replaces the container state with snap. An open batch is
// cancelled without committing. When the snapshot cursor falls outside
// its own entries, ErrInvalidPosition is returned and the container is
// left untouched.
func (c *Container) Restore(snap Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.journal.Restore(snap.Entries, snap.Position); err != nil {
		return err
	}

	c.tree = document.CloneDocument(snap.Tree)
	c.frozen = snap.Frozen
	c.cancelBatchLocked()
	c.generation++
	metrics.UpdateJournalState(c.id, c.journal.Len(), c.journal.Position())

	return nil
}
