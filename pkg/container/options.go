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
	"time"

	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/docjournal/pkg/delta"
	"github.com/united-manufacturing-hub/docjournal/pkg/events"
)

const (
	// defaultCacheTTL is how long reconstructed trees stay cached.
	defaultCacheTTL = 5 * time.Minute
	// defaultCacheCullInterval is how often expired cache entries are swept.
	defaultCacheCullInterval = time.Minute
)

// Options configures a new container. The zero value is usable: a
// field-level delta provider, a private event bus, a component logger,
// unlimited history and a five minute reconstruction cache.
type Options struct {
	// Provider computes and applies change records. Defaults to
	// delta.NewFieldProvider().
	Provider delta.Provider

	// Bus receives change, undo and redo events. Defaults to a bus private
	// to this container. Pass a shared bus to fan events from several
	// containers into one subscriber set.
	Bus *events.Bus

	// Logger for container diagnostics. Defaults to the Container
	// component logger.
	Logger *zap.SugaredLogger

	// HistoryLimit caps the number of retained change records; 0 means
	// unlimited. When a commit exceeds the limit the oldest record is
	// evicted and the reachable baseline advances past it.
	HistoryLimit int

	// CacheTTL bounds how long reconstructed historical trees stay cached.
	// 0 selects the default.
	CacheTTL time.Duration
}

// BatchOptions configures StartBatch.
type BatchOptions struct {
	// EmitChanges selects per-write behavior inside the batch: when true,
	// every write that produces a non-empty diff fires a change event
	// (without committing to history); when false, writes inside the batch
	// are raw and silent. Either way history receives at most one
	// coalesced record, at EndBatch.
	EmitChanges bool
}

// Format selects the serialization encoding.
type Format string

const (
	// FormatJSON encodes the tree as JSON.
	FormatJSON Format = "json"
	// FormatYAML encodes the tree as YAML.
	FormatYAML Format = "yaml"
)

// SerializeOptions configures Serialize.
type SerializeOptions struct {
	// Format selects the encoding. Defaults to FormatJSON.
	Format Format

	// Indent pretty-prints JSON with the given number of spaces per level;
	// 0 emits compact output. YAML output is always indented.
	Indent int
}
