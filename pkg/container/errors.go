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
	"github.com/united-manufacturing-hub/docjournal/pkg/journal"
)

var (
	// ErrBatchActive indicates StartBatch was called while a batch was
	// already open. Batches do not nest. Checked with errors.Is.
	ErrBatchActive = &containerError{msg: "a batch is already active"}

	// ErrNoActiveBatch indicates EndBatch was called without an open batch.
	// Checked with errors.Is.
	ErrNoActiveBatch = &containerError{msg: "no batch is active"}

	// ErrApplyFailed wraps a delta provider refusal during undo, redo or
	// reconstruction. The container state is unchanged when this is
	// returned. Checked with errors.Is.
	ErrApplyFailed = &containerError{msg: "provider could not apply change record"}

	// ErrInvalidPosition indicates a history position outside [0, HistoryLen].
	ErrInvalidPosition = journal.ErrInvalidPosition
)

// containerError implements the error interface for container sentinels.
type containerError struct {
	msg string
}

func (e *containerError) Error() string {
	return e.msg
}
