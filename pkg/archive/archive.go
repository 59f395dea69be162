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

// Package archive persists container snapshots through a
// persistence.Store. Each saved snapshot becomes one document carrying a
// codec envelope plus indexing metadata: the owning container, a
// per-container sequence number and the save time. Latest and Prune
// order by sequence, so archives survive clock skew.
package archive

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/docjournal/pkg/codec"
	"github.com/united-manufacturing-hub/docjournal/pkg/container"
	"github.com/united-manufacturing-hub/docjournal/pkg/logger"
	"github.com/united-manufacturing-hub/docjournal/pkg/persistence"
)

// Collection is the store collection archives write to.
const Collection = "snapshots"

// ErrNotFound indicates no archived snapshot matched.
var ErrNotFound = &archiveError{msg: "archived snapshot not found"}

type archiveError struct {
	msg string
}

func (e *archiveError) Error() string {
	return e.msg
}

// Config configures an Archive.
type Config struct {
	// Compress zstd-compresses stored envelopes.
	Compress bool

	// Keep bounds how many snapshots Save retains per container; after a
	// successful Save, older snapshots beyond Keep are pruned. 0 keeps
	// everything.
	Keep int
}

// Info describes one archived snapshot without decoding it.
type Info struct {
	ID          string
	ContainerID string
	Sequence    int64
	CreatedAt   time.Time
}

// Archive stores and retrieves container snapshots.
type Archive struct {
	store persistence.Store
	cfg   Config
	log   *zap.SugaredLogger
}

// New builds an Archive over store and creates the snapshot collection.
func New(ctx context.Context, store persistence.Store, cfg Config) (*Archive, error) {
	if err := store.CreateCollection(ctx, Collection); err != nil {
		return nil, fmt.Errorf("failed to create snapshot collection: %w", err)
	}

	return &Archive{
		store: store,
		cfg:   cfg,
		log:   logger.For(logger.ComponentArchive),
	}, nil
}

// Save archives snap for containerID and returns the archive id. The
// snapshot gets the next sequence number for that container; when
// Config.Keep is set, older snapshots beyond the limit are pruned after
// the save.
func (a *Archive) Save(ctx context.Context, containerID string, snap container.Snapshot) (string, error) {
	data, err := codec.Encode(snap, codec.Options{Compress: a.cfg.Compress})
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	seq, err := a.nextSequence(ctx, containerID)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	doc := persistence.Document{
		"archive_id":   id,
		"container_id": containerID,
		"seq":          seq,
		"created_at":   time.Now().UTC().Format(time.RFC3339Nano),
		"data":         base64.StdEncoding.EncodeToString(data),
	}

	tx, err := a.store.BeginTx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	storeID, err := tx.Insert(ctx, Collection, doc)
	if err != nil {
		return "", fmt.Errorf("failed to store snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}

	a.log.Debugw("snapshot archived",
		"container", containerID, "archive", storeID, "seq", seq, "bytes", len(data))

	if a.cfg.Keep > 0 {
		if err := a.Prune(ctx, containerID, a.cfg.Keep); err != nil {
			a.log.Warnw("failed to prune old snapshots", "container", containerID, "error", err)
		}
	}

	return storeID, nil
}

// Load decodes the archived snapshot with the given archive id.
func (a *Archive) Load(ctx context.Context, id string) (*container.Snapshot, error) {
	doc, err := a.store.Get(ctx, Collection, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return decodeDoc(doc)
}

// Latest decodes the archived snapshot with the highest sequence number
// for containerID. Returns ErrNotFound when the container has none.
func (a *Archive) Latest(ctx context.Context, containerID string) (*container.Snapshot, error) {
	infos, err := a.list(ctx, containerID)
	if err != nil {
		return nil, err
	}

	if len(infos.entries) == 0 {
		return nil, ErrNotFound
	}

	latest := infos.entries[len(infos.entries)-1]

	return decodeDoc(infos.docs[latest.ID])
}

// List returns metadata for all archived snapshots of containerID,
// ordered by ascending sequence.
func (a *Archive) List(ctx context.Context, containerID string) ([]Info, error) {
	infos, err := a.list(ctx, containerID)
	if err != nil {
		return nil, err
	}

	return infos.entries, nil
}

// Prune deletes all but the newest keep snapshots of containerID.
func (a *Archive) Prune(ctx context.Context, containerID string, keep int) error {
	if keep < 0 {
		keep = 0
	}

	infos, err := a.list(ctx, containerID)
	if err != nil {
		return err
	}

	excess := len(infos.entries) - keep
	for i := 0; i < excess; i++ {
		if err := a.store.Delete(ctx, Collection, infos.entries[i].ID); err != nil &&
			!errors.Is(err, persistence.ErrNotFound) {
			return fmt.Errorf("failed to prune snapshot %s: %w", infos.entries[i].ID, err)
		}
	}

	return nil
}

type listing struct {
	entries []Info
	docs    map[string]persistence.Document
}

func (a *Archive) list(ctx context.Context, containerID string) (*listing, error) {
	entries, err := a.store.List(ctx, Collection)
	if err != nil {
		return nil, err
	}

	out := &listing{docs: make(map[string]persistence.Document)}

	for _, entry := range entries {
		owner, _ := entry.Doc["container_id"].(string)
		if owner != containerID {
			continue
		}

		info := Info{ID: entry.ID, ContainerID: owner, Sequence: sequenceOf(entry.Doc)}
		if raw, ok := entry.Doc["created_at"].(string); ok {
			info.CreatedAt, _ = time.Parse(time.RFC3339Nano, raw)
		}

		out.entries = append(out.entries, info)
		out.docs[entry.ID] = entry.Doc
	}

	sort.Slice(out.entries, func(i, j int) bool {
		return out.entries[i].Sequence < out.entries[j].Sequence
	})

	return out, nil
}

func (a *Archive) nextSequence(ctx context.Context, containerID string) (int64, error) {
	infos, err := a.list(ctx, containerID)
	if err != nil {
		return 0, err
	}

	if len(infos.entries) == 0 {
		return 1, nil
	}

	return infos.entries[len(infos.entries)-1].Sequence + 1, nil
}

// sequenceOf reads the sequence field in whichever numeric form the
// backend returned it; JSON round trips turn int64 into float64.
func sequenceOf(doc persistence.Document) int64 {
	switch v := doc["seq"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func decodeDoc(doc persistence.Document) (*container.Snapshot, error) {
	raw, ok := doc["data"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: %v", codec.ErrCorrupt, "archive document has no data field")
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", codec.ErrCorrupt, err)
	}

	return codec.Decode(data)
}
