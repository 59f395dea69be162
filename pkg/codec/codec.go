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

// Package codec turns container snapshots into a durable byte form and
// back: a versioned JSON envelope, optionally zstd-compressed. Decode
// sniffs the zstd magic number, so compressed and uncompressed payloads
// can coexist in the same archive.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	jsonstd "encoding/json"

	"github.com/Masterminds/semver/v3"
	"github.com/klauspost/compress/zstd"

	"github.com/united-manufacturing-hub/docjournal/pkg/container"
)

// CurrentVersion is stamped into every envelope this build writes.
const CurrentVersion = "1.0.0"

// versionConstraint is what this build accepts back: any 1.x envelope.
const versionConstraint = "^1"

// zstdMagic is the little-endian zstd frame magic number.
const zstdMagic = 0xFD2FB528

var (
	// ErrCorrupt indicates data that is not a decodable envelope.
	ErrCorrupt = &codecError{msg: "snapshot data is corrupt"}

	// ErrVersionIncompatible indicates a well-formed envelope written by
	// an incompatible (future major) version.
	ErrVersionIncompatible = &codecError{msg: "snapshot envelope version is incompatible"}
)

type codecError struct {
	msg string
}

func (e *codecError) Error() string {
	return e.msg
}

// Envelope is the wire form of a snapshot. The payload stays raw JSON so
// the envelope can be inspected without decoding the snapshot.
type Envelope struct {
	Version   string             `json:"version"`
	CreatedAt time.Time          `json:"createdAt"`
	Snapshot  jsonstd.RawMessage `json:"snapshot"`
}

// Options configures Encode.
type Options struct {
	// Compress zstd-compresses the envelope. Decode handles either form.
	Compress bool
}

var (
	encoderPool = sync.Pool{
		New: func() interface{} {
			encoder, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))

			return encoder
		},
	}

	decoderPool = sync.Pool{
		New: func() interface{} {
			decoder, _ := zstd.NewReader(nil)

			return decoder
		},
	}
)

// Encode serializes snap into a versioned envelope.
func Encode(snap container.Snapshot, opts Options) ([]byte, error) {
	payload, err := MarshalJSON(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	env := Envelope{
		Version:   CurrentVersion,
		CreatedAt: time.Now().UTC(),
		Snapshot:  payload,
	}

	data, err := MarshalJSON(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}

	if !opts.Compress {
		return data, nil
	}

	return compress(data)
}

// Decode parses data produced by Encode back into a snapshot. Garbage
// returns ErrCorrupt; an envelope from a future major version returns
// ErrVersionIncompatible.
func Decode(data []byte) (*container.Snapshot, error) {
	if isCompressed(data) {
		plain, err := decompress(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}

		data = plain
	}

	var env Envelope
	if err := UnmarshalJSON(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if err := checkVersion(env.Version); err != nil {
		return nil, err
	}

	var snap container.Snapshot
	if err := UnmarshalJSON(env.Snapshot, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return &snap, nil
}

func checkVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: bad version %q", ErrCorrupt, version)
	}

	constraint, err := semver.NewConstraint(versionConstraint)
	if err != nil {
		return fmt.Errorf("failed to parse version constraint: %w", err)
	}

	if !constraint.Check(v) {
		return fmt.Errorf("%w: got %s, want %s", ErrVersionIncompatible, version, versionConstraint)
	}

	return nil
}

func isCompressed(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == zstdMagic
}

func compress(data []byte) ([]byte, error) {
	encoder := encoderPool.Get().(*zstd.Encoder)
	defer encoderPool.Put(encoder)

	var buf bytes.Buffer

	buf.Grow(len(data) / 2)
	encoder.Reset(&buf)

	if _, err := encoder.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress envelope: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress envelope: %w", err)
	}

	// zstd can inflate incompressible input; keep whichever form is smaller.
	if buf.Len() >= len(data) {
		return data, nil
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, nil
}

func decompress(data []byte) ([]byte, error) {
	decoder := decoderPool.Get().(*zstd.Decoder)
	defer decoderPool.Put(decoder)

	if err := decoder.Reset(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, decoder); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
