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

package codec_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/docjournal/pkg/codec"
	"github.com/united-manufacturing-hub/docjournal/pkg/container"
	"github.com/united-manufacturing-hub/docjournal/pkg/delta"
	"github.com/united-manufacturing-hub/docjournal/pkg/document"
)

func sampleSnapshot() container.Snapshot {
	return container.Snapshot{
		Tree: document.Document{
			"name":  "line-1",
			"count": 4,
			"tags":  []interface{}{"a", "b"},
		},
		Entries: []*delta.Record{
			{
				Modified: map[string]delta.FieldChange{
					"count": {Old: 3, New: 4},
				},
			},
		},
		Position: 1,
		Frozen:   true,
	}
}

var _ = Describe("Codec", func() {
	Describe("Encode and Decode", func() {
		It("should round-trip a snapshot uncompressed", func() {
			data, err := codec.Encode(sampleSnapshot(), codec.Options{})
			Expect(err).ToNot(HaveOccurred())

			snap, err := codec.Decode(data)
			Expect(err).ToNot(HaveOccurred())
			Expect(snap.Position).To(Equal(1))
			Expect(snap.Frozen).To(BeTrue())
			Expect(snap.Entries).To(HaveLen(1))
			Expect(document.Equal(snap.Tree, sampleSnapshot().Tree)).To(BeTrue())
		})

		It("should round-trip a snapshot compressed", func() {
			// A repetitive tree so zstd actually compresses.
			tree := document.Document{}
			for i := 0; i < 64; i++ {
				tree[strings.Repeat("k", i+1)] = strings.Repeat("docjournal ", 16)
			}

			snap := container.Snapshot{Tree: tree}

			compressed, err := codec.Encode(snap, codec.Options{Compress: true})
			Expect(err).ToNot(HaveOccurred())

			plain, err := codec.Encode(snap, codec.Options{})
			Expect(err).ToNot(HaveOccurred())
			Expect(len(compressed)).To(BeNumerically("<", len(plain)))

			decoded, err := codec.Decode(compressed)
			Expect(err).ToNot(HaveOccurred())
			Expect(document.Equal(decoded.Tree, tree)).To(BeTrue())
		})

		It("should round-trip record data through the envelope", func() {
			data, err := codec.Encode(sampleSnapshot(), codec.Options{Compress: true})
			Expect(err).ToNot(HaveOccurred())

			snap, err := codec.Decode(data)
			Expect(err).ToNot(HaveOccurred())

			change := snap.Entries[0].Modified["count"]
			Expect(change.Old).To(BeNumerically("==", 3))
			Expect(change.New).To(BeNumerically("==", 4))
		})
	})

	Describe("Decode failure modes", func() {
		It("should reject garbage as ErrCorrupt", func() {
			_, err := codec.Decode([]byte("definitely not an envelope"))
			Expect(err).To(MatchError(codec.ErrCorrupt))
		})

		It("should reject a truncated compressed payload as ErrCorrupt", func() {
			data, err := codec.Encode(sampleSnapshot(), codec.Options{Compress: true})
			Expect(err).ToNot(HaveOccurred())

			if len(data) > 8 {
				_, err = codec.Decode(data[:8])
				Expect(err).To(MatchError(codec.ErrCorrupt))
			}
		})

		It("should reject an unparseable version as ErrCorrupt", func() {
			_, err := codec.Decode([]byte(`{"version":"not-a-version","snapshot":{}}`))
			Expect(err).To(MatchError(codec.ErrCorrupt))
		})

		It("should reject a future major version as ErrVersionIncompatible", func() {
			_, err := codec.Decode([]byte(`{"version":"2.0.0","snapshot":{"tree":{},"position":0}}`))
			Expect(err).To(MatchError(codec.ErrVersionIncompatible))
		})

		It("should accept any later minor of the current major", func() {
			snap, err := codec.Decode([]byte(`{"version":"1.9.3","snapshot":{"tree":{"a":1},"position":0}}`))
			Expect(err).ToNot(HaveOccurred())
			Expect(snap.Tree["a"]).To(BeNumerically("==", 1))
		})
	})
})
