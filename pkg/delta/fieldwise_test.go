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

package delta_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/docjournal/pkg/delta"
	"github.com/united-manufacturing-hub/docjournal/pkg/document"
)

var _ = Describe("FieldProvider", func() {
	var provider *delta.FieldProvider

	BeforeEach(func() {
		provider = delta.NewFieldProvider()
	})

	Describe("Diff", func() {
		It("should return nil for structurally identical trees", func() {
			a := document.Document{"x": 1, "nested": map[string]interface{}{"y": 2}}
			b := document.CloneDocument(a)

			Expect(provider.Diff(a, b)).To(BeNil())
		})

		It("should classify added, modified and removed fields", func() {
			before := document.Document{"keep": 1, "change": "old", "drop": true}
			after := document.Document{"keep": 1, "change": "new", "fresh": 9}

			rec := provider.Diff(before, after)
			Expect(rec).ToNot(BeNil())
			Expect(rec.Added).To(HaveKey("fresh"))
			Expect(rec.Modified).To(HaveKey("change"))
			Expect(rec.Removed).To(HaveKey("drop"))
			Expect(rec.Fields()).To(Equal(3))
		})

		It("should retain the prior value of removed fields", func() {
			before := document.Document{"gone": map[string]interface{}{"deep": 1}}
			after := document.Document{}

			rec := provider.Diff(before, after)
			Expect(rec).ToNot(BeNil())
			Expect(document.Equal(rec.Removed["gone"], before["gone"])).To(BeTrue())
		})

		It("should record nested changes as a modified top-level field", func() {
			before := document.Document{"cfg": map[string]interface{}{"a": 1, "b": 2}}
			after := document.Document{"cfg": map[string]interface{}{"a": 1, "b": 3}}

			rec := provider.Diff(before, after)
			Expect(rec).ToNot(BeNil())
			Expect(rec.Modified).To(HaveKey("cfg"))
			Expect(rec.Added).To(BeEmpty())
			Expect(rec.Removed).To(BeEmpty())
		})

		It("should not alias values out of the compared trees", func() {
			before := document.Document{}
			after := document.Document{"cfg": map[string]interface{}{"a": 1}}

			rec := provider.Diff(before, after)
			Expect(rec).ToNot(BeNil())

			after["cfg"].(map[string]interface{})["a"] = 99
			Expect(rec.Added["cfg"].(map[string]interface{})["a"]).To(Equal(1))
		})

		It("should render RFC 6902 operations for the change", func() {
			before := document.Document{"x": 1}
			after := document.Document{"x": 2}

			rec := provider.Diff(before, after)
			Expect(rec).ToNot(BeNil())
			Expect(rec.Operations()).ToNot(BeEmpty())
			Expect(rec.Operations()[0].Path).To(Equal("/x"))
		})

		It("should treat numeric width differences as no change", func() {
			before := document.Document{"n": 2}
			after := document.Document{"n": float64(2)}

			Expect(provider.Diff(before, after)).To(BeNil())
		})
	})

	Describe("ApplyForward", func() {
		It("should replay a diff onto the tree it was computed from", func() {
			before := document.Document{"a": 0, "b": 1, "c": map[string]interface{}{}}
			after := document.Document{"a": 0, "b": 2, "d": "new"}

			rec := provider.Diff(before, after)
			Expect(rec).ToNot(BeNil())

			result, err := provider.ApplyForward(before, rec)
			Expect(err).ToNot(HaveOccurred())
			Expect(document.Equal(result, after)).To(BeTrue())
		})

		It("should not mutate the base tree", func() {
			before := document.Document{"v": 1}
			after := document.Document{"v": 2}
			rec := provider.Diff(before, after)

			_, err := provider.ApplyForward(before, rec)
			Expect(err).ToNot(HaveOccurred())
			Expect(before["v"]).To(Equal(1))
		})

		It("should refuse a modified key holding an unexpected value", func() {
			rec := provider.Diff(
				document.Document{"v": 1},
				document.Document{"v": 2},
			)

			_, err := provider.ApplyForward(document.Document{"v": 7}, rec)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, delta.ErrMismatch)).To(BeTrue())
		})

		It("should refuse an added key that already holds a different value", func() {
			rec := provider.Diff(
				document.Document{},
				document.Document{"k": "v"},
			)

			_, err := provider.ApplyForward(document.Document{"k": "other"}, rec)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, delta.ErrMismatch)).To(BeTrue())
		})

		It("should refuse a removed key holding an unexpected value", func() {
			rec := provider.Diff(
				document.Document{"k": "v"},
				document.Document{},
			)

			_, err := provider.ApplyForward(document.Document{"k": "other"}, rec)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, delta.ErrMismatch)).To(BeTrue())
		})
	})

	Describe("ApplyBackward", func() {
		It("should revert a diff from the tree it produced", func() {
			before := document.Document{"a": 0, "gone": true}
			after := document.Document{"a": 1, "new": "x"}

			rec := provider.Diff(before, after)
			Expect(rec).ToNot(BeNil())

			result, err := provider.ApplyBackward(after, rec)
			Expect(err).ToNot(HaveOccurred())
			Expect(document.Equal(result, before)).To(BeTrue())
		})

		It("should not mutate the base tree", func() {
			before := document.Document{"v": 1}
			after := document.Document{"v": 2}
			rec := provider.Diff(before, after)

			_, err := provider.ApplyBackward(after, rec)
			Expect(err).ToNot(HaveOccurred())
			Expect(after["v"]).To(Equal(2))
		})

		It("should refuse reverting on a tree that drifted", func() {
			rec := provider.Diff(
				document.Document{"v": 1},
				document.Document{"v": 2},
			)

			_, err := provider.ApplyBackward(document.Document{"v": 5}, rec)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, delta.ErrMismatch)).To(BeTrue())
		})

		It("should round trip forward then backward", func() {
			base := document.Document{
				"a": 0, "b": 1,
				"c": map[string]interface{}{},
				"d": []interface{}{0, 1, 2, 3, 4},
			}
			modified := document.CloneDocument(base)
			modified["c"] = 2

			rec := provider.Diff(base, modified)
			Expect(rec).ToNot(BeNil())

			forward, err := provider.ApplyForward(base, rec)
			Expect(err).ToNot(HaveOccurred())

			back, err := provider.ApplyBackward(forward, rec)
			Expect(err).ToNot(HaveOccurred())
			Expect(document.Equal(back, base)).To(BeTrue())
		})
	})
})

var _ = Describe("Record", func() {
	It("should treat a nil record as empty", func() {
		var rec *delta.Record
		Expect(rec.IsEmpty()).To(BeTrue())
		Expect(rec.Fields()).To(BeZero())
		Expect(rec.Operations()).To(BeEmpty())
	})

	It("should return a defensive copy of operations", func() {
		provider := delta.NewFieldProvider()
		rec := provider.Diff(
			document.Document{"x": 1},
			document.Document{"x": 2},
		)
		Expect(rec).ToNot(BeNil())

		ops := rec.Operations()
		Expect(ops).ToNot(BeEmpty())
		ops[0].Path = "/mangled"

		Expect(rec.Operations()[0].Path).To(Equal("/x"))
	})
})
