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

package document_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/docjournal/pkg/document"
)

var _ = Describe("Clone", func() {
	It("should copy nested maps without aliasing", func() {
		src := document.Document{
			"name": "pump-1",
			"meta": map[string]interface{}{
				"location": "hall-a",
			},
		}

		cloned := document.CloneDocument(src)
		cloned["meta"].(map[string]interface{})["location"] = "hall-b"

		Expect(src["meta"].(map[string]interface{})["location"]).To(Equal("hall-a"))
	})

	It("should copy nested sequences without aliasing", func() {
		src := document.Document{
			"readings": []interface{}{1, 2, []interface{}{3, 4}},
		}

		cloned := document.CloneDocument(src)
		inner := cloned["readings"].([]interface{})[2].([]interface{})
		inner[0] = 99

		srcInner := src["readings"].([]interface{})[2].([]interface{})
		Expect(srcInner[0]).To(Equal(3))
	})

	It("should preserve scalar values and nil", func() {
		Expect(document.Clone(nil)).To(BeNil())
		Expect(document.Clone(42)).To(Equal(42))
		Expect(document.Clone("text")).To(Equal("text"))
		Expect(document.Clone(true)).To(Equal(true))
		Expect(document.Clone(3.14)).To(Equal(3.14))
	})

	It("should return an empty writable document for a nil root", func() {
		cloned := document.CloneDocument(nil)
		Expect(cloned).ToNot(BeNil())

		cloned["k"] = "v"
		Expect(cloned).To(HaveLen(1))
	})

	It("should deep copy empty containers", func() {
		src := document.Document{
			"empty_map":  map[string]interface{}{},
			"empty_list": []interface{}{},
		}

		cloned := document.CloneDocument(src)
		Expect(cloned["empty_map"]).To(Equal(map[string]interface{}{}))
		Expect(cloned["empty_list"]).To(Equal([]interface{}{}))
	})
})

var _ = Describe("Equal", func() {
	It("should treat structurally identical trees as equal", func() {
		a := document.Document{
			"a": 0, "b": 1,
			"c": map[string]interface{}{},
			"d": []interface{}{0, 1, 2, 3, 4},
		}
		b := document.CloneDocument(a)

		Expect(document.Equal(a, b)).To(BeTrue())
	})

	It("should compare numbers by magnitude across Go widths", func() {
		Expect(document.Equal(2, float64(2))).To(BeTrue())
		Expect(document.Equal(int64(7), 7)).To(BeTrue())
		Expect(document.Equal(uint8(5), 5.0)).To(BeTrue())
		Expect(document.Equal(2, 3)).To(BeFalse())
	})

	It("should survive a JSON round trip", func() {
		a := document.Document{
			"count": 12,
			"nested": map[string]interface{}{
				"values": []interface{}{1, 2, 3},
			},
		}

		buf, err := json.Marshal(a)
		Expect(err).ToNot(HaveOccurred())

		var b document.Document
		Expect(json.Unmarshal(buf, &b)).To(Succeed())

		Expect(document.Equal(a, b)).To(BeTrue())
	})

	It("should distinguish missing keys from nil values", func() {
		a := document.Document{"k": nil}
		b := document.Document{}

		Expect(document.Equal(a, b)).To(BeFalse())
	})

	It("should compare sequences by order", func() {
		a := []interface{}{1, 2, 3}
		b := []interface{}{3, 2, 1}

		Expect(document.Equal(a, b)).To(BeFalse())
	})

	It("should not conflate types with equal renderings", func() {
		Expect(document.Equal("1", 1)).To(BeFalse())
		Expect(document.Equal(true, 1)).To(BeFalse())
		Expect(document.Equal(nil, 0)).To(BeFalse())
	})
})

var _ = Describe("Hash", func() {
	It("should hash structurally equal trees identically", func() {
		a := document.Document{"x": 1, "y": []interface{}{"a", "b"}}
		b := document.CloneDocument(a)

		ha, err := document.Hash(a)
		Expect(err).ToNot(HaveOccurred())

		hb, err := document.Hash(b)
		Expect(err).ToNot(HaveOccurred())

		Expect(ha).To(Equal(hb))
	})

	It("should change when content changes", func() {
		a := document.Document{"x": 1}
		before, err := document.Hash(a)
		Expect(err).ToNot(HaveOccurred())

		a["x"] = 2
		after, err := document.Hash(a)
		Expect(err).ToNot(HaveOccurred())

		Expect(before).ToNot(Equal(after))
	})

	It("should reject values that cannot be encoded", func() {
		_, err := document.Hash(document.Document{"ch": make(chan int)})
		Expect(err).To(HaveOccurred())
	})
})
