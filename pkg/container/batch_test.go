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

package container_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/docjournal/pkg/container"
	"github.com/united-manufacturing-hub/docjournal/pkg/events"
	"github.com/united-manufacturing-hub/docjournal/pkg/observed"
)

var _ = Describe("Batches", func() {
	var (
		c       *container.Container
		root    *observed.Map
		changes []events.Event
	)

	BeforeEach(func() {
		changes = nil
		c = container.New(baseTree(), container.Options{})
		c.OnChange(func(e events.Event) { changes = append(changes, e) })
		root = c.Root()
	})

	It("coalesces all writes into a single record", func() {
		Expect(c.StartBatch(container.BatchOptions{})).To(Succeed())
		Expect(c.InBatch()).To(BeTrue())

		root.Set("a", 10)
		root.Set("b", 20)
		child, _ := root.GetMap("c")
		child.Set("x", 30)

		Expect(changes).To(BeEmpty())
		Expect(c.HistoryLen()).To(BeZero())

		committed, err := c.EndBatch()
		Expect(err).NotTo(HaveOccurred())
		Expect(committed).To(BeTrue())
		Expect(c.InBatch()).To(BeFalse())
		Expect(c.HistoryLen()).To(Equal(1))
		Expect(changes).To(HaveLen(1))

		// One undo reverts the whole batch.
		done, err := c.Undo()
		Expect(err).NotTo(HaveOccurred())
		Expect(done).To(BeTrue())

		tree := c.Tree()
		Expect(tree["a"]).To(Equal(0))
		Expect(tree["b"]).To(Equal(1))
		Expect(tree["c"]).To(BeEmpty())
	})

	It("emits intermediate change events when asked, still committing once", func() {
		Expect(c.StartBatch(container.BatchOptions{EmitChanges: true})).To(Succeed())

		root.Set("a", 10)
		root.Set("b", 20)

		Expect(changes).To(HaveLen(2))
		Expect(c.HistoryLen()).To(BeZero())

		committed, err := c.EndBatch()
		Expect(err).NotTo(HaveOccurred())
		Expect(committed).To(BeTrue())
		Expect(c.HistoryLen()).To(Equal(1))
		Expect(changes).To(HaveLen(3))
	})

	It("rejects nested batches and keeps the outer one open", func() {
		Expect(c.StartBatch(container.BatchOptions{})).To(Succeed())

		err := c.StartBatch(container.BatchOptions{})
		Expect(err).To(MatchError(container.ErrBatchActive))
		Expect(c.InBatch()).To(BeTrue())

		root.Set("a", 10)

		committed, err := c.EndBatch()
		Expect(err).NotTo(HaveOccurred())
		Expect(committed).To(BeTrue())
	})

	It("errors on EndBatch without an open batch", func() {
		committed, err := c.EndBatch()
		Expect(committed).To(BeFalse())
		Expect(err).To(MatchError(container.ErrNoActiveBatch))
	})

	It("commits nothing when a batch ends where it started", func() {
		Expect(c.StartBatch(container.BatchOptions{})).To(Succeed())

		root.Set("a", 99)
		root.Set("a", 0)

		committed, err := c.EndBatch()
		Expect(err).NotTo(HaveOccurred())
		Expect(committed).To(BeFalse())
		Expect(c.HistoryLen()).To(BeZero())
		Expect(c.InBatch()).To(BeFalse())
		Expect(changes).To(BeEmpty())
	})

	It("commits nothing when every batched write was dropped by a freeze", func() {
		Expect(c.StartBatch(container.BatchOptions{})).To(Succeed())
		c.Freeze()

		root.Set("a", 99)

		committed, err := c.EndBatch()
		Expect(err).NotTo(HaveOccurred())
		Expect(committed).To(BeFalse())
		Expect(c.Tree()["a"]).To(Equal(0))
	})

	It("cancels an open batch on ClearHistory, keeping the raw writes", func() {
		Expect(c.StartBatch(container.BatchOptions{})).To(Succeed())
		root.Set("a", 99)

		c.ClearHistory()

		Expect(c.InBatch()).To(BeFalse())
		Expect(c.HistoryLen()).To(BeZero())

		_, err := c.EndBatch()
		Expect(err).To(MatchError(container.ErrNoActiveBatch))

		value, _ := root.Get("a")
		Expect(value).To(Equal(99))
	})

	It("truncates the redo tail when a batch commits mid-history", func() {
		root.Set("a", 1)
		root.Set("a", 2)

		_, err := c.Undo()
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Redoable()).To(BeTrue())

		Expect(c.StartBatch(container.BatchOptions{})).To(Succeed())
		root.Set("b", "batched")
		committed, err := c.EndBatch()
		Expect(err).NotTo(HaveOccurred())
		Expect(committed).To(BeTrue())

		Expect(c.HistoryLen()).To(Equal(2))
		Expect(c.Position()).To(Equal(2))
		Expect(c.Redoable()).To(BeFalse())
	})
})
