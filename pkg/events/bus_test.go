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

package events_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/docjournal/pkg/events"
)

var _ = Describe("Bus", func() {
	var bus *events.Bus

	BeforeEach(func() {
		bus = events.NewBus()
	})

	It("should deliver events to subscribers of the matching type", func() {
		var received []events.Event

		bus.Subscribe(events.TypeChange, func(e events.Event) {
			received = append(received, e)
		})

		bus.Publish(events.Event{Type: events.TypeChange, ContainerID: "c-1"})
		bus.Publish(events.Event{Type: events.TypeUndo, ContainerID: "c-1"})

		Expect(received).To(HaveLen(1))
		Expect(received[0].ContainerID).To(Equal("c-1"))
	})

	It("should be a no-op with zero subscribers", func() {
		Expect(func() {
			bus.Publish(events.Event{Type: events.TypeRedo})
		}).ToNot(Panic())
	})

	It("should deliver synchronously in subscription order", func() {
		var order []string

		bus.Subscribe(events.TypeChange, func(events.Event) {
			order = append(order, "first")
		})
		bus.Subscribe(events.TypeChange, func(events.Event) {
			order = append(order, "second")
		})

		bus.Publish(events.Event{Type: events.TypeChange})

		Expect(order).To(Equal([]string{"first", "second"}))
	})

	It("should stop delivering after unsubscribe", func() {
		calls := 0

		unsubscribe := bus.Subscribe(events.TypeUndo, func(events.Event) {
			calls++
		})

		bus.Publish(events.Event{Type: events.TypeUndo})
		unsubscribe()
		bus.Publish(events.Event{Type: events.TypeUndo})

		Expect(calls).To(Equal(1))
		Expect(bus.Subscribers(events.TypeUndo)).To(BeZero())
	})

	It("should tolerate double unsubscribe", func() {
		unsubscribe := bus.Subscribe(events.TypeChange, func(events.Event) {})

		unsubscribe()
		Expect(unsubscribe).ToNot(Panic())
	})

	It("should allow unsubscribing from inside a handler", func() {
		calls := 0

		var unsubscribe func()
		unsubscribe = bus.Subscribe(events.TypeChange, func(events.Event) {
			calls++

			unsubscribe()
		})

		bus.Publish(events.Event{Type: events.TypeChange})
		bus.Publish(events.Event{Type: events.TypeChange})

		Expect(calls).To(Equal(1))
	})
})
