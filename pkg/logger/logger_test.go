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

package logger_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/united-manufacturing-hub/docjournal/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("should build a logger for every format", func() {
			for _, format := range []logger.Format{
				logger.FormatPretty, logger.FormatConsole, logger.FormatJSON,
			} {
				Expect(logger.New(logger.LevelInfo, format)).ToNot(BeNil())
			}
		})

		It("should treat unknown level names as Info", func() {
			log := logger.New("chatty", logger.FormatJSON)
			Expect(log.Core().Enabled(zapcore.InfoLevel)).To(BeTrue())
			Expect(log.Core().Enabled(zapcore.DebugLevel)).To(BeFalse())
		})
	})

	Describe("For", func() {
		It("should hand out a named component logger", func() {
			Expect(logger.For(logger.ComponentContainer)).ToNot(BeNil())
		})
	})

	Describe("PrettyConsoleEncoder", func() {
		var enc zapcore.Encoder

		BeforeEach(func() {
			enc = logger.NewPrettyConsoleEncoder(zapcore.EncoderConfig{
				LineEnding: zapcore.DefaultLineEnding,
			})
		})

		entryAt := func(msg string) zapcore.Entry {
			return zapcore.Entry{
				Level:      zapcore.InfoLevel,
				Time:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
				LoggerName: "Container",
				Message:    msg,
			}
		}

		It("should render timestamp, level, component and message", func() {
			buf, err := enc.EncodeEntry(entryAt("committed"), nil)
			Expect(err).ToNot(HaveOccurred())

			line := buf.String()
			Expect(line).To(ContainSubstring("[2025-03-01 12:00:00 UTC]"))
			Expect(line).To(ContainSubstring("[INFO]"))
			Expect(line).To(ContainSubstring("[Container]"))
			Expect(line).To(ContainSubstring("committed"))
		})

		It("should render call-site fields as sorted key=value pairs", func() {
			buf, err := enc.EncodeEntry(entryAt("committed"), []zapcore.Field{
				zap.Int("position", 3),
				zap.String("container", "c1"),
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("container=c1, position=3"))
		})

		It("should carry With() context through Clone into the line", func() {
			clone := enc.Clone()
			clone.AddString("container", "c1")

			buf, err := clone.EncodeEntry(entryAt("undone"), nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("container=c1"))

			// The original encoder is unaffected.
			buf, err = enc.EncodeEntry(entryAt("undone"), nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(buf.String()).ToNot(ContainSubstring("container=c1"))
		})
	})
})
