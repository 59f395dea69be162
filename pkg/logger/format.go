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

package logger

import (
	"fmt"
	"sort"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// PrettyConsoleEncoder renders entries as
//
//	[2006-01-02 15:04:05 MST] [INFO]  [Component] message  key=value
//
// Field handling rides on a MapObjectEncoder, so context attached with
// With() survives into the rendered line.
type PrettyConsoleEncoder struct {
	*zapcore.MapObjectEncoder
	cfg  *zapcore.EncoderConfig
	pool buffer.Pool
}

// NewPrettyConsoleEncoder returns the pretty encoder used by the default
// library logger.
func NewPrettyConsoleEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &PrettyConsoleEncoder{
		MapObjectEncoder: zapcore.NewMapObjectEncoder(),
		cfg:              &cfg,
		pool:             buffer.NewPool(),
	}
}

func (e *PrettyConsoleEncoder) Clone() zapcore.Encoder {
	ctx := zapcore.NewMapObjectEncoder()
	for k, v := range e.Fields {
		ctx.Fields[k] = v
	}

	return &PrettyConsoleEncoder{MapObjectEncoder: ctx, cfg: e.cfg, pool: e.pool}
}

func (e *PrettyConsoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := e.pool.Get()

	line.AppendByte('[')
	line.AppendString(entry.Time.Format("2006-01-02 15:04:05 MST"))
	line.AppendString("] [")
	line.AppendString(entry.Level.CapitalString())
	line.AppendByte(']')
	line.AppendByte('\t')

	if entry.Caller.Defined {
		line.AppendByte('[')
		line.AppendString(entry.Caller.TrimmedPath())
		line.AppendByte(']')
		line.AppendByte('\t')
	}

	if entry.LoggerName != "" {
		line.AppendByte('[')
		line.AppendString(entry.LoggerName)
		line.AppendByte(']')
		line.AppendByte('\t')
	}

	line.AppendString(entry.Message)
	e.appendFields(line, fields)

	ending := e.cfg.LineEnding
	if ending == "" {
		ending = zapcore.DefaultLineEnding
	}

	line.AppendString(ending)

	return line, nil
}

// appendFields renders the With() context plus the call-site fields as
// key=value pairs in sorted key order.
func (e *PrettyConsoleEncoder) appendFields(line *buffer.Buffer, fields []zapcore.Field) {
	merged := zapcore.NewMapObjectEncoder()
	for k, v := range e.Fields {
		merged.Fields[k] = v
	}

	for _, f := range fields {
		f.AddTo(merged)
	}

	if len(merged.Fields) == 0 {
		return
	}

	keys := make([]string, 0, len(merged.Fields))
	for k := range merged.Fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	line.AppendString("  ")

	for i, k := range keys {
		if i > 0 {
			line.AppendString(", ")
		}

		line.AppendString(k)
		line.AppendByte('=')
		line.AppendString(fmt.Sprintf("%v", merged.Fields[k]))
	}
}
