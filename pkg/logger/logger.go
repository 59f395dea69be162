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

// Package logger wraps zap for the library's own log output.
//
// Embedding applications normally hand their own *zap.SugaredLogger to
// the option structs; this package only backs the components that were
// not given one. It deliberately reads no environment variables and no
// configuration files: a library configures nothing behind its
// caller's back. The fallback is a pretty console logger at Info.
package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level names accepted by New. Unknown names fall back to Info.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Format selects the output encoding.
type Format string

const (
	// FormatPretty is the aligned human-readable form, the default.
	FormatPretty Format = "PRETTY"
	// FormatConsole is zap's stock console encoder.
	FormatConsole Format = "CONSOLE"
	// FormatJSON is structured output for log shippers.
	FormatJSON Format = "JSON"
)

var setupOnce sync.Once

func zapLevel(level Level) zapcore.Level {
	switch Level(strings.ToUpper(string(level))) {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig(format Format) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if format != FormatJSON {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("2006-01-02 15:04:05 MST"))
		}
		cfg.ConsoleSeparator = " | "
	}

	return cfg
}

// New builds a logger writing to stdout with the given level and format.
func New(level Level, format Format) *zap.Logger {
	cfg := encoderConfig(format)

	var encoder zapcore.Encoder

	switch format {
	case FormatPretty:
		encoder = NewPrettyConsoleEncoder(cfg)
	case FormatConsole:
		encoder = zapcore.NewConsoleEncoder(cfg)
	default:
		encoder = zapcore.NewJSONEncoder(cfg)
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.AddSync(os.Stdout),
		zap.NewAtomicLevelAt(zapLevel(level)),
	)

	return zap.New(core, zap.AddCaller())
}

// For returns the named logger for a component, installing the default
// pretty logger as zap's global on first use. Applications that want
// different output call zap.ReplaceGlobals before the library logs.
func For(component string) *zap.SugaredLogger {
	setupOnce.Do(func() {
		zap.ReplaceGlobals(New(LevelInfo, FormatPretty))
	})

	return zap.S().Named(component)
}

// Sync flushes buffered entries on the global logger.
func Sync() error {
	return zap.L().Sync()
}
