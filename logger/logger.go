// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

// Package logger builds the *zap.Logger used by the opampagent demo binary,
// and by extension is suitable for any embedder of this module that wants
// the same letter-coded log line convention.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// LetterLevelEncoder prefixes each encoded line with its level's first
// letter (I!, W!, E!, D!) ahead of the JSON body, matching this module's
// convention for human-tailed log files.
type LetterLevelEncoder struct {
	zapcore.Encoder
}

// NewProductionLogger builds the demo binary's logger: JSON body,
// letter-coded level prefix, written to stderr at levelName (see
// ConvertToAtomicLevel for accepted values).
func NewProductionLogger(levelName string) (*zap.Logger, error) {
	level := ConvertToAtomicLevel(levelName)
	core := zapcore.NewCore(createLetterLevelEncoder(), zapcore.AddSync(os.Stderr), level)
	return zap.New(core, zap.AddCaller()), nil
}

func createLetterLevelEncoder() LetterLevelEncoder {
	return LetterLevelEncoder{
		zapcore.NewJSONEncoder(newProductionEncoderConfig()),
	}
}

func (t LetterLevelEncoder) EncodeEntry(e zapcore.Entry, f []zapcore.Field) (*buffer.Buffer, error) {
	entry, err := t.Encoder.EncodeEntry(e, f)
	if err != nil {
		return nil, err
	}
	buf := buffer.NewPool().Get()
	buf.AppendString(ConvertToLetterLevel(e.Level) + "! ")
	buf.AppendString(entry.String())
	return buf, nil
}

func (t LetterLevelEncoder) Clone() zapcore.Encoder {
	return LetterLevelEncoder{
		zapcore.NewJSONEncoder(newProductionEncoderConfig()),
	}
}

func newProductionEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		NameKey:       "logger",
		CallerKey:     "caller",
		FunctionKey:   zapcore.OmitKey,
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
}

// ConvertToAtomicLevel parses a level name ("debug", "warn", "error",
// anything else maps to info) into a zap.AtomicLevel.
func ConvertToAtomicLevel(level string) zap.AtomicLevel {
	switch strings.ToLower(level) {
	case "debug":
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn", "warning":
		return zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
}

func ConvertToLetterLevel(l zapcore.Level) string {
	return string(l.CapitalString()[0])
}
