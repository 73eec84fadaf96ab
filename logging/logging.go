// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package logging provides a minimal, secret-redacting logging facade
// (component C9) for tracing high-level RC-PRF and AEAD-Wrap operations
// and CSPRNG shard events. The serialization package does not log.
//
// The facade wraps a subset of log/slog so that callers may supply their
// own implementation for testing or for integration with an existing
// logging system. Every constructor across this module that accepts a
// Logger defaults to NoOp when none is given: logging is observability,
// never a dependency of correctness, and must never be required to run.
package logging

import (
	"context"
	"log/slog"
)

const redactedPlaceholder = "[redacted]"

// Logger is the subset of slog functionality this module's packages use.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// New returns a Logger backed by the given slog.Logger. Passing nil binds
// to slog.Default().
func New(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *slogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *slogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}

// NoOp returns a Logger whose methods discard everything. It is the
// default bound into every constructor in this module that accepts a
// Logger option, since tracing is strictly optional.
func NoOp() Logger { return noOpLogger{} }

type noOpLogger struct{}

func (noOpLogger) Debug(context.Context, string, ...any) {}
func (noOpLogger) Info(context.Context, string, ...any)  {}
func (noOpLogger) Warn(context.Context, string, ...any)  {}
func (noOpLogger) Error(context.Context, string, ...any) {}
func (noOpLogger) With(...any) Logger                    { return noOpLogger{} }

// Redacted marks an attribute as containing sensitive material that was
// intentionally omitted. Key bytes, PRF/PRG outputs, and nonces must never
// be logged directly; pass their attribute name through Redacted instead
// so the field's presence is still visible in structured output.
func Redacted(key string) slog.Attr {
	return slog.String(key, redactedPlaceholder)
}

// Placeholder returns the canonical string substituted for a redacted
// value.
func Placeholder() string {
	return redactedPlaceholder
}
