// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides package scoped loggers on top of go-ethereum/log.
//
// Loggers created by WithContext follow the handler installed by SetDefault,
// even when they were created before it, so they can be declared as package vars:
//
//	var logger = log.WithContext("pkg", "fees")
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

// Logger is the logging interface used across packages.
type Logger = ethlog.Logger

// Levels, ordered by verbosity.
const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

var (
	current atomic.Pointer[slog.Handler]
	root    Logger
)

func init() {
	SetDefault(NewTerminalHandler(os.Stderr, LevelInfo, false))
	root = ethlog.NewLogger(&switchHandler{})
}

// SetDefault replaces the handler of all loggers.
func SetDefault(h slog.Handler) {
	current.Store(&h)
}

// Root returns the root logger.
func Root() Logger {
	return root
}

// WithContext returns a logger with the given key-value context.
func WithContext(ctx ...any) Logger {
	return root.With(ctx...)
}

// NewTerminalHandler returns a human readable handler emitting records at or above level.
func NewTerminalHandler(w io.Writer, level slog.Level, useColor bool) slog.Handler {
	return ethlog.NewTerminalHandlerWithLevel(w, level, useColor)
}

// DiscardHandler returns a handler dropping everything.
func DiscardHandler() slog.Handler {
	return ethlog.DiscardHandler()
}

// ParseLevel parses level names like "info" or "warn".
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "trce":
		return LevelTrace, nil
	case "debug", "dbug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "eror":
		return LevelError, nil
	case "crit":
		return LevelCrit, nil
	}
	return LevelInfo, errors.Errorf("unknown log level %q", s)
}

// switchHandler resolves the installed handler on every record.
type switchHandler struct {
	attrs []slog.Attr
}

func (s *switchHandler) handler() slog.Handler {
	return *current.Load()
}

func (s *switchHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return s.handler().Enabled(ctx, level)
}

func (s *switchHandler) Handle(ctx context.Context, r slog.Record) error {
	h := s.handler()
	if len(s.attrs) > 0 {
		h = h.WithAttrs(s.attrs)
	}
	return h.Handle(ctx, r)
}

func (s *switchHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(s.attrs)+len(attrs))
	merged = append(append(merged, s.attrs...), attrs...)
	return &switchHandler{attrs: merged}
}

// WithGroup is not supported, groups are flattened into the context.
func (s *switchHandler) WithGroup(_ string) slog.Handler {
	return s
}
