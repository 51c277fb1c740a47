// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
)

type discardHandler struct{}

// DiscardHandler returns a handler that drops every record.
func DiscardHandler() slog.Handler {
	return discardHandler{}
}

func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }

// terminalOutput is shared by a TerminalHandler and the handlers derived from it.
type terminalOutput struct {
	mu  sync.Mutex
	wr  io.Writer
	buf []byte
}

// TerminalHandler writes human readable, optionally colored records:
//
//	INFO [10-19|09:41:07.331] grant created                            id=1 duration=31,536,000
type TerminalHandler struct {
	out      *terminalOutput
	lvl      *slog.LevelVar
	useColor bool
	attrs    []slog.Attr
	group    string // key prefix added by WithGroup

	// widest value seen per key, used to line up columns
	fieldPadding map[string]int
}

// NewTerminalHandlerWithLevel returns a terminal handler that drops records below lvl.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl *slog.LevelVar, useColor bool) *TerminalHandler {
	return &TerminalHandler{
		out:          &terminalOutput{wr: wr},
		lvl:          lvl,
		useColor:     useColor,
		fieldPadding: make(map[string]int),
	}
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.out.mu.Lock()
	defer h.out.mu.Unlock()

	buf := h.format(h.out.buf, r, h.useColor)
	_, err := h.out.wr.Write(buf)
	h.out.buf = buf[:0]
	return err
}

func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl.Level()
}

func (h *TerminalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	derived := h.derive()
	derived.group = h.group + name + "."
	return derived
}

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := h.derive()
	for _, attr := range attrs {
		attr.Key = h.group + attr.Key
		derived.attrs = append(derived.attrs, attr)
	}
	return derived
}

func (h *TerminalHandler) derive() *TerminalHandler {
	return &TerminalHandler{
		out:          h.out,
		lvl:          h.lvl,
		useColor:     h.useColor,
		attrs:        append([]slog.Attr(nil), h.attrs...),
		group:        h.group,
		fieldPadding: make(map[string]int),
	}
}

// JSONHandler returns a JSON handler printing records at every level.
func JSONHandler(wr io.Writer) slog.Handler {
	var level slog.LevelVar
	level.Set(levelMaxVerbosity)
	return JSONHandlerWithLevel(wr, &level)
}

// JSONHandlerWithLevel returns a JSON handler that drops records below level.
// Time and level are keyed "t" and "lvl", token amounts are decimal strings.
func JSONHandlerWithLevel(wr io.Writer, level *slog.LevelVar) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: replaceJSONAttr,
		Level:       level,
	})
}

func replaceJSONAttr(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			attr.Key = "t"
		}
		return attr
	case slog.LevelKey:
		if l, ok := attr.Value.Any().(slog.Level); ok {
			return slog.String("lvl", LevelString(l))
		}
		return attr
	}

	switch attr.Value.Any().(type) {
	case *big.Int, *uint256.Int:
		attr.Value = slog.StringValue(formatSlogValue(attr.Value))
	}
	return attr
}
