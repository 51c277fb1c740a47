// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/big"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/holiman/uint256"
)

const (
	timeFormat        = "2006-01-02T15:04:05-0700"
	termTimeFormat    = "01-02|15:04:05.000"
	termMsgJust       = 40
	termCtxMaxPadding = 40
)

func levelColor(l slog.Level) int {
	switch l {
	case LevelCrit:
		return 35
	case slog.LevelError:
		return 31
	case slog.LevelWarn:
		return 33
	case slog.LevelInfo:
		return 32
	case slog.LevelDebug:
		return 36
	case LevelTrace:
		return 34
	}
	return 0
}

// format renders r as
//
//	LEVEL [01-02|15:04:05.000] message                                 key=value ...
func (h *TerminalHandler) format(buf []byte, r slog.Record, usecolor bool) []byte {
	b := bytes.NewBuffer(buf)

	lvl := LevelAlignedString(r.Level)
	if usecolor {
		fmt.Fprintf(b, "\x1b[%dm%s\x1b[0m", levelColor(r.Level), lvl)
	} else {
		b.WriteString(lvl)
	}
	b.WriteString("[")
	writeTimeTermFormat(b, r.Time)
	b.WriteString("] ")
	b.WriteString(r.Message)

	// try to justify the log output for short messages
	if n := utf8.RuneCountInString(r.Message); r.NumAttrs()+len(h.attrs) > 0 && n < termMsgJust {
		b.Write(bytes.Repeat([]byte{' '}, termMsgJust-n))
	}

	h.formatAttributes(b, r, usecolor)
	b.WriteByte('\n')
	return b.Bytes()
}

func (h *TerminalHandler) formatAttributes(b *bytes.Buffer, r slog.Record, usecolor bool) {
	writeAttr := func(attr slog.Attr, last bool) {
		b.WriteByte(' ')

		if usecolor {
			fmt.Fprintf(b, "\x1b[%dm%s\x1b[0m=", levelColor(r.Level), attr.Key)
		} else {
			b.WriteString(attr.Key)
			b.WriteByte('=')
		}
		val := formatSlogValue(attr.Value)
		b.WriteString(val)

		padding := h.fieldPadding[attr.Key]
		length := utf8.RuneCountInString(val)
		if padding < length && length <= termCtxMaxPadding {
			padding = length
			h.fieldPadding[attr.Key] = padding
		}
		if padding > length && !last {
			b.Write(bytes.Repeat([]byte{' '}, padding-length))
		}
	}

	n := 0
	total := r.NumAttrs() + len(h.attrs)
	for _, attr := range h.attrs {
		n++
		writeAttr(attr, n == total)
	}
	r.Attrs(func(attr slog.Attr) bool {
		n++
		attr.Key = h.group + attr.Key
		writeAttr(attr, n == total)
		return true
	})
}

func formatSlogValue(v slog.Value) string {
	var value any
	if v.Kind() == slog.KindLogValuer {
		value = v.LogValuer().LogValue().Any()
	} else {
		value = v.Any()
	}
	if value == nil {
		return "<nil>"
	}
	switch v := value.(type) {
	case time.Time:
		return v.Format(timeFormat)
	case int64:
		return string(appendInt64(nil, v))
	case uint64:
		return string(appendUint64(nil, v, false))
	case *big.Int:
		if v == nil {
			return "<nil>"
		}
		return v.String()
	case *uint256.Int:
		if v == nil {
			return "<nil>"
		}
		return v.Dec()
	case error:
		return escapeString(v.Error())
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return "<nil>"
		}
		return escapeString(v.String())
	case string:
		return escapeString(v)
	}
	return escapeString(fmt.Sprintf("%+v", value))
}

// appendInt64 formats n with thousand separators.
func appendInt64(dst []byte, n int64) []byte {
	if n < 0 {
		return appendUint64(dst, uint64(-n), true)
	}
	return appendUint64(dst, uint64(n), false)
}

// appendUint64 formats i with thousand separators, prefixed by '-' if neg.
func appendUint64(dst []byte, i uint64, neg bool) []byte {
	if i < 100000 {
		if neg {
			dst = append(dst, '-')
		}
		return strconv.AppendUint(dst, i, 10)
	}
	digits := strconv.FormatUint(i, 10)
	out := make([]byte, 0, len(digits)+len(digits)/3+1)
	if neg {
		out = append(out, '-')
	}
	for j, d := range []byte(digits) {
		if j > 0 && (len(digits)-j)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, d)
	}
	return append(dst, out...)
}

func escapeString(s string) string {
	needsQuoting := false
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' || r > '~' {
			needsQuoting = true
			break
		}
	}
	if !needsQuoting {
		return s
	}
	return strconv.Quote(s)
}

func writeTimeTermFormat(b *bytes.Buffer, t time.Time) {
	b.WriteString(t.Format(termTimeFormat))
}
