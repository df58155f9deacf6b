// Copyright 2025 R5 Labs
// This file is part of the R5 Core library.
//
// This software is provided "as is", without warranty of any kind,
// express or implied, including but not limited to the warranties
// of merchantability, fitness for a particular purpose and
// noninfringement. In no event shall the authors or copyright
// holders be liable for any claim, damages, or other liability,
// whether in an action of contract, tort or otherwise, arising
// from, out of or in connection with the software or the use or
// other dealings in the software.

// Package log implements the structured, level-based logger used
// throughout the codebase: a small number of named levels, key/value
// pairs as variadic context, and a pluggable Handler that decides how
// a record is rendered and where it goes.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Lvl is a logging priority, lowest (most severe) first.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlCrit:
		return "crit"
	case LvlError:
		return "error"
	case LvlWarn:
		return "warn"
	case LvlInfo:
		return "info"
	case LvlDebug:
		return "debug"
	case LvlTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// Record is one emitted log line.
type Record struct {
	Time  time.Time
	Lvl   Lvl
	Msg   string
	Ctx   []interface{}
}

// Handler decides how a Record is rendered and where it goes.
type Handler interface {
	Log(r *Record) error
}

// FuncHandler turns a plain function into a Handler.
type FuncHandler func(r *Record) error

func (h FuncHandler) Log(r *Record) error { return h(r) }

// StreamHandler writes every record through fmtr to w.
func StreamHandler(w io.Writer, fmtr func(*Record) string) Handler {
	var mu sync.Mutex
	return FuncHandler(func(r *Record) error {
		mu.Lock()
		defer mu.Unlock()
		_, err := fmt.Fprint(w, fmtr(r))
		return err
	})
}

// TerminalFormat renders a record as a single human-readable line,
// optionally colorized for an interactive terminal.
func TerminalFormat(usecolor bool) func(*Record) string {
	return func(r *Record) string {
		lvl := r.Lvl.String()
		if usecolor {
			if code := lvlColor(r.Lvl); code != 0 {
				lvl = fmt.Sprintf("\x1b[%dm%s\x1b[0m", code, lvl)
			}
		}
		line := fmt.Sprintf("%s[%s] %s", r.Time.Format("01-02|15:04:05.000"), lvl, r.Msg)
		for i := 0; i+1 < len(r.Ctx); i += 2 {
			line += fmt.Sprintf(" %v=%v", r.Ctx[i], r.Ctx[i+1])
		}
		return line + "\n"
	}
}

func lvlColor(l Lvl) int {
	switch l {
	case LvlCrit:
		return 35
	case LvlError:
		return 31
	case LvlWarn:
		return 33
	case LvlInfo:
		return 32
	case LvlDebug:
		return 36
	default:
		return 0
	}
}

// LvlFilterHandler wraps h, dropping records more verbose than maxLvl.
func LvlFilterHandler(maxLvl Lvl, h Handler) Handler {
	return FuncHandler(func(r *Record) error {
		if r.Lvl > maxLvl {
			return nil
		}
		return h.Log(r)
	})
}

// NewGlogHandler wraps h; present for compatibility with callers that
// expect a verbosity-adjustable glog-style handler. Verbosity control
// (Verbosity/Vmodule) is accepted but, absent per-module rules in this
// module, applies uniformly through GlogHandler's own level check in
// Log; Vmodule rules are ignored.
type GlogHandler struct {
	inner    Handler
	verbosity int32
}

func NewGlogHandler(h Handler) *GlogHandler {
	return &GlogHandler{inner: h, verbosity: int32(LvlInfo)}
}

func (g *GlogHandler) Log(r *Record) error {
	if r.Lvl > Lvl(atomic.LoadInt32(&g.verbosity)) {
		return nil
	}
	return g.inner.Log(r)
}

func (g *GlogHandler) Verbosity(lvl Lvl) { atomic.StoreInt32(&g.verbosity, int32(lvl)) }
func (g *GlogHandler) Vmodule(string) error { return nil }

// DiscardHandler drops every record.
func DiscardHandler() Handler {
	return FuncHandler(func(*Record) error { return nil })
}

// Logger emits records carrying a fixed set of context key/value pairs.
type Logger interface {
	New(ctx ...interface{}) Logger
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
}

type logger struct {
	ctx []interface{}
	h   *swapHandler
}

type swapHandler struct {
	mu sync.RWMutex
	h  Handler
}

func (s *swapHandler) Log(r *Record) error {
	s.mu.RLock()
	h := s.h
	s.mu.RUnlock()
	return h.Log(r)
}

func (s *swapHandler) Swap(h Handler) {
	s.mu.Lock()
	s.h = h
	s.mu.Unlock()
}

func (l *logger) write(lvl Lvl, msg string, ctx []interface{}) {
	all := make([]interface{}, 0, len(l.ctx)+len(ctx))
	all = append(all, l.ctx...)
	all = append(all, ctx...)
	l.h.Log(&Record{Time: time.Now(), Lvl: lvl, Msg: msg, Ctx: all})
}

func (l *logger) New(ctx ...interface{}) Logger {
	return &logger{ctx: append(append([]interface{}{}, l.ctx...), ctx...), h: l.h}
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{}) {
	l.write(LvlCrit, msg, ctx)
	os.Exit(1)
}

var root = &logger{h: &swapHandler{h: StreamHandler(os.Stderr, TerminalFormat(false))}}

// Root returns the root logger, the ancestor of every logger returned by New.
func Root() Logger { return root }

// New returns a logger carrying ctx as a fixed prefix on every record.
func New(ctx ...interface{}) Logger { return root.New(ctx...) }

// SetDefault installs h as the root logger's handler.
func SetDefault(h Handler) { root.h.Swap(h) }

func Trace(msg string, ctx ...interface{}) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { root.Crit(msg, ctx...) }
