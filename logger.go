/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package erf

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

// Log is the package logger. Until SetLogger is called, everything logged through it (and through
// loggers derived from it with WithName or WithValues) is dropped. Derived loggers are rebound to
// the real sink once it is set.
var Log = logr.New(rootSink)

var (
	rootSink     = newDeferredSink()
	rootCreated  = time.Now()
	loggerBound  atomic.Bool
	unboundGrace = 30 * time.Second
)

// SetLogger binds the package logger and every logger previously derived from it to l.
// Decoders never log through anything but Log or a logger found in the context.
func SetLogger(l logr.Logger) {
	loggerBound.Store(true)
	rootSink.bind(l.GetSink())
}

// FromContext returns the logger stored in ctx, or the package logger if there is none,
// decorated with keysAndValues.
func FromContext(ctx context.Context, keysAndValues ...interface{}) logr.Logger {
	l := Log
	if ctx != nil {
		if fromCtx, err := logr.FromContext(ctx); err == nil {
			l = fromCtx
		}
	}
	return l.WithValues(keysAndValues...)
}

// IntoContext stores l in ctx such that FromContext and the decoder pick it up.
func IntoContext(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}

// warnUnbound prints a single hint on stderr if the package logger is used long after process
// start without ever having been bound.
func warnUnbound() {
	if loggerBound.Load() || time.Since(rootCreated) < unboundGrace {
		return
	}
	if loggerBound.CompareAndSwap(false, true) {
		fmt.Fprintln(os.Stderr, "erf.SetLogger(...) was never called; logs will not be displayed")
		rootSink.bind(nullLogSink{})
	}
}

// nullLogSink drops everything. logr.Discard carries a nil sink, which cannot be called directly.
type nullLogSink struct{}

var _ logr.LogSink = nullLogSink{}

func (nullLogSink) Init(logr.RuntimeInfo)               {}
func (nullLogSink) Info(int, string, ...interface{})    {}
func (nullLogSink) Error(error, string, ...interface{}) {}
func (nullLogSink) Enabled(int) bool                    { return false }

func (s nullLogSink) WithName(string) logr.LogSink           { return s }
func (s nullLogSink) WithValues(...interface{}) logr.LogSink { return s }

// deferredSink forwards to its target once bound. Children created before binding remember how
// they were derived (name or values) so bind can replay the derivation on the real sink.
type deferredSink struct {
	mu       sync.RWMutex
	target   logr.LogSink
	bound    bool
	derive   func(logr.LogSink) logr.LogSink
	children []*deferredSink
	info     logr.RuntimeInfo
}

var _ logr.LogSink = &deferredSink{}

func newDeferredSink() *deferredSink {
	return &deferredSink{target: nullLogSink{}}
}

func (s *deferredSink) bind(target logr.LogSink) {
	if target == nil {
		target = nullLogSink{}
	}
	if s.derive != nil {
		target = s.derive(target)
	}
	if cd, ok := target.(logr.CallDepthLogSink); ok {
		target = cd.WithCallDepth(1)
	}

	s.mu.Lock()
	s.target = target
	s.bound = true
	children := s.children
	s.children = nil
	s.mu.Unlock()

	// children derive from the undecorated parent, not from the call-depth adjusted one
	parent := target
	if cd, ok := parent.(logr.CallDepthLogSink); ok {
		parent = cd.WithCallDepth(-1)
	}
	for _, c := range children {
		c.bind(parent)
	}
}

func (s *deferredSink) child(derive func(logr.LogSink) logr.LogSink) logr.LogSink {
	warnUnbound()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bound {
		sink := derive(s.target)
		if cd, ok := sink.(logr.CallDepthLogSink); ok {
			sink = cd.WithCallDepth(-1)
		}
		return sink
	}
	c := &deferredSink{target: s.target, derive: derive}
	s.children = append(s.children, c)
	return c
}

func (s *deferredSink) Init(info logr.RuntimeInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = info
}

func (s *deferredSink) Enabled(level int) bool {
	warnUnbound()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target.Enabled(level)
}

func (s *deferredSink) Info(level int, msg string, keysAndValues ...interface{}) {
	warnUnbound()
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.target.Info(level, msg, keysAndValues...)
}

func (s *deferredSink) Error(err error, msg string, keysAndValues ...interface{}) {
	warnUnbound()
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.target.Error(err, msg, keysAndValues...)
}

func (s *deferredSink) WithName(name string) logr.LogSink {
	return s.child(func(l logr.LogSink) logr.LogSink { return l.WithName(name) })
}

func (s *deferredSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	return s.child(func(l logr.LogSink) logr.LogSink { return l.WithValues(keysAndValues...) })
}
