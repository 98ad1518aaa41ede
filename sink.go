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
	"encoding/json"
	"strings"
)

// Field is a single decoded item. Fields are emitted in display order; Depth nests a field below
// the most recent field of depth Depth-1.
type Field struct {
	Abbrev  string `json:"abbrev,omitempty"`
	Name    string `json:"name"`
	Value   any    `json:"value,omitempty"`
	Display string `json:"display,omitempty"`

	// Offset and Length locate the field within the record. Generated fields are derived, e.g.
	// from the correlation index, and cover no bytes of their own.
	Offset    int  `json:"offset"`
	Length    int  `json:"length"`
	Generated bool `json:"generated,omitempty"`

	Depth int `json:"-"`
}

// Label is the text a field is shown with.
func (f Field) Label() string {
	if f.Display == "" {
		return f.Name
	}
	return f.Name + ": " + f.Display
}

// Sink consumes decoded fields and diagnostics. Sinks are called from the decoding goroutine only.
type Sink interface {
	Field(Field)
	Diagnostic(Diagnostic)
}

type discardSink struct{}

func (discardSink) Field(Field)           {}
func (discardSink) Diagnostic(Diagnostic) {}

// DiscardSink drops everything. It is useful when only the side effects of decoding on the
// correlation index are wanted.
var DiscardSink Sink = discardSink{}

type multiSink []Sink

func (m multiSink) Field(f Field) {
	for _, s := range m {
		s.Field(f)
	}
}

func (m multiSink) Diagnostic(d Diagnostic) {
	for _, s := range m {
		s.Diagnostic(d)
	}
}

// MultiSink duplicates all events to each of sinks.
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}

// depthSink shifts the depth of all events by a constant.
type depthSink struct {
	Sink
	shift int
}

func (s depthSink) Field(f Field) {
	f.Depth += s.shift
	s.Sink.Field(f)
}

func (s depthSink) Diagnostic(d Diagnostic) {
	if d.Depth >= 0 {
		d.Depth += s.shift
	}
	s.Sink.Diagnostic(d)
}

// Node is a field of a Tree with its children and the diagnostics referring to it.
type Node struct {
	Field
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	Children    []*Node      `json:"children,omitempty"`
}

// Tree is a Sink assembling fields into a tree. The zero value is ready to use.
type Tree struct {
	Roots []*Node

	// Diagnostics holds all diagnostics in the order they were emitted, including those attached
	// to nodes.
	Diagnostics []Diagnostic

	path     []*Node
	detached []Diagnostic
}

var _ Sink = &Tree{}

func (t *Tree) Field(f Field) {
	d := f.Depth
	if d > len(t.path) {
		d = len(t.path)
	}
	if d < 0 {
		d = 0
	}
	t.path = t.path[:d]

	n := &Node{Field: f}
	if d == 0 {
		t.Roots = append(t.Roots, n)
	} else {
		parent := t.path[d-1]
		parent.Children = append(parent.Children, n)
	}
	t.path = append(t.path, n)
}

func (t *Tree) Diagnostic(d Diagnostic) {
	t.Diagnostics = append(t.Diagnostics, d)
	if d.Depth >= 0 && d.Depth < len(t.path) {
		n := t.path[d.Depth]
		n.Diagnostics = append(n.Diagnostics, d)
		return
	}
	t.detached = append(t.detached, d)
}

// Reset clears the tree for reuse.
func (t *Tree) Reset() {
	t.Roots = nil
	t.Diagnostics = nil
	t.path = nil
	t.detached = nil
}

// Walk visits all nodes depth-first until fn returns false.
func (t *Tree) Walk(fn func(*Node) bool) {
	var walk func([]*Node) bool
	walk = func(nodes []*Node) bool {
		for _, n := range nodes {
			if !fn(n) || !walk(n.Children) {
				return false
			}
		}
		return true
	}
	walk(t.Roots)
}

// Find returns all nodes with the given abbreviation, in display order.
func (t *Tree) Find(abbrev string) []*Node {
	var found []*Node
	t.Walk(func(n *Node) bool {
		if n.Abbrev == abbrev {
			found = append(found, n)
		}
		return true
	})
	return found
}

// HasDiagnostic reports whether a diagnostic of kind was emitted.
func (t *Tree) HasDiagnostic(kind DiagnosticKind) bool {
	for _, d := range t.Diagnostics {
		if d.Kind.Name == kind.Name {
			return true
		}
	}
	return false
}

func (t *Tree) String() string {
	var sb strings.Builder
	var write func([]*Node, int)
	write = func(nodes []*Node, indent int) {
		for _, n := range nodes {
			sb.WriteString(strings.Repeat("    ", indent))
			sb.WriteString(n.Label())
			sb.WriteByte('\n')
			for _, d := range n.Diagnostics {
				sb.WriteString(strings.Repeat("    ", indent+1))
				sb.WriteString(d.String())
				sb.WriteByte('\n')
			}
			write(n.Children, indent+1)
		}
	}
	write(t.Roots, 0)
	for _, d := range t.detached {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Fields      []*Node      `json:"fields"`
		Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	}{
		Fields:      t.Roots,
		Diagnostics: t.Diagnostics,
	})
}
