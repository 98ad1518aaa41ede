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

// Package severity enumerates the severities of decoding diagnostics, ordered from least to most severe.
package severity

import (
	"encoding"
	"fmt"
)

type Severity int

const (
	Unknown Severity = iota
	Chat
	Note
	Warn
	Error
)

var supportedSeverities = []Severity{
	Chat,
	Note,
	Warn,
	Error,
}

func SupportedSeverities() []Severity {
	return supportedSeverities
}

func (s Severity) String() string {
	switch s {
	case Chat:
		return "chat"
	case Note:
		return "note"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s >= other
}

var _ fmt.Stringer = Severity(0)
var _ encoding.TextMarshaler = Severity(0)
var _ encoding.TextUnmarshaler = (*Severity)(nil)

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(in []byte) error {
	*s = Parse(string(in))
	return nil
}

func Parse(s string) Severity {
	switch s {
	case "chat":
		return Chat
	case "note":
		return Note
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Unknown
	}
}
