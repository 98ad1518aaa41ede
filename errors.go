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
	"errors"
	"fmt"
)

var (
	// ErrShortRecord is returned by the record reader if fewer bytes than the fixed ERF header or the
	// chained extension headers are available. Wrapped errors carry the offset at which reading stopped.
	ErrShortRecord error = errors.New("short record")

	// ErrRecordLength indicates a record length (rlen) in the ERF header that cannot even hold the
	// header and the extension headers it announces.
	ErrRecordLength error = errors.New("invalid record length")

	// ErrUnknownValueType is used when reading tag templates from CSV or YAML that reference a value
	// type not known to this package.
	ErrUnknownValueType error = errors.New("unknown value type")

	// ErrUnknownDisplay is the counterpart of ErrUnknownValueType for display hints.
	ErrUnknownDisplay error = errors.New("unknown display hint")

	// ErrUnknownCompression is returned from DecompressStream for magic bytes that look like
	// a compressed stream of a format we cannot read.
	ErrUnknownCompression error = errors.New("unknown compression")

	// ErrNilSink is returned by Decoder.Decode when no sink was given to write fields into.
	ErrNilSink error = errors.New("sink is nil")

	// ErrNilRecord is returned by Decoder.Decode for nil records.
	ErrNilRecord error = errors.New("record is nil")

	// ErrInvalidSection is returned for section templates whose code is not a section header code.
	ErrInvalidSection error = errors.New("invalid section code")
)

func shortRecord(what string, want, got int) error {
	return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortRecord, what, want, got)
}

func recordLength(rlen uint16, min int) error {
	return fmt.Errorf("%w: rlen %d is smaller than %d", ErrRecordLength, rlen, min)
}

func unknownValueType(name string) error {
	return fmt.Errorf("%w %q", ErrUnknownValueType, name)
}

func unknownDisplay(name string) error {
	return fmt.Errorf("%w %q", ErrUnknownDisplay, name)
}

func invalidSection(code uint16) error {
	return fmt.Errorf("%w 0x%04x", ErrInvalidSection, code)
}
