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
	"encoding/binary"

	"github.com/zoomoid/go-erf/recordtype"
)

// HeaderLength is the length of the fixed ERF record header.
const HeaderLength = 16

const (
	flagInterfaceLow  = 0x03
	flagVarLength     = 0x04
	flagTruncated     = 0x08
	flagRxError       = 0x10
	flagDsError       = 0x20
	flagInterfaceHigh = 0x40
	flagReserved      = 0x80

	extensionPresent = 0x80
)

// Header is the fixed header preceding every ERF record.
type Header struct {
	// Timestamp is little-endian ERF fixed point, seconds since the epoch in the upper 32 bits.
	Timestamp uint64
	Type      uint8
	Flags     uint8
	// RecordLength is the length of the record including this header.
	RecordLength uint16
	// LossCounter counts records dropped before this one. Records of color types carry a color
	// instead.
	LossCounter uint16
	WireLength  uint16
}

// DecodeHeader reads a Header from the first HeaderLength bytes of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLength {
		return Header{}, shortRecord("header", HeaderLength, len(b))
	}
	return Header{
		Timestamp:    binary.LittleEndian.Uint64(b[0:8]),
		Type:         b[8],
		Flags:        b[9],
		RecordLength: binary.BigEndian.Uint16(b[10:12]),
		LossCounter:  binary.BigEndian.Uint16(b[12:14]),
		WireLength:   binary.BigEndian.Uint16(b[14:16]),
	}, nil
}

func (h Header) RecordType() recordtype.RecordType {
	return recordtype.FromByte(h.Type)
}

// HasExtensionHeaders reports whether at least one extension header follows the header.
func (h Header) HasExtensionHeaders() bool {
	return h.Type&extensionPresent != 0
}

// Interface is the capture interface, combining the two low flag bits with bit 6.
func (h Header) Interface() uint8 {
	return (h.Flags & flagInterfaceLow) | ((h.Flags & flagInterfaceHigh) >> 4)
}

func (h Header) VariableLength() bool { return h.Flags&flagVarLength != 0 }
func (h Header) Truncated() bool      { return h.Flags&flagTruncated != 0 }
func (h Header) RxError() bool        { return h.Flags&flagRxError != 0 }
func (h Header) DsError() bool        { return h.Flags&flagDsError != 0 }

// Record is a single ERF record of a capture.
type Record struct {
	// Seq is the 1-based position of the record in its capture.
	Seq SeqNum
	// FirstVisit is set on the first pass over a capture. Only first visits update the
	// correlation index of a decoder.
	FirstVisit bool

	Header           Header
	ExtensionHeaders []uint64
	Payload          []byte
}

// PayloadOffset is the offset of the payload within the record.
func (r *Record) PayloadOffset() int {
	return HeaderLength + 8*len(r.ExtensionHeaders)
}
