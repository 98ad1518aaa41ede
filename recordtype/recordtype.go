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

// Package recordtype enumerates the ERF record types carried in the low 7 bits of the type byte
// of every ERF record header.
package recordtype

import (
	"encoding"
	"errors"
	"fmt"
	"strings"
)

type RecordType uint8

const (
	Legacy          RecordType = 0
	HDLCPOS         RecordType = 1
	Eth             RecordType = 2
	ATM             RecordType = 3
	AAL5            RecordType = 4
	MCHDLC          RecordType = 5
	MCRaw           RecordType = 6
	MCATM           RecordType = 7
	MCRawChannel    RecordType = 8
	MCAAL5          RecordType = 9
	ColorHDLCPOS    RecordType = 10
	ColorEth        RecordType = 11
	MCAAL2          RecordType = 12
	IPCounter       RecordType = 13
	TCPFlowCounter  RecordType = 14
	DSMColorHDLCPOS RecordType = 15
	DSMColorEth     RecordType = 16
	ColorMCHDLCPOS  RecordType = 17
	AAL2            RecordType = 18
	ColorHashPOS    RecordType = 19
	ColorHashEth    RecordType = 20
	Infiniband      RecordType = 21
	IPv4            RecordType = 22
	IPv6            RecordType = 23
	RawLink         RecordType = 24
	InfinibandLink  RecordType = 25
	Meta            RecordType = 27
	OPASNC          RecordType = 28
	OPA9B           RecordType = 29
	Pad             RecordType = 48
)

// Mask selects the record type from the ERF header type byte. The remaining top bit signals
// the presence of extension headers.
const Mask uint8 = 0x7f

var ErrUnknownRecordType = errors.New("unknown record type")

var names = map[RecordType]string{
	Legacy:          "LEGACY",
	HDLCPOS:         "HDLC_POS",
	Eth:             "ETH",
	ATM:             "ATM",
	AAL5:            "AAL5",
	MCHDLC:          "MC_HDLC",
	MCRaw:           "MC_RAW",
	MCATM:           "MC_ATM",
	MCRawChannel:    "MC_RAW_CHANNEL",
	MCAAL5:          "MC_AAL5",
	ColorHDLCPOS:    "COLOR_HDLC_POS",
	ColorEth:        "COLOR_ETH",
	MCAAL2:          "MC_AAL2",
	IPCounter:       "IP_COUNTER",
	TCPFlowCounter:  "TCP_FLOW_COUNTER",
	DSMColorHDLCPOS: "DSM_COLOR_HDLC_POS",
	DSMColorEth:     "DSM_COLOR_ETH",
	ColorMCHDLCPOS:  "COLOR_MC_HDLC_POS",
	AAL2:            "AAL2",
	ColorHashPOS:    "COLOR_HASH_POS",
	ColorHashEth:    "COLOR_HASH_ETH",
	Infiniband:      "INFINIBAND",
	IPv4:            "IPV4",
	IPv6:            "IPV6",
	RawLink:         "RAW_LINK",
	InfinibandLink:  "INFINIBAND_LINK",
	Meta:            "META",
	OPASNC:          "OMNI-PATH_SNC",
	OPA9B:           "OMNI-PATH",
	Pad:             "PAD",
}

// FromByte extracts the record type from an ERF header type byte.
func FromByte(b uint8) RecordType {
	return RecordType(b & Mask)
}

// Known reports whether t is one of the enumerated record types.
func (t RecordType) Known() bool {
	_, ok := names[t]
	return ok
}

func (t RecordType) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return "Unknown Type"
}

// HasColor reports whether the loss counter field of the ERF header is reused as a color
// field for records of type t.
func (t RecordType) HasColor() bool {
	switch t {
	case ColorHDLCPOS, ColorEth, ColorHashPOS, ColorHashEth, DSMColorHDLCPOS, DSMColorEth, ColorMCHDLCPOS:
		return true
	}
	return false
}

// HasEthernetPad reports whether the payload of t starts with the two bytes of Ethernet offset
// and padding that precede the actual frame.
func (t RecordType) HasEthernetPad() bool {
	switch t {
	case Eth, ColorEth, DSMColorEth, ColorHashEth:
		return true
	}
	return false
}

// HasMultichannelHeader reports whether the payload of t starts with a 4-byte multichannel header.
func (t RecordType) HasMultichannelHeader() bool {
	switch t {
	case MCHDLC, MCRaw, MCATM, MCRawChannel, MCAAL5, MCAAL2, ColorMCHDLCPOS, AAL2:
		return true
	}
	return false
}

var _ fmt.Stringer = RecordType(0)
var _ encoding.TextMarshaler = RecordType(0)
var _ encoding.TextUnmarshaler = (*RecordType)(nil)

func (t RecordType) MarshalText() ([]byte, error) {
	if !t.Known() {
		return nil, fmt.Errorf("%w %d", ErrUnknownRecordType, uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *RecordType) UnmarshalText(in []byte) error {
	p, err := Parse(string(in))
	if err != nil {
		return err
	}
	*t = p
	return nil
}

// Parse looks up a record type by its name, case-insensitively.
func Parse(s string) (RecordType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, name := range names {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownRecordType, s)
}
