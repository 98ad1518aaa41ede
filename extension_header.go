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
	"fmt"
	"math/bits"
	"strconv"
)

// ExtensionHeaderType is the 7-bit type of an ERF extension header word.
type ExtensionHeaderType uint8

const (
	ExtClassification ExtensionHeaderType = 3
	ExtInterceptID    ExtensionHeaderType = 4
	ExtRawLink        ExtensionHeaderType = 5
	ExtBFS            ExtensionHeaderType = 6
	ExtChannelised    ExtensionHeaderType = 12
	ExtSignature      ExtensionHeaderType = 14
	ExtPacketID       ExtensionHeaderType = 15
	ExtFlowID         ExtensionHeaderType = 16
	ExtHostID         ExtensionHeaderType = 17
	ExtAnchorID       ExtensionHeaderType = 18
	ExtEntropy        ExtensionHeaderType = 19
)

// DefaultMaxExtensionHeaders is the number of extension headers decoded per record unless
// configured otherwise.
const DefaultMaxExtensionHeaders = 16

const (
	extMoreBit  = uint64(1) << 63
	extTypeMask = 0x7f
	id48Mask    = uint64(0xffffffffffff)
)

type extensionHeaderName struct {
	name, abbrev string
}

var extensionHeaderNames = map[ExtensionHeaderType]extensionHeaderName{
	ExtClassification: {"Classification", "class"},
	ExtInterceptID:    {"InterceptID", "int"},
	ExtRawLink:        {"Raw Link", "raw"},
	ExtBFS:            {"BFS Filter/Hash", "bfs"},
	ExtChannelised:    {"Channelised", "chan"},
	ExtSignature:      {"Signature", "signature"},
	ExtPacketID:       {"Packet ID", "packetid"},
	ExtFlowID:         {"Flow ID", "flowid"},
	ExtHostID:         {"Host ID", "hostid"},
	ExtAnchorID:       {"Anchor ID", "anchorid"},
	ExtEntropy:        {"Entropy", "entropy"},
}

// ExtensionHeaderTypes returns the known extension header types in ascending order.
func ExtensionHeaderTypes() []ExtensionHeaderType {
	return []ExtensionHeaderType{
		ExtClassification, ExtInterceptID, ExtRawLink, ExtBFS, ExtChannelised, ExtSignature,
		ExtPacketID, ExtFlowID, ExtHostID, ExtAnchorID, ExtEntropy,
	}
}

// Known reports whether t is one of the decoded extension header types.
func (t ExtensionHeaderType) Known() bool {
	_, ok := extensionHeaderNames[t]
	return ok
}

func (t ExtensionHeaderType) String() string {
	if n, ok := extensionHeaderNames[t]; ok {
		return n.name
	}
	return "Unknown"
}

// Abbrev is the short name used in field abbreviations, e.g. "hostid".
func (t ExtensionHeaderType) Abbrev() string {
	if n, ok := extensionHeaderNames[t]; ok {
		return n.abbrev
	}
	return "unk"
}

// ExtensionHeader is one word of an extension header chain.
type ExtensionHeader struct {
	Type ExtensionHeaderType
	More bool
	Raw  uint64
}

// ParseExtensionHeader splits a raw extension header word into its type and continuation bit.
func ParseExtensionHeader(w uint64) ExtensionHeader {
	return ExtensionHeader{
		Type: ExtensionHeaderType((w >> 56) & extTypeMask),
		More: w&extMoreBit != 0,
		Raw:  w,
	}
}

// DecodeExtensionHeaders walks an extension header chain. Decoding stops after the first word
// without the continuation bit or after max words, whichever comes first. The returned more is
// true if the chain continues beyond what was decoded.
func DecodeExtensionHeaders(words []uint64, present bool, max int) (hdrs []ExtensionHeader, more bool) {
	more = present
	for i := 0; more && i < max && i < len(words); i++ {
		h := ParseExtensionHeader(words[i])
		hdrs = append(hdrs, h)
		more = h.More
	}
	return hdrs, more
}

// HostID returns the host and source ID of a Host ID extension header.
func (h ExtensionHeader) HostID() (HostID, SourceID) {
	return HostID(h.Raw & id48Mask), SourceID((h.Raw >> 48) & 0xff)
}

// AnchorID returns the anchor ID of an Anchor ID extension header and whether this record is the
// anchor's definition.
func (h ExtensionHeader) AnchorID() (AnchorID, bool) {
	return AnchorID(h.Raw & id48Mask), (h.Raw>>48)&0x80 != 0
}

// FlowSourceID returns the source ID carried by a Flow ID extension header.
func (h ExtensionHeader) FlowSourceID() SourceID {
	return SourceID((h.Raw >> 48) & 0xff)
}

// FindHostID returns the first Host ID of a chain, and whether any Anchor ID of the chain
// defines its anchor.
func FindHostID(hdrs []ExtensionHeader) (host HostID, found bool, anchorDefinition bool) {
	for _, h := range hdrs {
		switch h.Type {
		case ExtHostID:
			if !found {
				host, _ = h.HostID()
				found = true
			}
		case ExtAnchorID:
			if _, def := h.AnchorID(); def {
				anchorDefinition = true
			}
		}
	}
	return host, found, anchorDefinition
}

// ExtensionField is a decoded sub-field of an extension header.
type ExtensionField struct {
	Abbrev  string
	Name    string
	Value   uint64
	Display string

	// Sub holds the flags of bitfield sub-fields.
	Sub []ExtensionField
}

func extField(t ExtensionHeaderType, abbrev, name string, v uint64, display string) ExtensionField {
	if display == "" {
		display = strconv.FormatUint(v, 10)
	}
	return ExtensionField{
		Abbrev:  "erf.ehdr." + t.Abbrev() + "." + abbrev,
		Name:    name,
		Value:   v,
		Display: display,
	}
}

func hexString(v uint64, width int) string {
	return fmt.Sprintf("0x%0*x", width, v)
}

var flowHashTypes = []string{
	"Not set",
	"Non-IP (Src/Dst MACs, EtherType)",
	"2-tuple (Src/Dst IPs)",
	"3-tuple (Src/Dst IPs, IP Protocol)",
	"4-tuple (Src/Dst IPs, IP Protocol, Interface ID)",
	"5-tuple (Src/Dst IPs, IP Protocol, Src/Dst L4 Ports)",
	"6-tuple (Src/Dst IPs, IP Protocol, Src/Dst L4 Ports, Interface ID)",
}

func flowHashType(v uint8) string {
	name := "Unknown Type"
	if int(v&0x7f) < len(flowHashTypes) {
		name = flowHashTypes[v&0x7f]
	}
	inner := ""
	if v&0x80 != 0 {
		inner = "Inner "
	}
	return fmt.Sprintf("0x%02x (%s%s)", v, inner, name)
}

var lineRates = []string{
	"Undefined",
	"STM-0 / STS-1",
	"STM-1 / STS-3",
	"STM-4 / STS-12",
	"STM-16 / STS-48",
	"STM-64 / STS-192",
}

func lineRate(v uint64) string {
	if v < uint64(len(lineRates)) {
		return fmt.Sprintf("%s (%d)", lineRates[v], v)
	}
	return fmt.Sprintf("Unknown (%d)", v)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func bitField(t ExtensionHeaderType, abbrev, name string, w, mask uint64) ExtensionField {
	v := (w & mask) >> bits.TrailingZeros64(mask)
	if mask&(mask-1) == 0 {
		return extField(t, abbrev, name, v, yesNo(v != 0))
	}
	return extField(t, abbrev, name, v, "")
}

// Fields returns the named sub-fields of the header in display order. Unknown types yield their
// raw value.
func (h ExtensionHeader) Fields() []ExtensionField {
	w, t := h.Raw, h.Type
	switch t {
	case ExtClassification:
		flags := (w >> 32) & 0xffffff
		f := extField(t, "flags", "Flags", flags, hexString(flags, 6))
		f.Sub = []ExtensionField{
			bitField(t, "flags.sh", "Multiple Stream Flag", flags, 0x800000),
			bitField(t, "flags.shm", "Stream Hash Mask", flags, 0x400000),
			bitField(t, "flags.res1", "Reserved", flags, 0x300000),
			bitField(t, "flags.user", "User Classification", flags, 0x0ffff0),
			bitField(t, "flags.res2", "Reserved", flags, 0x8),
			bitField(t, "flags.drop", "Drop Steering Bit", flags, 0x4),
			bitField(t, "flags.str", "Stream Steering Bits", flags, 0x3),
		}
		return []ExtensionField{f, extField(t, "seqnum", "Sequence number", w&0xffffffff, "")}

	case ExtInterceptID:
		return []ExtensionField{
			extField(t, "res1", "Reserved", (w>>48)&0xff, ""),
			extField(t, "id", "Intercept ID", (w>>32)&0xffff, ""),
			extField(t, "res2", "Reserved", w&0xffffffff, ""),
		}

	case ExtRawLink:
		return []ExtensionField{
			extField(t, "res", "Reserved", (w>>32)&0xffffff, ""),
			extField(t, "seqnum", "Sequence number", (w>>16)&0xffff, ""),
			extField(t, "rate", "Rate", (w>>8)&0xff, lineRate((w>>8)&0xff)),
			extField(t, "type", "Type", w&0xff, ""),
		}

	case ExtBFS:
		return []ExtensionField{
			extField(t, "hash", "Hash", (w>>48)&0xff, ""),
			extField(t, "color", "Filter Color", (w>>32)&0xffff, ""),
			extField(t, "raw_hash", "Raw Hash", w&0xffffffff, hexString(w&0xffffffff, 8)),
		}

	case ExtChannelised:
		vcID, vcSize, rate := uint8(w>>24), uint8(w>>16), uint8(w>>8)
		g := DecodeG707(vcID, vcSize, rate)
		return []ExtensionField{
			extField(t, "morebits", "More Bits", w>>63, yesNo(w>>63 != 0)),
			extField(t, "morefrag", "More Fragments", (w>>55)&1, yesNo((w>>55)&1 != 0)),
			extField(t, "seqnum", "Sequence Number", (w>>40)&0x7fff, ""),
			extField(t, "res", "Reserved", (w>>32)&0xff, ""),
			extField(t, "vcid", "Virtual Container ID", uint64(vcID), fmt.Sprintf("0x%.2x (g.707: %s)", vcID, g)),
			extField(t, "vcsize", "Virtual Container Size", uint64(vcSize), ""),
			extField(t, "rate", "Line Rate", uint64(rate), lineRate(uint64(rate))),
			extField(t, "type", "Type", w&0xff, ""),
		}

	case ExtSignature:
		return []ExtensionField{
			extField(t, "payloadhash", "Payload Hash", (w>>32)&0xffffff, hexString((w>>32)&0xffffff, 6)),
			extField(t, "colour", "Filter Color", (w>>24)&0xff, ""),
			extField(t, "flowhash", "Flow Hash", w&0xffffff, hexString(w&0xffffff, 6)),
		}

	case ExtPacketID:
		return []ExtensionField{
			extField(t, "packetid", "Packet ID", w, ""),
		}

	case ExtFlowID:
		return []ExtensionField{
			extField(t, "sourceid", "Source ID", (w>>48)&0xff, ""),
			extField(t, "hashtype", "Hash Type", (w>>40)&0xff, flowHashType(uint8(w>>40))),
			extField(t, "stacktype", "Stack Type", (w>>32)&0xff, hexString((w>>32)&0xff, 2)),
			extField(t, "flowhash", "Flow Hash", w&0xffffffff, hexString(w&0xffffffff, 8)),
		}

	case ExtHostID:
		host, source := h.HostID()
		return []ExtensionField{
			extField(t, "sourceid", "Source ID", uint64(source), ""),
			extField(t, "hostid", "Host ID", uint64(host), hexString(uint64(host), 12)),
		}

	case ExtAnchorID:
		anchor, _ := h.AnchorID()
		flags := (w >> 48) & 0xff
		f := extField(t, "flags", "Flags", flags, hexString(flags, 2))
		f.Sub = []ExtensionField{
			bitField(t, "definition", "Anchor Definition", flags, 0x80),
			bitField(t, "reserved", "Reserved", flags, 0x7f),
		}
		return []ExtensionField{f, extField(t, "anchorid", "Anchor ID", uint64(anchor), hexString(uint64(anchor), 12))}

	case ExtEntropy:
		v := uint8(w >> 48)
		return []ExtensionField{
			extField(t, "entropy", "Entropy", uint64(v), formatEntropy(v)),
			extField(t, "rsvd", "Reserved", w&id48Mask, hexString(w&id48Mask, 12)),
		}

	default:
		return []ExtensionField{
			{Abbrev: "erf.ehdr.unk", Name: "Data", Value: w, Display: hexString(w, 16)},
		}
	}
}
