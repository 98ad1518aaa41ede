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
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"time"
)

// ParseMetadata decodes the payload of a provenance metadata record into sink. Tags are grouped
// below their section; the section header carries the section ID and the declared section length,
// which is checked against the actual length once the section ends.
//
// ParseMetadata keeps no state besides what it writes into sink, so decoding the same payload
// twice yields the same events.
func ParseMetadata(reg *SchemaRegistry, payload []byte, sink Sink) {
	p := newMetaParser(reg, payload, 0, sink)
	p.run()
}

type metaEvent struct {
	field *Field
	diag  *Diagnostic
}

type metaParser struct {
	reg     *SchemaRegistry
	payload []byte
	// base is the offset of payload within its record
	base int
	sink Sink

	// events of the currently open section, flushed when it is closed
	pending []metaEvent

	groupOpen     bool
	groupIdx      int
	sectionLenIdx int
	sectionOffset int
	sectionLen    uint16

	// tags counts decoded tags per section abbreviation
	tags map[string]int
}

func newMetaParser(reg *SchemaRegistry, payload []byte, base int, sink Sink) *metaParser {
	return &metaParser{
		reg:           reg,
		payload:       payload,
		base:          base,
		sink:          sink,
		groupIdx:      -1,
		sectionLenIdx: -1,
		tags:          make(map[string]int),
	}
}

func (p *metaParser) field(f Field) int {
	p.pending = append(p.pending, metaEvent{field: &f})
	return len(p.pending) - 1
}

func (p *metaParser) diagnostic(kind DiagnosticKind, offset, length, depth int) {
	p.pending = append(p.pending, metaEvent{diag: &Diagnostic{
		Kind:   kind,
		Offset: p.base + offset,
		Length: length,
		Depth:  depth,
	}})
}

func (p *metaParser) flush() {
	for _, e := range p.pending {
		if e.field != nil {
			p.sink.Field(*e.field)
		} else {
			p.sink.Diagnostic(*e.diag)
		}
	}
	p.pending = p.pending[:0]
}

// closeSection finishes the open section at offset: the group's length is set and the declared
// section length is checked.
func (p *metaParser) closeSection(offset int) {
	if p.groupIdx >= 0 {
		p.pending[p.groupIdx].field.Length = offset - p.sectionOffset
	}

	if p.sectionLenIdx >= 0 {
		actual := offset - p.sectionOffset
		f := p.pending[p.sectionLenIdx].field
		if actual == int(p.sectionLen) {
			f.Display += " [correct]"
		} else if p.sectionLen != 0 {
			f.Display += fmt.Sprintf(" [incorrect, should be %d]", actual)

			d := metaEvent{diag: &Diagnostic{
				Kind:   DiagSectionLength,
				Offset: f.Offset,
				Length: f.Length,
				Detail: fmt.Sprintf("declared %d, actual %d", p.sectionLen, actual),
				Depth:  f.Depth,
			}}
			i := p.sectionLenIdx + 1
			p.pending = append(p.pending[:i], append([]metaEvent{d}, p.pending[i:]...)...)
		}
	}

	p.flush()
	p.groupIdx = -1
	p.sectionLenIdx = -1
}

// expectedLength is the minimum length of a tag's value.
func expectedLength(t *TagTemplate) int {
	switch {
	case t.Code == TagPTPCurrentUTCOffset:
		return 4
	case isWWNTag(t.Code):
		return 16
	case isExtHdrsTag(t.Code):
		return 4
	case t.Type.IsTime():
		return 8
	default:
		return t.Type.WireSize()
	}
}

func (p *metaParser) run() {
	var (
		sectionType = SectionNone
		offset      int
		remaining   int
		n           = len(p.payload)
	)

	for {
		remaining = n - offset
		if remaining < 4 {
			break
		}

		tag := binary.BigEndian.Uint16(p.payload[offset:])
		length := int(binary.BigEndian.Uint16(p.payload[offset+2:]))
		isSection := IsSection(tag)

		if isSection {
			sectionType = tag
		}
		entry := p.reg.Lookup(sectionType, tag)
		expected := expectedLength(entry.Tag)

		var truncated *DiagnosticKind
		skip := false
		if remaining < length+4 || length < expected {
			skip = true
			truncated = &DiagTruncatedTag
		}
		if length == 0 && !isSection && tag != TagPadding {
			truncated = &DiagZeroLengthTag
			if expected != 0 {
				skip = true
			}
		}

		tagLen := min(length+4, remaining)
		var tagDepth int

		if isSection {
			p.closeSection(offset)
			p.sectionOffset = offset

			if entry == p.reg.unknownTag {
				sectionType = SectionUnknown
				entry = p.reg.UnknownSection()
			}

			label, ok := p.reg.SectionName(tag)
			if !ok {
				label = fmt.Sprintf("Unknown Section (0x%x)", tag)
			}

			p.groupIdx = p.field(Field{
				Abbrev: "erf.meta." + entry.Section.Abbrev,
				Name:   label,
				Offset: p.base + offset,
			})
			p.groupOpen = true

			tagDepth = 1
			p.field(Field{
				Name:   "Provenance " + label + " Header",
				Offset: p.base + offset,
				Length: tagLen,
				Depth:  tagDepth,
			})

			if length >= 4 && !skip {
				id := binary.BigEndian.Uint16(p.payload[offset+4:])
				p.sectionLen = binary.BigEndian.Uint16(p.payload[offset+6:])

				p.field(Field{
					Abbrev:  entry.Field.Abbrev,
					Name:    entry.Field.Name,
					Value:   uint64(id),
					Display: strconv.Itoa(int(id)),
					Offset:  p.base + offset + 4,
					Length:  2,
					Depth:   tagDepth + 1,
				})
				if id != 0 {
					g := p.pending[p.groupIdx].field
					if id&localSectionBit != 0 {
						g.Name += fmt.Sprintf(" (Local) %d", id&^localSectionBit)
					} else {
						g.Name += fmt.Sprintf(" %d", id)
					}
				}

				p.sectionLenIdx = p.field(Field{
					Abbrev:  entry.SubFields[0].Abbrev,
					Name:    entry.SubFields[0].Name,
					Value:   uint64(p.sectionLen),
					Display: strconv.Itoa(int(p.sectionLen)),
					Offset:  p.base + offset + 6,
					Length:  2,
					Depth:   tagDepth + 1,
				})

				if length > 4 {
					rsvd := append([]byte(nil), p.payload[offset+8:offset+4+length]...)
					p.field(Field{
						Abbrev:  entry.SubFields[1].Abbrev,
						Name:    entry.SubFields[1].Name,
						Value:   rsvd,
						Display: formatBytesHex(rsvd),
						Offset:  p.base + offset + 8,
						Length:  length - 4,
						Depth:   tagDepth + 1,
					})
				}
			} else if length != 0 {
				truncated = &DiagTruncatedTag
			}
		} else {
			if !skip && offset == 0 {
				p.groupIdx = p.field(Field{
					Abbrev: "erf.meta." + p.reg.SectionAbbrev(SectionNone),
					Name:   "No Section",
					Offset: p.base + offset,
				})
				p.groupOpen = true
			}
			if p.groupOpen {
				tagDepth = 1
			}

			if skip {
				p.field(Field{
					Abbrev:  entry.abbrev(),
					Name:    entry.Tag.Name,
					Display: "[Invalid]",
					Offset:  p.base + offset,
					Length:  tagLen,
					Depth:   tagDepth,
				})
			} else {
				if kind := p.decodeTag(entry, tag, offset, length, tagDepth, &truncated); kind != nil {
					p.diagnostic(*kind, offset+4, length, tagDepth)
				}
				p.tags[p.reg.SectionAbbrev(sectionType)]++
			}
		}

		p.field(Field{
			Abbrev:  "erf.meta.tag.type",
			Name:    "Tag Type",
			Value:   uint64(tag),
			Display: fmt.Sprintf("%s (%d)", p.reg.TagAbbrev(tag), tag),
			Offset:  p.base + offset,
			Length:  2,
			Depth:   tagDepth + 1,
		})
		p.field(Field{
			Abbrev:  "erf.meta.tag.len",
			Name:    "Tag Length",
			Value:   uint64(length),
			Display: strconv.Itoa(length),
			Offset:  p.base + offset + 2,
			Length:  2,
			Depth:   tagDepth + 1,
		})

		if truncated != nil {
			p.diagnostic(*truncated, offset, tagLen, tagDepth)
		}

		offset += (length + 4 + 3) &^ 3
	}

	p.closeSection(offset)

	if remaining != 0 {
		p.sink.Diagnostic(Diagnostic{
			Kind:   DiagTruncatedRecord,
			Offset: p.base + offset,
			Detail: fmt.Sprintf("%d bytes left over", remaining),
			Depth:  -1,
		})
	}
}

func (e *SchemaEntry) abbrev() string {
	if e.Field != nil {
		return e.Field.Abbrev
	}
	if len(e.SubFields) > 0 {
		a := e.SubFields[0].Abbrev
		return a[:strings.LastIndexByte(a, '.')]
	}
	return ""
}

// decodeTag emits the value of a tag that is known to be long enough. It returns a diagnostic
// raised by the value itself, if any. truncated may be replaced for values that are only partially
// decodable.
func (p *metaParser) decodeTag(entry *SchemaEntry, tag uint16, offset, length, depth int, truncated **DiagnosticKind) *DiagnosticKind {
	value := p.payload[offset+4 : offset+4+length]
	at := p.base + offset + 4

	f := Field{
		Abbrev: entry.abbrev(),
		Name:   entry.Tag.Name,
		Offset: at,
		Length: length,
		Depth:  depth,
	}
	sub := func(fi *FieldInfo, v any, display string, off, l int) {
		p.field(Field{
			Abbrev:  fi.Abbrev,
			Name:    fi.Name,
			Value:   v,
			Display: display,
			Offset:  at + off,
			Length:  l,
			Depth:   depth + 1,
		})
	}

	// fits reports whether the registry still describes the tag the way an override reads it. A
	// registry with replaced or missing templates falls back to decoding by the declared type.
	fits := func(t ValueType, n int) bool {
		return entry.Tag.Code == tag && (t == TypeNone || entry.Tag.Type == t) && len(value) >= n
	}

	switch {
	case (tag == TagIfSpeed || tag == TagIfTxSpeed) && fits(TypeUint64, 8):
		v := binary.BigEndian.Uint64(value)
		f.Value, f.Display = v, fmt.Sprintf("%s (%d bps)", FormatBitRate(v), v)

	case (tag == TagIfRxPower || tag == TagIfTxPower) && fits(TypeInt32, 4):
		v := int32(binary.BigEndian.Uint32(value))
		f.Value, f.Display = int64(v), fmt.Sprintf("%.2fdBm", float64(v)/100)

	case (tag == TagTemperature || tag == TagPower) && fits(TypeFloat, 4):
		v := float64(float32(int32(binary.BigEndian.Uint32(value))) / 1000)
		f.Value, f.Display = v, strconv.FormatFloat(v, 'g', -1, 32)

	case (tag == TagLocLat || tag == TagLocLong) && fits(TypeInt32, 4):
		v := float64(int32(binary.BigEndian.Uint32(value))) * 1e-6
		f.Value, f.Display = v, fmt.Sprintf("%.6f", v)

	case tag == TagMaskCIDR && fits(TypeUint32, 4):
		v := binary.BigEndian.Uint32(value)
		f.Value, f.Display = uint64(v), fmt.Sprintf("/%d", v)

	case tag == TagMem && fits(TypeUint64, 8):
		v := binary.BigEndian.Uint64(value)
		f.Value, f.Display = v, fmt.Sprintf("%s (%d bytes)", FormatBytes(v), v)

	case tag == TagParentSection && fits(TypeNone, 0) && len(entry.SubFields) >= 2:
		var secType, secID uint16
		if len(value) >= 2 {
			secType = binary.BigEndian.Uint16(value)
		}
		if len(value) >= 4 {
			secID = binary.BigEndian.Uint16(value[2:])
		}
		name, ok := p.reg.SectionName(secType)
		if !ok {
			name = fmt.Sprintf("Unknown Section (%d)", secType)
		}
		f.Display = fmt.Sprintf("%s %d", name, secID)
		p.field(f)

		abbrev := "Unknown"
		if s, ok := p.reg.Section(secType); ok && IsSection(secType) {
			abbrev = s.Abbrev
		}
		sub(entry.SubFields[0], uint64(secType), fmt.Sprintf("%s (%d)", abbrev, secType), 0, min(2, length))
		sub(entry.SubFields[1], uint64(secID), strconv.Itoa(int(secID)), 2, max(0, min(2, length-2)))
		return nil

	case tag == TagReset && fits(TypeNone, 0):
		f.Value, f.Display = append([]byte(nil), value...), formatBytesHex(value)
		p.field(f)
		return &DiagMetadataReset

	case bitfieldTemplates[tag] != nil && fits(TypeNone, 0):
		ws := entry.Tag.Type.WireSize()
		if ws == 0 || ws > len(value) {
			ws = len(value)
		}
		v := beUint(value[:min(ws, 8)])
		f.Value, f.Display = v, formatUint(v, entry.Tag.Display, ws)
		p.field(f)
		for _, fi := range entry.SubFields {
			bv := (v & fi.Bitmask) >> bits.TrailingZeros64(fi.Bitmask)
			if fi.Type == TypeBoolean {
				sub(fi, bv != 0, fi.flagString(bv != 0), 0, ws)
			} else {
				sub(fi, bv, strconv.FormatUint(bv, 10), 0, ws)
			}
		}
		return nil

	case isNameServiceTag(tag) && fits(TypeNone, 0) && len(entry.SubFields) >= 2:
		addrInfo, nameInfo := entry.SubFields[0], entry.SubFields[1]
		addrLen := min(addrInfo.Type.WireSize(), length)
		addrValue, addr := decodeValue(addrInfo.Type, addrInfo.Display, value[:addrLen])
		name := trimString(value[addrLen:])

		f.Display = fmt.Sprintf("%s, Address: %s", name, addr)
		p.field(f)
		sub(addrInfo, addrValue, addr, 0, addrLen)
		sub(nameInfo, name, strconv.Quote(name), addrLen, length-addrLen)
		return nil

	case (tag == TagPTPOffsetFromMaster || tag == TagPTPMeanPathDelay) && fits(TypeRelativeTime, 8):
		d := PTPTimeInterval(int64(binary.BigEndian.Uint64(value)))
		f.Value, f.Display = d, formatRelativeTime(d)

	case tag == TagPTPCurrentUTCOffset && fits(TypeRelativeTime, 4):
		d := time.Duration(int32(binary.BigEndian.Uint32(value))) * time.Second
		f.Value, f.Display = d, formatRelativeTime(d)

	case isEntropyTag(tag) && fits(TypeFloat, 4):
		v := uint8(binary.BigEndian.Uint32(value))
		f.Value, f.Display = float64(Entropy(v)), formatEntropy(v)

	case isExtHdrsTag(tag) && fits(TypeNone, 0) && len(entry.SubFields) >= len(extHdrWords):
		p.decodeExtHdrs(entry, f, value, truncated)
		return nil

	default:
		t := entry.Tag.Type
		if ws := t.WireSize(); ws > 0 && len(value) > ws {
			value = value[:ws]
		}
		f.Value, f.Display = decodeValue(t, entry.Tag.Display, value)
	}

	p.field(f)
	return nil
}

// decodeExtHdrs shows the bitmap of extension header types added or removed by a stream. Bit n of
// the bitmap, counted from the least significant bit of the first word, stands for type n.
func (p *metaParser) decodeExtHdrs(entry *SchemaEntry, f Field, value []byte, truncated **DiagnosticKind) {
	avail := min(len(value)/4, len(extHdrWords))

	var words [4]uint32
	allSet := true
	for i := 0; i < avail; i++ {
		words[i] = binary.BigEndian.Uint32(value[i*4:])
		if words[i] != 0xffffffff {
			allSet = false
		}
	}

	var (
		summary []string
		names   = make([][]string, avail)
	)
	for i := 0; i < avail; i++ {
		for b := 0; b < 32; b++ {
			if words[i]&(1<<b) == 0 {
				continue
			}
			n := i*32 + b
			name := strconv.Itoa(n)
			if t := ExtensionHeaderType(n); t.Known() {
				name = t.String()
			}
			names[i] = append(names[i], name)
			summary = append(summary, name)
		}
	}

	f.Value = append([]byte(nil), value...)
	switch {
	case allSet:
		f.Display = "<All>"
	case len(summary) == 0:
		f.Display = "<None>"
	default:
		f.Display = strings.Join(summary, ", ")
	}
	p.field(f)

	for i := 0; i < avail; i++ {
		wi := entry.SubFields[i]
		d := hexString(uint64(words[i]), 8)
		if len(names[i]) > 0 {
			d += ", " + strings.Join(names[i], ", ")
		}
		p.field(Field{
			Abbrev:  wi.Abbrev,
			Name:    wi.Name,
			Value:   uint64(words[i]),
			Display: d,
			Offset:  f.Offset + i*4,
			Length:  4,
			Depth:   f.Depth + 1,
		})
		if i != 0 {
			continue
		}
		for _, fi := range entry.SubFields[len(extHdrWords):] {
			set := uint64(words[0])&fi.Bitmask != 0
			p.field(Field{
				Abbrev:  fi.Abbrev,
				Name:    fi.Name,
				Value:   set,
				Display: fi.flagString(set),
				Offset:  f.Offset,
				Length:  4,
				Depth:   f.Depth + 2,
			})
		}
	}

	if avail < len(extHdrWords) && len(f.Value.([]byte))%4 != 0 {
		*truncated = &DiagTruncatedTag
	}
}
