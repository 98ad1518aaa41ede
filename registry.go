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
	"sort"
	"sync"

	"github.com/armon/go-radix"
)

// valuesPerTag bounds the number of sub-fields of a single tag.
const valuesPerTag = 32

// SchemaKey identifies a tag within a section, (section << 16) | tag.
type SchemaKey uint32

func NewSchemaKey(section, tag uint16) SchemaKey {
	return SchemaKey(uint32(section)<<16 | uint32(tag))
}

func (k SchemaKey) Section() uint16 { return uint16(k >> 16) }
func (k SchemaKey) Tag() uint16     { return uint16(k) }

func (k SchemaKey) String() string {
	return fmt.Sprintf("0x%04x:0x%04x", k.Section(), k.Tag())
}

func (k SchemaKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// FieldInfo is a decoded field as exposed to sinks and filters, identified by its abbreviation.
type FieldInfo struct {
	Abbrev  string    `json:"abbrev" yaml:"abbrev"`
	Name    string    `json:"name" yaml:"name"`
	Type    ValueType `json:"type" yaml:"type"`
	Display Display   `json:"display,omitempty" yaml:"display,omitempty"`
	Bitmask uint64    `json:"bitmask,omitempty" yaml:"bitmask,omitempty"`

	True  string `json:"true,omitempty" yaml:"true,omitempty"`
	False string `json:"false,omitempty" yaml:"false,omitempty"`
}

// flagString labels a boolean flag.
func (f *FieldInfo) flagString(set bool) string {
	switch {
	case set && f.True != "":
		return f.True
	case set:
		return "True"
	case f.False != "":
		return f.False
	default:
		return "False"
	}
}

// SchemaEntry is the layout of one tag within one section. Field is the tag's value; it is nil
// for tags that are only shown through their SubFields, such as the parent section reference.
type SchemaEntry struct {
	Key     SchemaKey
	Section *SectionTemplate
	Tag     *TagTemplate

	Field     *FieldInfo
	SubFields []*FieldInfo
}

// SchemaRegistry holds a SchemaEntry for every combination of known section and tag, and for
// every section header. It is immutable once built and may be shared between goroutines.
type SchemaRegistry struct {
	entries map[SchemaKey]*SchemaEntry

	unknownTag     *SchemaEntry
	unknownSection *SchemaEntry

	sections map[uint16]*SectionTemplate
	tags     map[uint16]*TagTemplate

	// tagList is ordered by code
	tagList     []TagTemplate
	sectionList []SectionTemplate

	fields *radix.Tree
}

// NewSchemaRegistry builds the registry for the given templates. The sections must start with
// the pseudo-sections SectionNone and SectionUnknown, as returned by Sections.
func NewSchemaRegistry(tags []TagTemplate, sections []SectionTemplate) *SchemaRegistry {
	r := &SchemaRegistry{
		entries:     make(map[SchemaKey]*SchemaEntry, len(tags)*len(sections)+len(sections)),
		sections:    make(map[uint16]*SectionTemplate, len(sections)),
		tags:        make(map[uint16]*TagTemplate, len(tags)),
		tagList:     make([]TagTemplate, len(tags)),
		sectionList: make([]SectionTemplate, len(sections)),
		fields:      radix.New(),
	}
	copy(r.tagList, tags)
	copy(r.sectionList, sections)
	sort.SliceStable(r.tagList, func(i, j int) bool { return r.tagList[i].Code < r.tagList[j].Code })

	for i := range r.sectionList {
		s := &r.sectionList[i]
		r.sections[s.Code] = s
	}
	for i := range r.tagList {
		t := &r.tagList[i]
		r.tags[t.Code] = t
	}

	unknown := &TagTemplate{Name: "Unknown", Abbrev: "unknown", Type: TypeBytes}
	r.unknownTag = &SchemaEntry{
		Tag: unknown,
		Field: r.addField(&FieldInfo{
			Abbrev: "erf.meta.unknown",
			Name:   unknown.Name,
			Type:   TypeBytes,
		}),
	}

	for i := range r.sectionList {
		s := &r.sectionList[i]
		for j := range r.tagList {
			t := &r.tagList[j]
			e := r.tagEntry(s, t)
			r.entries[e.Key] = e
		}

		if s.Code == SectionNone {
			continue
		}
		e := r.sectionEntry(s)
		if s.Code == SectionUnknown {
			r.unknownSection = e
			continue
		}
		r.entries[e.Key] = e
	}

	if r.unknownSection == nil {
		r.unknownSection = r.sectionEntry(&SectionTemplate{Code: SectionUnknown, Name: "Unknown Section", Abbrev: "unknown"})
	}

	return r
}

func (r *SchemaRegistry) addField(f *FieldInfo) *FieldInfo {
	if old, ok := r.fields.Get(f.Abbrev); ok {
		return old.(*FieldInfo)
	}
	r.fields.Insert(f.Abbrev, f)
	return f
}

func (r *SchemaRegistry) subField(base string, t FieldTemplate) *FieldInfo {
	return r.addField(&FieldInfo{
		Abbrev:  base + "." + t.Abbrev,
		Name:    t.Name,
		Type:    t.Type,
		Display: t.Display,
		Bitmask: t.Bitmask,
		True:    t.True,
		False:   t.False,
	})
}

func (r *SchemaRegistry) tagEntry(s *SectionTemplate, t *TagTemplate) *SchemaEntry {
	base := "erf.meta." + s.Abbrev + "." + t.Abbrev
	e := &SchemaEntry{
		Key:     NewSchemaKey(s.Code, t.Code),
		Section: s,
		Tag:     t,
	}

	switch {
	case t.Code == TagParentSection:
		for _, sub := range parentSection {
			e.SubFields = append(e.SubFields, r.subField(base, sub))
		}
		return e

	case isNameServiceTag(t.Code):
		e.SubFields = []*FieldInfo{
			r.subField(base, FieldTemplate{Name: "Address", Abbrev: "addr", Type: t.Type, Display: t.Display}),
			r.subField(base, FieldTemplate{Name: "Name", Abbrev: "name", Type: TypeString}),
		}

	case isExtHdrsTag(t.Code):
		for _, sub := range extHdrWords {
			e.SubFields = append(e.SubFields, r.subField(base, sub))
		}
		for _, typ := range ExtensionHeaderTypes() {
			if len(e.SubFields) >= valuesPerTag {
				break
			}
			if typ >= 32 {
				continue
			}
			e.SubFields = append(e.SubFields, r.subField(base, FieldTemplate{
				Name:    typ.String(),
				Abbrev:  typ.Abbrev(),
				Type:    TypeBoolean,
				Bitmask: uint64(1) << typ,
			}))
		}

	default:
		for _, sub := range bitfieldTemplates[t.Code] {
			e.SubFields = append(e.SubFields, r.subField(base, sub))
		}
	}

	e.Field = r.addField(&FieldInfo{
		Abbrev:  base,
		Name:    t.Name,
		Type:    t.Type,
		Display: t.Display,
	})
	return e
}

func (r *SchemaRegistry) sectionEntry(s *SectionTemplate) *SchemaEntry {
	base := "erf.meta." + s.Abbrev
	e := &SchemaEntry{
		Key:     NewSchemaKey(s.Code, s.Code),
		Section: s,
		Tag:     &TagTemplate{Code: s.Code, Name: s.Name, Abbrev: s.Abbrev, Type: TypeNone},
		Field:   r.subField(base, sectionHeader[0]),
	}
	for _, sub := range sectionHeader[1:] {
		e.SubFields = append(e.SubFields, r.subField(base, sub))
	}
	return e
}

// Lookup returns the layout of tag within section. Tags without a registered entry, including
// the headers of unknown sections, resolve to a shared entry decoding the value as raw bytes.
func (r *SchemaRegistry) Lookup(section, tag uint16) *SchemaEntry {
	if e, ok := r.entries[NewSchemaKey(section, tag)]; ok {
		return e
	}
	return r.unknownTag
}

// UnknownSection returns the header layout used for sections of unrecognized code.
func (r *SchemaRegistry) UnknownSection() *SchemaEntry {
	return r.unknownSection
}

// Section returns the template of a section code.
func (r *SchemaRegistry) Section(code uint16) (*SectionTemplate, bool) {
	s, ok := r.sections[code]
	return s, ok
}

// Tag returns the template of a tag code.
func (r *SchemaRegistry) Tag(code uint16) (*TagTemplate, bool) {
	t, ok := r.tags[code]
	return t, ok
}

// SectionName returns the name of a section header code. Codes outside of the section range,
// including the pseudo-sections, are not names of sections.
func (r *SchemaRegistry) SectionName(code uint16) (string, bool) {
	if s, ok := r.sections[code]; ok && IsSection(code) {
		return s.Name, true
	}
	return "", false
}

// SectionAbbrev returns the abbreviation of a section code, or "unknown".
func (r *SchemaRegistry) SectionAbbrev(code uint16) string {
	if s, ok := r.sections[code]; ok {
		return s.Abbrev
	}
	return "unknown"
}

// TagAbbrev returns the abbreviation of a tag or section header code, or "Unknown".
func (r *SchemaRegistry) TagAbbrev(code uint16) string {
	if IsSection(code) {
		if s, ok := r.sections[code]; ok {
			return s.Abbrev
		}
	} else if t, ok := r.tags[code]; ok {
		return t.Abbrev
	}
	return "Unknown"
}

// Sections returns the section templates of the registry.
func (r *SchemaRegistry) Sections() []SectionTemplate {
	s := make([]SectionTemplate, len(r.sectionList))
	copy(s, r.sectionList)
	return s
}

// Tags returns the tag templates of the registry, ordered by code.
func (r *SchemaRegistry) Tags() []TagTemplate {
	t := make([]TagTemplate, len(r.tagList))
	copy(t, r.tagList)
	return t
}

// LookupField finds a field by its abbreviation, e.g. "erf.meta.interface.if_speed".
func (r *SchemaRegistry) LookupField(abbrev string) (*FieldInfo, bool) {
	v, ok := r.fields.Get(abbrev)
	if !ok {
		return nil, false
	}
	return v.(*FieldInfo), true
}

// WalkFields calls fn for every field whose abbreviation starts with prefix, in lexical order,
// until fn returns false.
func (r *SchemaRegistry) WalkFields(prefix string, fn func(*FieldInfo) bool) {
	r.fields.WalkPrefix(prefix, func(_ string, v interface{}) bool {
		return !fn(v.(*FieldInfo))
	})
}

// NumFields returns the number of distinct field abbreviations.
func (r *SchemaRegistry) NumFields() int {
	return r.fields.Len()
}

var (
	defaultRegistry     *SchemaRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry of the compiled-in tag and section tables. It is built on
// first use.
func DefaultRegistry() *SchemaRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewSchemaRegistry(metaTags, sections)
	})
	return defaultRegistry
}

// NewRegistryWith builds a registry of the compiled-in tables with additional tag templates.
// Templates with the code of a compiled-in tag replace it.
func NewRegistryWith(extra ...TagTemplate) *SchemaRegistry {
	return NewSchemaRegistry(mergeTags(extra), sections)
}

// NewRegistryWithSections is NewRegistryWith for section templates as well. Sections with the code
// of a compiled-in section replace it in place, others are added. New sections need a code in the
// section header range.
func NewRegistryWithSections(secs []SectionTemplate, extra ...TagTemplate) (*SchemaRegistry, error) {
	merged := make([]SectionTemplate, len(sections), len(sections)+len(secs))
	copy(merged, sections)

	index := make(map[uint16]int, len(merged))
	for i, s := range merged {
		index[s.Code] = i
	}
	for _, s := range secs {
		if i, ok := index[s.Code]; ok {
			merged[i] = s
			continue
		}
		if !IsSection(s.Code) {
			return nil, invalidSection(s.Code)
		}
		index[s.Code] = len(merged)
		merged = append(merged, s)
	}
	return NewSchemaRegistry(mergeTags(extra), merged), nil
}

func mergeTags(extra []TagTemplate) []TagTemplate {
	byCode := make(map[uint16]TagTemplate, len(metaTags)+len(extra))
	for _, t := range metaTags {
		byCode[t.Code] = t
	}
	for _, t := range extra {
		byCode[t.Code] = t
	}

	tags := make([]TagTemplate, 0, len(byCode))
	for _, t := range byCode {
		tags = append(tags, t)
	}
	return tags
}
