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

// Section codes of provenance records. Codes 0 and 1 are not on the wire; they group tags before
// the first section header and tags within a section header of unrecognized code.
const (
	SectionNone    uint16 = 0
	SectionUnknown uint16 = 1

	SectionCapture   uint16 = 0xFF00
	SectionHost      uint16 = 0xFF01
	SectionModule    uint16 = 0xFF02
	SectionInterface uint16 = 0xFF03
	SectionFlow      uint16 = 0xFF04
	SectionStats     uint16 = 0xFF05
	SectionInfo      uint16 = 0xFF06
	SectionContext   uint16 = 0xFF07
	SectionStream    uint16 = 0xFF08
	SectionTransform uint16 = 0xFF09
	SectionDNS       uint16 = 0xFF0A
	SectionSource    uint16 = 0xFF0B
	SectionNetwork   uint16 = 0xFF0C
	SectionEndpoint  uint16 = 0xFF0D
	SectionInput     uint16 = 0xFF0E
	SectionOutput    uint16 = 0xFF0F
)

const sectionMask uint16 = 0xFF00

// localSectionBit marks section IDs that are only meaningful within the record they appear in.
const localSectionBit uint16 = 0x8000

// IsSection reports whether a tag code is in the range reserved for section headers.
func IsSection(code uint16) bool {
	return code > 0 && code&sectionMask == sectionMask
}

// SectionTemplate describes a section of provenance records. Sections are templates, their
// instances in a record additionally carry a section ID and a length.
type SectionTemplate struct {
	Code   uint16 `json:"code" yaml:"code"`
	Name   string `json:"name" yaml:"name"`
	Abbrev string `json:"abbrev" yaml:"abbrev"`
}

// Sections returns the compiled-in section templates. The first two entries are always the
// pseudo-sections for tags outside of any section and for unrecognized sections.
func Sections() []SectionTemplate {
	s := make([]SectionTemplate, len(sections))
	copy(s, sections)
	return s
}

var sections = []SectionTemplate{
	{SectionNone, "No Section", "none"},
	{SectionUnknown, "Unknown Section", "unknown"},

	{SectionCapture, "Capture Section", "capture"},
	{SectionHost, "Host Section", "host"},
	{SectionModule, "Module Section", "module"},
	{SectionInterface, "Interface Section", "interface"},
	{SectionFlow, "Flow Section", "flow"},
	{SectionStats, "Statistics Section", "stats"},
	{SectionInfo, "Information Section", "info"},
	{SectionContext, "Context Section", "context"},
	{SectionStream, "Stream Section", "stream"},
	{SectionTransform, "Transform Section", "transform"},
	{SectionDNS, "DNS Section", "dns"},
	{SectionSource, "Source Section", "source"},
	{SectionNetwork, "Network Section", "network"},
	{SectionEndpoint, "Endpoint Section", "endpoint"},
	{SectionInput, "Input Section", "input"},
	{SectionOutput, "Output Section", "output"},
}
