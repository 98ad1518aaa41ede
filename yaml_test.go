package erf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, Sections(), Tags()))
	assert.True(t, strings.Contains(buf.String(), "abbrev: if_speed"))

	read, err := ReadYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, Tags(), read.Tags)
	assert.Equal(t, Sections(), read.Sections)

	_, err = ReadYAML(strings.NewReader("name: x\nbogus: 1\n"))
	assert.Error(t, err)
}

func TestNewRegistryWith_YAML(t *testing.T) {
	t.Parallel()

	doc := `name: custom
exportTimestamp: 2024-01-01T00:00:00Z
tags:
  - code: 28672
    name: Rack Position
    abbrev: rack_pos
    type: uint16
    display: dec
`
	export, err := ReadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, export.Tags, 1)

	reg := NewRegistryWith(export.Tags...)
	e := reg.Lookup(SectionHost, 0x7000)
	assert.Equal(t, "erf.meta.host.rack_pos", e.Field.Abbrev)
	assert.Equal(t, TypeUint16, e.Field.Type)
}

func TestNewRegistryWithSections_YAML(t *testing.T) {
	t.Parallel()

	doc := `name: custom
exportTimestamp: 2024-01-01T00:00:00Z
sections:
  - code: 65296
    name: Rack Section
    abbrev: rack
  - code: 65283
    name: Port Section
    abbrev: port
tags:
  - code: 28672
    name: Rack Position
    abbrev: rack_pos
    type: uint16
    display: dec
`
	export, err := ReadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, export.Sections, 2)

	reg, err := NewRegistryWithSections(export.Sections, export.Tags...)
	require.NoError(t, err)

	name, ok := reg.SectionName(0xFF10)
	assert.True(t, ok)
	assert.Equal(t, "Rack Section", name)
	assert.Equal(t, "erf.meta.rack.rack_pos", reg.Lookup(0xFF10, 0x7000).Field.Abbrev)

	// replaced in place, the pseudo-sections stay first
	assert.Equal(t, "port", reg.SectionAbbrev(SectionInterface))
	assert.Equal(t, SectionNone, reg.Sections()[0].Code)
	assert.Equal(t, SectionUnknown, reg.Sections()[1].Code)
	assert.Len(t, reg.Sections(), len(Sections())+1)

	// a dump of the default registry can be read back
	again, err := NewRegistryWithSections(Sections(), Tags()...)
	require.NoError(t, err)
	assert.Equal(t, len(Sections()), len(again.Sections()))

	_, err = NewRegistryWithSections([]SectionTemplate{{Code: 0x1234, Name: "Bogus", Abbrev: "bogus"}})
	assert.ErrorIs(t, err, ErrInvalidSection)
}
