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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tlv encodes a single provenance tag including its padding.
func tlv(tag uint16, value []byte) []byte {
	b := make([]byte, 4, 4+len(value)+3)
	binary.BigEndian.PutUint16(b, tag)
	binary.BigEndian.PutUint16(b[2:], uint16(len(value)))
	b = append(b, value...)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

func section(code, id, length uint16) []byte {
	v := make([]byte, 4)
	binary.BigEndian.PutUint16(v, id)
	binary.BigEndian.PutUint16(v[2:], length)
	return tlv(code, v)
}

func u32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

func u64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func concat(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

func parse(t *testing.T, payload []byte) *Tree {
	t.Helper()
	tree := &Tree{}
	ParseMetadata(DefaultRegistry(), payload, tree)
	return tree
}

func TestParseMetadata_InterfaceSpeed(t *testing.T) {
	t.Parallel()

	payload := concat(
		section(SectionInterface, 5, 20),
		tlv(TagIfSpeed, u64(50000000)),
	)
	tree := parse(t, payload)

	require.Len(t, tree.Roots, 1)
	group := tree.Roots[0]
	assert.Equal(t, "erf.meta.interface", group.Abbrev)
	assert.Equal(t, "Interface Section 5", group.Name)
	assert.Equal(t, 20, group.Length)

	speed := tree.Find("erf.meta.interface.if_speed")
	require.Len(t, speed, 1)
	assert.Equal(t, "50 Mb/s (50000000 bps)", speed[0].Display)
	assert.Equal(t, uint64(50000000), speed[0].Value)
	assert.Equal(t, 12, speed[0].Offset)
	assert.Equal(t, 8, speed[0].Length)

	sectionLen := tree.Find("erf.meta.interface.section_len")
	require.Len(t, sectionLen, 1)
	assert.Equal(t, "20 [correct]", sectionLen[0].Display)

	assert.Empty(t, tree.Diagnostics)
}

func TestParseMetadata_TagTypeAndLength(t *testing.T) {
	t.Parallel()

	tree := parse(t, concat(section(SectionInterface, 1, 20), tlv(TagIfSpeed, u64(1000))))

	types := tree.Find("erf.meta.tag.type")
	require.Len(t, types, 2)
	assert.Equal(t, "interface (65283)", types[0].Display)
	assert.Equal(t, "if_speed (66)", types[1].Display)

	lengths := tree.Find("erf.meta.tag.len")
	require.Len(t, lengths, 2)
	assert.Equal(t, uint64(4), lengths[0].Value)
	assert.Equal(t, uint64(8), lengths[1].Value)
}

func TestParseMetadata_NoSection(t *testing.T) {
	t.Parallel()

	tree := parse(t, tlv(TagComment, []byte("hello\x00")))

	require.Len(t, tree.Roots, 1)
	assert.Equal(t, "No Section", tree.Roots[0].Name)
	assert.Equal(t, "erf.meta.none", tree.Roots[0].Abbrev)

	comment := tree.Find("erf.meta.none.comment")
	require.Len(t, comment, 1)
	assert.Equal(t, `"hello"`, comment[0].Display)
	assert.Equal(t, "hello", comment[0].Value)
	assert.Empty(t, tree.Diagnostics)
}

func TestParseMetadata_SectionLength(t *testing.T) {
	t.Parallel()

	t.Run("incorrect", func(t *testing.T) {
		t.Parallel()

		tree := parse(t, concat(section(SectionHost, 0, 16), tlv(TagIfSpeed, u64(1))))
		l := tree.Find("erf.meta.host.section_len")
		require.Len(t, l, 1)
		assert.Equal(t, "16 [incorrect, should be 20]", l[0].Display)
		assert.True(t, tree.HasDiagnostic(DiagSectionLength))
		require.Len(t, l[0].Diagnostics, 1)
	})

	t.Run("zero is not checked", func(t *testing.T) {
		t.Parallel()

		tree := parse(t, concat(section(SectionHost, 0, 0), tlv(TagIfSpeed, u64(1))))
		l := tree.Find("erf.meta.host.section_len")
		require.Len(t, l, 1)
		assert.Equal(t, "0", l[0].Display)
		assert.Empty(t, tree.Diagnostics)
	})

	t.Run("checked per section", func(t *testing.T) {
		t.Parallel()

		tree := parse(t, concat(
			section(SectionHost, 1, 8),
			section(SectionModule, 2, 99),
			tlv(TagIfSpeed, u64(1)),
		))
		require.Len(t, tree.Roots, 2)
		assert.Equal(t, "Host Section 1", tree.Roots[0].Name)
		assert.Equal(t, "Module Section 2", tree.Roots[1].Name)
		assert.Equal(t, "8 [correct]", tree.Find("erf.meta.host.section_len")[0].Display)
		assert.Equal(t, "99 [incorrect, should be 20]", tree.Find("erf.meta.module.section_len")[0].Display)
	})

	t.Run("local section", func(t *testing.T) {
		t.Parallel()

		tree := parse(t, section(SectionInterface, 0x8003, 8))
		require.Len(t, tree.Roots, 1)
		assert.Equal(t, "Interface Section (Local) 3", tree.Roots[0].Name)
	})
}

func TestParseMetadata_Truncation(t *testing.T) {
	t.Parallel()

	t.Run("short value", func(t *testing.T) {
		t.Parallel()

		tree := parse(t, concat(section(SectionInterface, 1, 0), tlv(TagIfSpeed, u32(1))))
		speed := tree.Find("erf.meta.interface.if_speed")
		require.Len(t, speed, 1)
		assert.Equal(t, "[Invalid]", speed[0].Display)
		assert.True(t, tree.HasDiagnostic(DiagTruncatedTag))
		assert.False(t, tree.HasDiagnostic(DiagTruncatedRecord))
	})

	t.Run("length beyond record", func(t *testing.T) {
		t.Parallel()

		b := tlv(TagIfSpeed, u64(1))
		binary.BigEndian.PutUint16(b[2:], 64)
		tree := parse(t, concat(section(SectionInterface, 1, 0), b))
		assert.True(t, tree.HasDiagnostic(DiagTruncatedTag))
		assert.True(t, tree.HasDiagnostic(DiagTruncatedRecord))
	})

	t.Run("trailing bytes", func(t *testing.T) {
		t.Parallel()

		tree := parse(t, concat(section(SectionInterface, 1, 0), []byte{0, 1}))
		assert.True(t, tree.HasDiagnostic(DiagTruncatedRecord))
		assert.False(t, tree.HasDiagnostic(DiagTruncatedTag))
	})

	t.Run("zero length", func(t *testing.T) {
		t.Parallel()

		tree := parse(t, concat(section(SectionInterface, 1, 0), tlv(TagComment, nil)))
		assert.True(t, tree.HasDiagnostic(DiagZeroLengthTag))
		assert.False(t, tree.HasDiagnostic(DiagTruncatedTag))
	})

	t.Run("padding has no length", func(t *testing.T) {
		t.Parallel()

		tree := parse(t, concat(section(SectionInterface, 1, 0), tlv(TagPadding, nil)))
		assert.Empty(t, tree.Diagnostics)
	})
}

func TestParseMetadata_Idempotent(t *testing.T) {
	t.Parallel()

	payload := concat(
		section(SectionCapture, 1, 0),
		tlv(TagComment, []byte("capture")),
		section(SectionInterface, 2, 0),
		tlv(TagIfSpeed, u64(10000000000)),
		tlv(TagIfLinkStatus, u32(1)),
	)
	a, b := parse(t, payload), parse(t, payload)
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, a.Diagnostics, b.Diagnostics)
}

func TestParseMetadata_Bitfields(t *testing.T) {
	t.Parallel()

	tree := parse(t, concat(
		section(SectionInterface, 1, 0),
		tlv(TagIfLinkStatus, u32(1)),
		tlv(TagTunnelingMode, u32(0x24)),
	))

	link := tree.Find("erf.meta.interface.if_link_status.link")
	require.Len(t, link, 1)
	assert.Equal(t, "Up", link[0].Display)
	assert.Equal(t, true, link[0].Value)

	vxlan := tree.Find("erf.meta.interface.tunneling_mode.vxlan")
	require.Len(t, vxlan, 1)
	assert.Equal(t, true, vxlan[0].Value)
	gre := tree.Find("erf.meta.interface.tunneling_mode.gre")
	require.Len(t, gre, 1)
	assert.Equal(t, false, gre[0].Value)
}

func TestParseMetadata_ExtHdrs(t *testing.T) {
	t.Parallel()

	// Host ID (17) and Anchor ID (18)
	bitmap := concat(u32(1<<17|1<<18), u32(0), u32(0), u32(0))
	tree := parse(t, concat(section(SectionStream, 1, 0), tlv(TagExtHdrsAdded, bitmap)))

	added := tree.Find("erf.meta.stream.ext_hdrs_added")
	require.Len(t, added, 1)
	assert.Equal(t, "Host ID, Anchor ID", added[0].Display)
	var words []*Node
	for _, c := range added[0].Children {
		if !strings.HasPrefix(c.Abbrev, "erf.meta.tag.") {
			words = append(words, c)
		}
	}
	require.Len(t, words, 4)
	assert.Equal(t, "erf.meta.stream.ext_hdrs_added.0_31", words[0].Abbrev)
	assert.Equal(t, "0x00060000, Host ID, Anchor ID", words[0].Display)
	assert.Len(t, words[0].Children, len(ExtensionHeaderTypes()))

	host := tree.Find("erf.meta.stream.ext_hdrs_added.hostid")
	require.Len(t, host, 1)
	assert.Equal(t, true, host[0].Value)

	t.Run("all", func(t *testing.T) {
		t.Parallel()

		all := concat(u32(0xffffffff), u32(0xffffffff), u32(0xffffffff), u32(0xffffffff))
		tree := parse(t, concat(section(SectionStream, 1, 0), tlv(TagExtHdrsRemoved, all)))
		assert.Equal(t, "<All>", tree.Find("erf.meta.stream.ext_hdrs_removed")[0].Display)
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()

		tree := parse(t, concat(section(SectionStream, 1, 0), tlv(TagExtHdrsRemoved, u32(0))))
		assert.Equal(t, "<None>", tree.Find("erf.meta.stream.ext_hdrs_removed")[0].Display)
		assert.Empty(t, tree.Diagnostics)
	})
}

func TestParseMetadata_NameService(t *testing.T) {
	t.Parallel()

	value := concat([]byte{192, 0, 2, 1}, []byte("router.example\x00"))
	tree := parse(t, concat(section(SectionDNS, 1, 0), tlv(TagNSHostIPv4, value)))

	ns := tree.Find("erf.meta.dns.ns_host_ipv4")
	require.Len(t, ns, 1)
	assert.Equal(t, "router.example, Address: 192.0.2.1", ns[0].Display)

	name := tree.Find("erf.meta.dns.ns_host_ipv4.name")
	require.Len(t, name, 1)
	assert.Equal(t, "router.example", name[0].Value)
}

func TestParseMetadata_ParentSection(t *testing.T) {
	t.Parallel()

	value := concat(
		binary.BigEndian.AppendUint16(nil, SectionInterface),
		binary.BigEndian.AppendUint16(nil, 7),
	)
	tree := parse(t, concat(section(SectionStream, 1, 0), tlv(TagParentSection, value)))

	st := tree.Find("erf.meta.stream.parent_section.section_type")
	require.Len(t, st, 1)
	assert.Equal(t, "interface (65283)", st[0].Display)

	id := tree.Find("erf.meta.stream.parent_section.section_id")
	require.Len(t, id, 1)
	assert.Equal(t, uint64(7), id[0].Value)
}

func TestParseMetadata_Reset(t *testing.T) {
	t.Parallel()

	tree := parse(t, concat(section(SectionCapture, 1, 0), tlv(TagReset, u32(0))))
	assert.True(t, tree.HasDiagnostic(DiagMetadataReset))
}

func TestParseMetadata_UnknownSection(t *testing.T) {
	t.Parallel()

	tree := parse(t, concat(section(0xFF7E, 1, 0), tlv(TagIfSpeed, u64(1))))
	require.Len(t, tree.Roots, 1)
	assert.Equal(t, "erf.meta.unknown", tree.Roots[0].Abbrev)
	assert.Equal(t, "Unknown Section (0xff7e) 1", tree.Roots[0].Name)
	assert.Len(t, tree.Find("erf.meta.unknown.section_id"), 1)
}

func TestParseMetadata_Formatting(t *testing.T) {
	t.Parallel()

	le64 := func(v uint64) []byte { return binary.LittleEndian.AppendUint64(nil, v) }
	neg := func(v int64) uint64 { return uint64(v) }

	tests := []struct {
		name    string
		tag     uint16
		value   []byte
		abbrev  string
		display string
	}{
		{"rx power", TagIfRxPower, u32(uint32(neg(-350))), "if_rx_power", "-3.50dBm"},
		{"tx power", TagIfTxPower, u32(1234), "if_tx_power", "12.34dBm"},
		{"tx speed", TagIfTxSpeed, u64(10000000000), "if_tx_speed", "10 Gb/s (10000000000 bps)"},
		{"temperature", TagTemperature, u32(45500), "temperature", "45.5"},
		{"power", TagPower, u32(12000), "power", "12"},
		{"latitude", TagLocLat, u32(52520008), "loc_lat", "52.520008"},
		{"longitude", TagLocLong, u32(uint32(neg(-1234567))), "loc_long", "-1.234567"},
		{"cidr mask", TagMaskCIDR, u32(24), "mask_cidr", "/24"},
		{"memory", TagMem, u64(16 << 30), "mem", "16 GiB (17179869184 bytes)"},
		{"ptp offset", TagPTPOffsetFromMaster, u64(1500 << 16), "ptp_offset_from_master", "1500 nanoseconds"},
		{"negative ptp delay", TagPTPMeanPathDelay, u64(neg(-2 << 16)), "ptp_mean_path_delay", "-2 nanoseconds"},
		{"utc offset", TagPTPCurrentUTCOffset, u32(37), "ptp_current_utc_offset", "37.000000000 seconds"},
		{"entropy not calculated", TagEntropyThreshold, u32(0), "entropy_threshold", "0.00 (not calculated)"},
		{"entropy", TagInitiatorMaxEntropy, u32(255), "initiator_max_entropy", "8.00 bits"},
		{"absolute time", 2, le64(1<<32 | 1<<31), "gen_time", "1970-01-01 00:00:01.500000000 UTC"},
		{"relative time", 23, le64(3<<32 | 1<<31), "ts_offset", "3.500000000 seconds"},
		{"negative relative time", 23, le64(neg(-1 << 31)), "ts_offset", "-0.500000000 seconds"},
		{"small negative relative time", 23, le64(neg(-1 << 12)), "ts_offset", "-954 nanoseconds"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree := parse(t, concat(section(SectionHost, 1, 0), tlv(tt.tag, tt.value)))
			f := tree.Find("erf.meta.host." + tt.abbrev)
			require.Len(t, f, 1)
			assert.Equal(t, tt.display, f[0].Display)
			assert.Empty(t, tree.Diagnostics)
		})
	}
}

func TestParseMetadata_ContinuesAfterTruncatedTag(t *testing.T) {
	t.Parallel()

	tree := parse(t, concat(
		section(SectionInterface, 1, 0),
		tlv(TagIfSpeed, u32(1)),
		tlv(TagComment, []byte("after")),
	))
	assert.True(t, tree.HasDiagnostic(DiagTruncatedTag))

	comment := tree.Find("erf.meta.interface.comment")
	require.Len(t, comment, 1)
	assert.Equal(t, "after", comment[0].Value)
	assert.Equal(t, `"after"`, comment[0].Display)
}

func TestParseMetadata_CustomRegistry(t *testing.T) {
	t.Parallel()

	t.Run("retyped tag", func(t *testing.T) {
		t.Parallel()

		reg := NewRegistryWith(TagTemplate{Code: TagIfSpeed, Name: "Line Rate", Abbrev: "if_speed", Type: TypeString})
		tree := &Tree{}
		require.NotPanics(t, func() {
			ParseMetadata(reg, concat(section(SectionInterface, 1, 0), tlv(TagIfSpeed, []byte("ok"))), tree)
		})

		speed := tree.Find("erf.meta.interface.if_speed")
		require.Len(t, speed, 1)
		assert.Equal(t, `"ok"`, speed[0].Display)
	})

	t.Run("missing tags", func(t *testing.T) {
		t.Parallel()

		reg := NewSchemaRegistry(nil, Sections())
		payload := concat(
			section(SectionDNS, 1, 0),
			tlv(TagNSHostIPv4, concat([]byte{192, 0, 2, 1}, []byte("host\x00"))),
			tlv(TagParentSection, u32(0)),
			tlv(TagExtHdrsAdded, u32(1<<17)),
			tlv(TagIfSpeed, u32(1)),
			tlv(TagReset, u32(0)),
		)
		tree := &Tree{}
		require.NotPanics(t, func() { ParseMetadata(reg, payload, tree) })

		assert.Len(t, tree.Find("erf.meta.unknown"), 5)
		assert.False(t, tree.HasDiagnostic(DiagMetadataReset))
	})
}
