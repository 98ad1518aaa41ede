package erf

// FieldTemplate describes a sub-field of a tag value, e.g. a single flag of a bitfield tag.
// A zero Bitmask means the sub-field spans the whole value it is applied to. True and False
// label boolean flags and default to "True" and "False".
type FieldTemplate struct {
	Name    string
	Abbrev  string
	Type    ValueType
	Display Display
	Bitmask uint64

	True, False string
}

var tunnelingModes = []FieldTemplate{
	{Name: "IP-in-IP", Abbrev: "ip_in_ip", Type: TypeBoolean, Bitmask: 0x1},
	{Name: "VXLAN", Abbrev: "vxlan", Type: TypeBoolean, Bitmask: 0x4},
	{Name: "GRE", Abbrev: "gre", Type: TypeBoolean, Bitmask: 0x8},
	{Name: "GTP", Abbrev: "gtp", Type: TypeBoolean, Bitmask: 0x10},
	{Name: "MPLS over VLAN", Abbrev: "mpls_vlan", Type: TypeBoolean, Bitmask: 0x20},
}

var linkStatus = []FieldTemplate{
	{Name: "Link", Abbrev: "link", Type: TypeBoolean, Bitmask: 0x1, True: "Up", False: "Down"},
}

var ptpTimeProperties = []FieldTemplate{
	{Name: "Leap61", Abbrev: "leap61", Type: TypeBoolean, Bitmask: 0x1},
	{Name: "Leap59", Abbrev: "leap59", Type: TypeBoolean, Bitmask: 0x2},
	{Name: "Current UTC Offset Valid", Abbrev: "currentUtcOffsetValid", Type: TypeBoolean, Bitmask: 0x4},
	{Name: "PTP Timescale", Abbrev: "ptpTimescale", Type: TypeBoolean, Bitmask: 0x8},
	{Name: "Time Traceable", Abbrev: "timeTraceable", Type: TypeBoolean, Bitmask: 0x10},
	{Name: "Frequency Traceable", Abbrev: "frequencyTraceable", Type: TypeBoolean, Bitmask: 0x20},
}

var ptpClockQuality = []FieldTemplate{
	{Name: "Clock Class", Abbrev: "clockClass", Type: TypeUint32, Display: DisplayDec, Bitmask: 0xFF000000},
	{Name: "Clock Accuracy", Abbrev: "clockAccuracy", Type: TypeUint32, Display: DisplayDec, Bitmask: 0x00FF0000},
	{Name: "Offset Scaled Log Variance", Abbrev: "offsetScaledLogVariance", Type: TypeUint32, Display: DisplayDec, Bitmask: 0x0000FFFF},
}

var streamFlags = []FieldTemplate{
	{Name: "Relative Snapping", Abbrev: "relative_snap", Type: TypeBoolean, Bitmask: 0x1},
	{Name: "Entropy Snapping", Abbrev: "entropy_snap", Type: TypeBoolean, Bitmask: 0x2},
}

var smartTruncDefault = []FieldTemplate{
	{Name: "Truncation Candidate", Abbrev: "trunc_candidate", Type: TypeBoolean, Bitmask: 0x1, True: "Yes", False: "No"},
}

var parentSection = []FieldTemplate{
	{Name: "Section Type", Abbrev: "section_type", Type: TypeUint16, Display: DisplayDec},
	{Name: "Section ID", Abbrev: "section_id", Type: TypeUint16, Display: DisplayDec},
}

var extHdrWords = []FieldTemplate{
	{Name: "Extension Headers 0 to 31", Abbrev: "0_31", Type: TypeUint32, Display: DisplayHex},
	{Name: "Extension Headers 32 to 63", Abbrev: "32_63", Type: TypeUint32, Display: DisplayHex},
	{Name: "Extension Headers 64 to 95", Abbrev: "64_95", Type: TypeUint32, Display: DisplayHex},
	{Name: "Extension Headers 96 to 127", Abbrev: "96_127", Type: TypeUint32, Display: DisplayHex},
}

var sectionHeader = []FieldTemplate{
	{Name: "Section ID", Abbrev: "section_id", Type: TypeUint16, Display: DisplayDec},
	{Name: "Section Length", Abbrev: "section_len", Type: TypeUint16, Display: DisplayDec},
	{Name: "Reserved", Abbrev: "section_hdr_rsvd", Type: TypeBytes},
}

// bitfieldTemplates maps bitfield tags to the flags they are split into.
var bitfieldTemplates = map[uint16][]FieldTemplate{
	TagTunnelingMode:     tunnelingModes,
	TagIfLinkStatus:      linkStatus,
	TagPTPTimeProperties: ptpTimeProperties,
	TagPTPGMClockQuality: ptpClockQuality,
	TagStreamFlags:       streamFlags,
	TagSmartTruncDef:     smartTruncDefault,
}
