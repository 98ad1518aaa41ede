package erf

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBitRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bps  uint64
		want string
	}{
		{0, "0 b/s"},
		{1500, "1.5 kb/s"},
		{50000000, "50 Mb/s"},
		{10000000000, "10 Gb/s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBitRate(tt.bps))
	}
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512 bytes", FormatBytes(512))
	assert.Equal(t, "16 GiB", FormatBytes(16<<30))
}

func TestERFTime(t *testing.T) {
	t.Parallel()

	ts := ERFTime(uint64(1700000000)<<32 | 0x80000000)
	assert.Equal(t, time.Unix(1700000000, 500000000).UTC(), ts)
	assert.Equal(t, "2023-11-14 22:13:20.500000000 UTC", formatAbsoluteTime(ts))

	// rounding up to the next second
	assert.Equal(t, time.Unix(2, 0).UTC(), ERFTime(uint64(1)<<32|0xffffffff))
}

func TestERFDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1500*time.Millisecond, ERFDuration(int64(1)<<32|0x80000000))
	assert.Equal(t, -1500*time.Millisecond, ERFDuration(-(int64(1)<<32 | 0x80000000)))
}

func TestPTPTimeInterval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2*time.Nanosecond, PTPTimeInterval(2<<16))
	assert.Equal(t, 3*time.Nanosecond, PTPTimeInterval(2<<16|0x8000))
	assert.Equal(t, -2*time.Nanosecond, PTPTimeInterval(-(2 << 16)))
}

func TestFormatRelativeTime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "250 nanoseconds", formatRelativeTime(250))
	assert.Equal(t, "-250 nanoseconds", formatRelativeTime(-250))
	assert.Equal(t, "1.500000000 seconds", formatRelativeTime(1500*time.Millisecond))
	assert.Equal(t, "-0.002000000 seconds", formatRelativeTime(-2*time.Millisecond))
}

func TestDecodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		t       ValueType
		d       Display
		in      []byte
		value   any
		display string
	}{
		{"uint32 dec", TypeUint32, DisplayDec, []byte{0, 0, 1, 0}, uint64(256), "256"},
		{"uint16 hex", TypeUint16, DisplayHex, []byte{0x12, 0x34}, uint64(0x1234), "0x1234"},
		{"int32", TypeInt32, DisplayDec, []byte{0xff, 0xff, 0xff, 0xfe}, int64(-2), "-2"},
		{"string", TypeString, DisplayDefault, []byte("eth0\x00\x00"), "eth0", `"eth0"`},
		{"ipv4", TypeIPv4, DisplayDefault, []byte{10, 0, 0, 1}, netip.MustParseAddr("10.0.0.1"), "10.0.0.1"},
		{"eui64", TypeEUI64, DisplayDefault, []byte{0, 0x11, 0x22, 0xff, 0xfe, 0x33, 0x44, 0x55}, uint64(0x001122fffe334455), "00:11:22:ff:fe:33:44:55"},
		{"bytes", TypeBytes, DisplayDefault, []byte{0xde, 0xad}, []byte{0xde, 0xad}, "dead"},
		{"empty bytes", TypeBytes, DisplayDefault, nil, []byte(nil), "<MISSING>"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, s := decodeValue(tt.t, tt.d, tt.in)
			assert.Equal(t, tt.value, v)
			assert.Equal(t, tt.display, s)
		})
	}
}
