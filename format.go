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
	"math"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/docker/go-units"
)

var (
	bitRateUnits = []string{" b/s", " kb/s", " Mb/s", " Gb/s", " Tb/s", " Pb/s", " Eb/s"}
	iecUnits     = []string{" bytes", " KiB", " MiB", " GiB", " TiB", " PiB", " EiB"}
)

// FormatBitRate renders a rate in bits per second with SI prefixes, e.g. "50 Mb/s".
func FormatBitRate(bps uint64) string {
	return units.CustomSize("%.4g%s", float64(bps), 1000.0, bitRateUnits)
}

// FormatBytes renders a size with IEC prefixes, e.g. "16 GiB".
func FormatBytes(n uint64) string {
	return units.CustomSize("%.4g%s", float64(n), 1024.0, iecUnits)
}

// beUint reads a big-endian unsigned integer of up to 8 bytes.
func beUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// beInt reads a big-endian two's complement integer of up to 8 bytes.
func beInt(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	v := beUint(b)
	shift := 64 - 8*uint(len(b))
	return int64(v<<shift) >> shift
}

func formatUint(v uint64, d Display, width int) string {
	if d == DisplayHex {
		return fmt.Sprintf("0x%0*x", width*2, v)
	}
	return strconv.FormatUint(v, 10)
}

func trimString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

func formatEUI64(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return strings.Join(parts, ":")
}

func formatBytesHex(b []byte) string {
	if len(b) == 0 {
		return "<MISSING>"
	}
	return fmt.Sprintf("%x", b)
}

// decodeValue decodes b generically according to its value type. It returns the typed value and
// its textual representation.
func decodeValue(t ValueType, d Display, b []byte) (any, string) {
	switch t {
	case TypeNone:
		return nil, ""

	case TypeUint16, TypeUint32, TypeUint64:
		if len(b) > 8 {
			b = b[:8]
		}
		v := beUint(b)
		return v, formatUint(v, d, len(b))

	case TypeInt32:
		if len(b) > 8 {
			b = b[:8]
		}
		v := beInt(b)
		return v, strconv.FormatInt(v, 10)

	case TypeBoolean:
		if len(b) > 8 {
			b = b[:8]
		}
		v := beUint(b) != 0
		return v, yesNo(v)

	case TypeFloat:
		if len(b) < 4 {
			return nil, formatBytesHex(b)
		}
		v := float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
		return v, strconv.FormatFloat(v, 'g', -1, 32)

	case TypeString:
		s := trimString(b)
		return s, strconv.Quote(s)

	case TypeIPv4, TypeIPv6:
		if a, ok := netip.AddrFromSlice(b); ok {
			return a, a.String()
		}

	case TypeEther:
		if len(b) == 6 {
			mac := net.HardwareAddr(append([]byte(nil), b...))
			return mac, mac.String()
		}

	case TypeEUI64:
		if len(b) == 8 {
			return beUint(b), formatEUI64(b)
		}

	case TypeAbsoluteTime:
		if len(b) >= 8 {
			ts := ERFTime(binary.LittleEndian.Uint64(b))
			return ts, formatAbsoluteTime(ts)
		}

	case TypeRelativeTime:
		if len(b) >= 8 {
			dur := ERFDuration(int64(binary.LittleEndian.Uint64(b)))
			return dur, formatRelativeTime(dur)
		}
	}

	raw := append([]byte(nil), b...)
	return raw, formatBytesHex(raw)
}
