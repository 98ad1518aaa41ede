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
	"strconv"
	"strings"
)

// maxAUGIndex is the number of AUG/AU levels addressable in an SDH multiplex, from AU-3 up to
// AUG-16.
const maxAUGIndex = 4

var vcSizeNames = []string{"unknown", "VC3", "VC4", "VC4-4c", "VC4-16c", "VC4-64c"}

// G707 is the position of a virtual container within an SDH line as carried by the Channelised
// extension header. Index holds one 1-based tributary index per level, lowest level first. Levels
// above the line rate are -1, levels below the container's own size are 0.
type G707 struct {
	Malformed bool
	VCSize    uint8
	LineRate  uint8
	Index     [maxAUGIndex]int8
}

// DecodeG707 unpacks the 2-bit per level vc_id of a Channelised extension header. A vcSize
// outside of 1..5 or a lineRate above 5 yields a malformed container with all numeric state
// cleared.
func DecodeG707(vcID, vcSize, lineRate uint8) G707 {
	if vcSize == 0 || int(vcSize) >= len(vcSizeNames) || lineRate > 5 {
		return G707{Malformed: true}
	}

	g := G707{
		VCSize:   vcSize,
		LineRate: lineRate,
	}
	for i := range g.Index {
		g.Index[i] = -1
	}
	for i := int(lineRate) - 2; i >= 0; i-- {
		if i >= int(vcSize)-1 {
			g.Index[i] = int8((vcID>>(2*i))&0x3) + 1
		} else {
			g.Index[i] = 0
		}
	}
	return g
}

// String formats the container like "VC4(2, 1)", highest level first. Without a line rate only
// the levels from the first used one downwards are printed.
func (g G707) String() string {
	if g.Malformed {
		return "Malformed"
	}

	var sb strings.Builder
	sb.WriteString(vcSizeNames[g.VCSize])
	sb.WriteByte('(')

	printed := false
	put := func(v int8) {
		if printed {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(int(v)))
		printed = true
	}

	if g.LineRate == 0 {
		for i := maxAUGIndex - 1; i >= 0; i-- {
			if g.Index[i] > 0 || printed {
				put(g.Index[i])
			}
		}
	} else {
		for i := int(g.LineRate) - 2; i >= 0; i-- {
			put(g.Index[i])
		}
	}
	if !printed {
		for i := int(g.VCSize) - 2; i >= 0; i-- {
			put(0)
		}
	}

	sb.WriteByte(')')
	return sb.String()
}

// Entropy converts the 8-bit entropy encoding used by extension headers and flow tags into bits
// per byte. Zero means the entropy was not calculated.
func Entropy(v uint8) float32 {
	if v == 0 {
		return 0
	}
	return (float32(v) + 1) / 32
}

func formatEntropy(v uint8) string {
	if v == 0 {
		return "0.00 (not calculated)"
	}
	return strconv.FormatFloat(float64(Entropy(v)), 'f', 2, 32) + " bits"
}
