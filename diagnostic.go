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
	"github.com/zoomoid/go-erf/severity"
)

// Group classifies diagnostics by what went wrong.
type Group string

const (
	GroupInterface Group = "interface"
	GroupProtocol  Group = "protocol"
	GroupMalformed Group = "malformed"
)

// DiagnosticKind is a class of decoding problem. Kinds are compared by identity of their Name.
type DiagnosticKind struct {
	Name     string            `json:"name"`
	Group    Group             `json:"group"`
	Severity severity.Severity `json:"severity"`
	Message  string            `json:"message"`
}

var (
	DiagTruncationError = DiagnosticKind{"erf.truncation.error", GroupInterface, severity.Error, "ERF Truncation Error"}
	DiagRxError         = DiagnosticKind{"erf.rx.error", GroupInterface, severity.Error, "ERF RX Error"}
	DiagDsError         = DiagnosticKind{"erf.ds.error", GroupInterface, severity.Error, "ERF DS Error"}
	DiagPacketLoss      = DiagnosticKind{"erf.packet_loss", GroupInterface, severity.Warn, "Packet loss occurred between previous and current packet"}

	DiagMoreNotShown = DiagnosticKind{"erf.ehdr.more_not_shown", GroupInterface, severity.Warn, "More extension headers were present, not shown"}

	DiagSectionLength   = DiagnosticKind{"erf.meta.section_len.error", GroupProtocol, severity.Error, "Provenance Section Length incorrect"}
	DiagTruncatedRecord = DiagnosticKind{"erf.meta.truncated_record", GroupMalformed, severity.Error, "Provenance truncated record"}
	DiagTruncatedTag    = DiagnosticKind{"erf.meta.truncated_tag", GroupProtocol, severity.Error, "Provenance truncated tag"}
	DiagZeroLengthTag   = DiagnosticKind{"erf.meta.zero_len_tag", GroupProtocol, severity.Note, "Provenance zero length tag"}
	DiagMetadataReset   = DiagnosticKind{"erf.meta.metadata_reset", GroupProtocol, severity.Warn, "Provenance metadata reset"}
)

// DiagnosticKinds lists all kinds a Decoder may emit.
func DiagnosticKinds() []DiagnosticKind {
	return []DiagnosticKind{
		DiagTruncationError, DiagRxError, DiagDsError, DiagPacketLoss,
		DiagMoreNotShown,
		DiagSectionLength, DiagTruncatedRecord, DiagTruncatedTag, DiagZeroLengthTag, DiagMetadataReset,
	}
}

// Diagnostic is a problem found while decoding. Diagnostics never abort decoding.
//
// Depth is the depth of the field the diagnostic refers to, which is the most recent field
// emitted at that depth. A negative Depth refers to the record as a whole.
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind"`
	Offset int            `json:"offset"`
	Length int            `json:"length"`
	Detail string         `json:"detail,omitempty"`
	Depth  int            `json:"-"`
}

func (d Diagnostic) String() string {
	s := "[" + d.Kind.Severity.String() + "] " + d.Kind.Message
	if d.Detail != "" {
		s += ": " + d.Detail
	}
	return s
}
