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
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/zoomoid/go-erf/recordtype"
)

// Decoder decodes the records of a single capture session. It owns the session's correlation
// index, so records of different captures must be decoded by different decoders. The schema
// registry is shared and may be used by many decoders at once.
type Decoder struct {
	registry *SchemaRegistry

	// index relates metadata records to the records they describe. It is populated by first visits.
	index *CorrelationIndex

	completionHook completionHook

	options DecoderOptions

	metrics *DecodeStats
}

type DecoderOptions struct {
	// MaxExtensionHeaders bounds the number of extension headers decoded per record. Longer chains
	// raise a diagnostic.
	MaxExtensionHeaders int

	// SkipCorrelation disables the correlation index. No cross references between records are
	// emitted.
	SkipCorrelation bool

	// OmitGeneratedFields drops fields not backed by bytes of the record, i.e. the cross
	// references. The index is still updated.
	OmitGeneratedFields bool
}

var (
	DefaultDecoderOptions = DecoderOptions{
		MaxExtensionHeaders: DefaultMaxExtensionHeaders,
		SkipCorrelation:     false,
		OmitGeneratedFields: false,
	}
)

func (o *DecoderOptions) Merge(opts ...DecoderOptions) {
	for _, opt := range opts {
		if opt.MaxExtensionHeaders > 0 {
			o.MaxExtensionHeaders = opt.MaxExtensionHeaders
		}
		o.SkipCorrelation = o.SkipCorrelation || opt.SkipCorrelation
		o.OmitGeneratedFields = o.OmitGeneratedFields || opt.OmitGeneratedFields
	}
}

type completionHook func(*DecodeStats)

// DecodeStats summarizes a single call to Decode. It is handed to the completion hook.
type DecodeStats struct {
	Seq              SeqNum        `json:"seq"`
	RecordType       string        `json:"record_type"`
	RecordLength     int64         `json:"record_length,omitempty"`
	ExtensionHeaders int64         `json:"extension_headers,omitempty"`
	MetadataTags     int64         `json:"metadata_tags,omitempty"`
	Diagnostics      int64         `json:"diagnostics,omitempty"`
	Duration         time.Duration `json:"duration"`
}

// NewDecoder creates a new Decoder for a session over the given registry. A nil registry selects
// DefaultRegistry.
func NewDecoder(reg *SchemaRegistry, opts ...DecoderOptions) *Decoder {
	options := DefaultDecoderOptions
	options.Merge(opts...)

	if reg == nil {
		reg = DefaultRegistry()
	}

	d := &Decoder{
		registry: reg,
		index:    NewCorrelationIndex(),
		options:  options,
		metrics:  &DecodeStats{},
	}

	d.initMetrics()

	return d
}

func (d *Decoder) WithCompletionHook(hook func(*DecodeStats)) *Decoder {
	d.completionHook = hook
	return d
}

// Index exposes the session's correlation index.
func (d *Decoder) Index() *CorrelationIndex {
	return d.index
}

// Decode writes the fields and diagnostics of rec into sink. Problems in the record itself are
// reported as diagnostics; Decode only fails for a nil record or sink, or a cancelled context.
//
// Records should be decoded in capture order on the first pass (FirstVisit set), since only first
// visits populate the correlation index. Later passes may visit records in any order and see
// cross references to records after them.
func (d *Decoder) Decode(ctx context.Context, rec *Record, sink Sink) (err error) {
	decoderStart := time.Now()

	defer func() {
		DurationMicroseconds.Observe(float64(time.Since(decoderStart).Nanoseconds()) / 1000)
		if err != nil {
			ErrorsTotal.Inc()
		}
	}()

	if rec == nil {
		return ErrNilRecord
	}
	if sink == nil {
		return ErrNilSink
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	logger := FromContext(ctx, "seq", rec.Seq)

	defer func() {
		d.metrics.Duration = time.Since(decoderStart)
		if d.completionHook != nil {
			d.completionHook(d.metrics)
		}
		d.resetMetrics()
	}()

	rt := rec.Header.RecordType()
	RecordsTotal.WithLabelValues(rt.String()).Inc()
	d.metrics.Seq = rec.Seq
	d.metrics.RecordType = rt.String()
	d.metrics.RecordLength = int64(rec.Header.RecordLength)

	s := &statSink{Sink: sink, stats: d.metrics, logger: logger}

	headerLength := rec.PayloadOffset()
	s.Field(Field{
		Abbrev: "erf",
		Name:   "Extensible Record Format",
		Offset: 0,
		Length: headerLength,
	})
	d.decodePseudoHeader(rec, s)
	d.decodeExtensionHeaders(rec, s)

	if rt == recordtype.Meta {
		s.Field(Field{
			Abbrev: "erf.meta",
			Name:   "ERF Provenance",
			Offset: headerLength,
			Length: len(rec.Payload),
		})
		p := newMetaParser(d.registry, rec.Payload, headerLength, depthSink{Sink: s, shift: 1})
		p.run()
		for section, n := range p.tags {
			MetadataTagsTotal.WithLabelValues(section).Add(float64(n))
			d.metrics.MetadataTags += int64(n)
		}
	}

	logger.V(1).Info("decoded record",
		"type", rt.String(),
		"rlen", rec.Header.RecordLength,
		"extension_headers", d.metrics.ExtensionHeaders,
		"tags", d.metrics.MetadataTags,
		"diagnostics", d.metrics.Diagnostics,
	)
	return nil
}

func (d *Decoder) decodePseudoHeader(rec *Record, s Sink) {
	h := rec.Header
	rt := h.RecordType()

	s.Field(Field{
		Abbrev:  "erf.ts",
		Name:    "Timestamp",
		Value:   h.Timestamp,
		Display: fmt.Sprintf("0x%016x (%s)", h.Timestamp, formatAbsoluteTime(ERFTime(h.Timestamp))),
		Offset:  0,
		Length:  8,
		Depth:   1,
	})

	typeName := "Unknown Type"
	if rt.Known() {
		typeName = rt.String()
	}
	s.Field(Field{
		Abbrev:  "erf.types",
		Name:    "Record type",
		Value:   uint64(h.Type),
		Display: fmt.Sprintf("0x%02x (Type %d: %s)", h.Type, uint8(rt), typeName),
		Offset:  8,
		Length:  1,
		Depth:   1,
	})
	s.Field(Field{
		Abbrev:  "erf.types.type",
		Name:    "Type",
		Value:   uint64(rt),
		Display: fmt.Sprintf("%s (%d)", typeName, uint8(rt)),
		Offset:  8,
		Length:  1,
		Depth:   2,
	})
	s.Field(Field{
		Abbrev:  "erf.types.ext_header",
		Name:    "Extension header present",
		Value:   h.HasExtensionHeaders(),
		Display: yesNo(h.HasExtensionHeaders()),
		Offset:  8,
		Length:  1,
		Depth:   2,
	})

	var errs []string
	if h.Truncated() {
		errs = append(errs, "ERF Truncation Error")
	}
	if h.RxError() {
		errs = append(errs, "ERF Rx Error")
	}
	if h.DsError() {
		errs = append(errs, "ERF DS Error")
	}
	flags := fmt.Sprintf("0x%02x", h.Flags)
	if len(errs) > 0 {
		flags += " (" + strings.Join(errs, "; ") + ")"
	}
	s.Field(Field{
		Abbrev:  "erf.flags",
		Name:    "Flags",
		Value:   uint64(h.Flags),
		Display: flags,
		Offset:  9,
		Length:  1,
		Depth:   1,
	})

	flag := func(abbrev, name string, mask uint8, kind *DiagnosticKind) {
		set := h.Flags&mask != 0
		s.Field(Field{
			Abbrev:  abbrev,
			Name:    name,
			Value:   set,
			Display: yesNo(set),
			Offset:  9,
			Length:  1,
			Depth:   2,
		})
		if set && kind != nil {
			s.Diagnostic(Diagnostic{Kind: *kind, Offset: 9, Length: 1, Depth: 2})
		}
	}
	s.Field(Field{
		Abbrev:  "erf.flags.if_raw",
		Name:    "Raw interface",
		Value:   uint64(h.Flags & flagInterfaceLow),
		Display: fmt.Sprintf("0x%x", h.Flags&flagInterfaceLow),
		Offset:  9,
		Length:  1,
		Depth:   2,
	})
	flag("erf.flags.vlen", "Varying record length", flagVarLength, nil)
	flag("erf.flags.trunc", "Truncated", flagTruncated, &DiagTruncationError)
	flag("erf.flags.rxe", "RX error", flagRxError, &DiagRxError)
	flag("erf.flags.dse", "DS error", flagDsError, &DiagDsError)
	flag("erf.flags.res", "Reserved", flagReserved, nil)

	s.Field(Field{
		Abbrev:  "erf.flags.cap",
		Name:    "Capture interface",
		Value:   uint64(h.Interface()),
		Display: strconv.Itoa(int(h.Interface())),
		Offset:  9,
		Length:  1,
		Depth:   1,
	})
	s.Field(Field{
		Abbrev:  "erf.rlen",
		Name:    "Record length",
		Value:   uint64(h.RecordLength),
		Display: strconv.Itoa(int(h.RecordLength)),
		Offset:  10,
		Length:  2,
		Depth:   1,
	})

	if rt.HasColor() {
		s.Field(Field{
			Abbrev:  "erf.color",
			Name:    "Color",
			Value:   uint64(h.LossCounter),
			Display: fmt.Sprintf("0x%04x", h.LossCounter),
			Offset:  12,
			Length:  2,
			Depth:   1,
		})
	} else {
		s.Field(Field{
			Abbrev:  "erf.lctr",
			Name:    "Loss counter",
			Value:   uint64(h.LossCounter),
			Display: strconv.Itoa(int(h.LossCounter)),
			Offset:  12,
			Length:  2,
			Depth:   1,
		})
		if h.LossCounter > 0 {
			s.Diagnostic(Diagnostic{
				Kind:   DiagPacketLoss,
				Offset: 12,
				Length: 2,
				Detail: fmt.Sprintf("%d records lost", h.LossCounter),
				Depth:  1,
			})
		}
	}

	s.Field(Field{
		Abbrev:  "erf.wlen",
		Name:    "Wire length",
		Value:   uint64(h.WireLength),
		Display: strconv.Itoa(int(h.WireLength)),
		Offset:  14,
		Length:  2,
		Depth:   1,
	})
}

func (d *Decoder) decodeExtensionHeaders(rec *Record, s Sink) {
	limit := d.options.MaxExtensionHeaders
	if limit <= 0 {
		limit = DefaultMaxExtensionHeaders
	}
	hdrs, more := DecodeExtensionHeaders(rec.ExtensionHeaders, rec.Header.HasExtensionHeaders(), limit)

	isMeta := rec.Header.RecordType() == recordtype.Meta
	register := rec.FirstVisit && !d.options.SkipCorrelation

	host, foundHost, anchorDefinition := FindHostID(hdrs)
	if !foundHost {
		host, _ = d.index.ImplicitHostID()
	}
	var source SourceID

	for i, h := range hdrs {
		offset := HeaderLength + 8*i
		ExtensionHeadersTotal.WithLabelValues(h.Type.Abbrev()).Inc()
		d.metrics.ExtensionHeaders++

		s.Field(Field{
			Abbrev:  "erf.ehdr.types",
			Name:    "Extension Header",
			Value:   uint64(h.Type),
			Display: fmt.Sprintf("%s (%d)", h.Type, h.Type),
			Offset:  offset,
			Length:  8,
			Depth:   1,
		})
		for _, f := range h.Fields() {
			emitExtensionField(s, f, offset, 2)
		}

		switch h.Type {
		case ExtFlowID:
			if source == 0 {
				source = h.FlowSourceID()
			}
		case ExtHostID:
			host, source = h.HostID()
			if register && isMeta {
				if _, set := d.index.ImplicitHostID(); !set && source > 0 {
					d.index.SetImplicitHostID(host)
				}
				// anchor definitions are linked through their anchor, not their source
				if !anchorDefinition {
					d.index.RegisterSource(host, source, rec.Seq)
				}
			}
			d.emitSource(rec, s, host, source)
		case ExtAnchorID:
			anchor, _ := h.AnchorID()
			if register {
				d.index.RegisterAnchor(host, anchor, rec.Seq)
			}
			d.emitAnchor(rec, s, host, anchor)
		}
	}

	if more {
		s.Diagnostic(Diagnostic{
			Kind:   DiagMoreNotShown,
			Offset: HeaderLength + 8*len(hdrs),
			Detail: fmt.Sprintf("decoded %d of at least %d", len(hdrs), len(hdrs)+1),
			Depth:  0,
		})
	}

	// without an explicit Host ID, the record belongs to the implicit host and the first source
	if !foundHost && (host != 0 || source != 0) {
		if register && isMeta {
			d.index.RegisterSource(host, source, rec.Seq)
		}
		d.emitSource(rec, s, host, source)
	}
}

func emitExtensionField(s Sink, f ExtensionField, offset, depth int) {
	s.Field(Field{
		Abbrev:  f.Abbrev,
		Name:    f.Name,
		Value:   f.Value,
		Display: f.Display,
		Offset:  offset,
		Length:  8,
		Depth:   depth,
	})
	for _, sub := range f.Sub {
		emitExtensionField(s, sub, offset, depth+1)
	}
}

func generated(abbrev, name string, value any, display string, depth int) Field {
	return Field{
		Abbrev:    abbrev,
		Name:      name,
		Value:     value,
		Display:   display,
		Generated: true,
		Depth:     depth,
	}
}

func frameRef(o Option) string {
	return strconv.FormatUint(uint64(o.Seq), 10)
}

// emitSource adds the cross references of a record to the metadata records of its host and source.
func (d *Decoder) emitSource(rec *Record, s Sink, host HostID, source SourceID) {
	if d.options.SkipCorrelation || d.options.OmitGeneratedFields {
		return
	}

	prev, next := d.index.FindNearest(host, source, rec.Seq)
	current := prev
	if !current.Valid {
		current = next
	}

	label := fmt.Sprintf("Host ID: 0x%012x, Source ID: %d", uint64(host), source)
	if current.Valid {
		s.Field(generated("erf.source_meta_frame_current", label, uint64(current.Seq), "", 1))
	} else {
		s.Field(generated("", label, nil, "", 1))
	}
	s.Field(generated("erf.hostid", "Host ID", uint64(host), hexString(uint64(host), 12), 2))
	s.Field(generated("erf.sourceid", "Source ID", uint64(source), strconv.Itoa(int(source)), 2))
	if next.Valid {
		s.Field(generated("erf.source_meta_frame_next", "Next Metadata in Source", uint64(next.Seq), frameRef(next), 2))
	}
	if prev.Valid {
		s.Field(generated("erf.source_meta_frame_prev", "Previous Metadata in Source", uint64(prev.Seq), frameRef(prev), 2))
	}
}

// emitAnchor adds the cross references of a record to all other records sharing its anchor.
func (d *Decoder) emitAnchor(rec *Record, s Sink, host HostID, anchor AnchorID) {
	if d.options.SkipCorrelation || d.options.OmitGeneratedFields {
		return
	}

	s.Field(generated("", fmt.Sprintf("Host ID: 0x%012x, Anchor ID: 0x%012x", uint64(host), uint64(anchor)), nil, "", 1))
	s.Field(generated("erf.anchor.hostid", "Host ID", uint64(host), hexString(uint64(host), 12), 2))
	s.Field(generated("erf.anchor.anchorid", "Anchor ID", uint64(anchor), hexString(uint64(anchor), 12), 2))
	for _, seq := range d.index.LinkedFrames(host, anchor, rec.Seq) {
		s.Field(generated("erf.anchor.frame", "Linked Frame", uint64(seq), strconv.FormatUint(uint64(seq), 10), 2))
	}
}

func (d *Decoder) initMetrics() {
	// set this so that we don't get too many empty data points in prometheus
	ErrorsTotal.Add(0)
	DurationMicroseconds.Observe(0)
	for _, t := range ExtensionHeaderTypes() {
		ExtensionHeadersTotal.WithLabelValues(t.Abbrev()).Add(0)
	}
	for _, k := range DiagnosticKinds() {
		DiagnosticsTotal.WithLabelValues(k.Name).Add(0)
	}
}

func (d *Decoder) resetMetrics() {
	d.metrics = &DecodeStats{}
}

// statSink counts and logs the diagnostics passing through it.
type statSink struct {
	Sink
	stats  *DecodeStats
	logger logr.Logger
}

func (s *statSink) Diagnostic(diag Diagnostic) {
	s.stats.Diagnostics++
	DiagnosticsTotal.WithLabelValues(diag.Kind.Name).Inc()
	s.logger.V(2).Info("diagnostic", "name", diag.Kind.Name, "offset", diag.Offset, "detail", diag.Detail)
	s.Sink.Diagnostic(diag)
}
