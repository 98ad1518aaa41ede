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

import "github.com/prometheus/client_golang/prometheus"

var (
	RecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "erf",
		Name:      "decoder_records_total",
		Help:      "Total number of decoded ERF records per record type",
	}, []string{"type"})
	ErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "erf",
		Name:      "decoder_errors_total",
		Help:      "Total number of records the decoder refused to decode",
	})
	DurationMicroseconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "erf",
		Name:      "decoder_duration_microseconds",
		Help:      "Duration of decoding a single record in microseconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
	ExtensionHeadersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "erf",
		Name:      "decoder_extension_headers_total",
		Help:      "Total number of decoded extension headers per extension header type",
	}, []string{"type"})
	MetadataTagsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "erf",
		Name:      "decoder_metadata_tags_total",
		Help:      "Total number of provenance tags decoded per section",
	}, []string{"section"})
	DiagnosticsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "erf",
		Name:      "decoder_diagnostics_total",
		Help:      "Total number of diagnostics raised per diagnostic name",
	}, []string{"name"})
)

// Collectors returns all collectors of the package for registering them on a prometheus.Registerer.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		RecordsTotal,
		ErrorsTotal,
		DurationMicroseconds,
		ExtensionHeadersTotal,
		MetadataTagsTotal,
		DiagnosticsTotal,
	}
}
