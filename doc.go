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

/*
Package for working with ERF (Extensible Record Format) captures. Supports reading ERF records from
(optionally compressed) capture files and decoding them into a tree of named fields, namely

- the 16-byte record header, including the capture interface and error flags,

- chains of extension headers (classification, channelised with G.707 addressing, flow, host and
anchor IDs, entropy, and more),

- provenance metadata records, a tag-length-value format grouped into sections that describe the
capture environment.

Decoded fields are written into a Sink. A Tree collects them into a nested structure that can be
printed or marshalled to JSON. Fields carry a filter abbreviation such as
"erf.meta.interface.if_speed"; the SchemaRegistry knows every abbreviation a decoder may emit and
can be searched by prefix.

# Sessions

A Decoder decodes the records of one capture. While doing so it maintains a correlation index
that links records to the provenance metadata of their host and source, and records sharing an
anchor to each other. These links appear as generated fields. Records should be decoded in capture
order first; a second pass over the same decoder then also yields links to later records.

	f, _ := os.Open("capture.erf.gz")
	r, _ := erf.DecompressStream(f)
	records, _ := erf.ReadFull(r)

	dec := erf.NewDecoder(erf.DefaultRegistry())
	for _, rec := range records {
		tree := &erf.Tree{}
		_ = dec.Decode(ctx, rec, tree)
		fmt.Println(tree)
	}

Decoding problems in a record, like truncated tags or wrong section lengths, never abort decoding.
They are reported as Diagnostics next to the field they concern.
*/
package erf
