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
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// TemplateExport is the document written by WriteYAML and read by ReadYAML. It carries both
// section and tag templates so that a schema can be dumped and later extended.
type TemplateExport struct {
	Name            string    `yaml:"name"`
	ExportTimestamp time.Time `yaml:"exportTimestamp"`

	Sections []SectionTemplate `yaml:"sections,omitempty"`
	Tags     []TagTemplate     `yaml:"tags"`
}

func MustReadYAML(r io.Reader) *TemplateExport {
	m, err := ReadYAML(r)
	if err != nil {
		panic(err)
	}
	return m
}

// ReadYAML decodes a template export. Unknown keys are rejected.
func ReadYAML(r io.Reader) (*TemplateExport, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	read := &TemplateExport{}
	err := dec.Decode(read)
	if err != nil {
		return nil, err
	}
	return read, nil
}

func MustWriteYAML(w io.Writer, sections []SectionTemplate, tags []TagTemplate) {
	err := WriteYAML(w, sections, tags)
	if err != nil {
		panic(err)
	}
}

func WriteYAML(w io.Writer, sections []SectionTemplate, tags []TagTemplate) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()

	return enc.Encode(TemplateExport{
		ExportTimestamp: time.Now(),
		Name:            "ERF Provenance Tags",
		Sections:        sections,
		Tags:            tags,
	})
}
