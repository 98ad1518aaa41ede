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
	"bytes"
	"embed"
)

var (
	metaTags []TagTemplate

	//go:embed hack/erf-meta-tags.csv
	tagTable embed.FS
)

func init() {
	b, _ := tagTable.ReadFile("hack/erf-meta-tags.csv")
	metaTags = MustReadCSV(bytes.NewBuffer(b))
}

// Tags returns a copy of the compiled-in tag templates, ordered by code.
func Tags() []TagTemplate {
	t := make([]TagTemplate, len(metaTags))
	copy(t, metaTags)
	return t
}
