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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}

	// recognized but not supported
	bzip2Magic = []byte("BZh")
	xzMagic    = []byte{0xfd, '7', 'z', 'X'}
)

// Compression is the container format of a capture file.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"

	compressionUnsupported Compression = "unsupported"
)

// DetectCompression inspects the first bytes of a stream.
func DetectCompression(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(head, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(head, lz4Magic):
		return CompressionLZ4
	case bytes.HasPrefix(head, bzip2Magic), bytes.HasPrefix(head, xzMagic):
		return compressionUnsupported
	default:
		return CompressionNone
	}
}

type nopCloser struct {
	io.Reader
}

func (nopCloser) Close() error { return nil }

// DecompressStream returns a reader of the decompressed content of r if r starts with the magic
// bytes of gzip, zstd or lz4, or of r itself otherwise. Closing the returned reader does not
// close r.
func DecompressStream(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, err
	}

	switch DetectCompression(head) {
	case compressionUnsupported:
		return nil, fmt.Errorf("%w: magic bytes % x", ErrUnknownCompression, head)
	case CompressionGzip:
		return gzip.NewReader(br)
	case CompressionZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return nopCloser{lz4.NewReader(br)}, nil
	default:
		return nopCloser{br}, nil
	}
}

type fileReader struct {
	io.ReadCloser
	f *os.File
}

func (r fileReader) Close() error {
	err := r.ReadCloser.Close()
	if ferr := r.f.Close(); err == nil {
		err = ferr
	}
	return err
}

// OpenFile opens a capture file for reading, decompressing it if necessary.
func OpenFile(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	rc, err := DecompressStream(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return fileReader{ReadCloser: rc, f: f}, nil
}
