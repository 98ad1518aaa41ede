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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ReadRecord reads a single ERF record from r. The returned record has no sequence number; use
// a Reader to number records.
//
// At the end of the stream ReadRecord returns io.EOF. A stream ending within a record yields
// io.ErrUnexpectedEOF.
func ReadRecord(r io.Reader) (*Record, error) {
	hdr := make([]byte, HeaderLength)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}
	h, err := DecodeHeader(hdr)
	if err != nil {
		return nil, err
	}

	rec := &Record{Header: h}
	rem := int(h.RecordLength) - HeaderLength
	if rem < 0 {
		return nil, recordLength(h.RecordLength, HeaderLength)
	}

	more := h.HasExtensionHeaders()
	word := make([]byte, 8)
	for more {
		if rem < 8 {
			return nil, recordLength(h.RecordLength, rec.PayloadOffset()+8)
		}
		if _, err := io.ReadFull(r, word); err != nil {
			return nil, unexpected(err)
		}
		w := binary.BigEndian.Uint64(word)
		rec.ExtensionHeaders = append(rec.ExtensionHeaders, w)
		more = w&extMoreBit != 0
		rem -= 8
	}

	rec.Payload = make([]byte, rem)
	if _, err := io.ReadFull(r, rec.Payload); err != nil {
		return nil, unexpected(err)
	}
	return rec, nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// ReadFull consumes an entire stream of ERF records. Records are numbered from 1 and marked as
// first visits. An io.EOF between records is not an error.
//
//	file, _ := os.Open("capture.erf")
//	records, err := erf.ReadFull(file)
//	if err != nil {
//		log.Fatal(err)
//	}
//	dec := erf.NewDecoder(erf.DefaultRegistry())
//	for _, rec := range records {
//		tree := &erf.Tree{}
//		_ = dec.Decode(ctx, rec, tree)
//	}
func ReadFull(r io.Reader) ([]*Record, error) {
	rd := NewReader(r)
	records := make([]*Record, 0)
	for {
		rec, err := rd.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Reader reads consecutive records of a capture and numbers them.
type Reader struct {
	r   io.Reader
	seq SeqNum
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next returns the next record, or io.EOF at the end of the stream.
func (rd *Reader) Next() (*Record, error) {
	rec, err := ReadRecord(rd.r)
	if err != nil {
		if err != io.EOF {
			err = fmt.Errorf("record %d: %w", rd.seq+1, err)
		}
		return nil, err
	}
	rd.seq++
	rec.Seq = rd.seq
	rec.FirstVisit = true
	return rec, nil
}

// RecordStream reads records from a capture in the background and delivers them on a channel.
// It needs to be started using Start(context.Context), which blocks until the capture is read
// completely, reading fails, ctx is cancelled, or Close is called.
//
// Both channels are closed once Start returns. io.EOF is not delivered as an error.
type RecordStream struct {
	handle io.ReadCloser
	reader *Reader

	recordCh chan *Record
	errorCh  chan error
	done     chan struct{}

	stopper *sync.Once
	closer  *sync.Once
}

// NewRecordStream creates a new stream from a file-like reader. Start closes f when done.
func NewRecordStream(f io.ReadCloser) *RecordStream {
	return &RecordStream{
		handle:   f,
		reader:   NewReader(f),
		recordCh: make(chan *Record),
		errorCh:  make(chan error, 1),
		done:     make(chan struct{}),
		stopper:  &sync.Once{},
		closer:   &sync.Once{},
	}
}

func (r *RecordStream) Start(ctx context.Context) error {
	defer r.finish()

	for {
		if r.stopped() {
			return nil
		}
		rec, err := r.reader.Next()
		if err != nil {
			if err == io.EOF || r.stopped() {
				return nil
			}
			FromContext(ctx).Error(err, "failed to read record")
			r.errorCh <- err
			return err
		}

		select {
		case r.recordCh <- rec:
		case <-r.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops a running Start and closes the underlying reader. The channels are left to Start,
// which closes them on return, so Close never races a pending send.
func (r *RecordStream) Close() error {
	r.stopper.Do(func() { close(r.done) })
	return r.closeHandle()
}

func (r *RecordStream) stopped() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *RecordStream) closeHandle() error {
	var err error
	r.closer.Do(func() {
		err = r.handle.Close()
	})
	return err
}

func (r *RecordStream) finish() {
	r.closeHandle()
	close(r.errorCh)
	close(r.recordCh)
}

func (r *RecordStream) Records() <-chan *Record {
	return r.recordCh
}

func (r *RecordStream) Errors() <-chan error {
	return r.errorCh
}
