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
	"sort"

	"github.com/RoaringBitmap/roaring/roaring64"
)

// SeqNum is the 1-based position of a record within a capture session.
type SeqNum uint64

// HostID identifies the device that produced a record. Only the lower 48 bits are used.
type HostID uint64

// SourceID identifies a capture source within a host.
type SourceID uint8

// AnchorID links records to a common anchor defined by one of them. Only the lower 48 bits are
// used.
type AnchorID uint64

// Option is an optional sequence number.
type Option struct {
	Seq   SeqNum
	Valid bool
}

func some(s SeqNum) Option {
	return Option{Seq: s, Valid: true}
}

type sourceKey struct {
	host   HostID
	source SourceID
}

type anchorKey struct {
	host   HostID
	anchor AnchorID
}

// CorrelationIndex relates the records of a capture session to each other. It keeps, per host and
// source, the ordered sequence numbers of metadata records, and per host and anchor the set of
// records referencing that anchor.
//
// Registrations happen in ascending sequence order on the first pass over a capture. A
// CorrelationIndex is owned by a single session and must not be used concurrently.
type CorrelationIndex struct {
	sources map[sourceKey][]SeqNum
	anchors map[anchorKey]*roaring64.Bitmap

	implicitHost HostID
	implicitSet  bool
}

func NewCorrelationIndex() *CorrelationIndex {
	return &CorrelationIndex{
		sources: make(map[sourceKey][]SeqNum),
		anchors: make(map[anchorKey]*roaring64.Bitmap),
	}
}

// RegisterSource records that the metadata record seq describes the given host and source.
// Registering a sequence number that is not greater than the last one for the key is a no-op.
func (c *CorrelationIndex) RegisterSource(host HostID, source SourceID, seq SeqNum) {
	k := sourceKey{host, source}
	b := c.sources[k]
	if n := len(b); n > 0 && b[n-1] >= seq {
		return
	}
	c.sources[k] = append(b, seq)
}

// FindNearest returns the closest metadata records before and after seq for a host and source.
// A record never finds itself: if seq is registered, prev is the one before it.
func (c *CorrelationIndex) FindNearest(host HostID, source SourceID, seq SeqNum) (prev, next Option) {
	b := c.sources[sourceKey{host, source}]
	if len(b) == 0 {
		return
	}

	// index of the first element greater than seq
	i := sort.Search(len(b), func(i int) bool { return b[i] > seq })
	if i < len(b) {
		next = some(b[i])
	}
	if i == 0 {
		return prev, next
	}

	found := i - 1
	if b[found] == seq {
		found--
	}
	if found >= 0 {
		prev = some(b[found])
	}
	return prev, next
}

// RegisterAnchor adds seq to the records referencing anchor on host. It reports whether seq was
// not yet registered.
func (c *CorrelationIndex) RegisterAnchor(host HostID, anchor AnchorID, seq SeqNum) bool {
	k := anchorKey{host, anchor}
	bm, ok := c.anchors[k]
	if !ok {
		bm = roaring64.New()
		c.anchors[k] = bm
	}
	return bm.CheckedAdd(uint64(seq))
}

// LinkedFrames returns all records referencing anchor on host except seq, in ascending order.
func (c *CorrelationIndex) LinkedFrames(host HostID, anchor AnchorID, seq SeqNum) []SeqNum {
	bm, ok := c.anchors[anchorKey{host, anchor}]
	if !ok {
		return nil
	}

	linked := make([]SeqNum, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		if s := SeqNum(it.Next()); s != seq {
			linked = append(linked, s)
		}
	}
	return linked
}

// ImplicitHostID returns the host ID assumed for records without a Host ID extension header.
func (c *CorrelationIndex) ImplicitHostID() (HostID, bool) {
	return c.implicitHost, c.implicitSet
}

// SetImplicitHostID sets the implicit host ID unless it has been set before. It reports whether
// h was stored.
//
// The implicit host is taken from the first metadata record carrying a Host ID. In captures mixing
// several hosts, records preceding that metadata record of their own host are attributed to it.
func (c *CorrelationIndex) SetImplicitHostID(h HostID) bool {
	if c.implicitSet {
		return false
	}
	c.implicitHost, c.implicitSet = h, true
	return true
}

// Len returns the number of source and anchor keys in the index.
func (c *CorrelationIndex) Len() (sources, anchors int) {
	return len(c.sources), len(c.anchors)
}
