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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationIndex_FindNearest(t *testing.T) {
	t.Parallel()

	const host, source = HostID(0xaabbccddeeff), SourceID(3)

	c := NewCorrelationIndex()
	for _, s := range []SeqNum{10, 20, 30} {
		c.RegisterSource(host, source, s)
	}

	cases := []struct {
		seq        SeqNum
		prev, next Option
	}{
		{20, some(10), some(30)},
		{25, some(20), some(30)},
		{5, Option{}, some(10)},
		{10, Option{}, some(20)},
		{30, some(20), Option{}},
		{35, some(30), Option{}},
	}
	for _, tc := range cases {
		prev, next := c.FindNearest(host, source, tc.seq)
		assert.Equal(t, tc.prev, prev, "prev of %d", tc.seq)
		assert.Equal(t, tc.next, next, "next of %d", tc.seq)
	}

	t.Run("unknown key", func(t *testing.T) {
		prev, next := c.FindNearest(host, source+1, 20)
		assert.False(t, prev.Valid)
		assert.False(t, next.Valid)
	})
}

func TestCorrelationIndex_RegisterSourceIdempotent(t *testing.T) {
	t.Parallel()

	c := NewCorrelationIndex()
	c.RegisterSource(1, 1, 10)
	c.RegisterSource(1, 1, 10)
	c.RegisterSource(1, 1, 5)

	prev, next := c.FindNearest(1, 1, 11)
	assert.Equal(t, some(10), prev)
	assert.False(t, next.Valid)

	sources, anchors := c.Len()
	assert.Equal(t, 1, sources)
	assert.Equal(t, 0, anchors)
}

func TestCorrelationIndex_LinkedFrames(t *testing.T) {
	t.Parallel()

	const host, anchor = HostID(7), AnchorID(0x112233445566)

	c := NewCorrelationIndex()
	require.True(t, c.RegisterAnchor(host, anchor, 1))
	require.True(t, c.RegisterAnchor(host, anchor, 2))
	assert.False(t, c.RegisterAnchor(host, anchor, 2))

	assert.Equal(t, []SeqNum{2}, c.LinkedFrames(host, anchor, 1))
	assert.Equal(t, []SeqNum{1}, c.LinkedFrames(host, anchor, 2))

	c.RegisterAnchor(host, anchor, 9)
	c.RegisterAnchor(host, anchor, 4)
	assert.Equal(t, []SeqNum{1, 2, 4}, c.LinkedFrames(host, anchor, 9))

	assert.Empty(t, c.LinkedFrames(host+1, anchor, 1))
}

func TestCorrelationIndex_ImplicitHostID(t *testing.T) {
	t.Parallel()

	c := NewCorrelationIndex()
	_, ok := c.ImplicitHostID()
	assert.False(t, ok)

	assert.True(t, c.SetImplicitHostID(42))
	assert.False(t, c.SetImplicitHostID(43))

	h, ok := c.ImplicitHostID()
	assert.True(t, ok)
	assert.Equal(t, HostID(42), h)
}
