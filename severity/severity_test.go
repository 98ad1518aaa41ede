package severity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range SupportedSeverities() {
		t.Run(s.String(), func(t *testing.T) {
			b, err := s.MarshalText()
			assert.NoError(t, err)

			var p Severity
			assert.NoError(t, p.UnmarshalText(b))
			assert.Equal(t, s, p)
		})
	}
}

func TestOrdering(t *testing.T) {
	t.Parallel()

	assert.True(t, Error.AtLeast(Warn))
	assert.True(t, Warn.AtLeast(Warn))
	assert.False(t, Note.AtLeast(Warn))
	assert.Equal(t, Unknown, Parse("fatal"))
}
