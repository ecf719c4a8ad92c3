package dom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrollState_Max(t *testing.T) {
	assert.Equal(t, 1200.0, ScrollState{InnerHeight: 800, ScrollHeight: 2000}.Max())
	assert.Equal(t, 0.0, ScrollState{InnerHeight: 800, ScrollHeight: 300}.Max())
}

func TestMarkerFor(t *testing.T) {
	for _, tag := range []string{"IMG", "canvas", "video", "svg"} {
		assert.Equal(t, MarkerOverlay, MarkerFor(tag), tag)
	}
	assert.Equal(t, MarkerOutline, MarkerFor("button"))
}

type stubWriter struct {
	err   error
	calls int
}

func (s *stubWriter) WriteValue(Element, string) error {
	s.calls++
	return s.err
}

func TestFallbackWriter(t *testing.T) {
	first := &stubWriter{err: errors.New("нет нативного сеттера")}
	second := &stubWriter{}
	third := &stubWriter{}

	err := FallbackWriter{first, second, third}.WriteValue(nil, "x")
	assert.NoError(t, err)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Zero(t, third.calls)

	assert.ErrorIs(t, FallbackWriter{}.WriteValue(nil, "x"), ErrNotWritable)
}

func TestAllElements_NilRoot(t *testing.T) {
	els, err := AllElements(nil)
	assert.NoError(t, err)
	assert.Empty(t, els)
}
