package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBedRoundTrip(t *testing.T) {
	b := &Bed{Begin: 1000, Stop: 2000, Rest: []byte("gene\t+\tBRCA1")}
	bytes := b.ToBytes()
	require.Len(t, bytes, 8+len(b.Rest))

	slice := SliceFromBytes(bytes)
	assert.Equal(t, b.Begin, slice.Start())
	assert.Equal(t, b.Stop, slice.End())
	assert.Equal(t, b.Rest, slice.Rest)

	owned := slice.ToOwned().(*Bed)
	assert.Equal(t, b, owned)
}

func TestBedEmptyRest(t *testing.T) {
	b := &Bed{Begin: 40, Stop: 41}
	slice := SliceFromBytes(b.ToBytes())
	assert.Equal(t, "40\t41", slice.String())
	assert.Equal(t, "40\t41", b.String())
}

func TestBedSliceFromBytesPanicsOnShortInput(t *testing.T) {
	assert.Panics(t, func() {
		SliceFromBytes([]byte{1, 2, 3})
	})
}
