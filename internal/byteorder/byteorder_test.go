package byteorder

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwap24(t *testing.T) {
	tests := []struct {
		name string
		in   uint32
		want uint32
	}{
		{"zero", 0, 0},
		{"low byte", 0x000011, 0x110000},
		{"three bytes", 0x112233, 0x332211},
		{"high byte dropped", 0xFF112233, 0x332211},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Swap24(tt.in))
		})
	}
}

func TestSwap24Involution(t *testing.T) {
	for _, v := range []uint32{1, 17, 0x123456, 0xFFFFFF} {
		assert.Equal(t, v, Swap24(Swap24(v)))
	}
}

func TestUint24MatchesBigEndian(t *testing.T) {
	b := []byte{0x00, 0x00, 0x11}
	assert.Equal(t, uint32(17), Uint24(b))

	out := make([]byte, 3)
	PutUint24(out, 0x0A0B0C)
	assert.Equal(t, []byte{0x0A, 0x0B, 0x0C}, out)
}

func TestInt24SignExtension(t *testing.T) {
	b := make([]byte, 3)
	PutInt24(b, -5)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFB}, b)
	assert.Equal(t, int32(-5), Int24(b))

	PutInt24(b, 8388607)
	assert.Equal(t, int32(8388607), Int24(b))

	PutInt24(b, -8388608)
	assert.Equal(t, int32(-8388608), Int24(b))
}

func TestSwapFloat32(t *testing.T) {
	f := float32(45.0)
	swapped := SwapFloat32(f)
	assert.Equal(t, uint32(0x00003442), math.Float32bits(swapped))
	assert.Equal(t, f, SwapFloat32(swapped))
}

func TestSwapFloat64(t *testing.T) {
	f := 30.5
	assert.Equal(t, f, SwapFloat64(SwapFloat64(f)))
	assert.NotEqual(t, math.Float64bits(f), math.Float64bits(SwapFloat64(f)))
}

func TestFloatWireIsNetworkOrder(t *testing.T) {
	b := make([]byte, 4)
	PutFloat32(b, 45.0)
	assert.Equal(t, math.Float32bits(45.0), binary.BigEndian.Uint32(b))
	assert.Equal(t, float32(45.0), Float32(b))

	d := make([]byte, 8)
	PutFloat64(d, -97.75)
	assert.Equal(t, math.Float64bits(-97.75), binary.BigEndian.Uint64(d))
	assert.Equal(t, -97.75, Float64(d))
}
