// Package byteorder converts protocol fields between wire and host representation.
//
// The zerg protocol was defined against a little-endian host that reads
// packed structs straight off the wire. Fields are therefore fetched in
// host order and corrected with the swap functions below. Floating point
// values are always swapped, whatever byte order the capture file header
// declares; only integer fields of the capture container follow the magic
// number.
package byteorder

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// Host is the order in which raw wire words are fetched before correction.
var Host = binary.LittleEndian

// Swap24 reverses the order of the low three bytes of v. The high byte is dropped.
func Swap24(v uint32) uint32 {
	return (v&0xFF)<<16 | v&0xFF00 | (v>>16)&0xFF
}

// SwapFloat32 reverses the byte order of the IEEE-754 representation of f.
func SwapFloat32(f float32) float32 {
	return math.Float32frombits(bits.ReverseBytes32(math.Float32bits(f)))
}

// SwapFloat64 reverses the byte order of the IEEE-754 representation of f.
func SwapFloat64(f float64) float64 {
	return math.Float64frombits(bits.ReverseBytes64(math.Float64bits(f)))
}

// Uint24 reads a 24-bit wire integer from b[0:3].
func Uint24(b []byte) uint32 {
	_ = b[2] // bounds check hint to compiler
	return Swap24(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16)
}

// PutUint24 writes the low 24 bits of v to b[0:3] in wire order.
func PutUint24(b []byte, v uint32) {
	_ = b[2]
	w := Swap24(v)
	b[0] = byte(w)
	b[1] = byte(w >> 8)
	b[2] = byte(w >> 16)
}

// Int24 reads a signed 24-bit wire integer from b[0:3], sign-extending bit 23.
func Int24(b []byte) int32 {
	return int32(Uint24(b)<<8) >> 8
}

// PutInt24 writes the low 24 bits of v to b[0:3] in wire order.
func PutInt24(b []byte, v int32) {
	PutUint24(b, uint32(v)&0xFFFFFF)
}

// Float32 reads a wire float from b[0:4].
func Float32(b []byte) float32 {
	return SwapFloat32(math.Float32frombits(Host.Uint32(b)))
}

// PutFloat32 writes f to b[0:4] in wire order.
func PutFloat32(b []byte, f float32) {
	Host.PutUint32(b, math.Float32bits(SwapFloat32(f)))
}

// Float64 reads a wire double from b[0:8].
func Float64(b []byte) float64 {
	return SwapFloat64(math.Float64frombits(Host.Uint64(b)))
}

// PutFloat64 writes f to b[0:8] in wire order.
func PutFloat64(b []byte, f float64) {
	Host.PutUint64(b, math.Float64bits(SwapFloat64(f)))
}
