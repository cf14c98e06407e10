package zerg

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/zerg/internal/byteorder"
	"firestige.xyz/zerg/internal/core"
)

// Header is the fixed portion of a zerg datagram.
//
// Wire layout (12 bytes):
//
//	| version:4 | type:4 | length:24 | src:16 | dst:16 | sequence:32 |
type Header struct {
	Type     Type
	Version  uint8
	Length   uint32 // corrected length: HeaderLen + payload size
	Src      uint16
	Dst      uint16
	Sequence uint32
}

// PayloadLen returns the payload size implied by the corrected length.
func (h Header) PayloadLen() int {
	return int(h.Length) - HeaderLen
}

// DecodeHeader parses the fixed header at the start of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, core.ErrPacketTooShort
	}

	// First word as the host sees it: type and version in the low byte,
	// the 24-bit length above it in reversed order.
	word := byteorder.Host.Uint32(b[0:4])
	h := Header{
		Type:     Type(word & 0x0F),
		Version:  uint8(word>>4) & 0x0F,
		Length:   byteorder.Swap24(word >> 8),
		Src:      binary.BigEndian.Uint16(b[4:6]),
		Dst:      binary.BigEndian.Uint16(b[6:8]),
		Sequence: binary.BigEndian.Uint32(b[8:12]),
	}
	if h.Length < HeaderLen {
		return h, fmt.Errorf("length %d shorter than header: %w", h.Length, core.ErrPacketTooShort)
	}
	return h, nil
}

// Encode writes h into the first HeaderLen bytes of b.
func (h Header) Encode(b []byte) error {
	if len(b) < HeaderLen {
		return core.ErrPacketTooShort
	}
	if h.Length > MaxLength || h.Version > 0x0F || h.Type > 0x0F {
		return core.ErrValueOutOfRange
	}
	h.put(b)
	return nil
}

func (h Header) put(b []byte) {
	word := byteorder.Swap24(h.Length)<<8 | uint32(h.Version&0x0F)<<4 | uint32(h.Type&0x0F)
	byteorder.Host.PutUint32(b[0:4], word)
	binary.BigEndian.PutUint16(b[4:6], h.Src)
	binary.BigEndian.PutUint16(b[6:8], h.Dst)
	binary.BigEndian.PutUint32(b[8:12], h.Sequence)
}
