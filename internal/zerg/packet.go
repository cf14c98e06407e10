// Package zerg implements the zerg application protocol: the fixed 12-byte
// header, the four payload variants and their line-oriented text form.
package zerg

import (
	"fmt"

	"firestige.xyz/zerg/internal/core"
)

// Port is the UDP destination port zerg datagrams are addressed to.
const Port = 3751

// Version is the only protocol version this codec accepts.
const Version = 1

// HeaderLen is the size of the fixed header on the wire.
const HeaderLen = 12

// MaxLength is the largest corrected length the 24-bit length field can carry.
const MaxLength = 1<<24 - 1

// Type selects the payload variant.
type Type uint8

const (
	TypeMessage Type = 0
	TypeStatus  Type = 1
	TypeCommand Type = 2
	TypeGPS     Type = 3
)

func (t Type) String() string {
	switch t {
	case TypeMessage:
		return "message"
	case TypeStatus:
		return "status"
	case TypeCommand:
		return "command"
	case TypeGPS:
		return "gps"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Payload is one of Message, Status, Command or GPS.
type Payload interface {
	Type() Type
	appendBinary(b []byte) ([]byte, error)
	appendText(b []byte) []byte
}

// Packet is a decoded zerg datagram.
type Packet struct {
	Header
	Payload Payload
}

// MarshalBinary serializes the packet. The header's type and length are
// derived from the payload; the caller-supplied values are ignored.
func (p Packet) MarshalBinary() ([]byte, error) {
	if p.Payload == nil {
		return nil, fmt.Errorf("zerg: packet has no payload")
	}
	b := make([]byte, HeaderLen, HeaderLen+32)
	b, err := p.Payload.appendBinary(b)
	if err != nil {
		return nil, err
	}
	if len(b) > MaxLength {
		return nil, fmt.Errorf("zerg: %d byte packet exceeds length field: %w", len(b), core.ErrValueOutOfRange)
	}
	h := p.Header
	h.Type = p.Payload.Type()
	h.Length = uint32(len(b))
	h.put(b)
	return b, nil
}

// Unmarshal decodes one packet from b. Trailing bytes beyond the header's
// length are ignored.
func Unmarshal(b []byte) (Packet, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return Packet{}, err
	}
	if h.Version != Version {
		return Packet{}, fmt.Errorf("version %d: %w", h.Version, core.ErrBadVersion)
	}
	if len(b) < int(h.Length) {
		return Packet{}, fmt.Errorf("need %d bytes, have %d: %w", h.Length, len(b), core.ErrPacketTooShort)
	}
	payload, err := DecodePayload(h.Type, b[HeaderLen:h.Length])
	if err != nil {
		return Packet{}, err
	}
	return Packet{Header: h, Payload: payload}, nil
}

// DecodePayload dispatches b, which holds exactly the declared payload, to
// the codec selected by t.
func DecodePayload(t Type, b []byte) (Payload, error) {
	switch t {
	case TypeMessage:
		return decodeMessage(b), nil
	case TypeStatus:
		return decodeStatus(b)
	case TypeCommand:
		return decodeCommand(b)
	case TypeGPS:
		return decodeGPS(b)
	default:
		return nil, fmt.Errorf("%s: %w", t, core.ErrUnknownType)
	}
}

// EncodePayload serializes a payload without the fixed header.
func EncodePayload(p Payload) ([]byte, error) {
	return p.appendBinary(nil)
}

// PayloadError reports a payload shorter than its variant requires.
type PayloadError struct {
	Type Type
	Need int
	Have int
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("zerg: %s payload needs %d bytes, have %d", e.Type, e.Need, e.Have)
}

func (e *PayloadError) Unwrap() error { return core.ErrPacketTooShort }
