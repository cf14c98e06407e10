// Package pcap reads and writes the libpcap capture container: the 24-byte
// global header and the 16-byte per-record header.
package pcap

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/google/gopacket/layers"

	"firestige.xyz/zerg/internal/core"
)

const (
	// Magic is the microsecond-resolution magic number.
	Magic uint32 = 0xA1B2C3D4
	// MagicSwapped is Magic as read with the wrong byte order.
	MagicSwapped uint32 = 0xD4C3B2A1

	VersionMajor uint16 = 2
	VersionMinor uint16 = 4

	FileHeaderLen   = 24
	RecordHeaderLen = 16

	// DefaultSnapLen is written into headers produced by this package.
	DefaultSnapLen uint32 = 65535
)

// FileHeader is the capture file global header.
type FileHeader struct {
	Order        binary.ByteOrder
	VersionMajor uint16
	VersionMinor uint16
	ThisZone     int32  // GMT offset in seconds
	SigFigs      uint32 // timestamp accuracy
	SnapLen      uint32
	LinkType     uint32
}

// NewFileHeader returns a 2.4 Ethernet header in the given byte order.
func NewFileHeader(order binary.ByteOrder) FileHeader {
	return FileHeader{
		Order:        order,
		VersionMajor: VersionMajor,
		VersionMinor: VersionMinor,
		SnapLen:      DefaultSnapLen,
		LinkType:     uint32(layers.LinkTypeEthernet),
	}
}

// BigEndian reports whether the integer fields of the file are big-endian.
func (h FileHeader) BigEndian() bool {
	return h.Order == binary.ByteOrder(binary.BigEndian)
}

// unknownLinkType is the name gopacket gives link types it has no decoder for.
const unknownLinkType = "UnknownLinkType"

// LinkName names the link-layer type from gopacket's link type table, or
// formats the number when the table has no entry for it.
func (h FileHeader) LinkName() string {
	if h.LinkType <= math.MaxUint8 {
		if name := layers.LinkType(h.LinkType).String(); name != unknownLinkType {
			return name
		}
	}
	return strconv.FormatUint(uint64(h.LinkType), 10)
}

// ReadFileHeader reads and validates the global header. The magic number
// selects the byte order of every later integer field of the container.
// Anything but a 2.4 microsecond capture yields core.ErrUnsupportedFile.
func ReadFileHeader(r io.Reader) (FileHeader, error) {
	var b [FileHeaderLen]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return FileHeader{}, fmt.Errorf("short global header: %w", core.ErrUnsupportedFile)
	}

	var h FileHeader
	switch magic := binary.LittleEndian.Uint32(b[0:4]); magic {
	case Magic:
		h.Order = binary.LittleEndian
	case MagicSwapped:
		h.Order = binary.BigEndian
	default:
		return FileHeader{}, fmt.Errorf("magic number 0x%08X: %w", magic, core.ErrUnsupportedFile)
	}

	h.VersionMajor = h.Order.Uint16(b[4:6])
	h.VersionMinor = h.Order.Uint16(b[6:8])
	if h.VersionMajor != VersionMajor || h.VersionMinor != VersionMinor {
		return FileHeader{}, fmt.Errorf("version %d.%d: %w", h.VersionMajor, h.VersionMinor, core.ErrUnsupportedFile)
	}
	h.ThisZone = int32(h.Order.Uint32(b[8:12]))
	h.SigFigs = h.Order.Uint32(b[12:16])
	h.SnapLen = h.Order.Uint32(b[16:20])
	h.LinkType = h.Order.Uint32(b[20:24])
	return h, nil
}

// AppendBinary appends the 24-byte encoding of h.
func (h FileHeader) AppendBinary(b []byte) []byte {
	order := h.Order
	if order == nil {
		order = binary.LittleEndian
	}
	b = appendUint32(b, order, Magic)
	b = appendUint16(b, order, h.VersionMajor)
	b = appendUint16(b, order, h.VersionMinor)
	b = appendUint32(b, order, uint32(h.ThisZone))
	b = appendUint32(b, order, h.SigFigs)
	b = appendUint32(b, order, h.SnapLen)
	return appendUint32(b, order, h.LinkType)
}

// RecordHeader precedes every captured frame.
type RecordHeader struct {
	TsSec   uint32
	TsUsec  uint32
	CapLen  uint32 // bytes present in the file
	OrigLen uint32 // untruncated frame length on the wire
}

// DecodeRecordHeader parses b[0:16] with the file's byte order.
func DecodeRecordHeader(b []byte, order binary.ByteOrder) (RecordHeader, error) {
	if len(b) < RecordHeaderLen {
		return RecordHeader{}, core.ErrPacketTooShort
	}
	return RecordHeader{
		TsSec:   order.Uint32(b[0:4]),
		TsUsec:  order.Uint32(b[4:8]),
		CapLen:  order.Uint32(b[8:12]),
		OrigLen: order.Uint32(b[12:16]),
	}, nil
}

// AppendBinary appends the 16-byte encoding of h.
func (h RecordHeader) AppendBinary(b []byte, order binary.ByteOrder) []byte {
	b = appendUint32(b, order, h.TsSec)
	b = appendUint32(b, order, h.TsUsec)
	b = appendUint32(b, order, h.CapLen)
	return appendUint32(b, order, h.OrigLen)
}

// Timestamp returns the capture time of the record.
func (h RecordHeader) Timestamp() time.Time {
	return time.Unix(int64(h.TsSec), int64(h.TsUsec)*int64(time.Microsecond)).UTC()
}

func appendUint16(b []byte, order binary.ByteOrder, v uint16) []byte {
	var tmp [2]byte
	order.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendUint32(b []byte, order binary.ByteOrder, v uint32) []byte {
	var tmp [4]byte
	order.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}
