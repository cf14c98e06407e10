// Package frame demultiplexes zerg datagrams out of Ethernet/IPv4/UDP
// capture records and synthesizes those records on the way back.
package frame

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/zerg/internal/core"
	"firestige.xyz/zerg/internal/pcap"
	"firestige.xyz/zerg/internal/zerg"
)

const (
	ethernetHeaderLen = 14
	ipv4HeaderMinLen  = 20
	udpHeaderLen      = 8

	// MinFrameLen is the shortest Ethernet frame, excluding the FCS.
	MinFrameLen = 60
)

// SkipError reports a record that was stepped over. The reader is already
// positioned on the next record when it is returned.
type SkipError struct {
	Record int // 1-based
	Reason string
	Err    error
}

func (e *SkipError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("record %d skipped: %s: %v", e.Record, e.Reason, e.Err)
	}
	return fmt.Sprintf("record %d skipped: %s", e.Record, e.Reason)
}

func (e *SkipError) Unwrap() error { return e.Err }

// Reader walks the records of a capture file and yields the zerg packets
// addressed to zerg.Port.
type Reader struct {
	src    io.Reader
	seeker io.Seeker // nil when the source cannot seek
	base   int64     // source offset of the first byte read
	br     *bufio.Reader
	pos    int64 // offset of the next unread byte, relative to base
	header pcap.FileHeader
	record int

	// current record
	start int64
	rh    pcap.RecordHeader

	eth layers.Ethernet
	ip  layers.IPv4
	udp layers.UDP
	buf []byte
}

// NewReader reads the capture global header from r. A file that is not a
// 2.4 capture yields an error wrapping core.ErrUnsupportedFile.
//
// When r is an io.Seeker, skipping a record whose declared length lies
// behind the read position seeks back; otherwise such a record ends the walk.
func NewReader(r io.Reader) (*Reader, error) {
	fr := &Reader{src: r, br: bufio.NewReader(r)}
	if s, ok := r.(io.Seeker); ok {
		if off, err := s.Seek(0, io.SeekCurrent); err == nil {
			fr.seeker = s
			fr.base = off
		}
	}

	h, err := pcap.ReadFileHeader(fr.br)
	if err != nil {
		return nil, err
	}
	fr.pos = pcap.FileHeaderLen
	fr.header = h
	return fr, nil
}

// Header returns the capture global header.
func (r *Reader) Header() pcap.FileHeader { return r.header }

// Order returns the byte order of the container's integer fields.
func (r *Reader) Order() binary.ByteOrder { return r.header.Order }

// Record returns the 1-based index of the last record read.
func (r *Reader) Record() int { return r.record }

// RecordHeader returns the capture header of the last record read.
func (r *Reader) RecordHeader() pcap.RecordHeader { return r.rh }

// Next returns the next zerg packet.
//
// A record that is not a zerg datagram is skipped and reported as a
// *SkipError; the caller may simply call Next again. The walk ends with
// io.EOF at a record boundary, or io.ErrUnexpectedEOF when the file stops
// inside a record. Any other read error is returned as is.
func (r *Reader) Next() (zerg.Packet, error) {
	r.start = r.pos
	b, err := r.read(pcap.RecordHeaderLen)
	if err != nil {
		if err == io.EOF {
			return zerg.Packet{}, io.EOF
		}
		return zerg.Packet{}, truncated(err)
	}
	r.record++
	r.rh, _ = pcap.DecodeRecordHeader(b, r.header.Order)

	if b, err = r.read(ethernetHeaderLen); err != nil {
		return zerg.Packet{}, truncated(err)
	}
	if err := r.eth.DecodeFromBytes(b, gopacket.NilDecodeFeedback); err != nil {
		return zerg.Packet{}, r.skip("bad ethernet header", err)
	}
	if r.eth.EthernetType != layers.EthernetTypeIPv4 {
		return zerg.Packet{}, r.skip(fmt.Sprintf("ethertype 0x%04x", uint16(r.eth.EthernetType)), core.ErrUnsupportedProto)
	}

	if b, err = r.read(ipv4HeaderMinLen); err != nil {
		return zerg.Packet{}, truncated(err)
	}
	if ihl := int(b[0]&0x0F) * 4; ihl > ipv4HeaderMinLen {
		// DecodeFromBytes needs the options in the same slice.
		hdr := append(r.buf[:0], b...)
		opts, err := r.read(ihl - ipv4HeaderMinLen)
		if err != nil {
			return zerg.Packet{}, truncated(err)
		}
		b = append(hdr, opts...)
		r.buf = b
	}
	if b[0]>>4 != 4 {
		return zerg.Packet{}, r.skip(fmt.Sprintf("ip version %d", b[0]>>4), core.ErrUnsupportedProto)
	}
	// DecodeFromBytes replaces a zero total length with the header length.
	ipLen := int(binary.BigEndian.Uint16(b[2:4]))
	if err := r.ip.DecodeFromBytes(b, gopacket.NilDecodeFeedback); err != nil {
		return zerg.Packet{}, r.skip("bad ipv4 header", err)
	}
	if r.ip.Protocol != layers.IPProtocolUDP {
		return zerg.Packet{}, r.skip(fmt.Sprintf("ip protocol %d", uint8(r.ip.Protocol)), core.ErrUnsupportedProto)
	}

	if b, err = r.read(udpHeaderLen); err != nil {
		return zerg.Packet{}, truncated(err)
	}
	if err := r.udp.DecodeFromBytes(b, gopacket.NilDecodeFeedback); err != nil {
		return zerg.Packet{}, r.skip("bad udp header", err)
	}
	if r.udp.DstPort != zerg.Port {
		return zerg.Packet{}, r.skip(fmt.Sprintf("udp port %d", uint16(r.udp.DstPort)), core.ErrUnsupportedProto)
	}

	p, err := r.readPacket(int(r.udp.Length) - udpHeaderLen)
	if err != nil {
		var skip *SkipError
		if errors.As(err, &skip) {
			return zerg.Packet{}, err
		}
		return zerg.Packet{}, truncated(err)
	}

	if frameLen := ipLen + ethernetHeaderLen; frameLen < MinFrameLen {
		// Never past the end of the captured record.
		pad := min(int64(MinFrameLen-frameLen), r.recordEnd()-r.pos)
		if pad > 0 {
			if _, err := r.discard(pad); err != nil {
				return zerg.Packet{}, truncated(err)
			}
		}
	}
	return p, nil
}

// readPacket reads the zerg datagram of the current record. datagramLen is
// the UDP payload size the UDP header declares.
func (r *Reader) readPacket(datagramLen int) (zerg.Packet, error) {
	if datagramLen < zerg.HeaderLen {
		return zerg.Packet{}, r.skip(fmt.Sprintf("udp payload of %d bytes", datagramLen), core.ErrPacketTooShort)
	}
	b, err := r.read(zerg.HeaderLen)
	if err != nil {
		return zerg.Packet{}, err
	}
	h, err := zerg.DecodeHeader(b)
	if err != nil {
		return zerg.Packet{}, r.skip("bad zerg header", err)
	}
	if h.Version != zerg.Version {
		return zerg.Packet{}, r.skip(fmt.Sprintf("zerg version %d", h.Version), core.ErrBadVersion)
	}

	if int(h.Length) != datagramLen || r.pos+int64(h.PayloadLen()) > r.recordEnd() {
		err := fmt.Errorf("length %d, udp payload %d: %w", h.Length, datagramLen, core.ErrPacketTooShort)
		return zerg.Packet{}, r.skip("zerg length mismatch", err)
	}
	payload, err := r.read(h.PayloadLen())
	if err != nil {
		return zerg.Packet{}, err
	}
	body, err := zerg.DecodePayload(h.Type, payload)
	if err != nil {
		return zerg.Packet{}, r.skip(fmt.Sprintf("%s payload", h.Type), err)
	}
	return zerg.Packet{Header: h, Payload: body}, nil
}

// recordEnd returns the offset just past the captured bytes of the current record.
func (r *Reader) recordEnd() int64 {
	return r.start + pcap.RecordHeaderLen + int64(r.rh.CapLen)
}

// skip moves to the record that follows the current one, using the
// record's untruncated length, and returns the resulting *SkipError.
// Failing to get there ends the walk.
func (r *Reader) skip(reason string, cause error) error {
	target := r.start + pcap.RecordHeaderLen + int64(r.rh.OrigLen)
	switch {
	case target >= r.pos:
		if _, err := r.discard(target - r.pos); err != nil {
			return truncated(err)
		}
	case r.seeker != nil:
		if _, err := r.seeker.Seek(r.base+target, io.SeekStart); err != nil {
			return err
		}
		r.br.Reset(r.src)
		r.pos = target
	default:
		return fmt.Errorf("record %d: cannot rewind to offset %d: %w", r.record, target, io.ErrUnexpectedEOF)
	}
	return &SkipError{Record: r.record, Reason: reason, Err: cause}
}

// read returns the next n bytes. The slice is only valid until the next call.
func (r *Reader) read(n int) ([]byte, error) {
	if n <= r.br.Size() {
		b, err := r.br.Peek(n)
		if err != nil {
			if len(b) > 0 {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		r.br.Discard(n) //nolint:errcheck // peeked above
		r.pos += int64(n)
		return b, nil
	}

	if cap(r.buf) < n {
		r.buf = make([]byte, n)
	}
	b := r.buf[:n]
	m, err := io.ReadFull(r.br, b)
	r.pos += int64(m)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Reader) discard(n int64) (int64, error) {
	var done int64
	for done < n {
		chunk := n - done
		if chunk > 1<<30 {
			chunk = 1 << 30
		}
		m, err := r.br.Discard(int(chunk))
		done += int64(m)
		r.pos += int64(m)
		if err != nil {
			return done, err
		}
	}
	return done, nil
}

// truncated maps a short read inside a record to io.ErrUnexpectedEOF.
func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
