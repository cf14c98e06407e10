package frame

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/zerg/internal/core"
	"firestige.xyz/zerg/internal/pcap"
	"firestige.xyz/zerg/internal/zerg"
)

// MaxDatagramLen is the largest zerg datagram an IPv4 packet can carry.
const MaxDatagramLen = 0xFFFF - ipv4HeaderMinLen - udpHeaderLen

// Endpoints are the link and network addresses written around every
// synthesized datagram. The destination port is always zerg.Port.
type Endpoints struct {
	SrcMAC  net.HardwareAddr
	DstMAC  net.HardwareAddr
	SrcIP   net.IP
	DstIP   net.IP
	SrcPort uint16
	TTL     uint8
}

// DefaultEndpoints returns locally administered MACs and RFC 5737 addresses.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		SrcMAC:  net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		DstMAC:  net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
		SrcIP:   net.IPv4(192, 0, 2, 1),
		DstIP:   net.IPv4(192, 0, 2, 2),
		SrcPort: zerg.Port,
		TTL:     64,
	}
}

// Writer serializes zerg packets into capture records.
type Writer struct {
	pw   *pcap.Writer
	ep   Endpoints
	buf  gopacket.SerializeBuffer
	opts gopacket.SerializeOptions
}

// NewWriter returns a Writer emitting a capture file whose integer fields
// use order. Nothing is written until the first packet.
func NewWriter(w io.Writer, order binary.ByteOrder, ep Endpoints, opts ...pcap.WriterOption) *Writer {
	return &Writer{
		pw:  pcap.NewWriter(w, order, opts...),
		ep:  ep,
		buf: gopacket.NewSerializeBuffer(),
		// Checksums are left zero.
		opts: gopacket.SerializeOptions{FixLengths: true},
	}
}

// WritePacket writes p as one capture record. Nothing is written if p
// cannot be serialized.
func (w *Writer) WritePacket(p zerg.Packet) error {
	payload, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	return w.WriteDatagram(payload)
}

// WriteDatagram writes an already serialized zerg datagram as one record.
func (w *Writer) WriteDatagram(payload []byte) error {
	frame, err := w.Frame(payload)
	if err != nil {
		return err
	}
	return w.pw.WriteRecord(time.Time{}, frame)
}

// Frame wraps a zerg datagram in Ethernet, IPv4 and UDP headers. Frames
// shorter than MinFrameLen are zero padded. The returned slice is reused
// by the next call.
func (w *Writer) Frame(payload []byte) ([]byte, error) {
	if len(payload) > MaxDatagramLen {
		return nil, fmt.Errorf("%d byte datagram does not fit an ipv4 packet: %w", len(payload), core.ErrValueOutOfRange)
	}
	eth := &layers.Ethernet{
		SrcMAC:       w.ep.SrcMAC,
		DstMAC:       w.ep.DstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      w.ep.TTL,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    w.ep.SrcIP,
		DstIP:    w.ep.DstIP,
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(w.ep.SrcPort),
		DstPort: zerg.Port,
	}
	if err := gopacket.SerializeLayers(w.buf, w.opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("serialize frame: %w", err)
	}
	return w.buf.Bytes(), nil
}

// Records returns the number of records written.
func (w *Writer) Records() int { return w.pw.Records() }

// HeaderWritten reports whether the capture global header has been emitted.
func (w *Writer) HeaderWritten() bool { return w.pw.HeaderWritten() }
