package pcap

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/zerg/internal/core"
)

func TestFileHeaderEncoding(t *testing.T) {
	le := NewFileHeader(binary.LittleEndian).AppendBinary(nil)
	require.Len(t, le, FileHeaderLen)
	assert.Equal(t, []byte{0xD4, 0xC3, 0xB2, 0xA1, 0x02, 0x00, 0x04, 0x00}, le[:8])
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, le[20:24])

	be := NewFileHeader(binary.BigEndian).AppendBinary(nil)
	assert.Equal(t, []byte{0xA1, 0xB2, 0xC3, 0xD4, 0x00, 0x02, 0x00, 0x04}, be[:8])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x01}, be[20:24])
}

func TestReadFileHeader(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			want := NewFileHeader(order)
			want.ThisZone = -3600
			want.SnapLen = 1500

			got, err := ReadFileHeader(bytes.NewReader(want.AppendBinary(nil)))
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, order == binary.ByteOrder(binary.BigEndian), got.BigEndian())
		})
	}
}

func TestReadFileHeaderUnsupported(t *testing.T) {
	good := NewFileHeader(binary.LittleEndian).AppendBinary(nil)

	badMagic := append([]byte(nil), good...)
	badMagic[0] = 0x4D // nanosecond magic
	badMagic[1] = 0x3C

	badVersion := append([]byte(nil), good...)
	badVersion[6] = 0x03

	tests := map[string][]byte{
		"empty":       nil,
		"short":       good[:10],
		"bad magic":   badMagic,
		"bad version": badVersion,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadFileHeader(bytes.NewReader(data))
			assert.ErrorIs(t, err, core.ErrUnsupportedFile)
		})
	}
}

func TestRecordHeader(t *testing.T) {
	h := RecordHeader{TsSec: 1700000000, TsUsec: 250, CapLen: 60, OrigLen: 64}
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		b := h.AppendBinary(nil, order)
		require.Len(t, b, RecordHeaderLen)
		got, err := DecodeRecordHeader(b, order)
		require.NoError(t, err)
		assert.Equal(t, h, got)
	}
	assert.Equal(t, time.Unix(1700000000, 250000).UTC(), h.Timestamp())

	_, err := DecodeRecordHeader(make([]byte, 15), binary.LittleEndian)
	assert.ErrorIs(t, err, core.ErrPacketTooShort)
}

func TestWriterLazyHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, binary.LittleEndian)
	assert.False(t, w.HeaderWritten())
	assert.Zero(t, buf.Len())

	frame := bytes.Repeat([]byte{0xAB}, 60)
	require.NoError(t, w.WriteRecord(time.Time{}, frame))
	require.NoError(t, w.WriteRecord(time.Time{}, frame))

	assert.True(t, w.HeaderWritten())
	assert.Equal(t, 2, w.Records())
	assert.Equal(t, FileHeaderLen+2*(RecordHeaderLen+60), buf.Len())
}

func TestWriterReadableByPcapgo(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, order, WithSnapLen(2048))
			ts := time.Unix(1600000000, 123000)
			frame := []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789ab")
			require.NoError(t, w.WriteRecord(ts, frame))

			r, err := pcapgo.NewReader(&buf)
			require.NoError(t, err)
			assert.Equal(t, layers.LinkTypeEthernet, r.LinkType())

			data, ci, err := r.ReadPacketData()
			require.NoError(t, err)
			assert.Equal(t, frame, data)
			assert.Equal(t, len(frame), ci.Length)
			assert.Equal(t, ts.Unix(), ci.Timestamp.Unix())
		})
	}
}

func TestPcapgoFileReadable(t *testing.T) {
	var buf bytes.Buffer
	pw := pcapgo.NewWriter(&buf)
	require.NoError(t, pw.WriteFileHeader(65535, layers.LinkTypeEthernet))

	h, err := ReadFileHeader(&buf)
	require.NoError(t, err)
	assert.False(t, h.BigEndian())
	assert.Equal(t, uint32(65535), h.SnapLen)
	assert.Equal(t, uint32(layers.LinkTypeEthernet), h.LinkType)
}

func TestLinkName(t *testing.T) {
	tests := []struct {
		link uint32
		want string
	}{
		{uint32(layers.LinkTypeEthernet), "Ethernet"},
		{uint32(layers.LinkTypeRaw), "Raw"},
		{147, "147"}, // user-defined
		{276, "276"}, // beyond gopacket's table
	}
	for _, tt := range tests {
		h := NewFileHeader(binary.LittleEndian)
		h.LinkType = tt.link
		assert.Equal(t, tt.want, h.LinkName())
	}
}
