package zerg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"firestige.xyz/zerg/internal/core"
)

// lines is a minimal FieldReader over an in-memory text block.
type lines struct {
	l []string
	i int
}

func newLines(text string) *lines {
	return &lines{l: strings.Split(strings.TrimSuffix(text, "\n"), "\n")}
}

func (r *lines) Next() (string, string, error) {
	if r.i >= len(r.l) {
		return "", "", io.ErrUnexpectedEOF
	}
	line := r.l[r.i]
	r.i++
	label, value, _ := strings.Cut(line, ":")
	return label, value, nil
}

func (r *lines) Field(label string) (string, error) {
	got, value, err := r.Next()
	if err != nil {
		return "", err
	}
	if got != label {
		return "", fmt.Errorf("expected %q, got %q", label, got)
	}
	return value, nil
}

func TestHeaderLayout(t *testing.T) {
	h := Header{Type: TypeCommand, Version: 1, Length: 20, Src: 0x0102, Dst: 0x0304, Sequence: 0x05060708}
	b := make([]byte, HeaderLen)
	require.NoError(t, h.Encode(b))

	assert.Equal(t, []byte{
		0x12,             // version 1, type 2
		0x00, 0x00, 0x14, // length 20
		0x01, 0x02, // src
		0x03, 0x04, // dst
		0x05, 0x06, 0x07, 0x08, // sequence
	}, b)

	got, err := DecodeHeader(b)
	require.NoError(t, err)
	assert.Equal(t, h, got)
	assert.Equal(t, 8, got.PayloadLen())
}

func TestDecodeHeaderErrors(t *testing.T) {
	_, err := DecodeHeader(make([]byte, 11))
	assert.ErrorIs(t, err, core.ErrPacketTooShort)

	b := make([]byte, HeaderLen)
	b[0] = 0x10
	b[3] = 11 // corrected length below the fixed header size
	_, err = DecodeHeader(b)
	assert.ErrorIs(t, err, core.ErrPacketTooShort)

	h := Header{Length: MaxLength + 1}
	assert.ErrorIs(t, h.Encode(make([]byte, HeaderLen)), core.ErrValueOutOfRange)
}

func TestMessageHello(t *testing.T) {
	p := Packet{Header: Header{Version: 1, Sequence: 1, Src: 2, Dst: 3}, Payload: Message{Text: "hello"}}
	b, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 17)
	assert.Equal(t, []byte{0x00, 0x00, 0x11}, b[1:4])
	assert.Equal(t, "hello", string(b[HeaderLen:]))

	got, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(17), got.Length)
	assert.Equal(t, len("hello"), got.PayloadLen())
	assert.Equal(t, "Message: hello\n", PayloadText(got.Payload))
}

func TestCorrectedLengthMatchesPayload(t *testing.T) {
	payloads := []Payload{
		Message{},
		Message{Text: strings.Repeat("z", 300)},
		Status{Name: "Zeratul"},
		Command{Code: Stop},
		GotoCommand(90, 5),
		GPS{},
	}
	for _, pl := range payloads {
		b, err := Packet{Header: Header{Version: 1}, Payload: pl}.MarshalBinary()
		require.NoError(t, err)
		raw, err := EncodePayload(pl)
		require.NoError(t, err)

		h, err := DecodeHeader(b)
		require.NoError(t, err)
		assert.Equal(t, len(raw), h.PayloadLen(), "%T", pl)
		assert.Equal(t, pl.Type(), h.Type)
	}
}

func TestGotoFromText(t *testing.T) {
	pl, err := ParsePayloadText(newLines("Command: GOTO\nBearing: 45.0\nDistance: 120\n"))
	require.NoError(t, err)

	raw, err := EncodePayload(pl)
	require.NoError(t, err)
	require.Len(t, raw, 8)
	assert.Equal(t, uint16(Goto), binary.BigEndian.Uint16(raw[0:2]))
	assert.Equal(t, uint16(120), binary.BigEndian.Uint16(raw[2:4]))
	assert.Equal(t, math.Float32bits(45.0), binary.BigEndian.Uint32(raw[4:8]))

	cmd := pl.(Command)
	assert.Equal(t, float32(45), cmd.Bearing())
	assert.Equal(t, uint16(120), cmd.Distance())
}

func TestCommandParity(t *testing.T) {
	tests := []struct {
		code CommandCode
		size int
	}{
		{GetStatus, 2}, {Goto, 8}, {GetGPS, 2}, {3, 8},
		{Return, 2}, {SetGroup, 8}, {Stop, 2}, {Repeat, 8},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			raw, err := EncodePayload(Command{Code: tt.code, Param1: 9, Param2: 10})
			require.NoError(t, err)
			assert.Len(t, raw, tt.size)

			// Trailing bytes beyond the implied size are ignored.
			got, err := decodeCommand(append(raw, 0xEE, 0xEE))
			require.NoError(t, err)
			assert.Equal(t, tt.code, got.Code)
		})
	}

	_, err := decodeCommand([]byte{0x00, 0x01, 0x00})
	var perr *PayloadError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 8, perr.Need)
}

func TestStatusHydralisk(t *testing.T) {
	text := "Max Hit Points: 80\nCurrent Hit Points: 80\nArmor: 0\nType: Hydralisk\nMax Speed: 1.5\nName: Hydra\n"
	pl, err := ParsePayloadText(newLines(text))
	require.NoError(t, err)

	raw, err := EncodePayload(pl)
	require.NoError(t, err)
	assert.Equal(t, byte(9), raw[7])
	assert.Equal(t, "Hydra", string(raw[12:]))

	decoded, err := decodeStatus(raw)
	require.NoError(t, err)
	assert.Contains(t, PayloadText(decoded), "Type: Hydralisk\n")
}

func TestStatusUnknownUnit(t *testing.T) {
	s := Status{Unit: 42, Name: "x"}
	raw, err := EncodePayload(s)
	require.NoError(t, err)

	decoded, err := decodeStatus(raw)
	require.NoError(t, err)
	assert.Equal(t, UnitType(42), decoded.Unit)
	text := PayloadText(decoded)
	assert.Contains(t, text, "Type: 42\n")

	_, err = ParsePayloadText(newLines(text))
	var verr *ValueError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Type", verr.Label)
}

func TestStatusWireLayout(t *testing.T) {
	s := Status{HP: -2, Armor: 3, MaxHP: 0x010203, Unit: Queen, MaxSpeed: 1, Name: "Q"}
	raw, err := EncodePayload(s)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFE, 0x03, 0x01, 0x02, 0x03, 0x04}, raw[:8])
	assert.Equal(t, math.Float32bits(1), binary.BigEndian.Uint32(raw[8:12]))

	_, err = decodeStatus(raw[:11])
	assert.ErrorIs(t, err, core.ErrPacketTooShort)

	_, err = EncodePayload(Status{HP: 1 << 23})
	assert.ErrorIs(t, err, core.ErrValueOutOfRange)
	_, err = EncodePayload(Status{MaxHP: 1 << 24})
	assert.ErrorIs(t, err, core.ErrValueOutOfRange)
}

func TestGPSWireLayout(t *testing.T) {
	g := GPS{Longitude: -97.75, Latitude: 30.5, Altitude: 1, Bearing: 2, Speed: 3, Accuracy: 4}
	raw, err := EncodePayload(g)
	require.NoError(t, err)
	require.Len(t, raw, 32)
	assert.Equal(t, math.Float64bits(-97.75), binary.BigEndian.Uint64(raw[0:8]))
	assert.Equal(t, math.Float64bits(30.5), binary.BigEndian.Uint64(raw[8:16]))
	assert.Equal(t, math.Float32bits(4), binary.BigEndian.Uint32(raw[28:32]))

	got, err := decodeGPS(raw)
	require.NoError(t, err)
	assert.Equal(t, g, got)

	_, err = decodeGPS(raw[:31])
	assert.ErrorIs(t, err, core.ErrPacketTooShort)
}

func TestDMS(t *testing.T) {
	d, m, s := DMS(-33.8568)
	assert.Equal(t, 33.0, d)
	assert.Equal(t, 51.0, m)
	assert.InDelta(t, 24.48, s, 1e-6)

	assert.Equal(t, `33° 51' 24.48" S`, string(appendDMS(nil, -33.8568, 'N', 'S')))
	assert.Equal(t, `0° 30' 0.00" E`, string(appendDMS(nil, 0.5, 'E', 'W')))

	v, err := parseDMS("Latitude", ` 33° 51' 24.48" S`, 'N', 'S')
	require.NoError(t, err)
	assert.InDelta(t, -33.8568, v, 1e-9)

	v, err = parseDMS("Latitude", ` -33° 51' 24.48"`, 'N', 'S')
	require.NoError(t, err)
	assert.InDelta(t, -33.8568, v, 1e-9)

	_, err = parseDMS("Latitude", ` 33° 51' 24.48" E`, 'N', 'S')
	assert.Error(t, err)
	_, err = parseDMS("Latitude", ` 33°`, 'N', 'S')
	assert.Error(t, err)
}

func TestDMSCarry(t *testing.T) {
	// 59.999 seconds would print as 60.00.
	v := 10 + 59.0/60 + 59.999/3600
	assert.Equal(t, `11° 0' 0.00" N`, string(appendDMS(nil, v, 'N', 'S')))
}

func TestUnmarshalErrors(t *testing.T) {
	b, err := Packet{Header: Header{Version: 1}, Payload: Message{Text: "hi"}}.MarshalBinary()
	require.NoError(t, err)

	bad := append([]byte(nil), b...)
	bad[0] = 0x20 // version 2
	_, err = Unmarshal(bad)
	assert.ErrorIs(t, err, core.ErrBadVersion)

	unknown := append([]byte(nil), b...)
	unknown[0] = 0x17 // type 7
	_, err = Unmarshal(unknown)
	assert.ErrorIs(t, err, core.ErrUnknownType)

	_, err = Unmarshal(b[:len(b)-1])
	assert.ErrorIs(t, err, core.ErrPacketTooShort)
}

func TestParseTextErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"bad version", "Version: x\n"},
		{"version too wide", "Version: 16\n"},
		{"wrong label", "Version: 1\nSequence: 1\nFrom: 1\nWhere: 2\n"},
		{"unknown block", "Version: 1\nSequence: 1\nFrom: 1\nTo: 2\nColor: red\n"},
		{"unknown command", "Version: 1\nSequence: 1\nFrom: 1\nTo: 2\nCommand: DANCE\n"},
		{"bad action", "Version: 1\nSequence: 1\nFrom: 1\nTo: 2\nCommand: SET_GROUP\nAction: Join\nGroup: 1\n"},
		{"hp out of range", "Version: 1\nSequence: 1\nFrom: 1\nTo: 2\nMax Hit Points: 16777216\n"},
		{"truncated", "Version: 1\nSequence: 1\nFrom: 1\nTo: 2\nCommand: GOTO\nBearing: 4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadText(newLines(tt.text))
			assert.Error(t, err)
		})
	}

	_, err := ReadText(newLines("Version: 1\nSequence: 1\nFrom: 1\nTo: 2\nColor: red\n"))
	var berr *UnknownBlockError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, "Color", berr.Label)
}

type textCase struct {
	Name string `yaml:"name"`
	Type uint8  `yaml:"type"`
	Text string `yaml:"text"`
}

func loadTextCases(t *testing.T) []textCase {
	t.Helper()
	data, err := os.ReadFile("testdata/text_cases.yaml")
	require.NoError(t, err)
	var doc struct {
		Cases []textCase `yaml:"cases"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	require.NotEmpty(t, doc.Cases)
	return doc.Cases
}

func TestTextRoundTrip(t *testing.T) {
	for _, tc := range loadTextCases(t) {
		t.Run(tc.Name, func(t *testing.T) {
			p, err := ReadText(newLines(tc.Text))
			require.NoError(t, err)
			assert.Equal(t, Type(tc.Type), p.Type)
			assert.Equal(t, tc.Text, string(p.AppendText(nil)))

			// text -> binary -> packet -> text
			b, err := p.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, int(p.Length), len(b))
			decoded, err := Unmarshal(b)
			require.NoError(t, err)
			assert.Equal(t, p, decoded)
			assert.Equal(t, tc.Text, string(decoded.AppendText(nil)))
		})
	}
}

func TestPayloadTextRoundTrip(t *testing.T) {
	payloads := []Payload{
		Message{},
		Message{Text: "  two leading spaces"},
		Status{HP: -8388608, MaxHP: 1, Unit: Overmind},
		Status{HP: 10, Armor: 2, MaxHP: 100, Unit: Ultralisk, MaxSpeed: 0.75, Name: "Torrasque"},
		Command{Code: GetStatus},
		Command{Code: GetGPS},
		Command{Code: Return},
		Command{Code: 3, Param1: 4, Param2: 5},
		GotoCommand(359.5, 65535),
		SetGroupCommand(true, -1),
		RepeatCommand(77),
		GPS{Latitude: -0.25, Longitude: 179.5, Altitude: -10.125, Bearing: 0.5, Speed: 100, Accuracy: 0.25},
	}
	for _, pl := range payloads {
		t.Run(fmt.Sprintf("%T", pl), func(t *testing.T) {
			got, err := ParsePayloadText(newLines(PayloadText(pl)))
			require.NoError(t, err)
			assert.Equal(t, pl, got)
		})
	}
}

func TestGPSTextPrecision(t *testing.T) {
	// Not a whole number of hundredths of a second in either coordinate.
	g := GPS{Latitude: 37.123456789, Longitude: -122.987654321, Altitude: 12.5, Bearing: 1, Speed: 2, Accuracy: 3}
	text := PayloadText(g)

	got, err := ParsePayloadText(newLines(text))
	require.NoError(t, err)
	back := got.(GPS)
	halfHundredth := 0.005 / 3600
	assert.InDelta(t, g.Latitude, back.Latitude, halfHundredth+1e-12)
	assert.InDelta(t, g.Longitude, back.Longitude, halfHundredth+1e-12)
	assert.NotEqual(t, g.Latitude, back.Latitude)
	assert.Equal(t, g.Altitude, back.Altitude)

	assert.Equal(t, text, PayloadText(back), "text is stable after one rendering")
}

func TestUnitTypeNames(t *testing.T) {
	for u := Overmind; u <= Devourer; u++ {
		got, ok := ParseUnitType(u.String())
		require.True(t, ok, u.String())
		assert.Equal(t, u, got)
	}
	assert.False(t, UnitType(16).Valid())
	_, ok := ParseUnitType("Zealot")
	assert.False(t, ok)
}
