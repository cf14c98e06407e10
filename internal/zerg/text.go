package zerg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FieldReader yields the "Label: value" lines of one text record.
// Values are returned verbatim, including the space after the colon.
type FieldReader interface {
	// Field consumes the next line, failing unless its label is label.
	Field(label string) (string, error)
	// Next consumes the next line whatever its label.
	Next() (label, value string, err error)
}

// ValueError reports a malformed value on a correctly labelled line.
type ValueError struct {
	Label string
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Label, strings.TrimSpace(e.Value), e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }

// UnknownBlockError reports a payload block whose first label selects no variant.
type UnknownBlockError struct {
	Label string
}

func (e *UnknownBlockError) Error() string {
	return fmt.Sprintf("unknown payload block %q", e.Label)
}

var (
	errMissingValue = errors.New("missing value")
	errUnknownUnit  = errors.New("unknown unit type")
)

// PayloadLabels lists the first label of each payload block.
var PayloadLabels = []string{"Message", "Max Hit Points", "Command", "Latitude"}

// AppendText appends the text form of p, one "Label: value" line per field.
func (p Packet) AppendText(b []byte) []byte {
	b = append(b, "Version: "...)
	b = strconv.AppendUint(b, uint64(p.Version), 10)
	b = append(b, "\nSequence: "...)
	b = strconv.AppendUint(b, uint64(p.Sequence), 10)
	b = append(b, "\nFrom: "...)
	b = strconv.AppendUint(b, uint64(p.Src), 10)
	b = append(b, "\nTo: "...)
	b = strconv.AppendUint(b, uint64(p.Dst), 10)
	b = append(b, '\n')
	if p.Payload != nil {
		b = p.Payload.appendText(b)
	}
	return b
}

// MarshalText implements encoding.TextMarshaler.
func (p Packet) MarshalText() ([]byte, error) {
	return p.AppendText(nil), nil
}

// PayloadText returns the text block of a single payload.
func PayloadText(p Payload) string {
	return string(p.appendText(nil))
}

// ReadText reads one record from fr. The header length is filled in from
// the serialized payload size.
func ReadText(fr FieldReader) (Packet, error) {
	var p Packet

	value, err := fr.Field("Version")
	if err != nil {
		return p, err
	}
	version, err := parseUint("Version", value, 4)
	if err != nil {
		return p, err
	}
	p.Version = uint8(version)

	if value, err = fr.Field("Sequence"); err != nil {
		return p, err
	}
	seq, err := parseUint("Sequence", value, 32)
	if err != nil {
		return p, err
	}
	p.Sequence = uint32(seq)

	if value, err = fr.Field("From"); err != nil {
		return p, err
	}
	src, err := parseUint("From", value, 16)
	if err != nil {
		return p, err
	}
	p.Src = uint16(src)

	if value, err = fr.Field("To"); err != nil {
		return p, err
	}
	dst, err := parseUint("To", value, 16)
	if err != nil {
		return p, err
	}
	p.Dst = uint16(dst)

	if p.Payload, err = ParsePayloadText(fr); err != nil {
		return p, err
	}
	p.Type = p.Payload.Type()
	raw, err := EncodePayload(p.Payload)
	if err != nil {
		return p, err
	}
	p.Length = uint32(HeaderLen + len(raw))
	return p, nil
}

// ParsePayloadText reads a payload block; its first label selects the variant.
func ParsePayloadText(fr FieldReader) (Payload, error) {
	label, value, err := fr.Next()
	if err != nil {
		return nil, err
	}
	switch label {
	case "Message":
		return parseMessage(value), nil
	case "Max Hit Points":
		return parseStatus(value, fr)
	case "Command":
		return parseCommand(value, fr)
	case "Latitude":
		return parseGPS(value, fr)
	default:
		return nil, &UnknownBlockError{Label: label}
	}
}

// trimLabelSpace drops the single space the serializer puts after the colon.
func trimLabelSpace(value string) string {
	return strings.TrimPrefix(value, " ")
}

// firstToken returns the first whitespace separated token, so that unit
// suffixes such as "degrees" or "m/s" are accepted and ignored.
func firstToken(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func parseUint(label, value string, bits int) (uint64, error) {
	tok := firstToken(value)
	if tok == "" {
		return 0, &ValueError{Label: label, Value: value, Err: errMissingValue}
	}
	n, err := strconv.ParseUint(tok, 10, bits)
	if err != nil {
		return 0, &ValueError{Label: label, Value: value, Err: err}
	}
	return n, nil
}

func parseInt(label, value string, bits int) (int64, error) {
	tok := firstToken(value)
	if tok == "" {
		return 0, &ValueError{Label: label, Value: value, Err: errMissingValue}
	}
	n, err := strconv.ParseInt(tok, 10, bits)
	if err != nil {
		return 0, &ValueError{Label: label, Value: value, Err: err}
	}
	return n, nil
}

func parseFloat32(label, value string) (float32, error) {
	tok := firstToken(value)
	if tok == "" {
		return 0, &ValueError{Label: label, Value: value, Err: errMissingValue}
	}
	f, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, &ValueError{Label: label, Value: value, Err: err}
	}
	return float32(f), nil
}
