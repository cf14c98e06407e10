package zerg

import (
	"encoding/binary"
	"errors"
	"math"
	"strconv"

	"firestige.xyz/zerg/internal/byteorder"
)

// CommandCode selects the order carried by a Command payload. Odd codes
// carry two parameters.
type CommandCode uint16

const (
	GetStatus CommandCode = 0
	Goto      CommandCode = 1
	GetGPS    CommandCode = 2
	Return    CommandCode = 4
	SetGroup  CommandCode = 5
	Stop      CommandCode = 6
	Repeat    CommandCode = 7
)

var commandNames = map[CommandCode]string{
	GetStatus: "GET_STATUS",
	Goto:      "GOTO",
	GetGPS:    "GET_GPS",
	Return:    "RETURN",
	SetGroup:  "SET_GROUP",
	Stop:      "STOP",
	Repeat:    "REPEAT",
}

func (c CommandCode) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return strconv.Itoa(int(c))
}

// HasParams reports whether the command carries both parameters on the wire.
func (c CommandCode) HasParams() bool {
	return c%2 == 1
}

// ParseCommandCode accepts a command name or its decimal value.
func ParseCommandCode(s string) (CommandCode, bool) {
	for code, name := range commandNames {
		if name == s {
			return code, true
		}
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, false
	}
	return CommandCode(n), true
}

const (
	shortCommandLen = 2
	longCommandLen  = 8
)

// Command orders a unit. Param2 holds the raw 32 bits of the second
// parameter; its meaning depends on Code.
type Command struct {
	Code   CommandCode
	Param1 uint16
	Param2 uint32
}

func (Command) Type() Type { return TypeCommand }

// GotoCommand sends a unit distance metres along bearing.
func GotoCommand(bearing float32, distance uint16) Command {
	return Command{Code: Goto, Param1: distance, Param2: math.Float32bits(bearing)}
}

// SetGroupCommand adds a unit to, or removes it from, group.
func SetGroupCommand(add bool, group int32) Command {
	c := Command{Code: SetGroup, Param2: uint32(group)}
	if add {
		c.Param1 = 1
	}
	return c
}

// RepeatCommand asks for the packet with the given sequence number again.
func RepeatCommand(sequence uint32) Command {
	return Command{Code: Repeat, Param2: sequence}
}

// Bearing interprets Param2 as a GOTO bearing in degrees.
func (c Command) Bearing() float32 { return math.Float32frombits(c.Param2) }

// Distance interprets Param1 as a GOTO distance in metres.
func (c Command) Distance() uint16 { return c.Param1 }

// Add reports whether a SET_GROUP command adds to the group.
func (c Command) Add() bool { return c.Param1 != 0 }

// Group interprets Param2 as a signed SET_GROUP group id.
func (c Command) Group() int32 { return int32(c.Param2) }

// RepeatSequence interprets Param2 as a REPEAT sequence number.
func (c Command) RepeatSequence() uint32 { return c.Param2 }

func (c Command) wireLen() int {
	if c.Code.HasParams() {
		return longCommandLen
	}
	return shortCommandLen
}

// decodeCommand reads the code first; its parity decides whether the
// parameters follow. Bytes past the implied length are ignored.
func decodeCommand(b []byte) (Command, error) {
	if len(b) < shortCommandLen {
		return Command{}, &PayloadError{Type: TypeCommand, Need: shortCommandLen, Have: len(b)}
	}
	c := Command{Code: CommandCode(binary.BigEndian.Uint16(b[0:2]))}
	if !c.Code.HasParams() {
		return c, nil
	}
	if len(b) < longCommandLen {
		return Command{}, &PayloadError{Type: TypeCommand, Need: longCommandLen, Have: len(b)}
	}
	c.Param1 = binary.BigEndian.Uint16(b[2:4])
	if c.Code == Goto {
		c.Param2 = math.Float32bits(byteorder.Float32(b[4:8]))
	} else {
		c.Param2 = binary.BigEndian.Uint32(b[4:8])
	}
	return c, nil
}

func (c Command) appendBinary(b []byte) ([]byte, error) {
	var w [longCommandLen]byte
	binary.BigEndian.PutUint16(w[0:2], uint16(c.Code))
	if c.Code.HasParams() {
		binary.BigEndian.PutUint16(w[2:4], c.Param1)
		if c.Code == Goto {
			byteorder.PutFloat32(w[4:8], c.Bearing())
		} else {
			binary.BigEndian.PutUint32(w[4:8], c.Param2)
		}
	}
	return append(b, w[:c.wireLen()]...), nil
}

func (c Command) appendText(b []byte) []byte {
	b = append(b, "Command: "...)
	b = append(b, c.Code.String()...)
	b = append(b, '\n')
	switch c.Code {
	case Goto:
		b = append(b, "Bearing: "...)
		b = strconv.AppendFloat(b, float64(c.Bearing()), 'g', -1, 32)
		b = append(b, " degrees\nDistance: "...)
		b = strconv.AppendUint(b, uint64(c.Distance()), 10)
		b = append(b, " m\n"...)
	case SetGroup:
		if c.Add() {
			b = append(b, "Action: Add to\n"...)
		} else {
			b = append(b, "Action: Remove from\n"...)
		}
		b = append(b, "Group: "...)
		b = strconv.AppendInt(b, int64(c.Group()), 10)
		b = append(b, '\n')
	case Repeat:
		b = append(b, "Sequence: "...)
		b = strconv.AppendUint(b, uint64(c.RepeatSequence()), 10)
		b = append(b, '\n')
	default:
		if c.Code.HasParams() {
			b = append(b, "Parameter 1: "...)
			b = strconv.AppendUint(b, uint64(c.Param1), 10)
			b = append(b, "\nParameter 2: "...)
			b = strconv.AppendUint(b, uint64(c.Param2), 10)
			b = append(b, '\n')
		}
	}
	return b
}

var (
	errUnknownCommand = errors.New("unknown command")
	errUnknownAction  = errors.New("action must be \"Add to\" or \"Remove from\"")
)

func parseCommand(value string, fr FieldReader) (Command, error) {
	code, ok := ParseCommandCode(firstToken(value))
	if !ok {
		return Command{}, &ValueError{Label: "Command", Value: value, Err: errUnknownCommand}
	}
	c := Command{Code: code}

	switch code {
	case Goto:
		value, err := fr.Field("Bearing")
		if err != nil {
			return c, err
		}
		bearing, err := parseFloat32("Bearing", value)
		if err != nil {
			return c, err
		}
		c.Param2 = math.Float32bits(bearing)
		if value, err = fr.Field("Distance"); err != nil {
			return c, err
		}
		distance, err := parseUint("Distance", value, 16)
		if err != nil {
			return c, err
		}
		c.Param1 = uint16(distance)
	case SetGroup:
		value, err := fr.Field("Action")
		if err != nil {
			return c, err
		}
		switch trimLabelSpace(value) {
		case "Add to":
			c.Param1 = 1
		case "Remove from":
			c.Param1 = 0
		default:
			return c, &ValueError{Label: "Action", Value: value, Err: errUnknownAction}
		}
		if value, err = fr.Field("Group"); err != nil {
			return c, err
		}
		group, err := parseInt("Group", value, 32)
		if err != nil {
			return c, err
		}
		c.Param2 = uint32(int32(group))
	case Repeat:
		value, err := fr.Field("Sequence")
		if err != nil {
			return c, err
		}
		seq, err := parseUint("Sequence", value, 32)
		if err != nil {
			return c, err
		}
		c.Param2 = uint32(seq)
	default:
		if !code.HasParams() {
			return c, nil
		}
		value, err := fr.Field("Parameter 1")
		if err != nil {
			return c, err
		}
		p1, err := parseUint("Parameter 1", value, 16)
		if err != nil {
			return c, err
		}
		if value, err = fr.Field("Parameter 2"); err != nil {
			return c, err
		}
		p2, err := parseUint("Parameter 2", value, 32)
		if err != nil {
			return c, err
		}
		c.Param1, c.Param2 = uint16(p1), uint32(p2)
	}
	return c, nil
}
