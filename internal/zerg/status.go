package zerg

import (
	"fmt"
	"strconv"

	"firestige.xyz/zerg/internal/byteorder"
	"firestige.xyz/zerg/internal/core"
)

// statusFixedLen is the size of the status fields preceding the name.
const statusFixedLen = 12

const (
	minHP = -1 << 23
	maxHP = 1<<23 - 1
)

// Status reports the state of a unit.
type Status struct {
	HP       int32 // current hit points, 24-bit signed
	Armor    uint8
	MaxHP    uint32 // 24-bit
	Unit     UnitType
	MaxSpeed float32
	Name     string
}

func (Status) Type() Type { return TypeStatus }

// decodeStatus reads the 12-byte fixed part, then treats the rest of b as the name.
func decodeStatus(b []byte) (Status, error) {
	if len(b) < statusFixedLen {
		return Status{}, &PayloadError{Type: TypeStatus, Need: statusFixedLen, Have: len(b)}
	}
	return Status{
		HP:       byteorder.Int24(b[0:3]),
		Armor:    b[3],
		MaxHP:    byteorder.Uint24(b[4:7]),
		Unit:     UnitType(b[7]),
		MaxSpeed: byteorder.Float32(b[8:12]),
		Name:     string(b[statusFixedLen:]),
	}, nil
}

func (s Status) appendBinary(b []byte) ([]byte, error) {
	if s.HP < minHP || s.HP > maxHP {
		return nil, fmt.Errorf("current hit points %d: %w", s.HP, core.ErrValueOutOfRange)
	}
	if s.MaxHP > 0xFFFFFF {
		return nil, fmt.Errorf("max hit points %d: %w", s.MaxHP, core.ErrValueOutOfRange)
	}
	var fixed [statusFixedLen]byte
	byteorder.PutInt24(fixed[0:3], s.HP)
	fixed[3] = s.Armor
	byteorder.PutUint24(fixed[4:7], s.MaxHP)
	fixed[7] = byte(s.Unit)
	byteorder.PutFloat32(fixed[8:12], s.MaxSpeed)
	b = append(b, fixed[:]...)
	return append(b, s.Name...), nil
}

func (s Status) appendText(b []byte) []byte {
	b = append(b, "Max Hit Points: "...)
	b = strconv.AppendUint(b, uint64(s.MaxHP), 10)
	b = append(b, "\nCurrent Hit Points: "...)
	b = strconv.AppendInt(b, int64(s.HP), 10)
	b = append(b, "\nArmor: "...)
	b = strconv.AppendUint(b, uint64(s.Armor), 10)
	b = append(b, "\nType: "...)
	b = append(b, s.Unit.String()...)
	b = append(b, "\nMax Speed: "...)
	b = strconv.AppendFloat(b, float64(s.MaxSpeed), 'g', -1, 32)
	b = append(b, "\nName: "...)
	b = append(b, s.Name...)
	return append(b, '\n')
}

// parseStatus reads the status block; value belongs to the already consumed
// "Max Hit Points" line.
func parseStatus(value string, fr FieldReader) (Status, error) {
	var s Status
	limit, err := parseUint("Max Hit Points", value, 24)
	if err != nil {
		return s, err
	}
	s.MaxHP = uint32(limit)

	if value, err = fr.Field("Current Hit Points"); err != nil {
		return s, err
	}
	hp, err := parseInt("Current Hit Points", value, 24)
	if err != nil {
		return s, err
	}
	s.HP = int32(hp)

	if value, err = fr.Field("Armor"); err != nil {
		return s, err
	}
	armor, err := parseUint("Armor", value, 8)
	if err != nil {
		return s, err
	}
	s.Armor = uint8(armor)

	if value, err = fr.Field("Type"); err != nil {
		return s, err
	}
	unit, ok := ParseUnitType(firstToken(value))
	if !ok {
		return s, &ValueError{Label: "Type", Value: value, Err: errUnknownUnit}
	}
	s.Unit = unit

	if value, err = fr.Field("Max Speed"); err != nil {
		return s, err
	}
	if s.MaxSpeed, err = parseFloat32("Max Speed", value); err != nil {
		return s, err
	}

	if value, err = fr.Field("Name"); err != nil {
		return s, err
	}
	s.Name = trimLabelSpace(value)
	return s, nil
}
