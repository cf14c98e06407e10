package zerg

import "strconv"

// UnitType is the kind of unit reporting a status.
type UnitType uint8

const (
	Overmind UnitType = iota
	Larva
	Cerebrate
	Overlord
	Queen
	Drone
	Zergling
	Lurker
	Broodling
	Hydralisk
	Guardian
	Scourge
	Ultralisk
	Mutalisk
	Defiler
	Devourer
)

var unitNames = [...]string{
	Overmind:  "Overmind",
	Larva:     "Larva",
	Cerebrate: "Cerebrate",
	Overlord:  "Overlord",
	Queen:     "Queen",
	Drone:     "Drone",
	Zergling:  "Zergling",
	Lurker:    "Lurker",
	Broodling: "Broodling",
	Hydralisk: "Hydralisk",
	Guardian:  "Guardian",
	Scourge:   "Scourge",
	Ultralisk: "Ultralisk",
	Mutalisk:  "Mutalisk",
	Defiler:   "Defiler",
	Devourer:  "Devourer",
}

// Valid reports whether u has a name.
func (u UnitType) Valid() bool {
	return int(u) < len(unitNames)
}

// String returns the unit name, or the decimal value for unnamed kinds.
func (u UnitType) String() string {
	if u.Valid() {
		return unitNames[u]
	}
	return strconv.Itoa(int(u))
}

// ParseUnitType looks up a unit by name.
func ParseUnitType(name string) (UnitType, bool) {
	for i, n := range unitNames {
		if n == name {
			return UnitType(i), true
		}
	}
	return 0, false
}
