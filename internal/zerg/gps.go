package zerg

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"firestige.xyz/zerg/internal/byteorder"
)

const gpsLen = 32

// GPS reports a unit position. Coordinates are decimal degrees.
type GPS struct {
	Longitude float64
	Latitude  float64
	Altitude  float32 // fathoms
	Bearing   float32 // degrees
	Speed     float32 // m/s
	Accuracy  float32 // m
}

func (GPS) Type() Type { return TypeGPS }

func decodeGPS(b []byte) (GPS, error) {
	if len(b) < gpsLen {
		return GPS{}, &PayloadError{Type: TypeGPS, Need: gpsLen, Have: len(b)}
	}
	return GPS{
		Longitude: byteorder.Float64(b[0:8]),
		Latitude:  byteorder.Float64(b[8:16]),
		Altitude:  byteorder.Float32(b[16:20]),
		Bearing:   byteorder.Float32(b[20:24]),
		Speed:     byteorder.Float32(b[24:28]),
		Accuracy:  byteorder.Float32(b[28:32]),
	}, nil
}

func (g GPS) appendBinary(b []byte) ([]byte, error) {
	var w [gpsLen]byte
	byteorder.PutFloat64(w[0:8], g.Longitude)
	byteorder.PutFloat64(w[8:16], g.Latitude)
	byteorder.PutFloat32(w[16:20], g.Altitude)
	byteorder.PutFloat32(w[20:24], g.Bearing)
	byteorder.PutFloat32(w[24:28], g.Speed)
	byteorder.PutFloat32(w[28:32], g.Accuracy)
	return append(b, w[:]...), nil
}

func (g GPS) appendText(b []byte) []byte {
	b = append(b, "Latitude: "...)
	b = appendDMS(b, g.Latitude, 'N', 'S')
	b = append(b, "\nLongitude: "...)
	b = appendDMS(b, g.Longitude, 'E', 'W')
	b = append(b, "\nAltitude: "...)
	b = strconv.AppendFloat(b, float64(g.Altitude), 'f', -1, 32)
	b = append(b, " fathoms\nBearing: "...)
	b = strconv.AppendFloat(b, float64(g.Bearing), 'f', -1, 32)
	b = append(b, " deg.\nSpeed: "...)
	b = strconv.AppendFloat(b, float64(g.Speed), 'f', -1, 32)
	b = append(b, " m/s\nAccuracy: "...)
	b = strconv.AppendFloat(b, float64(g.Accuracy), 'f', -1, 32)
	return append(b, " m\n"...)
}

// DMS splits a decimal coordinate into whole degrees, whole minutes and
// seconds of its absolute value.
func DMS(v float64) (degrees, minutes, seconds float64) {
	abs := math.Abs(v)
	degrees = math.Floor(abs)
	m := (abs - degrees) * 60
	minutes = math.Floor(m)
	seconds = (m - minutes) * 60
	return degrees, minutes, seconds
}

// appendDMS renders v as `D° M' S.SS" H`. The hemisphere comes from the sign of v.
func appendDMS(b []byte, v float64, pos, neg byte) []byte {
	d, m, s := DMS(v)
	// Seconds are printed with two decimals; carry a value that rounds to 60.
	if math.Round(s*100) >= 6000 {
		s = 0
		if m++; m >= 60 {
			m = 0
			d++
		}
	}
	hemi := pos
	if math.Signbit(v) {
		hemi = neg
	}
	b = strconv.AppendFloat(b, d, 'f', -1, 64)
	b = append(b, "° "...)
	b = strconv.AppendFloat(b, m, 'f', -1, 64)
	b = append(b, "' "...)
	b = append(b, fmt.Sprintf("%.2f", s)...)
	b = append(b, '"', ' ', hemi)
	return b
}

var errBadCoordinate = errors.New(`coordinate must look like D° M' S.SS" H`)

// parseDMS is the inverse of appendDMS. The value is negative when the
// degrees token carries a minus sign or the hemisphere letter is neg.
func parseDMS(label, value string, pos, neg byte) (float64, error) {
	fields := strings.Fields(value)
	if len(fields) != 3 && len(fields) != 4 {
		return 0, &ValueError{Label: label, Value: value, Err: errBadCoordinate}
	}
	degTok := strings.TrimSuffix(fields[0], "°")
	deg, err := strconv.ParseFloat(degTok, 64)
	if err != nil {
		return 0, &ValueError{Label: label, Value: value, Err: err}
	}
	mins, err := strconv.ParseFloat(strings.TrimSuffix(fields[1], "'"), 64)
	if err != nil {
		return 0, &ValueError{Label: label, Value: value, Err: err}
	}
	secs, err := strconv.ParseFloat(strings.TrimSuffix(fields[2], `"`), 64)
	if err != nil {
		return 0, &ValueError{Label: label, Value: value, Err: err}
	}

	negative := strings.HasPrefix(degTok, "-")
	if len(fields) == 4 {
		switch h := fields[3]; {
		case len(h) == 1 && h[0] == neg:
			negative = true
		case len(h) == 1 && h[0] == pos:
		default:
			return 0, &ValueError{Label: label, Value: value, Err: errBadCoordinate}
		}
	}

	v := math.Abs(deg) + mins/60 + secs/3600
	if negative {
		v = -v
	}
	return v, nil
}

// parseGPS reads the GPS block; value belongs to the already consumed "Latitude" line.
func parseGPS(value string, fr FieldReader) (GPS, error) {
	var g GPS
	var err error
	if g.Latitude, err = parseDMS("Latitude", value, 'N', 'S'); err != nil {
		return g, err
	}
	if value, err = fr.Field("Longitude"); err != nil {
		return g, err
	}
	if g.Longitude, err = parseDMS("Longitude", value, 'E', 'W'); err != nil {
		return g, err
	}
	if value, err = fr.Field("Altitude"); err != nil {
		return g, err
	}
	if g.Altitude, err = parseFloat32("Altitude", value); err != nil {
		return g, err
	}
	if value, err = fr.Field("Bearing"); err != nil {
		return g, err
	}
	if g.Bearing, err = parseFloat32("Bearing", value); err != nil {
		return g, err
	}
	if value, err = fr.Field("Speed"); err != nil {
		return g, err
	}
	if g.Speed, err = parseFloat32("Speed", value); err != nil {
		return g, err
	}
	if value, err = fr.Field("Accuracy"); err != nil {
		return g, err
	}
	if g.Accuracy, err = parseFloat32("Accuracy", value); err != nil {
		return g, err
	}
	return g, nil
}
