// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors shared by the codec packages.
var (
	// Capture container errors
	ErrUnsupportedFile = errors.New("zerg: unsupported capture file")

	// Packet decoding errors
	ErrPacketTooShort   = errors.New("zerg: packet too short")
	ErrUnsupportedProto = errors.New("zerg: unsupported protocol")
	ErrBadVersion       = errors.New("zerg: unsupported zerg version")
	ErrUnknownType      = errors.New("zerg: unknown payload type")

	// Encoding errors
	ErrValueOutOfRange = errors.New("zerg: value out of range")

	// Store errors
	ErrStoreFull = errors.New("zerg: packet store capacity exhausted")

	// Configuration errors
	ErrConfigInvalid = errors.New("zerg: invalid configuration")
)
