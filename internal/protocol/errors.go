package protocol

import "errors"

// Sentinel errors for the protocol package.
var (
	// ErrUnknownCommand is returned for a well-formed message whose
	// command is not recognised.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMalformed is returned for input that is not a JSON object with a
	// string command member.
	ErrMalformed = errors.New("malformed message")

	// ErrMissingField is returned when a required member is absent.
	ErrMissingField = errors.New("missing field")
)
