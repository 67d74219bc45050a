package ingest

import "errors"

var (
	// ErrInvalidFormat is returned when a record line does not have the
	// sid,eid,events shape.
	ErrInvalidFormat = errors.New("invalid record format")

	// ErrEmptyInput is returned when the reader produces no records at
	// all and StrictMode requires at least one.
	ErrEmptyInput = errors.New("empty input")

	// ErrEventOutOfRange is returned when an event identifier falls
	// outside 0..=255.
	ErrEventOutOfRange = errors.New("event identifier out of range")
)
