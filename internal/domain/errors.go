package domain

import "errors"

var (
	// ErrInvalidIdentifier is returned when the product identifier is missing,
	// too short, or not numeric. This is the only error rejected before the
	// pipeline runs.
	ErrInvalidIdentifier = errors.New("invalid product identifier")

	// ErrNoResult is returned when a source answered but had nothing useful
	ErrNoResult = errors.New("source returned no result")

	// ErrSourceDisabled is returned when an adapter has no API key or is
	// switched off by configuration
	ErrSourceDisabled = errors.New("source disabled by configuration")

	// ErrSourceUnavailable is returned for transport, timeout, status or
	// parse failures of an upstream source
	ErrSourceUnavailable = errors.New("upstream source unavailable")
)
