package infrastructure

import "errors"

// Engine errors.
var (
	// ErrNothingLoaded is returned when an operation needs a loaded sound.
	ErrNothingLoaded = errors.New("no sound is loaded")

	// ErrUnsupportedFormat is returned when a sound's file type cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported sound format")

	// ErrNoPlayer is returned when the remote player has not been created yet.
	ErrNoPlayer = errors.New("no player for guild")

	// ErrNoNode is returned when no Lavalink node is available.
	ErrNoNode = errors.New("no available Lavalink node")

	// ErrEngineClosed is returned for commands issued after the engine was closed.
	ErrEngineClosed = errors.New("engine is closed")
)
