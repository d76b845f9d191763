package engine

import "errors"

// Decoder error taxonomy. The external decoder wraps its failures with these
// sentinels so the engine can decide what is fatal for the request and what
// degrades gracefully.
var (
	// ErrDecodeUnavailable means no records can be produced at all (decoder
	// binary missing). Always fatal for the request.
	ErrDecodeUnavailable = errors.New("packet decoder unavailable")

	// ErrDecodeTimeout means a decoder invocation exceeded its deadline.
	ErrDecodeTimeout = errors.New("packet decode timed out")

	// ErrDecodeFailed means the decoder exited non-zero or produced
	// unreadable output.
	ErrDecodeFailed = errors.New("packet decode failed")
)
