package domain

import "errors"

var (
	// ErrUnsupportedFormat means the payload shape was not recognized as
	// either supported tabular encoding.
	ErrUnsupportedFormat = errors.New("unsupported payload format")

	// ErrUndecodableEncoding means no candidate text encoding decoded the
	// delimited payload.
	ErrUndecodableEncoding = errors.New("payload not decodable with any supported encoding")

	// ErrMalformedBatch means the payload was structurally invalid after
	// all fallbacks, e.g. no records survived cleaning.
	ErrMalformedBatch = errors.New("malformed batch")

	// ErrShuttingDown is returned for ingestion attempts after shutdown
	// has begun.
	ErrShuttingDown = errors.New("service is shutting down")
)
