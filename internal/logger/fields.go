package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so that output can be
// aggregated and queried by field.
const (
	// Operation
	KeyRequestID = "request_id" // Caller-chosen request identifier
	KeyProcedure = "procedure"  // Operation name: WRITE, READ
	KeyStatus    = "status"     // Operation outcome: ok, error, not_found

	// I/O
	KeyOffset       = "offset"        // Byte offset in the backing file
	KeyLength       = "length"        // Original (unpadded) payload length
	KeyPaddedLength = "padded_length" // Block-aligned length written to disk
	KeyBytesRead    = "bytes_read"    // Actual bytes read
	KeyBytesWritten = "bytes_written" // Actual bytes written
	KeyPath         = "path"          // Backing file path

	// Client identification
	KeyClientAddr = "client_addr" // Client address as reported by the transport

	// Timing & errors
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)

// Err returns a slog.Attr for an error value, tolerating nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// FormatOffset renders an offset the way it appears in tooling output.
func FormatOffset(offset uint64) string {
	return fmt.Sprintf("0x%x", offset)
}
