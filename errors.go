// Package lpx implements the log-polar hexagonal-cell (LPX) video pipeline:
// scan tables, the LPX frame type, the scan engine that populates a frame
// from a source image, and the movement-command semantics that retarget
// the scan's optical center.
package lpx

import "errors"

// Sentinel errors for the taxonomy described in spec.md section 7. Call
// sites that need to attach file, offset, or field context wrap these with
// fmt.Errorf("...: %w", Err...) rather than declaring new error values.
var (
	// ErrConfig indicates an invalid port, dimension, or path supplied at
	// server start. The server does not enter the running state.
	ErrConfig = errors.New("lpx: invalid configuration")

	// ErrInvalidScanTables indicates a scan-table header out of range, an
	// array length mismatch, an unsorted outer_pixel_index, or an
	// out-of-range cell index.
	ErrInvalidScanTables = errors.New("lpx: invalid scan tables")

	// ErrVideoOpen indicates the decoder refused to open the video file.
	// Fatal to server start.
	ErrVideoOpen = errors.New("lpx: video open failed")

	// ErrVideoRead indicates a mid-stream read failure. Terminates the
	// video loop unless loop_video causes a restart.
	ErrVideoRead = errors.New("lpx: video read failed")

	// ErrScan indicates an empty image, an unsupported channel count, or
	// tables incompatible with the requested scan. The frame is dropped
	// and the video loop continues.
	ErrScan = errors.New("lpx: scan failed")

	// ErrClientIO indicates a send or receive failure on a client socket.
	// The offending client is closed and removed.
	ErrClientIO = errors.New("lpx: client io failed")

	// ErrProtocol indicates an unrecognized command type or a short read
	// of a command. Treated identically to ErrClientIO by callers.
	ErrProtocol = errors.New("lpx: protocol error")
)
