// Package wire implements C6 of the LPX pipeline: the on-the-wire framing
// for LPX frames (server to client) and movement commands (client to
// server), plus the byte-identical single-frame file format, per
// spec.md section 4.6.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/rascol/lpximage"
)

// headerSize is the fixed eight-int32 LPX frame header, in bytes.
const headerSize = 32

// CmdNone and CmdMovement are the client-to-server command-type prefixes
// described in spec.md section 4.6. 0 is reserved for "no command".
const (
	CmdNone     uint32 = 0
	CmdMovement uint32 = 1
)

// EncodeFrame serializes frame to w using the framing in spec.md section
// 4.6: a little-endian int32 total size, the eight-int32 header, then
// length packed cells. maxCells is the table's total cell capacity;
// callers that do not track it separately may pass frame.Length.
func EncodeFrame(w io.Writer, frame *lpx.Frame, maxCells int32) error {
	dataSize := frame.Length * 4
	totalSize := int32(headerSize) + dataSize

	header := [8]int32{
		frame.Length,
		maxCells,
		int32(frame.SpiralPeriod), // receiver adds 0.5 back
		frame.SourceWidth,
		frame.SourceHeight,
		fixedPoint(frame.XOffset),
		fixedPoint(frame.YOffset),
		0, // reserved
	}

	if err := binary.Write(w, binary.LittleEndian, totalSize); err != nil {
		return fmt.Errorf("lpx/wire: writing total size: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("lpx/wire: writing header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, frame.Cells[:frame.Length]); err != nil {
		return fmt.Errorf("lpx/wire: writing cells: %w", err)
	}
	return nil
}

// DecodeFrame reads a frame previously written by EncodeFrame.
func DecodeFrame(r io.Reader) (*lpx.Frame, error) {
	var totalSize int32
	if err := binary.Read(r, binary.LittleEndian, &totalSize); err != nil {
		return nil, fmt.Errorf("lpx/wire: reading total size: %w", err)
	}
	if totalSize < headerSize {
		return nil, fmt.Errorf("lpx/wire: total size %d smaller than header", totalSize)
	}

	var header [8]int32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("lpx/wire: reading header: %w", err)
	}

	length := header[0]
	spiralPeriodInt := header[2]
	width := header[3]
	height := header[4]
	xOffsetFixed := header[5]
	yOffsetFixed := header[6]

	expectedDataSize := int32(totalSize) - headerSize
	if length*4 != expectedDataSize {
		return nil, fmt.Errorf("lpx/wire: length %d inconsistent with total size %d", length, totalSize)
	}

	cells := make([]uint32, length)
	if err := binary.Read(r, binary.LittleEndian, &cells); err != nil {
		return nil, fmt.Errorf("lpx/wire: reading cells: %w", err)
	}

	return &lpx.Frame{
		Cells:        cells,
		Length:       length,
		SpiralPeriod: float64(spiralPeriodInt) + 0.5,
		SourceWidth:  width,
		SourceHeight: height,
		XOffset:      unfixedPoint(xOffsetFixed),
		YOffset:      unfixedPoint(yOffsetFixed),
	}, nil
}

// EncodeMovementCommand writes cmd to w with the CmdMovement prefix, per
// spec.md section 4.6.
func EncodeMovementCommand(w io.Writer, cmd lpx.MovementCommand) error {
	if err := binary.Write(w, binary.LittleEndian, CmdMovement); err != nil {
		return fmt.Errorf("lpx/wire: writing command type: %w", err)
	}
	payload := [3]float32{cmd.DeltaX, cmd.DeltaY, cmd.StepSize}
	if err := binary.Write(w, binary.LittleEndian, &payload); err != nil {
		return fmt.Errorf("lpx/wire: writing command payload: %w", err)
	}
	return nil
}

// DecodeMovementCommand reads one movement command header and payload
// from r. A cmdType of CmdNone with no further bytes represents "no
// command pending"; callers polling a non-blocking socket treat a
// timeout/EAGAIN on the initial read as this case themselves, not via
// this function.
func DecodeMovementCommand(r io.Reader) (lpx.MovementCommand, uint32, error) {
	var cmdType uint32
	if err := binary.Read(r, binary.LittleEndian, &cmdType); err != nil {
		return lpx.MovementCommand{}, 0, err
	}
	if cmdType == CmdNone {
		return lpx.MovementCommand{}, CmdNone, nil
	}
	if cmdType != CmdMovement {
		return lpx.MovementCommand{}, cmdType, fmt.Errorf("%w: unrecognized command type %d", errProtocol, cmdType)
	}
	var payload [3]float32
	if err := binary.Read(r, binary.LittleEndian, &payload); err != nil {
		return lpx.MovementCommand{}, cmdType, fmt.Errorf("lpx/wire: short command payload: %w", err)
	}
	return lpx.MovementCommand{DeltaX: payload[0], DeltaY: payload[1], StepSize: payload[2]}, cmdType, nil
}

func fixedPoint(v float64) int32 {
	return int32(math.Round(v * 1e5))
}

func unfixedPoint(fixed int32) float64 {
	return float64(fixed) / 1e5
}
