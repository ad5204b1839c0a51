package lpx

// offsetFixedScale is the fixed-point scale applied to x_offset/y_offset
// when serialized on the wire or to disk, per spec.md section 3.
const offsetFixedScale = 1e5

// Frame is an in-memory LPX frame: the populated cell array plus the
// header fields describing the scan that produced it. Cells is mutated in
// place during a scan (spec.md section 4.2) and is treated as immutable by
// every consumer once Scan returns.
type Frame struct {
	Cells        []uint32 // packed B-G-R-0 colors, length == Length
	Length       int32
	SpiralPeriod float64
	SourceWidth  int32
	SourceHeight int32
	XOffset      float64
	YOffset      float64
}

// NewFrame allocates a Frame with totalCells zeroed cells, ready to be
// populated by Scan.
func NewFrame(totalCells int32, spiralPeriod float64, sourceWidth, sourceHeight int32) *Frame {
	return &Frame{
		Cells:        make([]uint32, totalCells),
		Length:       totalCells,
		SpiralPeriod: spiralPeriod,
		SourceWidth:  sourceWidth,
		SourceHeight: sourceHeight,
	}
}

// PackColor packs 8-bit R, G, B channel values into the B-G-R-0 layout
// described in spec.md section 3: byte 0 is blue, byte 1 is green, byte 2
// is red, byte 3 is reserved and always zero.
func PackColor(r, g, b uint8) uint32 {
	return uint32(b) | uint32(g)<<8 | uint32(r)<<16
}

// UnpackColor splits a packed B-G-R-0 color back into its channels.
func UnpackColor(c uint32) (r, g, b uint8) {
	b = uint8(c)
	g = uint8(c >> 8)
	r = uint8(c >> 16)
	return r, g, b
}

// Equal reports whether two frames hold identical cells and header fields,
// with XOffset/YOffset compared to within 1e-5 as required by spec.md
// property P4 (wire round-trip fidelity).
func (f *Frame) Equal(other *Frame) bool {
	if f.Length != other.Length ||
		f.SpiralPeriod != other.SpiralPeriod ||
		f.SourceWidth != other.SourceWidth ||
		f.SourceHeight != other.SourceHeight {
		return false
	}
	if abs(f.XOffset-other.XOffset) > 1e-5 || abs(f.YOffset-other.YOffset) > 1e-5 {
		return false
	}
	if len(f.Cells) != len(other.Cells) {
		return false
	}
	for i := range f.Cells {
		if f.Cells[i] != other.Cells[i] {
			return false
		}
	}
	return true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
