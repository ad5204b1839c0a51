package lpx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// buildScanTables encodes a minimal valid scan-tables binary matching the
// header layout spec.md section 4.1 describes: fovea cells 0 and 1 (one
// inner centroid) followed by four outer pixel-index entries collapsing
// into peripheral cells 2 and 3.
func buildScanTables(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	header := []int32{
		0,  // total_length, not re-validated on load
		16, // map_width
		62, // spiral_period_int -> 62.5
		4,  // outer_length
		1,  // inner_length
		1,  // last_fovea_index
		3,  // last_cell_index
	}
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		t.Fatalf("writing header: %v", err)
	}

	outerPixelIndex := []int32{0, 10, 20, 30}
	if err := binary.Write(&buf, binary.LittleEndian, outerPixelIndex); err != nil {
		t.Fatalf("writing outer_pixel_index: %v", err)
	}
	outerCellIdx := []int32{2, 2, 3, 3}
	if err := binary.Write(&buf, binary.LittleEndian, outerCellIdx); err != nil {
		t.Fatalf("writing outer_pixel_cell_idx: %v", err)
	}

	innerCells := []int32{8, 8}
	if err := binary.Write(&buf, binary.LittleEndian, innerCells); err != nil {
		t.Fatalf("writing inner_cells: %v", err)
	}

	return buf.Bytes()
}

func TestLoadValid(t *testing.T) {
	data := buildScanTables(t)
	tables, err := Load(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tables.MapWidth != 16 {
		t.Errorf("MapWidth = %d, want 16", tables.MapWidth)
	}
	if tables.SpiralPeriod != 62.5 {
		t.Errorf("SpiralPeriod = %v, want 62.5", tables.SpiralPeriod)
	}
	if tables.TotalCells() != 4 {
		t.Errorf("TotalCells() = %d, want 4", tables.TotalCells())
	}
	if len(tables.InnerCells) != 1 || tables.InnerCells[0] != (Point{X: 8, Y: 8}) {
		t.Errorf("InnerCells = %+v, want [{8 8}]", tables.InnerCells)
	}
}

func TestLoadRejectsBadSpiralPeriod(t *testing.T) {
	data := buildScanTables(t)
	// spiral_period_int lives at int32 offset 2 in the header.
	binary.LittleEndian.PutUint32(data[8:12], uint32(int32(-1)))
	_, err := Load(bytes.NewReader(data))
	if !errors.Is(err, ErrInvalidScanTables) {
		t.Fatalf("Load error = %v, want ErrInvalidScanTables", err)
	}
}

func TestLoadRejectsNonPositiveMapWidth(t *testing.T) {
	data := buildScanTables(t)
	binary.LittleEndian.PutUint32(data[4:8], 0)
	_, err := Load(bytes.NewReader(data))
	if !errors.Is(err, ErrInvalidScanTables) {
		t.Fatalf("Load error = %v, want ErrInvalidScanTables", err)
	}
}

func TestLoadRejectsBadFoveaBounds(t *testing.T) {
	data := buildScanTables(t)
	// last_fovea_index at offset 5 set equal to last_cell_index (offset 6).
	binary.LittleEndian.PutUint32(data[20:24], 3)
	_, err := Load(bytes.NewReader(data))
	if !errors.Is(err, ErrInvalidScanTables) {
		t.Fatalf("Load error = %v, want ErrInvalidScanTables", err)
	}
}

func TestCellOf(t *testing.T) {
	data := buildScanTables(t)
	tables, err := Load(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		pixel int32
		want  int32
	}{
		{-1, 1},  // before the first entry falls back to last_fovea_index
		{0, 2},
		{9, 2},
		{10, 2},
		{19, 2},
		{20, 3},
		{29, 3},
		{30, 3},
		{1000, 3},
	}
	for _, tt := range tests {
		if got := tables.CellOf(tt.pixel); got != tt.want {
			t.Errorf("CellOf(%d) = %d, want %d", tt.pixel, got, tt.want)
		}
	}
}

func TestValidateDetectsUnsortedOuterIndex(t *testing.T) {
	data := buildScanTables(t)
	tables, err := Load(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tables.OuterPixelIndex[0], tables.OuterPixelIndex[1] = tables.OuterPixelIndex[1], tables.OuterPixelIndex[0]
	if err := tables.Validate(); !errors.Is(err, ErrInvalidScanTables) {
		t.Fatalf("Validate() = %v, want ErrInvalidScanTables", err)
	}
}
