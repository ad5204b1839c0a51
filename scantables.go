package lpx

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// minSpiralPeriod and maxSpiralPeriod bound the acceptable spiral_period
// range on load, per spec.md section 3.
const (
	minSpiralPeriod = 0.1
	maxSpiralPeriod = 1000.0

	scanTablesHeaderInt32s = 7
)

// Point is an integer (x, y) centroid in scan-map coordinates.
type Point struct {
	X, Y int32
}

// ScanTables is the immutable, precomputed mapping from scan-map pixel
// index to LPX cell index, plus the fovea centroid table. It is loaded
// once per process and is safe to share by reference across goroutines;
// nothing in this type is mutated after Load returns.
type ScanTables struct {
	MapWidth        int32
	SpiralPeriod    float64
	LastFoveaIndex  int32
	LastCellIndex   int32
	InnerCells      []Point
	OuterPixelIndex []int32
	OuterCellIdx    []int32
}

// TotalCells is the number of distinct LPX cells described by the tables.
func (t *ScanTables) TotalCells() int32 {
	return t.LastCellIndex + 1
}

// Load reads a binary scan-table resource from r per the header layout in
// spec.md section 4.1 and validates it against the invariants in section 3.
// A failed validation returns an error wrapping ErrInvalidScanTables.
func Load(r io.Reader) (*ScanTables, error) {
	header := make([]int32, scanTablesHeaderInt32s)
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("lpx: reading scan-table header: %w", err)
	}

	totalLength := header[0]
	mapWidth := header[1]
	spiralPeriodInt := header[2]
	outerLength := header[3]
	innerLength := header[4]
	lastFoveaIndex := header[5]
	lastCellIndex := header[6]

	_ = totalLength // declared size is not re-validated against stream length; reads are authoritative

	if mapWidth <= 0 {
		return nil, fmt.Errorf("%w: map_width %d is not positive", ErrInvalidScanTables, mapWidth)
	}
	if outerLength < 0 || innerLength < 0 {
		return nil, fmt.Errorf("%w: negative array length", ErrInvalidScanTables)
	}

	spiralPeriod := float64(spiralPeriodInt) + 0.5
	if spiralPeriod <= minSpiralPeriod || spiralPeriod >= maxSpiralPeriod {
		return nil, fmt.Errorf("%w: spiral_period %.4f out of range (%.1f, %.1f)",
			ErrInvalidScanTables, spiralPeriod, minSpiralPeriod, maxSpiralPeriod)
	}
	if !(lastFoveaIndex > 0 && lastFoveaIndex < lastCellIndex) {
		return nil, fmt.Errorf("%w: last_fovea_index %d must satisfy 0 < idx < last_cell_index %d",
			ErrInvalidScanTables, lastFoveaIndex, lastCellIndex)
	}

	outerPixelIndex := make([]int32, outerLength)
	if err := binary.Read(r, binary.LittleEndian, &outerPixelIndex); err != nil {
		return nil, fmt.Errorf("lpx: reading outer_pixel_index: %w", err)
	}
	outerCellIdx := make([]int32, outerLength)
	if err := binary.Read(r, binary.LittleEndian, &outerCellIdx); err != nil {
		return nil, fmt.Errorf("lpx: reading outer_pixel_cell_idx: %w", err)
	}

	innerCells := make([]Point, innerLength)
	for i := range innerCells {
		var raw [2]int32
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return nil, fmt.Errorf("lpx: reading inner_cells[%d]: %w", i, err)
		}
		innerCells[i] = Point{X: raw[0], Y: raw[1]}
	}

	tables := &ScanTables{
		MapWidth:        mapWidth,
		SpiralPeriod:    spiralPeriod,
		LastFoveaIndex:  lastFoveaIndex,
		LastCellIndex:   lastCellIndex,
		InnerCells:      innerCells,
		OuterPixelIndex: outerPixelIndex,
		OuterCellIdx:    outerCellIdx,
	}

	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return tables, nil
}

// Validate re-checks the invariants from spec.md section 3 against an
// already-constructed ScanTables. Load calls this internally; it is
// exposed separately so a ScanTables assembled from a non-Load source
// (for example, fetched over a network and decoded elsewhere) can be
// checked before use.
func (t *ScanTables) Validate() error {
	totalCells := t.TotalCells()

	if !sort.SliceIsSorted(t.OuterPixelIndex, func(i, j int) bool {
		return t.OuterPixelIndex[i] < t.OuterPixelIndex[j]
	}) {
		return fmt.Errorf("%w: outer_pixel_index is not sorted", ErrInvalidScanTables)
	}
	for _, idx := range t.OuterCellIdx {
		if idx < 0 || idx >= totalCells {
			return fmt.Errorf("%w: outer_pixel_cell_idx %d out of range [0, %d)", ErrInvalidScanTables, idx, totalCells)
		}
	}
	for _, p := range t.InnerCells {
		if p.X < 0 || p.X >= t.MapWidth || p.Y < 0 || p.Y >= t.MapWidth {
			return fmt.Errorf("%w: inner cell (%d, %d) outside scan map of width %d",
				ErrInvalidScanTables, p.X, p.Y, t.MapWidth)
		}
	}
	if len(t.OuterPixelIndex) != len(t.OuterCellIdx) {
		return fmt.Errorf("%w: outer_pixel_index and outer_pixel_cell_idx length mismatch", ErrInvalidScanTables)
	}
	return nil
}

// CellOf returns the LPX cell index that collects scan-map pixel index p,
// via binary search on OuterPixelIndex per spec.md section 4.1: the cell
// is OuterCellIdx[j] for the largest j with OuterPixelIndex[j] <= p, or
// LastFoveaIndex if no such j exists.
func (t *ScanTables) CellOf(p int32) int32 {
	// sort.Search finds the first index where OuterPixelIndex[i] > p;
	// the entry we want is the one immediately before it.
	j := sort.Search(len(t.OuterPixelIndex), func(i int) bool {
		return t.OuterPixelIndex[i] > p
	})
	if j == 0 {
		return t.LastFoveaIndex
	}
	return t.OuterCellIdx[j-1]
}
