package lpx

import (
	"fmt"
	"math"
	"runtime"

	"github.com/alitto/pond"
	"github.com/samber/lo"
)

// maxPeripheralStripes bounds the row-stripe fan-out of Phase B to
// min(4, hardware concurrency), per spec.md section 4.2 Phase B step 3.
const maxPeripheralStripes = 4

// minStripeRows is the minimum rows-per-stripe required before the
// peripheral phase bothers splitting work across goroutines at all.
const minStripeRows = 10

// maxSpiralRadius bounds the exponential getSpiralRadius formula so it
// never overflows int32 conversion; any image is far smaller than this,
// so the bounding box always ends up clipped to the image rectangle for
// realistic tables (see DESIGN.md for the resolution of the spec's
// "some constant" ambiguity in the radius formula).
const maxSpiralRadius = 1 << 20

// ScanEngine transforms (image, cx, cy) into a populated LPX Frame using
// the tables supplied at construction. It owns a persistent worker pool
// for the peripheral accumulation phase (spec.md section 9: "a persistent
// worker pool" rather than a nested thread launch per scan) and a reused
// accumulator and per-stripe buffers to avoid per-scan allocation.
type ScanEngine struct {
	tables *ScanTables
	pool   *pond.WorkerPool

	shared  *accumulator
	stripes []*accumulator
}

// NewScanEngine constructs a ScanEngine bound to tables. The returned
// engine owns a worker pool sized to maxPeripheralStripes and must be
// closed with Close when no longer needed.
func NewScanEngine(tables *ScanTables) *ScanEngine {
	n := maxPeripheralStripes
	pool := pond.New(n, 0, pond.MinWorkers(n))

	stripes := make([]*accumulator, n)
	for i := range stripes {
		stripes[i] = newAccumulator(tables.TotalCells())
	}

	return &ScanEngine{
		tables:  tables,
		pool:    pool,
		shared:  newAccumulator(tables.TotalCells()),
		stripes: stripes,
	}
}

// Close stops the engine's worker pool, waiting for in-flight stripes to
// finish.
func (e *ScanEngine) Close() {
	e.pool.StopAndWait()
}

// getSpiralRadius implements spec.md section 4.2 Phase B step 1.
func getSpiralRadius(totalCells int32, spiralPeriod float64) int {
	a := spiralPeriod / (math.Pi / 3)
	exponent := float64(totalCells-1) / a
	r := a * math.Exp(exponent)
	if math.IsNaN(r) || math.IsInf(r, 0) || r > maxSpiralRadius {
		return maxSpiralRadius
	}
	return int(math.Floor(r))
}

// Scan transforms image into a populated LPX Frame centered at (cx, cy)
// using e's tables, per the three-phase algorithm in spec.md section 4.2.
func (e *ScanEngine) Scan(img *Image, cx, cy float64) (*Frame, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrScan)
	}
	if img.Channels != 1 && img.Channels != 3 {
		return nil, fmt.Errorf("%w: unsupported channel count %d", ErrScan, img.Channels)
	}

	totalCells := e.tables.TotalCells()
	frame := NewFrame(totalCells, e.tables.SpiralPeriod, int32(img.Width), int32(img.Height))
	frame.XOffset = cx
	frame.YOffset = cy

	e.scanFovea(img, cx, cy, frame)

	if err := e.scanPeripheral(img, cx, cy); err != nil {
		return nil, err
	}

	e.finalize(frame)

	return frame, nil
}

// scanFovea is Phase A: a single-threaded direct sample of the fovea's
// inner-cell centroids.
func (e *ScanEngine) scanFovea(img *Image, cx, cy float64, frame *Frame) {
	half := float64(e.tables.MapWidth) / 2
	for i, centroid := range e.tables.InnerCells {
		x := cx + float64(centroid.X) - half
		y := cy + float64(centroid.Y) - half

		r, g, b, ok := img.At(int(math.Floor(x)), int(math.Floor(y)))
		if !ok {
			continue
		}

		target := int32(i)
		if target > e.tables.LastFoveaIndex {
			target = e.tables.OuterCellIdx[i]
		}
		frame.Cells[target] = PackColor(r, g, b)
	}
}

// scanPeripheral is Phase B: a parallel, row-striped accumulation over the
// scan's bounding box.
func (e *ScanEngine) scanPeripheral(img *Image, cx, cy float64) error {
	e.shared.reset()

	radius := getSpiralRadius(e.tables.TotalCells(), e.tables.SpiralPeriod)

	xMin := clampInt(int(math.Floor(cx))-radius, 0, img.Width)
	xMax := clampInt(int(math.Floor(cx))+radius, 0, img.Width)
	yMin := clampInt(int(math.Floor(cy))-radius, 0, img.Height)
	yMax := clampInt(int(math.Floor(cy))+radius, 0, img.Height)
	if xMax <= xMin || yMax <= yMin {
		return nil
	}

	mapWidth := int(e.tables.MapWidth)
	base := (mapWidth/2 - int(math.Floor(cx))) + mapWidth*(mapWidth/2-int(math.Floor(cy)))
	mapArea := mapWidth * mapWidth

	rows := yMax - yMin
	n := 1
	if rows >= minStripeRows*maxPeripheralStripes {
		n = min(maxPeripheralStripes, runtime.NumCPU())
	}

	// Partition [yMin, yMax) into at most n row chunks with lo.Chunk,
	// rather than computing stripe boundaries by hand.
	stripeHeight := (rows + n - 1) / n
	rowChunks := lo.Chunk(lo.RangeFrom(yMin, rows), stripeHeight)

	group := e.pool.Group()
	for s, chunk := range rowChunks {
		if len(chunk) == 0 {
			continue
		}
		startY, endY := chunk[0], chunk[len(chunk)-1]+1
		local := e.stripes[s]
		local.reset()
		group.Submit(func() {
			e.scanStripe(img, xMin, xMax, startY, endY, base, mapWidth, mapArea, local)
		})
	}
	group.Wait()

	for s := range rowChunks {
		e.shared.mergeFrom(e.stripes[s])
	}
	return nil
}

// scanStripe accumulates rows [startY, endY) into local, per spec.md
// section 4.2 Phase B step 4.
func (e *ScanEngine) scanStripe(img *Image, xMin, xMax, startY, endY, base, mapWidth, mapArea int, local *accumulator) {
	for k := startY; k < endY; k++ {
		rowBase := base + mapWidth*k
		for j := xMin; j < xMax; j++ {
			p := rowBase + j
			if p < 0 || p >= mapArea {
				continue
			}
			target := e.tables.CellOf(int32(p))
			if target <= e.tables.LastFoveaIndex {
				continue
			}
			r, g, b, ok := img.At(j, k)
			if !ok {
				continue
			}
			local.add(target, r, g, b)
		}
	}
}

// finalize is Phase C: average every peripheral cell with a nonzero
// count, leave fovea cells set by Phase A untouched, and zero every other
// cell.
func (e *ScanEngine) finalize(frame *Frame) {
	for i := int32(0); i < e.tables.TotalCells(); i++ {
		count := e.shared.count[i]
		switch {
		case count > 0:
			r := uint8(e.shared.r[i] / count)
			g := uint8(e.shared.g[i] / count)
			b := uint8(e.shared.b[i] / count)
			frame.Cells[i] = PackColor(r, g, b)
		case i <= e.tables.LastFoveaIndex:
			// leave as set by Phase A
		default:
			frame.Cells[i] = 0
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
