package lpx

// accumulator holds the four parallel per-cell sums used during the
// peripheral accumulation phase (spec.md section 4.2, Phase B): the
// running red/green/blue sums and the contribution count, one entry per
// LPX cell. A single accumulator is reused as the shared merge target
// across scans to avoid per-scan allocation (spec.md section 9's
// "preallocated thread-local buffers" redesign note).
type accumulator struct {
	r, g, b, count []int64
}

func newAccumulator(totalCells int32) *accumulator {
	return &accumulator{
		r:     make([]int64, totalCells),
		g:     make([]int64, totalCells),
		b:     make([]int64, totalCells),
		count: make([]int64, totalCells),
	}
}

// reset zeroes every slot without reallocating the backing arrays, using
// the builtin clear (Go 1.21) rather than a hand-rolled loop.
func (a *accumulator) reset() {
	clear(a.r)
	clear(a.g)
	clear(a.b)
	clear(a.count)
}

// add records one pixel's contribution to cell.
func (a *accumulator) add(cell int32, r, g, b uint8) {
	a.r[cell] += int64(r)
	a.g[cell] += int64(g)
	a.b[cell] += int64(b)
	a.count[cell]++
}

// mergeFrom folds another accumulator's sums into a, used to combine a
// worker's thread-local stripe accumulator into the shared one.
func (a *accumulator) mergeFrom(other *accumulator) {
	for i := range a.r {
		a.r[i] += other.r[i]
		a.g[i] += other.g[i]
		a.b[i] += other.b[i]
		a.count[i] += other.count[i]
	}
}
