package lpx

import (
	"math"
	"testing"
)

// flatOuterTables builds a ScanTables with one fovea cell at the map
// center and a single peripheral cell that collects every scan-map pixel
// index >= 0 — a synthetic fixture (not a realistic spiral mapping) that
// isolates Phase A/B/C's arithmetic from the real cell-assignment table.
func flatOuterTables(mapWidth int32, spiralPeriod float64, foveaX, foveaY int32) *ScanTables {
	return &ScanTables{
		MapWidth:        mapWidth,
		SpiralPeriod:    spiralPeriod,
		LastFoveaIndex:  0,
		LastCellIndex:   1,
		InnerCells:      []Point{{X: foveaX, Y: foveaY}},
		OuterPixelIndex: []int32{0},
		OuterCellIdx:    []int32{1},
	}
}

func TestScanFoveaDirectSample(t *testing.T) {
	tables := flatOuterTables(4, 50, 2, 2)
	engine := NewScanEngine(tables)
	defer engine.Close()

	img := NewImage(4, 4, 3)
	// img.At reads (B,G,R) at base, base+1, base+2; place a distinct color
	// at pixel (2,2), which the fovea centroid samples when cx=cy=2.
	base := (2*4 + 2) * 3
	img.Pix[base], img.Pix[base+1], img.Pix[base+2] = 30, 20, 10 // B,G,R

	frame, err := engine.Scan(img, 2, 2)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := PackColor(10, 20, 30)
	if frame.Cells[0] != want {
		t.Errorf("fovea cell = %#x, want %#x", frame.Cells[0], want)
	}
}

func TestScanPeripheralAveraging(t *testing.T) {
	tables := flatOuterTables(4, 50, 2, 2)
	engine := NewScanEngine(tables)
	defer engine.Close()

	img := NewImage(4, 4, 3)
	for y := 0; y < 4; y++ {
		var b, g, r uint8
		if y < 2 {
			b, g, r = 0, 0, 0
		} else {
			b, g, r = 60, 40, 20
		}
		for x := 0; x < 4; x++ {
			base := (y*4 + x) * 3
			img.Pix[base], img.Pix[base+1], img.Pix[base+2] = b, g, r
		}
	}

	frame, err := engine.Scan(img, 2, 2)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	// integer mean of 8 black + 8 (20,40,60) pixels is (10, 20, 30).
	want := PackColor(10, 20, 30)
	if frame.Cells[1] != want {
		t.Errorf("peripheral cell = %#x, want %#x", frame.Cells[1], want)
	}
}

func TestScanIsDeterministicAcrossRuns(t *testing.T) {
	const width, height = 200, 50
	tables := flatOuterTables(200, 999, 100, 25)
	engine := NewScanEngine(tables)
	defer engine.Close()

	img := NewImage(width, height, 3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			base := (y*width + x) * 3
			img.Pix[base] = byte((x*31 + y*17) % 256)
			img.Pix[base+1] = byte((x*7 + y*13) % 256)
			img.Pix[base+2] = byte((x*3 + y*19) % 256)
		}
	}

	first, err := engine.Scan(img, 100, 25)
	if err != nil {
		t.Fatalf("Scan (first): %v", err)
	}
	second, err := engine.Scan(img, 100, 25)
	if err != nil {
		t.Fatalf("Scan (second): %v", err)
	}
	if !first.Equal(second) {
		t.Errorf("Scan produced different frames for identical input across two runs")
	}
}

func TestScanRejectsEmptyImage(t *testing.T) {
	tables := flatOuterTables(4, 50, 2, 2)
	engine := NewScanEngine(tables)
	defer engine.Close()

	if _, err := engine.Scan(&Image{Width: 0, Height: 0}, 0, 0); err == nil {
		t.Error("Scan(empty image) = nil error, want non-nil")
	}
}

func TestGetSpiralRadiusClampsExtremeInputs(t *testing.T) {
	r := getSpiralRadius(1<<30, maxSpiralPeriod-1)
	if r != maxSpiralRadius {
		t.Errorf("getSpiralRadius(huge totalCells) = %d, want clamp %d", r, maxSpiralRadius)
	}
}

func TestGetSpiralRadiusIsPositiveForRealisticInputs(t *testing.T) {
	r := getSpiralRadius(30000, 63.5)
	if r <= 0 || math.IsInf(float64(r), 0) {
		t.Errorf("getSpiralRadius(30000, 63.5) = %d, want a positive radius", r)
	}
}
