package source

import "github.com/rascol/lpximage"

// SolidColorSource is a deterministic synthetic Decoder used by tests: it
// never touches disk, emits FrameCount frames of Width x Height pixels,
// and frame n is solid color (n mod 256, n mod 256, n mod 256). This is
// exactly the fixture spec.md scenario S4 (restart-on-first-client) needs
// to observe which frame index a client's first received frame
// corresponds to.
type SolidColorSource struct {
	Width, Height, Count int
	Rate                 float64
	idx                  int
}

func (s *SolidColorSource) ReadFrame() (*lpx.Image, error) {
	if s.idx >= s.Count {
		return nil, ErrEndOfStream
	}
	v := uint8(s.idx % 256)
	img := lpx.NewImage(s.Width, s.Height, 3)
	for i := 0; i+2 < len(img.Pix); i += 3 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = v, v, v
	}
	s.idx++
	return img, nil
}

func (s *SolidColorSource) SeekToStart() error { s.idx = 0; return nil }
func (s *SolidColorSource) FrameRate() float64 { return s.Rate }
func (s *SolidColorSource) FrameCount() int     { return s.Count }
func (s *SolidColorSource) NativeWidth() int    { return s.Width }
func (s *SolidColorSource) NativeHeight() int   { return s.Height }
func (s *SolidColorSource) Close() error        { return nil }
