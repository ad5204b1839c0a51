package lpx

// Image is the scan engine's source pixel buffer: a rectangular image of
// either 3-channel BGR or 1-channel grayscale pixels, row-major, matching
// the "abstract FrameSource" boundary described in spec.md section 1 (the
// actual video-decoding library is out of scope; this is the shape any
// decoder output is normalized to before scanning).
type Image struct {
	Width, Height int
	Channels      int // 1 (grayscale) or 3 (BGR)
	Pix           []uint8
}

// NewImage allocates a zeroed image of the given dimensions and channel
// count.
func NewImage(width, height, channels int) *Image {
	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// unsupportedGrayscaleSentinel marks a grayscale source pixel that should
// be treated as absent rather than as a genuine black sample — see
// spec.md section 9 on the fovea's handling of unsupported pixel formats
// upstream of the scan engine. A FrameSource that cannot produce real
// grayscale data may fill with this value to signal "no sample". Because
// the value is 0, a genuinely black grayscale pixel is also treated as
// "no sample".
const unsupportedGrayscaleSentinel = 0

// At returns the color of pixel (x, y) and whether the pixel is both
// in-bounds and usable. For a 1-channel image, the gray value is broadcast
// to all three channels; a grayscale sample equal to
// unsupportedGrayscaleSentinel is treated as "no sample" and reports ok =
// false, per spec.md section 4.2 Phase A step 2.
func (img *Image) At(x, y int) (r, g, b uint8, ok bool) {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return 0, 0, 0, false
	}
	base := (y*img.Width + x) * img.Channels
	switch img.Channels {
	case 1:
		v := img.Pix[base]
		if v == unsupportedGrayscaleSentinel {
			return 0, 0, 0, false
		}
		return v, v, v, true
	case 3:
		// Stored as B, G, R per spec.md's packed-color convention.
		bb, gg, rr := img.Pix[base], img.Pix[base+1], img.Pix[base+2]
		return rr, gg, bb, true
	default:
		return 0, 0, 0, false
	}
}
