package source

import "github.com/rascol/lpximage"

// FlipChannels swaps the red and blue channels of a 3-channel image in
// place, mirroring the "convert BGR<->RGB" step in spec.md section 4.3's
// driver-loop pseudocode. It is a no-op for non-3-channel images.
func FlipChannels(img *lpx.Image) {
	if img.Channels != 3 {
		return
	}
	for i := 0; i+2 < len(img.Pix); i += 3 {
		img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
	}
}

// Resize scales src to the given output dimensions using nearest-neighbor
// sampling. It is channel-order agnostic, since it never inspects the
// meaning of a byte, only its position. If src already matches the
// requested dimensions, it is returned unchanged.
func Resize(src *lpx.Image, outW, outH int) *lpx.Image {
	if src.Width == outW && src.Height == outH {
		return src
	}
	dst := lpx.NewImage(outW, outH, src.Channels)
	for y := 0; y < outH; y++ {
		srcY := y * src.Height / outH
		for x := 0; x < outW; x++ {
			srcX := x * src.Width / outW
			srcBase := (srcY*src.Width + srcX) * src.Channels
			dstBase := (y*outW + x) * src.Channels
			copy(dst.Pix[dstBase:dstBase+src.Channels], src.Pix[srcBase:srcBase+src.Channels])
		}
	}
	return dst
}
