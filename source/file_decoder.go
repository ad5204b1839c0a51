package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/rascol/lpximage"
)

// rawVideoMagic identifies the minimal frame-sequence container this
// package's reference Decoder reads. spec.md section 1 explicitly puts
// real video-codec internals out of scope and treats the decoder as
// abstract; RawFileDecoder is the one concrete Decoder this module ships,
// sufficient to drive and test the rest of the pipeline end to end
// without depending on an external codec library the corpus doesn't
// provide. A production deployment supplies its own Decoder wrapping
// whatever codec library it needs.
const rawVideoMagic = "LPXV"

// rawVideoHeader mirrors the little-endian int32 header convention used
// by lpx.Load for scan tables (spec.md section 4.1): magic, then width,
// height, frame rate (fixed-point, x1000), frame count.
type rawVideoHeader struct {
	Width      int32
	Height     int32
	FPSFixed   int32
	FrameCount int32
}

// RawFileDecoder implements Decoder over the "LPXV" raw-frame container:
// a header followed by FrameCount consecutive BGR frames of Width*Height*3
// bytes each.
type RawFileDecoder struct {
	f          *os.File
	header     rawVideoHeader
	frameBytes int64
	dataStart  int64
	frameIdx   int
}

// OpenRawFile opens path as an LPXV container and validates its header.
func OpenRawFile(path string) (*RawFileDecoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lpx/source: opening video file: %w", err)
	}

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		f.Close()
		return nil, fmt.Errorf("lpx/source: reading magic: %w", err)
	}
	if string(magic) != rawVideoMagic {
		f.Close()
		return nil, fmt.Errorf("lpx/source: not an LPXV container")
	}

	var header rawVideoHeader
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("lpx/source: reading header: %w", err)
	}
	if header.Width <= 0 || header.Height <= 0 || header.FrameCount < 0 {
		f.Close()
		return nil, fmt.Errorf("lpx/source: invalid header %+v", header)
	}

	dataStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &RawFileDecoder{
		f:          f,
		header:     header,
		frameBytes: int64(header.Width) * int64(header.Height) * 3,
		dataStart:  dataStart,
	}, nil
}

func (d *RawFileDecoder) ReadFrame() (*lpx.Image, error) {
	if d.frameIdx >= int(d.header.FrameCount) {
		return nil, ErrEndOfStream
	}
	img := lpx.NewImage(int(d.header.Width), int(d.header.Height), 3)
	if _, err := io.ReadFull(d.f, img.Pix); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrEndOfStream
		}
		return nil, fmt.Errorf("lpx/source: reading frame %d: %w", d.frameIdx, err)
	}
	d.frameIdx++
	return img, nil
}

func (d *RawFileDecoder) SeekToStart() error {
	if _, err := d.f.Seek(d.dataStart, io.SeekStart); err != nil {
		return err
	}
	d.frameIdx = 0
	return nil
}

func (d *RawFileDecoder) FrameRate() float64   { return float64(d.header.FPSFixed) / 1000.0 }
func (d *RawFileDecoder) FrameCount() int      { return int(d.header.FrameCount) }
func (d *RawFileDecoder) NativeWidth() int     { return int(d.header.Width) }
func (d *RawFileDecoder) NativeHeight() int    { return int(d.header.Height) }
func (d *RawFileDecoder) Close() error         { return d.f.Close() }
