package timelapse

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultRawConverter is the raw developer invoked for camera raw files.
// Any tool accepting dcraw's -c -w -T flags works (dcraw, dcraw_emu).
const DefaultRawConverter = "dcraw"

// FrameDecoder turns one file into a frame in the canonical RGBA channel order
type FrameDecoder interface {
	Decode(path string) (*image.RGBA, error)
}

// FrameDecoderFunc adapts a plain function to FrameDecoder
type FrameDecoderFunc func(path string) (*image.RGBA, error)

func (f FrameDecoderFunc) Decode(path string) (*image.RGBA, error) { return f(path) }

// Decoders maps each format family to the decoder that handles it.
// Adding a format means adding a classifier entry and a decoder here.
type Decoders map[Format]FrameDecoder

// DefaultDecoders returns the raster decoder and a raw decoder backed by rawConverter
func DefaultDecoders(rawConverter string) Decoders {
	return Decoders{
		FormatRaster: RasterDecoder{},
		FormatRaw:    RawDecoder{Binary: rawConverter},
	}
}

// Decode decodes src with the decoder registered for its format. Every
// failure, including a panic inside a codec, comes back as a *DecodeError.
func (d Decoders) Decode(src SourceImage) (frame *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			frame = nil
			err = &DecodeError{Path: src.Path, Format: src.Format, Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	dec, ok := d[src.Format]
	if !ok || dec == nil {
		return nil, &DecodeError{Path: src.Path, Format: src.Format, Err: errors.New("no decoder registered")}
	}

	frame, err = dec.Decode(src.Path)
	if err != nil {
		return nil, &DecodeError{Path: src.Path, Format: src.Format, Err: err}
	}
	if frame == nil || frame.Bounds().Empty() {
		return nil, &DecodeError{Path: src.Path, Format: src.Format, Err: errors.New("decoded image is empty")}
	}
	return frame, nil
}

// RasterDecoder reads conventional image files (jpeg, png, gif, bmp, tiff, webp),
// applying the EXIF orientation tag when present.
type RasterDecoder struct{}

func (RasterDecoder) Decode(path string) (*image.RGBA, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return toRGBA(img), nil
}

// RawDecoder develops camera raw files with an external converter: camera white
// balance, full demosaic, TIFF on stdout.
type RawDecoder struct {
	Binary string
}

func (d RawDecoder) Decode(path string) (*image.RGBA, error) {
	bin := d.Binary
	if bin == "" {
		bin = DefaultRawConverter
	}

	cmd := exec.Command(bin, "-c", "-w", "-T", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", bin, err, firstLine(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s produced no image data: %s", bin, firstLine(stderr.String()))
	}

	img, err := tiff.Decode(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("failed to read developed raw image: %w", err)
	}
	return toRGBA(img), nil
}

// toRGBA converts img to an opaque zero-origin *image.RGBA. Alpha is dropped,
// not composited: pixels keep their straight RGB values with A forced to 255.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Opaque() {
		return rgba
	}

	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < b.Dy(); y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			di := dst.PixOffset(0, y)
			for x := 0; x < b.Dx(); x++ {
				copy(dst.Pix[di:di+3], src.Pix[si:si+3])
				dst.Pix[di+3] = 0xff
				si += 4
				di += 4
			}
		}
	case interface{ Opaque() bool }:
		if src.Opaque() {
			draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
			break
		}
		dropAlpha(dst, img)
	default:
		dropAlpha(dst, img)
	}
	return dst
}

// dropAlpha is the slow path for translucent images that are not NRGBA
func dropAlpha(dst *image.RGBA, img image.Image) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
}

// firstLine extracts just the first line from a multi-line string
func firstLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
		return strings.TrimSpace(lines[0])
	}
	return "no additional information available"
}
