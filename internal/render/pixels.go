// Package render turns presented surfaces and field readbacks into images
// for headless output.
package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"jumpflood/internal/core"
)

// TexelImage wraps tightly packed RGBA8 texels without reinterpreting them.
// NRGBA keeps the alpha byte independent of the colour bytes, so a PNG of
// the image stores every texel exactly.
func TexelImage(s core.Size, pix []byte) (*image.NRGBA, error) {
	if s.Empty() || len(pix) != 4*s.Area() {
		return nil, fmt.Errorf("texel image %dx%d: got %d bytes", s.W, s.H, len(pix))
	}
	img := image.NewNRGBA(image.Rect(0, 0, s.W, s.H))
	copy(img.Pix, pix)
	return img, nil
}

// Scale enlarges src by an integer factor with nearest-neighbour sampling.
// A factor below 2 returns src unchanged.
func Scale(src image.Image, factor int) image.Image {
	if factor < 2 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// EncodePNG writes img to w.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

// WritePNG writes img to the file at path.
func WritePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := EncodePNG(f, img); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
