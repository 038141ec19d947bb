package terrain

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png" // register decoder
	"io"
	"math"
	"os"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
)

// HeightmapOptions map image pixels to field vertices.
type HeightmapOptions struct {
	OriginX, OriginZ float64
	CellSize         float64 // world distance between pixels
	Scale            float64 // height of a white pixel above Base
	Base             float64
}

// LoadHeightmap reads a grayscale PNG, BMP or TIFF heightmap. Pixel (px, py)
// becomes vertex (col=px, row=py); fully transparent pixels become holes.
func LoadHeightmap(path string, opts HeightmapOptions) (*Field, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening heightmap %s: %w", path, err)
	}
	defer f.Close()

	field, err := DecodeHeightmap(f, opts)
	if err != nil {
		return nil, fmt.Errorf("heightmap %s: %w", path, err)
	}
	return field, nil
}

// DecodeHeightmap decodes a heightmap image from r.
func DecodeHeightmap(r io.Reader, opts HeightmapOptions) (*Field, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	b := img.Bounds()
	cols, rows := b.Dx(), b.Dy()
	heights := make([]float64, 0, cols*rows)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)
			if _, _, _, a := c.RGBA(); a == 0 {
				heights = append(heights, math.NaN())
				continue
			}
			gray := color.Gray16Model.Convert(c).(color.Gray16)
			heights = append(heights, opts.Base+float64(gray.Y)/math.MaxUint16*opts.Scale)
		}
	}

	field, err := NewField(opts.OriginX, opts.OriginZ, opts.CellSize, cols, rows, heights)
	if err != nil {
		return nil, fmt.Errorf("%s heightmap: %w", format, err)
	}
	return field, nil
}
