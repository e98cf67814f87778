package evidence

import (
	"bytes"
	"image"
	"image/png"

	"github.com/andreeap/go-forest-watch/internal/raster"
)

// maskPNG renders a change mask as a grayscale PNG: changed pixels white,
// everything else black. The image is the human-auditable half of the
// evidence pair.
func maskPNG(m *raster.Mask) ([]byte, error) {
	rows, cols := m.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if m.At(r, c) {
				img.Pix[r*img.Stride+c] = 255
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
