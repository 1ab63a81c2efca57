package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
)

// CreateIconRGBA generates a 22x22 RGBA byte slice for the tray icon.
// Draws a speech bubble with three dots, white on transparent with
// antialiased edges.
func CreateIconRGBA() ([]byte, int, int) {
	const size = 22
	rgba := make([]byte, size*size*4)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			idx := (y*size + x) * 4
			fx := float64(x) + 0.5
			fy := float64(y) + 0.5

			alpha := 0.0

			// Bubble body: rounded rectangle from (2,3) to (20,15), radius 4.
			d := roundedRectDistance(fx, fy, 2, 3, 20, 15, 4)
			if d <= 0 {
				alpha = 1.0
			} else if d <= 0.8 {
				alpha = (0.8 - d) / 0.8
			}

			// Tail below the bottom-left corner.
			if fy >= 14.0 && fy <= 19.0 && fx >= 6.0 && fx <= 6.0+(19.0-fy) {
				alpha = 1.0
			}

			// Dots are cut out of the body.
			for _, cx := range []float64{7, 11, 15} {
				dd := math.Sqrt((fx-cx)*(fx-cx) + (fy-9)*(fy-9))
				if dd <= 1.4 {
					alpha = 0.0
				} else if dd <= 2.0 {
					alpha = math.Min(alpha, (dd-1.4)/0.6)
				}
			}

			if alpha > 0.0 {
				a := uint8(math.Min(alpha, 1.0) * 255.0)
				rgba[idx] = 255
				rgba[idx+1] = 255
				rgba[idx+2] = 255
				rgba[idx+3] = a
			}
		}
	}

	return rgba, size, size
}

// roundedRectDistance returns how far (x,y) lies outside the rounded
// rectangle; zero or less means inside.
func roundedRectDistance(x, y, x0, y0, x1, y1, r float64) float64 {
	cx := math.Max(x0+r, math.Min(x, x1-r))
	cy := math.Max(y0+r, math.Min(y, y1-r))
	return math.Sqrt((x-cx)*(x-cx)+(y-cy)*(y-cy)) - r
}

// CreateIconPNG encodes the tray icon as PNG, the format the tray expects.
func CreateIconPNG() ([]byte, error) {
	rgba, w, h := CreateIconRGBA()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			img.SetNRGBA(x, y, color.NRGBA{R: rgba[i], G: rgba[i+1], B: rgba[i+2], A: rgba[i+3]})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
