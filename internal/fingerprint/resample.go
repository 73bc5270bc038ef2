package fingerprint

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// GrayMatrix is a row-major grid of 8-bit intensities, indexed m[y][x].
// All rows have the same length. Treat it as read-only once built.
type GrayMatrix [][]uint8

// Width returns the number of columns.
func (m GrayMatrix) Width() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Height returns the number of rows.
func (m GrayMatrix) Height() int {
	return len(m)
}

// mean returns the arithmetic mean of all cells.
func (m GrayMatrix) mean() float64 {
	var sum, n int
	for _, row := range m {
		for _, v := range row {
			sum += int(v)
		}
		n += len(row)
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// Resample decodes an encoded image and returns its width x height grayscale matrix.
// The image is stretched to fill the target size; aspect ratio is not preserved.
func Resample(data []byte, width, height int) (GrayMatrix, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	return ResampleImage(img, width, height), nil
}

// ResampleImage scales an already decoded image to width x height and converts
// it to grayscale using the ITU-R BT.601 luma weights.
func ResampleImage(img image.Image, width, height int) GrayMatrix {
	scaled := resizeImage(img, width, height)

	m := make(GrayMatrix, height)
	for y := range height {
		row := make([]uint8, width)
		for x := range width {
			o := scaled.PixOffset(x, y)
			row[x] = luma(scaled.Pix[o], scaled.Pix[o+1], scaled.Pix[o+2])
		}
		m[y] = row
	}
	return m
}

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Size: len(data), Err: err}
	}
	return img, nil
}

// resizeImage scales an image to the specified dimensions with a fixed bilinear kernel.
func resizeImage(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func luma(r, g, b uint8) uint8 {
	v := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	return uint8(min(math.Round(v), 255))
}
