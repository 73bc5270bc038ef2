package fingerprint

import (
	"fmt"
	"image"
	"slices"
	"strconv"
)

// HashBits is the length of every hash produced by this package.
const HashBits = 64

// Algorithm identifies the perceptual hash that produced a Hash.
type Algorithm string

// Supported hash algorithms.
const (
	AlgorithmAverage    Algorithm = "ahash"
	AlgorithmDifference Algorithm = "dhash"
	AlgorithmPerceptual Algorithm = "phash"
)

const (
	averageSize    = 8
	differenceCols = 9
	differenceRows = 8
	perceptualSize = 32
	perceptualLow  = 8
)

// Hash is a bit string of '0' and '1' characters tagged with its algorithm.
type Hash struct {
	Algorithm Algorithm
	Value     string
}

// String returns the bit string.
func (h Hash) String() string {
	return h.Value
}

// Len returns the number of bits.
func (h Hash) Len() int {
	return len(h.Value)
}

// Uint64 packs the bit string into an integer, first character as the most significant bit.
func (h Hash) Uint64() uint64 {
	v, err := strconv.ParseUint(h.Value, 2, 64)
	if err != nil {
		return 0
	}
	return v
}

// Hex returns the 16 character hexadecimal form of the hash.
func (h Hash) Hex() string {
	return fmt.Sprintf("%016x", h.Uint64())
}

// MarshalText encodes the hash as its bit string.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Value), nil
}

// AverageHash computes the 64-bit average hash of an encoded image.
func AverageHash(data []byte) (Hash, error) {
	img, err := decode(data)
	if err != nil {
		return Hash{}, err
	}
	return averageHash(img), nil
}

// DifferenceHash computes the 64-bit difference hash of an encoded image.
func DifferenceHash(data []byte) (Hash, error) {
	img, err := decode(data)
	if err != nil {
		return Hash{}, err
	}
	return differenceHash(img), nil
}

// PerceptualHash computes the 64-bit DCT-based perceptual hash of an encoded image.
func PerceptualHash(data []byte) (Hash, error) {
	img, err := decode(data)
	if err != nil {
		return Hash{}, err
	}
	return perceptualHash(img), nil
}

func averageHash(img image.Image) Hash {
	m := ResampleImage(img, averageSize, averageSize)
	return Hash{Algorithm: AlgorithmAverage, Value: averageBits(m)}
}

func differenceHash(img image.Image) Hash {
	m := ResampleImage(img, differenceCols, differenceRows)
	return Hash{Algorithm: AlgorithmDifference, Value: differenceBits(m)}
}

func perceptualHash(img image.Image) Hash {
	m := ResampleImage(img, perceptualSize, perceptualSize)
	return Hash{Algorithm: AlgorithmPerceptual, Value: perceptualBits(m)}
}

// averageBits sets a bit for every cell at or above the matrix mean.
func averageBits(m GrayMatrix) string {
	avg := m.mean()
	bits := make([]byte, 0, m.Width()*m.Height())
	for _, row := range m {
		for _, v := range row {
			bits = append(bits, bit(float64(v) >= avg))
		}
	}
	return string(bits)
}

// differenceBits sets a bit when a cell is brighter than its right neighbour.
// The last column only serves as a neighbour.
func differenceBits(m GrayMatrix) string {
	bits := make([]byte, 0, (m.Width()-1)*m.Height())
	for _, row := range m {
		for x := 0; x < len(row)-1; x++ {
			bits = append(bits, bit(row[x] > row[x+1]))
		}
	}
	return string(bits)
}

// perceptualBits removes the DC level, transforms the matrix with a 2-D DCT
// and compares the lowest 8x8 frequencies against their median.
// A coefficient equal to the median yields 0.
func perceptualBits(m GrayMatrix) string {
	avg := m.mean()
	centered := make([][]float64, len(m))
	for y, row := range m {
		centered[y] = make([]float64, len(row))
		for x, v := range row {
			centered[y][x] = float64(v) - avg
		}
	}

	coeffs := DCT2D(centered)

	low := make([]float64, 0, perceptualLow*perceptualLow)
	for u := range perceptualLow {
		low = append(low, coeffs[u][:perceptualLow]...)
	}

	median := upperMedian(low)
	bits := make([]byte, len(low))
	for i, v := range low {
		bits[i] = bit(v > median)
	}
	return string(bits)
}

// upperMedian returns the element at index n/2 of the sorted values,
// which is the upper of the two middle values for an even count.
func upperMedian(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return sorted[len(sorted)/2]
}

func bit(set bool) byte {
	if set {
		return '1'
	}
	return '0'
}
