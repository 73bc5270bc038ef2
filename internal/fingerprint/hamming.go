package fingerprint

import "math"

// Distance counts the positions at which two hashes differ.
// Hashes of different algorithms or lengths are not comparable.
func Distance(a, b Hash) (int, error) {
	if a.Algorithm != b.Algorithm || len(a.Value) != len(b.Value) {
		return 0, &LengthMismatchError{
			Left:     a.Algorithm,
			Right:    b.Algorithm,
			LeftLen:  len(a.Value),
			RightLen: len(b.Value),
		}
	}

	distance := 0
	for i := range len(a.Value) {
		if a.Value[i] != b.Value[i] {
			distance++
		}
	}
	return distance, nil
}

// Similarity converts the distance between two hashes into a score in [0, 1],
// rounded to 4 decimal places. Identical hashes score 1.
func Similarity(a, b Hash) (float64, error) {
	d, err := Distance(a, b)
	if err != nil {
		return 0, err
	}
	return Round4(1 - float64(d)/HashBits), nil
}

// Round4 rounds to 4 decimal places, halves away from zero.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
