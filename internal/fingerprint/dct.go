package fingerprint

import "math"

// DCT2D computes the orthonormal-scaled 2-D DCT-II of a square matrix:
//
//	out[u][v] = (2/N)·c(u)·c(v)·Σx Σy in[x][y]·cos((2x+1)uπ/2N)·cos((2y+1)vπ/2N)
//
// with c(0) = 1/√2 and c(k) = 1 otherwise. The transform is applied
// separably (rows, then columns), which matches the direct quadruple sum.
func DCT2D(in [][]float64) [][]float64 {
	n := len(in)
	cosTable := cosineTable(n)

	// Transform along y for every x.
	rows := make([][]float64, n)
	for x := range n {
		rows[x] = make([]float64, n)
		for v := range n {
			var sum float64
			for y := range n {
				sum += in[x][y] * cosTable[v][y]
			}
			rows[x][v] = sum
		}
	}

	// Transform along x and apply the scale factors.
	out := make([][]float64, n)
	for u := range n {
		out[u] = make([]float64, n)
		for v := range n {
			var sum float64
			for x := range n {
				sum += rows[x][v] * cosTable[u][x]
			}
			out[u][v] = (2 / float64(n)) * dctScale(u) * dctScale(v) * sum
		}
	}
	return out
}

// cosineTable precomputes cos((2j+1)·i·π / 2n) indexed [i][j].
func cosineTable(n int) [][]float64 {
	table := make([][]float64, n)
	for i := range n {
		table[i] = make([]float64, n)
		for j := range n {
			table[i][j] = math.Cos(math.Pi * float64(i) * (2*float64(j) + 1) / (2 * float64(n)))
		}
	}
	return table
}

func dctScale(k int) float64 {
	if k == 0 {
		return 1 / math.Sqrt2
	}
	return 1
}
