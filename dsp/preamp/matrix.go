package preamp

import (
	"fmt"
	"math"
)

const numNodes = 8

// matrix is a dense numNodes x numNodes matrix used for the MNA
// system. Stored row-major as a fixed-size array to avoid heap
// allocation in the hot (per-sample) path, which uses mulVec on the
// precomputed matrices.
type matrix [numNodes][numNodes]float64

// vector is an 8-element node voltage/current vector.
type vector [numNodes]float64

func (m matrix) mulVec(v vector) vector {
	var out vector

	for i := 0; i < numNodes; i++ {
		sum := 0.0
		for j := 0; j < numNodes; j++ {
			sum += m[i][j] * v[j]
		}

		out[i] = sum
	}

	return out
}

func (a matrix) add(b matrix) matrix {
	var out matrix

	for i := 0; i < numNodes; i++ {
		for j := 0; j < numNodes; j++ {
			out[i][j] = a[i][j] + b[i][j]
		}
	}

	return out
}

func (a matrix) sub(b matrix) matrix {
	var out matrix

	for i := 0; i < numNodes; i++ {
		for j := 0; j < numNodes; j++ {
			out[i][j] = a[i][j] - b[i][j]
		}
	}

	return out
}

func (a matrix) scale(s float64) matrix {
	var out matrix

	for i := 0; i < numNodes; i++ {
		for j := 0; j < numNodes; j++ {
			out[i][j] = a[i][j] * s
		}
	}

	return out
}

// invert computes the matrix inverse by Gauss-Jordan elimination with
// partial pivoting. Called only at prepare() time (system matrix and
// each DC Newton step), never in the per-sample path.
func (a matrix) invert() (matrix, error) {
	var aug [numNodes][2 * numNodes]float64

	for i := 0; i < numNodes; i++ {
		for j := 0; j < numNodes; j++ {
			aug[i][j] = a[i][j]
		}

		aug[i][numNodes+i] = 1
	}

	for col := 0; col < numNodes; col++ {
		pivotRow := col
		maxAbs := math.Abs(aug[col][col])

		for r := col + 1; r < numNodes; r++ {
			if v := math.Abs(aug[r][col]); v > maxAbs {
				maxAbs = v
				pivotRow = r
			}
		}

		if maxAbs < 1e-15 {
			return matrix{}, fmt.Errorf("preamp: system matrix is singular at column %d", col)
		}

		if pivotRow != col {
			aug[col], aug[pivotRow] = aug[pivotRow], aug[col]
		}

		pivot := aug[col][col]
		for j := 0; j < 2*numNodes; j++ {
			aug[col][j] /= pivot
		}

		for r := 0; r < numNodes; r++ {
			if r == col {
				continue
			}

			factor := aug[r][col]
			if factor == 0 {
				continue
			}

			for j := 0; j < 2*numNodes; j++ {
				aug[r][j] -= factor * aug[col][j]
			}
		}
	}

	var inv matrix
	for i := 0; i < numNodes; i++ {
		for j := 0; j < numNodes; j++ {
			inv[i][j] = aug[i][numNodes+j]
		}
	}

	return inv, nil
}
