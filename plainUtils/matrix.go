package plainUtils

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

func NewDense(X [][]float64) *mat.Dense {
	return mat.NewDense(len(X), len(X[0]), Vectorize(X, true))
}

func TransposeDense(m *mat.Dense) (mt *mat.Dense) {
	mt = mat.NewDense(NumCols(m), NumRows(m), nil)
	for i := 0; i < NumRows(m); i++ {
		for j := 0; j < NumCols(m); j++ {
			mt.Set(j, i, m.At(i, j))
		}
	}
	return
}

//deterministic (seed 42) random matrix in [0,1)
func RandMatrix(r, c int) *mat.Dense {
	rnd := rand.New(rand.NewSource(42))
	m := make([]float64, r*c)
	for i := range m {
		m[i] = rnd.Float64()
	}
	return mat.NewDense(r, c, m)
}

//returns a matrix useful for debug. E.g if r,c = 3,3 -> returns
// | 1 2 3 |
// | 4 5 6 |
// | 7 8 9 |
func MatrixForDebug(r, c int) *mat.Dense {
	m := make([]float64, r*c)
	for i := range m {
		m[i] = float64(i) + 1.0
	}
	return mat.NewDense(r, c, m)
}

func MatToArray(m *mat.Dense) [][]float64 {
	v := make([][]float64, NumRows(m))
	for i := 0; i < NumRows(m); i++ {
		v[i] = mat.Row(nil, i, m)
	}
	return v
}

func RowFlatten(m *mat.Dense) []float64 {
	return Vectorize(MatToArray(m), true)
}

func NumRows(m *mat.Dense) int {
	rows, _ := m.Dims()
	return rows
}

func NumCols(m *mat.Dense) int {
	_, cols := m.Dims()
	return cols
}

//	Input: matrix X
//	Output: column array of vectorized X
//	Example:
//
//	X = |a b|
//		|c d|
//
//	if tranpose false:
//		output = [a ,c, b, d] column vector
//	else:
//		output = [a ,b, c, d] column vector
func Vectorize(X [][]float64, transpose bool) []float64 {
	rows := len(X)
	cols := len(X[0])
	X_flat := make([]float64, rows*cols)
	if !transpose {
		for j := 0; j < cols; j++ {
			for i := 0; i < rows; i++ {
				X_flat[j*rows+i] = X[i][j]
			}
		}
	} else {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				X_flat[i*cols+j] = X[i][j]
			}
		}
	}
	return X_flat
}

//computes euclidean distance between arrays
func Distance(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		d += math.Pow(a[i]-b[i], 2.0)
	}
	return math.Sqrt(d)
}
