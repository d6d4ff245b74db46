package plainUtils

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrSize = errors.New("data length does not match shape")

//Tensor is a row-major plaintext tensor. Shape[0] is the batch dimension when the tensor holds data
type Tensor struct {
	Shape []int
	Data  []float64
}

func NewTensor(shape []int, data []float64) (*Tensor, error) {
	if len(data) != Size(shape) {
		return nil, fmt.Errorf("shape %v needs %d values, got %d: %w", shape, Size(shape), len(data), ErrSize)
	}
	return &Tensor{Shape: CopyShape(shape), Data: data}, nil
}

func Zeros(shape []int) *Tensor {
	return &Tensor{Shape: CopyShape(shape), Data: make([]float64, Size(shape))}
}

//number of elements of a tensor with this shape
func Size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func CopyShape(shape []int) []int {
	s := make([]int, len(shape))
	copy(s, shape)
	return s
}

func SameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (t *Tensor) Size() int {
	return len(t.Data)
}

//number of rows when the tensor is seen as a matrix with the first axis as rows
func (t *Tensor) Rows() int {
	if len(t.Shape) == 0 {
		return 1
	}
	return t.Shape[0]
}

func (t *Tensor) Cols() int {
	r := t.Rows()
	if r == 0 {
		return 0
	}
	return len(t.Data) / r
}

//Row returns a view of the i-th row
func (t *Tensor) Row(i int) []float64 {
	c := t.Cols()
	return t.Data[i*c : (i+1)*c]
}

func (t *Tensor) Copy() *Tensor {
	d := make([]float64, len(t.Data))
	copy(d, t.Data)
	return &Tensor{Shape: CopyShape(t.Shape), Data: d}
}

//ToDense views the tensor as a Rows x Cols matrix. The data is shared
func (t *Tensor) ToDense() *mat.Dense {
	return mat.NewDense(t.Rows(), t.Cols(), t.Data)
}

func FromDense(m *mat.Dense) *Tensor {
	return &Tensor{Shape: []int{NumRows(m), NumCols(m)}, Data: RowFlatten(m)}
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%v", t.Shape)
}
