package shareUtils

import (
	"errors"
	"fmt"

	"github.com/ldsec/dnn-inference/mpc/plainUtils"
)

var ErrShapeMismatch = errors.New("shape mismatch")

//SharedPair is a tensor additively shared between party L and party R:
//value = L + R mod 2^64. Shape[0] is the batch dimension for data tensors
type SharedPair struct {
	Shape []int
	L, R  []uint64
}

func newSharedPair(shape []int) *SharedPair {
	n := plainUtils.Size(shape)
	return &SharedPair{Shape: plainUtils.CopyShape(shape), L: make([]uint64, n), R: make([]uint64, n)}
}

func (x *SharedPair) Size() int {
	return len(x.L)
}

func (x *SharedPair) Rows() int {
	if len(x.Shape) == 0 {
		return 1
	}
	return x.Shape[0]
}

func (x *SharedPair) Cols() int {
	if x.Rows() == 0 {
		return 0
	}
	return x.Size() / x.Rows()
}

func (x *SharedPair) String() string {
	return fmt.Sprintf("SharedPair%v", x.Shape)
}

//applies f to each share independently. Valid for linear maps only
func (x *SharedPair) apply(shape []int, f func(share []uint64) []uint64) *SharedPair {
	return &SharedPair{Shape: plainUtils.CopyShape(shape), L: f(x.L), R: f(x.R)}
}

func Add(a, b *SharedPair) (*SharedPair, error) {
	if !plainUtils.SameShape(a.Shape, b.Shape) {
		return nil, fmt.Errorf("add %v and %v: %w", a.Shape, b.Shape, ErrShapeMismatch)
	}
	return &SharedPair{Shape: plainUtils.CopyShape(a.Shape), L: ringAdd(a.L, b.L), R: ringAdd(a.R, b.R)}, nil
}

//AddBias adds b to every row of x
func AddBias(x, b *SharedPair) (*SharedPair, error) {
	cols := x.Cols()
	if b.Size() != cols {
		return nil, fmt.Errorf("bias %v on rows of %d: %w", b.Shape, cols, ErrShapeMismatch)
	}
	res := newSharedPair(x.Shape)
	for i := 0; i < x.Rows(); i++ {
		for j := 0; j < cols; j++ {
			res.L[i*cols+j] = x.L[i*cols+j] + b.L[j]
			res.R[i*cols+j] = x.R[i*cols+j] + b.R[j]
		}
	}
	return res, nil
}

//MulPublic multiplies every element by the public ring element c. No truncation
func MulPublic(x *SharedPair, c uint64) *SharedPair {
	return x.apply(x.Shape, func(s []uint64) []uint64 {
		r := make([]uint64, len(s))
		for i := range s {
			r[i] = s[i] * c
		}
		return r
	})
}

func Reshape(x *SharedPair, shape []int) (*SharedPair, error) {
	if plainUtils.Size(shape) != x.Size() {
		return nil, fmt.Errorf("reshape %v to %v: %w", x.Shape, shape, ErrShapeMismatch)
	}
	return x.apply(shape, func(s []uint64) []uint64 {
		r := make([]uint64, len(s))
		copy(r, s)
		return r
	}), nil
}

func dims4(shape []int) (int, int, int, int, error) {
	if len(shape) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("expected [batch, h, w, c], got %v: %w", shape, ErrShapeMismatch)
	}
	return shape[0], shape[1], shape[2], shape[3], nil
}

//Im2Col turns x [b,h,w,c] into the patch matrix [b*oh*ow, k*k*c] of a valid stride-1 convolution.
//Columns follow the (ky, kx, c) order of an HWIO kernel
func Im2Col(x *SharedPair, k int) (*SharedPair, error) {
	b, h, w, c, err := dims4(x.Shape)
	if err != nil {
		return nil, err
	}
	oh, ow := h-k+1, w-k+1
	if oh <= 0 || ow <= 0 {
		return nil, fmt.Errorf("kernel %d larger than input %dx%d: %w", k, h, w, ErrShapeMismatch)
	}
	cols := k * k * c
	shape := []int{b * oh * ow, cols}
	return x.apply(shape, func(s []uint64) []uint64 {
		r := make([]uint64, b*oh*ow*cols)
		row := 0
		for n := 0; n < b; n++ {
			for oy := 0; oy < oh; oy++ {
				for ox := 0; ox < ow; ox++ {
					dst := r[row*cols : (row+1)*cols]
					for ky := 0; ky < k; ky++ {
						src := ((n*h+oy+ky)*w + ox) * c
						copy(dst[ky*k*c:(ky+1)*k*c], s[src:src+k*c])
					}
					row++
				}
			}
		}
		return r
	}), nil
}

//SumPool sums non overlapping p x p windows of x [b,h,w,c]
func SumPool(x *SharedPair, p int) (*SharedPair, error) {
	b, h, w, c, err := dims4(x.Shape)
	if err != nil {
		return nil, err
	}
	if p <= 0 || h/p == 0 || w/p == 0 {
		return nil, fmt.Errorf("pool %d on %dx%d: %w", p, h, w, ErrShapeMismatch)
	}
	oh, ow := h/p, w/p
	return x.apply([]int{b, oh, ow, c}, func(s []uint64) []uint64 {
		r := make([]uint64, b*oh*ow*c)
		for n := 0; n < b; n++ {
			for oy := 0; oy < oh; oy++ {
				for ox := 0; ox < ow; ox++ {
					dst := ((n*oh+oy)*ow + ox) * c
					for py := 0; py < p; py++ {
						for px := 0; px < p; px++ {
							src := ((n*h+oy*p+py)*w + ox*p + px) * c
							for ch := 0; ch < c; ch++ {
								r[dst+ch] += s[src+ch]
							}
						}
					}
				}
			}
		}
		return r
	}), nil
}
