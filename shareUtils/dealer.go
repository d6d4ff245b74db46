package shareUtils

import (
	"fmt"
	"math"

	"github.com/ldsec/dnn-inference/mpc/plainUtils"
	"github.com/ldsec/dnn-inference/mpc/utils"
)

/*
	Helper-party functionalities.
	The session plays a trusted dealer: it hands out Beaver triples and evaluates the non linear
	functions (truncation, comparison, exponentiation) on the reconstructed value,
	returning a freshly masked sharing. No party ever sees the other's share through these calls
*/

//Beaver matrix triple: c = a b
func (s *Session) triple(m, k, n int) (a, b, c *SharedPair) {
	av, bv := s.randUint64(m*k), s.randUint64(k*n)
	a = s.shareRing([]int{m, k}, av)
	b = s.shareRing([]int{k, n}, bv)
	c = s.shareRing([]int{m, n}, ringMatMul(av, bv, m, k, n))
	return
}

func toSigned(v []uint64) []int64 {
	r := make([]int64, len(v))
	for i := range v {
		r[i] = int64(v[i])
	}
	return r
}

func toRing(v []int64) []uint64 {
	r := make([]uint64, len(v))
	for i := range v {
		r[i] = uint64(v[i])
	}
	return r
}

//reconstructs x, applies f and reshares the result with shape
func (s *Session) functionality(x *SharedPair, shape []int, f func(v []int64) []int64) *SharedPair {
	return s.shareRing(shape, toRing(f(toSigned(ringAdd(x.L, x.R)))))
}

//same as functionality, on decoded reals
func (s *Session) functionalityReal(x *SharedPair, shape []int, f func(v []float64) []float64) *SharedPair {
	return s.shareRing(shape, EncodeVec(f(DecodeVec(ringAdd(x.L, x.R), s.FracBits)), s.FracBits))
}

//Trunc divides by 2^FracBits, exactly
func (s *Session) Trunc(x *SharedPair) *SharedPair {
	return s.functionality(x, x.Shape, func(v []int64) []int64 {
		for i := range v {
			v[i] >>= s.FracBits
		}
		return v
	})
}

func (s *Session) ReLU(x *SharedPair) *SharedPair {
	return s.functionality(x, x.Shape, func(v []int64) []int64 {
		for i := range v {
			if v[i] < 0 {
				v[i] = 0
			}
		}
		return v
	})
}

//MaxPool takes the max of non overlapping p x p windows of x [b,h,w,c]
func (s *Session) MaxPool(x *SharedPair, p int) (*SharedPair, error) {
	b, h, w, c, err := dims4(x.Shape)
	if err != nil {
		return nil, err
	}
	if p <= 0 || h/p == 0 || w/p == 0 {
		return nil, fmt.Errorf("pool %d on %dx%d: %w", p, h, w, ErrShapeMismatch)
	}
	oh, ow := h/p, w/p
	return s.functionality(x, []int{b, oh, ow, c}, func(v []int64) []int64 {
		r := make([]int64, b*oh*ow*c)
		for n := 0; n < b; n++ {
			for oy := 0; oy < oh; oy++ {
				for ox := 0; ox < ow; ox++ {
					dst := ((n*oh+oy)*ow + ox) * c
					for ch := 0; ch < c; ch++ {
						max := int64(math.MinInt64)
						for py := 0; py < p; py++ {
							for px := 0; px < p; px++ {
								if e := v[((n*h+oy*p+py)*w+ox*p+px)*c+ch]; e > max {
									max = e
								}
							}
						}
						r[dst+ch] = max
					}
				}
			}
		}
		return r
	}), nil
}

func (s *Session) rowWise(x *SharedPair, f func(row []float64) []float64) *SharedPair {
	cols := x.Cols()
	return s.functionalityReal(x, x.Shape, func(v []float64) []float64 {
		for i := 0; i < x.Rows(); i++ {
			f(v[i*cols : (i+1)*cols])
		}
		return v
	})
}

//Softmax normalizes every row of x
func (s *Session) Softmax(x *SharedPair) *SharedPair {
	return s.rowWise(x, utils.Softmax)
}

//ASM normalizes every row of x as ReLU(u_i)/sum_j ReLU(u_j)
func (s *Session) ASM(x *SharedPair) *SharedPair {
	return s.rowWise(x, utils.ASM)
}

//CrossEntropy is the mean over rows of -sum_j y_j log softmax(u)_j. Output shape [1]
func (s *Session) CrossEntropy(logits, labels *SharedPair) (*SharedPair, error) {
	if !plainUtils.SameShape(logits.Shape, labels.Shape) {
		return nil, fmt.Errorf("logits %v, labels %v: %w", logits.Shape, labels.Shape, ErrShapeMismatch)
	}
	rows, cols := logits.Rows(), logits.Cols()
	u := DecodeVec(ringAdd(logits.L, logits.R), s.FracBits)
	y := DecodeVec(ringAdd(labels.L, labels.R), s.FracBits)
	loss := 0.0
	for i := 0; i < rows; i++ {
		p := utils.Softmax(u[i*cols : (i+1)*cols])
		for j := range p {
			if y[i*cols+j] != 0 {
				loss -= y[i*cols+j] * math.Log(math.Max(p[j], 1e-12))
			}
		}
	}
	if rows > 0 {
		loss /= float64(rows)
	}
	return s.shareRing([]int{1}, EncodeVec([]float64{loss}, s.FracBits)), nil
}
