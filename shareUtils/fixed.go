package shareUtils

import "math"

//Values live in Z_{2^64} as fixed-point numbers with FracBits fractional bits.
//Arithmetic on uint64 wraps around, which is exactly the ring arithmetic
const DefaultFracBits = 16

//2^63, the first value outside int64
const ringHalf = float64(1 << 63)

//Encode rounds x to fixed point. Values outside the ring saturate, NaN encodes as 0
func Encode(x float64, fracBits uint) uint64 {
	v := math.Round(x * float64(uint64(1)<<fracBits))
	switch {
	case math.IsNaN(v):
		return 0
	case v >= ringHalf:
		return math.MaxInt64
	case v < -ringHalf:
		return uint64(1) << 63
	}
	return uint64(int64(v))
}

//InRange tells if x is finite and leaves room for one product of two such values
func InRange(x float64, fracBits uint) bool {
	return !math.IsNaN(x) && math.Abs(x) < float64(uint64(1)<<(31-fracBits))
}

func Decode(v uint64, fracBits uint) float64 {
	return float64(int64(v)) / float64(uint64(1)<<fracBits)
}

func EncodeVec(x []float64, fracBits uint) []uint64 {
	v := make([]uint64, len(x))
	for i := range x {
		v[i] = Encode(x[i], fracBits)
	}
	return v
}

func DecodeVec(v []uint64, fracBits uint) []float64 {
	x := make([]float64, len(v))
	for i := range v {
		x[i] = Decode(v[i], fracBits)
	}
	return x
}

func ringAdd(a, b []uint64) []uint64 {
	c := make([]uint64, len(a))
	for i := range a {
		c[i] = a[i] + b[i]
	}
	return c
}

func ringSub(a, b []uint64) []uint64 {
	c := make([]uint64, len(a))
	for i := range a {
		c[i] = a[i] - b[i]
	}
	return c
}

//c = a x b with a m x k, b k x n
func ringMatMul(a, b []uint64, m, k, n int) []uint64 {
	c := make([]uint64, m*n)
	for i := 0; i < m; i++ {
		ci := c[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			aip := a[i*k+p]
			if aip == 0 {
				continue
			}
			bp := b[p*n : (p+1)*n]
			for j := range ci {
				ci[j] += aip * bp[j]
			}
		}
	}
	return c
}
