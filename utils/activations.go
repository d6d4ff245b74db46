package utils

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

func ReLU(x float64) float64 {
	if x > 0 {
		return x
	} else {
		return 0.0
	}
}

//numerically stable softmax of v, in place
func Softmax(v []float64) []float64 {
	if len(v) == 0 {
		return v
	}
	max := floats.Max(v)
	for i := range v {
		v[i] = math.Exp(v[i] - max)
	}
	floats.Scale(1/floats.Sum(v), v)
	return v
}

//ASM(u_i) = ReLU(u_i) / sum_j ReLU(u_j), in place.
//When every ReLU(u_j) is 0 the distribution is uniform
func ASM(v []float64) []float64 {
	if len(v) == 0 {
		return v
	}
	for i := range v {
		v[i] = ReLU(v[i])
	}
	sum := floats.Sum(v)
	if sum == 0 {
		for i := range v {
			v[i] = 1.0 / float64(len(v))
		}
		return v
	}
	floats.Scale(1/sum, v)
	return v
}
