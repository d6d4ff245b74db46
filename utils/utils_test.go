package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestActivations(t *testing.T) {
	p := Softmax([]float64{1000, 1000, 1000, 1000})
	require.True(t, floats.EqualApprox([]float64{0.25, 0.25, 0.25, 0.25}, p, 1e-12))
	p = Softmax([]float64{0, 1})
	require.InDelta(t, 1.0, floats.Sum(p), 1e-12)
	require.Greater(t, p[1], p[0])

	require.Equal(t, []float64{0.25, 0, 0.75}, ASM([]float64{1, -2, 3}))
	require.Equal(t, []float64{0.5, 0.5}, ASM([]float64{-1, 0}))
	require.Empty(t, ASM(nil))
	require.Equal(t, 0.0, ReLU(-3))
}

func TestPredict(t *testing.T) {
	corrects, accuracy, predictions := Predict([]int{1, 0, 2}, 3, [][]float64{
		{0.1, 0.8, 0.1},
		{0.2, 0.7, 0.1},
		{0.3, 0.3, 0.4},
	})
	require.Equal(t, 2, corrects)
	require.InDelta(t, 2.0/3, accuracy, 1e-12)
	require.Equal(t, []int{1, 1, 2}, predictions)

	s := NewStats(3)
	s.Accumulate(Stats{Corrects: corrects, Accuracy: accuracy, Time: 10})
	s.Accumulate(Stats{Corrects: 3, Accuracy: 1, Time: 20})
	require.Equal(t, 2, s.Iters)
	require.Equal(t, 5, s.Corrects)
	require.Equal(t, int64(30), s.Time)
}

func TestThrowErr(t *testing.T) {
	require.NotPanics(t, func() { ThrowErr(nil) })
	require.Panics(t, func() { ThrowErr(errors.New("boom")) })
}
