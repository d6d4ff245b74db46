package layers

import (
	"testing"

	"github.com/ldsec/dnn-inference/mpc/plainUtils"
	"github.com/ldsec/dnn-inference/mpc/shareUtils"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func newTestSession(t *testing.T) *shareUtils.Session {
	s, err := shareUtils.NewSession(shareUtils.Config{Seed: []byte{'L', 'A', 'Y'}})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func reveal(t *testing.T, s *shareUtils.Session, x *shareUtils.SharedPair) *plainUtils.Tensor {
	r, err := s.Reveal(x, shareUtils.PartyL)
	require.NoError(t, err)
	return r
}

func TestInputLayer(t *testing.T) {
	s := newTestSession(t)
	il, err := NewInputLayer([]int{2, 2, 1}, nil)
	require.NoError(t, err)
	_, err = il.Forward(s, nil)
	require.ErrorIs(t, err, ErrUnbound)

	x := s.Share(plainUtils.Zeros([]int{3, 2, 2, 1}))
	require.NoError(t, il.Replace(x))
	y, err := il.Forward(s, nil)
	require.NoError(t, err)
	require.Same(t, x, y)

	require.ErrorIs(t, il.Replace(s.Share(plainUtils.Zeros([]int{3, 2, 2}))), shareUtils.ErrShapeMismatch)
	require.ErrorIs(t, il.Replace(s.Share(plainUtils.Zeros([]int{3, 2, 3, 1}))), shareUtils.ErrShapeMismatch)
	y, _ = il.Forward(s, nil)
	require.Same(t, x, y, "failed replace must keep the bound tensor")
}

func TestConv2dLayer(t *testing.T) {
	s := newTestSession(t)
	h, w, c, k, f := 5, 4, 2, 3, 2
	l, err := NewConv2dLayer(s, Father{Index: 0, Dim: []int{h, w, c}}, ConvConfig{Filters: f, KernelSize: k})
	require.NoError(t, err)
	require.Equal(t, []int{3, 2, 2}, l.OutputDim())
	require.Equal(t, []int{k, k, c, f}, l.Weights()[0].Shape)

	x, _ := plainUtils.NewTensor([]int{2, h, w, c}, s.RandUniform(2*h*w*c, 1))
	kernel, _ := plainUtils.NewTensor([]int{k, k, c, f}, s.RandUniform(k*k*c*f, 1))
	require.NoError(t, l.Weights()[0].LoadFromPlain(s, kernel))

	y, err := l.Forward(s, []*shareUtils.SharedPair{s.Share(x)})
	require.NoError(t, err)
	got := reveal(t, s, y)
	require.Equal(t, []int{2, 3, 2, 2}, got.Shape)

	expected := make([]float64, 0, len(got.Data))
	for n := 0; n < 2; n++ {
		for oy := 0; oy < 3; oy++ {
			for ox := 0; ox < 2; ox++ {
				for fo := 0; fo < f; fo++ {
					acc := 0.0
					for ky := 0; ky < k; ky++ {
						for kx := 0; kx < k; kx++ {
							for ci := 0; ci < c; ci++ {
								acc += x.Data[((n*h+oy+ky)*w+ox+kx)*c+ci] * kernel.Data[((ky*k+kx)*c+ci)*f+fo]
							}
						}
					}
					expected = append(expected, acc)
				}
			}
		}
	}
	require.True(t, floats.EqualApprox(expected, got.Data, 1e-3))

	t.Run("WrongInput", func(t *testing.T) {
		_, err := l.Forward(s, []*shareUtils.SharedPair{s.Share(plainUtils.Zeros([]int{1, h, w, 1}))})
		require.ErrorIs(t, err, shareUtils.ErrShapeMismatch)
	})
	t.Run("DeclaredInputMismatch", func(t *testing.T) {
		_, err := NewConv2dLayer(s, Father{Dim: []int{h, w, c}}, ConvConfig{Filters: 1, KernelSize: 1, InputShape: []int{h, w, 1}})
		require.ErrorIs(t, err, shareUtils.ErrShapeMismatch)
	})
	t.Run("KernelTooLarge", func(t *testing.T) {
		_, err := NewConv2dLayer(s, Father{Dim: []int{h, w, c}}, ConvConfig{Filters: 1, KernelSize: 5})
		require.ErrorIs(t, err, shareUtils.ErrShapeMismatch)
	})
}

func TestDenseLayer(t *testing.T) {
	s := newTestSession(t)
	l, err := NewDenseLayer(s, Father{Dim: []int{6}}, 3)
	require.NoError(t, err)
	require.Len(t, l.Weights(), 2)

	wm := plainUtils.TransposeDense(plainUtils.RandMatrix(3, 6))
	b, _ := plainUtils.NewTensor([]int{3}, []float64{0.5, -1, 0})
	require.NoError(t, l.Weights()[0].LoadFromPlain(s, plainUtils.FromDense(wm)))
	require.NoError(t, l.Weights()[1].LoadFromPlain(s, b))

	x := plainUtils.RandMatrix(4, 6)
	var expected mat.Dense
	expected.Mul(x, wm)
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			expected.Set(i, j, expected.At(i, j)+b.Data[j])
		}
	}
	y, err := l.Forward(s, []*shareUtils.SharedPair{s.Share(plainUtils.FromDense(x))})
	require.NoError(t, err)
	require.True(t, floats.EqualApprox(plainUtils.RowFlatten(&expected), reveal(t, s, y).Data, 1e-3))

	_, err = NewDenseLayer(s, Father{Dim: []int{2, 3}}, 3)
	require.ErrorIs(t, err, shareUtils.ErrShapeMismatch)
}

func TestPoolFlattenReLU(t *testing.T) {
	s := newTestSession(t)
	x, _ := plainUtils.NewTensor([]int{1, 4, 4, 1}, plainUtils.RowFlatten(plainUtils.MatrixForDebug(4, 4)))

	avg, err := NewAveragePooling2DLayer(Father{Dim: []int{4, 4, 1}}, 2)
	require.NoError(t, err)
	y, err := avg.Forward(s, []*shareUtils.SharedPair{s.Share(x)})
	require.NoError(t, err)
	require.Equal(t, []float64{3.5, 5.5, 11.5, 13.5}, reveal(t, s, y).Data)

	max, err := NewMaxPooling2DLayer(Father{Dim: []int{4, 4, 1}}, 2)
	require.NoError(t, err)
	require.Equal(t, []int{2, 2, 1}, max.OutputDim())
	_, err = NewMaxPooling2DLayer(Father{Dim: []int{1, 4, 1}}, 2)
	require.ErrorIs(t, err, shareUtils.ErrShapeMismatch)

	flat, err := NewFlattenLayer(Father{Dim: []int{2, 2, 1}})
	require.NoError(t, err)
	require.Equal(t, []int{4}, flat.OutputDim())
	fy, err := flat.Forward(s, []*shareUtils.SharedPair{y})
	require.NoError(t, err)
	require.Equal(t, []int{1, 4}, fy.Shape)

	relu, err := NewReLULayer(Father{Dim: []int{4}})
	require.NoError(t, err)
	neg := s.MulConst(fy, -1)
	ry, err := relu.Forward(s, []*shareUtils.SharedPair{neg})
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0, 0, 0}, reveal(t, s, ry).Data)
}

func TestScoreAndLoss(t *testing.T) {
	s := newTestSession(t)
	u, _ := plainUtils.NewTensor([]int{2, 3}, []float64{1, 2, 3, 0, 0, 0})
	y, _ := plainUtils.NewTensor([]int{2, 3}, []float64{0, 0, 1, 1, 0, 0})

	sl, err := NewScoreLayer(Father{Dim: []int{3}}, "")
	require.NoError(t, err)
	require.Nil(t, sl.Score())
	su := s.Share(u)
	p, err := sl.Forward(s, []*shareUtils.SharedPair{su})
	require.NoError(t, err)
	require.Same(t, su, sl.Score())
	prob := reveal(t, s, p)
	for i := 0; i < 2; i++ {
		require.InDelta(t, 1.0, floats.Sum(prob.Row(i)), 1e-3)
	}

	_, err = NewScoreLayer(Father{Dim: []int{3}}, "sigmoid")
	require.Error(t, err)

	loss, err := NewCrossEntropyLossWithSoftmaxLayer(Father{Index: 0, Dim: []int{3}}, Father{Index: 1, Dim: []int{3}})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, loss.Fathers())
	l, err := loss.Forward(s, []*shareUtils.SharedPair{su, s.Share(y)})
	require.NoError(t, err)
	require.Greater(t, reveal(t, s, l).Data[0], 0.0)

	_, err = NewCrossEntropyLossWithSoftmaxLayer(Father{Dim: []int{3}}, Father{Dim: []int{10}})
	require.ErrorIs(t, err, shareUtils.ErrShapeMismatch)
}
