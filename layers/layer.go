package layers

import (
	"errors"
	"fmt"
	"math"

	"github.com/ldsec/dnn-inference/mpc/plainUtils"
	"github.com/ldsec/dnn-inference/mpc/shareUtils"
)

// LayerType describes the network layer
type LayerType string

// LayerType enums
const (
	Input              LayerType = "input"
	Conv2d             LayerType = "conv2d"
	Dense              LayerType = "dense"
	ReLU               LayerType = "relu"
	MaxPooling2D       LayerType = "maxpool2d"
	AveragePooling2D   LayerType = "avgpool2d"
	Flatten            LayerType = "flatten"
	Score              LayerType = "score"
	CrossEntropyLossSM LayerType = "cross_entropy_softmax"
)

var ErrUnbound = errors.New("input layer has no tensor bound")

// Layer is a node of the network graph. Fathers are indexes of earlier layers in the graph,
// OutputDim is the per-example output shape (no batch dimension), fixed at construction
type Layer interface {
	Type() LayerType
	Fathers() []int
	OutputDim() []int
	// Forward computes the output from the outputs of the fathers, in Fathers() order
	Forward(sess *shareUtils.Session, in []*shareUtils.SharedPair) (*shareUtils.SharedPair, error)
}

// WeightedLayer is a layer carrying secret-shared weights, in load/save order
type WeightedLayer interface {
	Layer
	Weights() []*shareUtils.SharedVariablePair
}

// Father identifies a parent layer by graph index and declared output shape
type Father struct {
	Index int
	Dim   []int
}

type base struct {
	fathers   []int
	outputDim []int
}

func newBase(outputDim []int, fathers ...Father) base {
	b := base{outputDim: plainUtils.CopyShape(outputDim)}
	for _, f := range fathers {
		b.fathers = append(b.fathers, f.Index)
	}
	return b
}

func (b *base) Fathers() []int {
	return b.fathers
}

func (b *base) OutputDim() []int {
	return b.outputDim
}

// fails unless in is a batch of tensors of shape dim
func checkInput(t LayerType, in *shareUtils.SharedPair, dim []int) error {
	if in == nil {
		return fmt.Errorf("%s: nil input", t)
	}
	if len(in.Shape) != len(dim)+1 || !plainUtils.SameShape(in.Shape[1:], dim) {
		return fmt.Errorf("%s expects [batch %v], got %v: %w", t, dim, in.Shape, shareUtils.ErrShapeMismatch)
	}
	return nil
}

func checkArity(t LayerType, in []*shareUtils.SharedPair, n int) error {
	if len(in) != n {
		return fmt.Errorf("%s takes %d inputs, got %d", t, n, len(in))
	}
	return nil
}

func checkRank(t LayerType, dim []int, rank int) error {
	if len(dim) != rank {
		return fmt.Errorf("%s needs a rank %d input, father has %v: %w", t, rank, dim, shareUtils.ErrShapeMismatch)
	}
	for _, d := range dim {
		if d <= 0 {
			return fmt.Errorf("%s: non positive dimension in %v: %w", t, dim, shareUtils.ErrShapeMismatch)
		}
	}
	return nil
}

// glorotInit samples a Glorot-uniform tensor
func glorotInit(sess *shareUtils.Session, shape []int, fanIn, fanOut int) *plainUtils.Tensor {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	t, err := plainUtils.NewTensor(shape, sess.RandUniform(plainUtils.Size(shape), limit))
	if err != nil {
		panic(err)
	}
	return t
}
