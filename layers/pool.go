package layers

import (
	"fmt"

	"github.com/ldsec/dnn-inference/mpc/plainUtils"
	"github.com/ldsec/dnn-inference/mpc/shareUtils"
)

// PoolLayer pools non overlapping p x p windows, by max or by average
type PoolLayer struct {
	base
	typ   LayerType
	size  int
	input []int
}

func NewMaxPooling2DLayer(father Father, poolSize int) (*PoolLayer, error) {
	return newPoolLayer(MaxPooling2D, father, poolSize)
}

func NewAveragePooling2DLayer(father Father, poolSize int) (*PoolLayer, error) {
	return newPoolLayer(AveragePooling2D, father, poolSize)
}

func newPoolLayer(typ LayerType, father Father, p int) (*PoolLayer, error) {
	if err := checkRank(typ, father.Dim, 3); err != nil {
		return nil, err
	}
	if p <= 0 {
		return nil, fmt.Errorf("%s needs a positive pool size, got %d", typ, p)
	}
	outDim := []int{father.Dim[0] / p, father.Dim[1] / p, father.Dim[2]}
	if outDim[0] == 0 || outDim[1] == 0 {
		return nil, fmt.Errorf("%s pool %d larger than input %v: %w", typ, p, father.Dim, shareUtils.ErrShapeMismatch)
	}
	return &PoolLayer{base: newBase(outDim, father), typ: typ, size: p, input: plainUtils.CopyShape(father.Dim)}, nil
}

func (l *PoolLayer) Type() LayerType {
	return l.typ
}

func (l *PoolLayer) Forward(sess *shareUtils.Session, in []*shareUtils.SharedPair) (*shareUtils.SharedPair, error) {
	if err := checkArity(l.typ, in, 1); err != nil {
		return nil, err
	}
	if err := checkInput(l.typ, in[0], l.input); err != nil {
		return nil, err
	}
	if l.typ == MaxPooling2D {
		return sess.MaxPool(in[0], l.size)
	}
	sum, err := shareUtils.SumPool(in[0], l.size)
	if err != nil {
		return nil, err
	}
	return sess.MulConst(sum, 1/float64(l.size*l.size)), nil
}
