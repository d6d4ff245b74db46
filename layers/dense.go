package layers

import (
	"fmt"

	"github.com/ldsec/dnn-inference/mpc/plainUtils"
	"github.com/ldsec/dnn-inference/mpc/shareUtils"
)

// DenseLayer computes x W + b. Weights in order: kernel [in, units], bias [units]
type DenseLayer struct {
	base
	input int
	w, b  *shareUtils.SharedVariablePair
}

func NewDenseLayer(sess *shareUtils.Session, father Father, units int) (*DenseLayer, error) {
	if err := checkRank(Dense, father.Dim, 1); err != nil {
		return nil, err
	}
	if units <= 0 {
		return nil, fmt.Errorf("dense needs positive units, got %d", units)
	}
	in := father.Dim[0]
	return &DenseLayer{
		base:  newBase([]int{units}, father),
		input: in,
		w:     shareUtils.NewSharedVariablePair(sess, "dense/kernel", glorotInit(sess, []int{in, units}, in, units)),
		b:     shareUtils.NewSharedVariablePair(sess, "dense/bias", plainUtils.Zeros([]int{units})),
	}, nil
}

func (*DenseLayer) Type() LayerType {
	return Dense
}

func (l *DenseLayer) Weights() []*shareUtils.SharedVariablePair {
	return []*shareUtils.SharedVariablePair{l.w, l.b}
}

func (l *DenseLayer) Forward(sess *shareUtils.Session, in []*shareUtils.SharedPair) (*shareUtils.SharedPair, error) {
	if err := checkArity(Dense, in, 1); err != nil {
		return nil, err
	}
	if err := checkInput(Dense, in[0], []int{l.input}); err != nil {
		return nil, err
	}
	xw, err := sess.MatMul(in[0], l.w.Value())
	if err != nil {
		return nil, err
	}
	return shareUtils.AddBias(xw, l.b.Value())
}

func (l *DenseLayer) String() string {
	return fmt.Sprintf("Dense(%d -> %d)", l.input, l.outputDim[0])
}
