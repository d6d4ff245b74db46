package layers

import (
	"github.com/ldsec/dnn-inference/mpc/shareUtils"
)

type ReLULayer struct {
	base
}

func NewReLULayer(father Father) (*ReLULayer, error) {
	if err := checkRank(ReLU, father.Dim, len(father.Dim)); err != nil {
		return nil, err
	}
	return &ReLULayer{newBase(father.Dim, father)}, nil
}

func (*ReLULayer) Type() LayerType {
	return ReLU
}

func (l *ReLULayer) Forward(sess *shareUtils.Session, in []*shareUtils.SharedPair) (*shareUtils.SharedPair, error) {
	if err := checkArity(ReLU, in, 1); err != nil {
		return nil, err
	}
	if err := checkInput(ReLU, in[0], l.outputDim); err != nil {
		return nil, err
	}
	return sess.ReLU(in[0]), nil
}
