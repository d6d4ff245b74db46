package layers

import (
	"github.com/ldsec/dnn-inference/mpc/plainUtils"
	"github.com/ldsec/dnn-inference/mpc/shareUtils"
)

// FlattenLayer reshapes [batch, h, w, c] to [batch, h*w*c], keeping NHWC order
type FlattenLayer struct {
	base
	input []int
}

func NewFlattenLayer(father Father) (*FlattenLayer, error) {
	if err := checkRank(Flatten, father.Dim, len(father.Dim)); err != nil {
		return nil, err
	}
	return &FlattenLayer{base: newBase([]int{plainUtils.Size(father.Dim)}, father), input: plainUtils.CopyShape(father.Dim)}, nil
}

func (*FlattenLayer) Type() LayerType {
	return Flatten
}

func (l *FlattenLayer) Forward(sess *shareUtils.Session, in []*shareUtils.SharedPair) (*shareUtils.SharedPair, error) {
	if err := checkArity(Flatten, in, 1); err != nil {
		return nil, err
	}
	if err := checkInput(Flatten, in[0], l.input); err != nil {
		return nil, err
	}
	return shareUtils.Reshape(in[0], []int{in[0].Shape[0], l.outputDim[0]})
}
