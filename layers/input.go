package layers

import (
	"github.com/ldsec/dnn-inference/mpc/plainUtils"
	"github.com/ldsec/dnn-inference/mpc/shareUtils"
)

// InputLayer holds a reference to an externally supplied batch of shape [batch dim...]
type InputLayer struct {
	base
	x *shareUtils.SharedPair
}

// NewInputLayer declares an input of per-example shape dim. x may be nil and bound later with Replace
func NewInputLayer(dim []int, x *shareUtils.SharedPair) (*InputLayer, error) {
	if err := checkRank(Input, dim, len(dim)); err != nil {
		return nil, err
	}
	il := &InputLayer{base: newBase(dim)}
	if x != nil {
		if err := il.Replace(x); err != nil {
			return nil, err
		}
	}
	return il, nil
}

func (il *InputLayer) Type() LayerType {
	return Input
}

// Replace binds x in place of the current tensor
func (il *InputLayer) Replace(x *shareUtils.SharedPair) error {
	if err := checkInput(Input, x, il.outputDim); err != nil {
		return err
	}
	il.x = x
	return nil
}

func (il *InputLayer) X() *shareUtils.SharedPair {
	return il.x
}

func (il *InputLayer) Forward(sess *shareUtils.Session, in []*shareUtils.SharedPair) (*shareUtils.SharedPair, error) {
	if err := checkArity(Input, in, 0); err != nil {
		return nil, err
	}
	if il.x == nil {
		return nil, ErrUnbound
	}
	return il.x, nil
}

// Dim returns the declared per-example shape
func (il *InputLayer) Dim() []int {
	return plainUtils.CopyShape(il.outputDim)
}
