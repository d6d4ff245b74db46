package layers

import (
	"fmt"

	"github.com/ldsec/dnn-inference/mpc/plainUtils"
	"github.com/ldsec/dnn-inference/mpc/shareUtils"
)

// LossLayer is the mean softmax cross-entropy of a score layer against a label layer. Training only
type LossLayer struct {
	base
	classes []int
}

func NewCrossEntropyLossWithSoftmaxLayer(score, label Father) (*LossLayer, error) {
	if err := checkRank(CrossEntropyLossSM, score.Dim, 1); err != nil {
		return nil, err
	}
	if !plainUtils.SameShape(score.Dim, label.Dim) {
		return nil, fmt.Errorf("score %v and label %v differ: %w", score.Dim, label.Dim, shareUtils.ErrShapeMismatch)
	}
	return &LossLayer{base: newBase([]int{1}, score, label), classes: plainUtils.CopyShape(score.Dim)}, nil
}

func (*LossLayer) Type() LayerType {
	return CrossEntropyLossSM
}

func (l *LossLayer) Forward(sess *shareUtils.Session, in []*shareUtils.SharedPair) (*shareUtils.SharedPair, error) {
	if err := checkArity(CrossEntropyLossSM, in, 2); err != nil {
		return nil, err
	}
	for _, x := range in {
		if err := checkInput(CrossEntropyLossSM, x, l.classes); err != nil {
			return nil, err
		}
	}
	return sess.CrossEntropy(in[0], in[1])
}
