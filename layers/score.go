package layers

import (
	"fmt"

	"github.com/ldsec/dnn-inference/mpc/shareUtils"
)

type Normalizer string

const (
	SoftmaxNorm Normalizer = "softmax"
	ASMNorm     Normalizer = "asm" //ReLU(u_i)/sum_j ReLU(u_j)
)

// ScoreLayer is the terminal inference layer: output is the probability distribution
// of the father's raw score, which is kept as Score()
type ScoreLayer struct {
	base
	norm  Normalizer
	score *shareUtils.SharedPair
}

func NewScoreLayer(father Father, norm Normalizer) (*ScoreLayer, error) {
	if err := checkRank(Score, father.Dim, 1); err != nil {
		return nil, err
	}
	if norm == "" {
		norm = SoftmaxNorm
	}
	if norm != SoftmaxNorm && norm != ASMNorm {
		return nil, fmt.Errorf("unknown normalizer %q", norm)
	}
	return &ScoreLayer{base: newBase(father.Dim, father), norm: norm}, nil
}

func (*ScoreLayer) Type() LayerType {
	return Score
}

func (l *ScoreLayer) Forward(sess *shareUtils.Session, in []*shareUtils.SharedPair) (*shareUtils.SharedPair, error) {
	l.score = nil
	if err := checkArity(Score, in, 1); err != nil {
		return nil, err
	}
	if err := checkInput(Score, in[0], l.outputDim); err != nil {
		return nil, err
	}
	l.score = in[0]
	if l.norm == ASMNorm {
		return sess.ASM(in[0]), nil
	}
	return sess.Softmax(in[0]), nil
}

// Score returns the raw score of the last forward pass, nil before any
func (l *ScoreLayer) Score() *shareUtils.SharedPair {
	return l.score
}
