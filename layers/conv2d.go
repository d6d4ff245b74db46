package layers

import (
	"fmt"

	"github.com/ldsec/dnn-inference/mpc/plainUtils"
	"github.com/ldsec/dnn-inference/mpc/shareUtils"
)

type ConvConfig struct {
	Filters    int
	KernelSize int
	//if set, must equal the father's output shape [h, w, c]
	InputShape []int
}

// Conv2dLayer is a valid, stride 1, bias free convolution over NHWC inputs.
// Its single weight is the HWIO kernel [k, k, c, filters]
type Conv2dLayer struct {
	base
	conf   ConvConfig
	input  []int
	kernel *shareUtils.SharedVariablePair
}

func NewConv2dLayer(sess *shareUtils.Session, father Father, conf ConvConfig) (*Conv2dLayer, error) {
	if err := checkRank(Conv2d, father.Dim, 3); err != nil {
		return nil, err
	}
	if conf.InputShape != nil && !plainUtils.SameShape(conf.InputShape, father.Dim) {
		return nil, fmt.Errorf("conv2d declared input %v, father outputs %v: %w", conf.InputShape, father.Dim, shareUtils.ErrShapeMismatch)
	}
	if conf.Filters <= 0 || conf.KernelSize <= 0 {
		return nil, fmt.Errorf("conv2d needs positive filters and kernel size, got %d and %d", conf.Filters, conf.KernelSize)
	}
	h, w, c := father.Dim[0], father.Dim[1], father.Dim[2]
	k := conf.KernelSize
	outDim := []int{h - k + 1, w - k + 1, conf.Filters}
	if outDim[0] <= 0 || outDim[1] <= 0 {
		return nil, fmt.Errorf("conv2d kernel %d does not fit input %v: %w", k, father.Dim, shareUtils.ErrShapeMismatch)
	}
	kernelShape := []int{k, k, c, conf.Filters}
	kernel := shareUtils.NewSharedVariablePair(sess, "conv2d/kernel", glorotInit(sess, kernelShape, k*k*c, k*k*conf.Filters))
	return &Conv2dLayer{
		base:   newBase(outDim, father),
		conf:   conf,
		input:  plainUtils.CopyShape(father.Dim),
		kernel: kernel,
	}, nil
}

func (*Conv2dLayer) Type() LayerType {
	return Conv2d
}

func (l *Conv2dLayer) Weights() []*shareUtils.SharedVariablePair {
	return []*shareUtils.SharedVariablePair{l.kernel}
}

func (l *Conv2dLayer) Forward(sess *shareUtils.Session, in []*shareUtils.SharedPair) (*shareUtils.SharedPair, error) {
	if err := checkArity(Conv2d, in, 1); err != nil {
		return nil, err
	}
	if err := checkInput(Conv2d, in[0], l.input); err != nil {
		return nil, err
	}
	k, c := l.conf.KernelSize, l.input[2]
	cols, err := shareUtils.Im2Col(in[0], k)
	if err != nil {
		return nil, err
	}
	kmat, err := shareUtils.Reshape(l.kernel.Value(), []int{k * k * c, l.conf.Filters})
	if err != nil {
		return nil, err
	}
	y, err := sess.MatMul(cols, kmat)
	if err != nil {
		return nil, err
	}
	return shareUtils.Reshape(y, append([]int{in[0].Shape[0]}, l.outputDim...))
}

func (l *Conv2dLayer) String() string {
	return fmt.Sprintf("Conv2d(filters=%d, kernel=%dx%d, input=%v, output=%v)", l.conf.Filters, l.conf.KernelSize, l.conf.KernelSize, l.input, l.outputDim)
}
