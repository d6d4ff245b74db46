package nn

import (
	"errors"
	"fmt"
	"io"

	"github.com/ldsec/dnn-inference/mpc/distributed"
	"github.com/ldsec/dnn-inference/mpc/layers"
	"github.com/ldsec/dnn-inference/mpc/network"
	"github.com/ldsec/dnn-inference/mpc/plainUtils"
	"github.com/ldsec/dnn-inference/mpc/shareUtils"
	"github.com/sbinet/npyio/npz"
)

var ErrArity = errors.New("weight count does not match the network")
var ErrRole = errors.New("layer has an unexpected role")

//name of the array holding the weights in a saved model
const WeightKey = "weight"

//Config sizes a NetworkB. DefaultConfig is the MNIST architecture
type Config struct {
	InputShape []int //[h, w, c]
	Filters    int
	KernelSize int
	PoolSize   int
	Pooling    string //"max" or "avg"
	Hidden     int
	Classes    int
	Normalizer layers.Normalizer
}

func DefaultConfig() Config {
	return Config{
		InputShape: []int{28, 28, 1},
		Filters:    16,
		KernelSize: 5,
		PoolSize:   2,
		Pooling:    "max",
		Hidden:     100,
		Classes:    10,
		Normalizer: layers.SoftmaxNorm,
	}
}

/*
	NetworkB is a 4-layer convolutional network:
	conv(16 filters 5x5) -> ReLU -> 2x2 pool -> conv(16 filters 5x5) -> ReLU -> 2x2 pool -> flatten ->
	dense(100) -> ReLU -> dense(10) -> score,
	plus a training tail label input -> softmax cross-entropy which predictions cut off
*/
type NetworkB struct {
	*network.Network
	conf  Config
	label *layers.InputLayer
}

//NewNetworkB builds the network over feature [batch, InputShape...] and label [batch, Classes].
//Both may be nil and bound later
func NewNetworkB(sess *shareUtils.Session, conf Config, feature, label *shareUtils.SharedPair) (*NetworkB, error) {
	nb := &NetworkB{Network: network.NewNetwork(), conf: conf}

	input, err := layers.NewInputLayer(conf.InputShape, feature)
	if err := nb.add(input, err); err != nil {
		return nil, err
	}
	for stage := 0; stage < 2; stage++ {
		convConf := layers.ConvConfig{Filters: conf.Filters, KernelSize: conf.KernelSize, InputShape: nb.Last().Dim}
		if stage == 0 {
			convConf.InputShape = conf.InputShape
		}
		if err := nb.add(layers.NewConv2dLayer(sess, nb.Last(), convConf)); err != nil {
			return nil, err
		}
		if err := nb.add(layers.NewReLULayer(nb.Last())); err != nil {
			return nil, err
		}
		switch conf.Pooling {
		case "max":
			err = nb.add(layers.NewMaxPooling2DLayer(nb.Last(), conf.PoolSize))
		case "avg":
			err = nb.add(layers.NewAveragePooling2DLayer(nb.Last(), conf.PoolSize))
		default:
			err = fmt.Errorf("unknown pooling %q", conf.Pooling)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := nb.add(layers.NewFlattenLayer(nb.Last())); err != nil {
		return nil, err
	}
	if err := nb.add(layers.NewDenseLayer(sess, nb.Last(), conf.Hidden)); err != nil {
		return nil, err
	}
	if err := nb.add(layers.NewReLULayer(nb.Last())); err != nil {
		return nil, err
	}
	if err := nb.add(layers.NewDenseLayer(sess, nb.Last(), conf.Classes)); err != nil {
		return nil, err
	}
	scoreFather := nb.Last()
	if err := nb.add(layers.NewScoreLayer(scoreFather, conf.Normalizer)); err != nil {
		return nil, err
	}
	nb.MarkCut()

	//training tail
	nb.label, err = layers.NewInputLayer([]int{conf.Classes}, label)
	if err := nb.add(nb.label, err); err != nil {
		return nil, err
	}
	if err := nb.add(layers.NewCrossEntropyLossWithSoftmaxLayer(scoreFather, nb.Last())); err != nil {
		return nil, err
	}
	return nb, nil
}

func (nb *NetworkB) add(l layers.Layer, err error) error {
	if err != nil {
		return fmt.Errorf("layer %d: %w", nb.GetNumOfLayers(), err)
	}
	_, err = nb.AddLayer(l)
	return err
}

func (nb *NetworkB) Config() Config {
	return nb.conf
}

//SetLabel binds the labels used by Loss
func (nb *NetworkB) SetLabel(y *shareUtils.SharedPair) error {
	return nb.label.Replace(y)
}

//Loss evaluates the training tail. It fails once predictions have cut it off
func (nb *NetworkB) Loss(sess *shareUtils.Session) (*shareUtils.SharedPair, error) {
	last := nb.GetNumOfLayers() - 1
	if _, ok := nb.Layer(last).(*layers.LossLayer); !ok {
		return nil, fmt.Errorf("last layer is %s, not a loss: %w", nb.Layer(last).Type(), ErrRole)
	}
	return nb.ForwardTo(sess, last)
}

//Predict binds x to the input layer and evaluates the score layer.
//It returns the probabilities if outProb, else the raw scores
func (nb *NetworkB) Predict(sess *shareUtils.Session, x *shareUtils.SharedPair, outProb bool) (*shareUtils.SharedPair, error) {
	nb.CutOff()
	input, ok := nb.Layer(0).(*layers.InputLayer)
	if !ok {
		return nil, fmt.Errorf("first layer is %s: %w", nb.Layer(0).Type(), ErrRole)
	}
	if err := input.Replace(x); err != nil {
		return nil, err
	}
	last := nb.GetNumOfLayers() - 1
	score, ok := nb.Layer(last).(*layers.ScoreLayer)
	if !ok {
		return nil, fmt.Errorf("last layer is %s, not a score: %w", nb.Layer(last).Type(), ErrRole)
	}
	y, err := nb.ForwardTo(sess, last)
	if err != nil {
		return nil, err
	}
	if outProb {
		return y, nil
	}
	return score.Score(), nil
}

//weight containers in walk order: conv kernels, dense kernel then bias
func (nb *NetworkB) weights() []*shareUtils.SharedVariablePair {
	var res []*shareUtils.SharedVariablePair
	for _, l := range nb.WeightedLayers() {
		res = append(res, l.Weights()...)
	}
	return res
}

//ReplaceWeight loads plaintext weights, e.g. from an externally trained model, in walk order.
//Nothing is loaded unless the count and every shape match
func (nb *NetworkB) ReplaceWeight(sess *shareUtils.Session, weights []*plainUtils.Tensor) error {
	containers := nb.weights()
	if len(weights) != len(containers) {
		return fmt.Errorf("got %d tensors for %d weights: %w", len(weights), len(containers), ErrArity)
	}
	for i, w := range containers {
		if err := w.CheckPlain(weights[i]); err != nil {
			return fmt.Errorf("weight %d: %w", i, err)
		}
	}
	for i, w := range containers {
		if err := w.LoadFromPlain(sess, weights[i]); err != nil {
			return fmt.Errorf("weight %d: %w", i, err)
		}
	}
	return nil
}

//RevealWeights reveals every weight at owner, in walk order
func (nb *NetworkB) RevealWeights(sess *shareUtils.Session, owner string) ([]*plainUtils.Tensor, error) {
	if _, err := distributed.Other(owner); err != nil {
		return nil, err
	}
	containers := nb.weights()
	res := make([]*plainUtils.Tensor, len(containers))
	for i, w := range containers {
		t, err := w.Reveal(sess, owner)
		if err != nil {
			return nil, fmt.Errorf("weight %d: %w", i, err)
		}
		res[i] = t
	}
	return res, nil
}

//SaveModel reveals the weights at owner and writes them to an npz file as the single array WeightKey,
//concatenated in walk order
func (nb *NetworkB) SaveModel(sess *shareUtils.Session, path string, owner string) (err error) {
	weights, err := nb.RevealWeights(sess, owner)
	if err != nil {
		return err
	}
	var flat []float64
	for _, w := range weights {
		flat = append(flat, w.Data...)
	}
	f, err := npz.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return f.Write(WeightKey, flat)
}

//LoadModel reads a file written by SaveModel and loads it with ReplaceWeight
func (nb *NetworkB) LoadModel(sess *shareUtils.Session, path string) error {
	f, err := npz.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var flat []float64
	if err := f.Read(WeightKey, &flat); err != nil {
		return err
	}
	containers := nb.weights()
	weights := make([]*plainUtils.Tensor, len(containers))
	off := 0
	for i, w := range containers {
		n := plainUtils.Size(w.Shape)
		if off+n > len(flat) {
			return fmt.Errorf("%s: %d values for weight %d: %w", path, len(flat), i, ErrArity)
		}
		weights[i], err = plainUtils.NewTensor(w.Shape, flat[off:off+n])
		if err != nil {
			return err
		}
		off += n
	}
	if off != len(flat) {
		return fmt.Errorf("%s: %d values left over: %w", path, len(flat)-off, ErrArity)
	}
	return nb.ReplaceWeight(sess, weights)
}

//PrintWeights writes every weight-bearing layer and its weights revealed at owner
func (nb *NetworkB) PrintWeights(sess *shareUtils.Session, owner string, w io.Writer) error {
	for _, l := range nb.WeightedLayers() {
		fmt.Fprintln(w, l)
		for _, v := range l.Weights() {
			fmt.Fprintln(w, v)
			t, err := v.Reveal(sess, owner)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "***")
			fmt.Fprintln(w, t.Data)
		}
	}
	return nil
}
