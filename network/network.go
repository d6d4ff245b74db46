package network

import (
	"errors"
	"fmt"

	"github.com/ldsec/dnn-inference/mpc/layers"
	"github.com/ldsec/dnn-inference/mpc/shareUtils"
)

var ErrNoOutput = errors.New("father has no output")
var ErrForwardRef = errors.New("father is not an earlier layer")
var ErrEmpty = errors.New("network has no layers")

//Network is a DAG of layers kept in construction order: every father precedes its children,
//so evaluating in index order never needs a topological sort.
//The network owns its layers and their cached outputs. It is not safe for concurrent use
type Network struct {
	layers  []layers.Layer
	outputs []*shareUtils.SharedPair
	cut     int //number of layers kept by CutOff, -1 if not marked
}

func NewNetwork() *Network {
	return &Network{cut: -1}
}

//AddLayer appends l and returns its index
func (n *Network) AddLayer(l layers.Layer) (int, error) {
	idx := len(n.layers)
	for _, f := range l.Fathers() {
		if f < 0 || f >= idx {
			return -1, fmt.Errorf("layer %d (%s) father %d: %w", idx, l.Type(), f, ErrForwardRef)
		}
	}
	n.layers = append(n.layers, l)
	n.outputs = append(n.outputs, nil)
	return idx, nil
}

//Father describes layer i for the constructor of a child
func (n *Network) Father(i int) layers.Father {
	return layers.Father{Index: i, Dim: n.layers[i].OutputDim()}
}

//Last describes the last layer added
func (n *Network) Last() layers.Father {
	return n.Father(len(n.layers) - 1)
}

func (n *Network) GetNumOfLayers() int {
	return len(n.layers)
}

func (n *Network) Layers() []layers.Layer {
	return n.layers
}

func (n *Network) Layer(i int) layers.Layer {
	return n.layers[i]
}

//Output is the cached output of layer i from the last forward pass that evaluated it
func (n *Network) Output(i int) *shareUtils.SharedPair {
	return n.outputs[i]
}

//MarkCut records the current length as the boundary kept by CutOff
func (n *Network) MarkCut() {
	n.cut = len(n.layers)
}

//CutOff drops the layers added after MarkCut. Calling it again is a no-op
func (n *Network) CutOff() {
	if n.cut < 0 || n.cut >= len(n.layers) {
		return
	}
	for i := n.cut; i < len(n.layers); i++ {
		n.layers[i] = nil
		n.outputs[i] = nil
	}
	n.layers = n.layers[:n.cut]
	n.outputs = n.outputs[:n.cut]
}

//WeightedLayers lists the weight-bearing layers in construction order
func (n *Network) WeightedLayers() []layers.WeightedLayer {
	var res []layers.WeightedLayer
	for _, l := range n.layers {
		if wl, ok := l.(layers.WeightedLayer); ok {
			res = append(res, wl)
		}
	}
	return res
}

//Forward evaluates the whole network and returns the output of the last layer
func (n *Network) Forward(sess *shareUtils.Session) (*shareUtils.SharedPair, error) {
	if len(n.layers) == 0 {
		return nil, ErrEmpty
	}
	for i := range n.outputs {
		n.outputs[i] = nil
	}
	for i := range n.layers {
		if err := n.eval(sess, i); err != nil {
			return nil, err
		}
	}
	return n.outputs[len(n.layers)-1], nil
}

//ForwardTo evaluates layer target and, in order, the layers it depends on
func (n *Network) ForwardTo(sess *shareUtils.Session, target int) (*shareUtils.SharedPair, error) {
	if len(n.layers) == 0 {
		return nil, ErrEmpty
	}
	if target < 0 || target >= len(n.layers) {
		return nil, fmt.Errorf("no layer %d in a network of %d", target, len(n.layers))
	}
	path := n.ancestors(target)
	for i := range path {
		if path[i] {
			n.outputs[i] = nil
		}
	}
	for i := 0; i <= target; i++ {
		if !path[i] {
			continue
		}
		if err := n.eval(sess, i); err != nil {
			return nil, err
		}
	}
	return n.outputs[target], nil
}

//marks target and everything it depends on
func (n *Network) ancestors(target int) []bool {
	path := make([]bool, target+1)
	path[target] = true
	for i := target; i >= 0; i-- {
		if !path[i] {
			continue
		}
		for _, f := range n.layers[i].Fathers() {
			path[f] = true
		}
	}
	return path
}

func (n *Network) eval(sess *shareUtils.Session, i int) error {
	l := n.layers[i]
	fathers := l.Fathers()
	in := make([]*shareUtils.SharedPair, len(fathers))
	for j, f := range fathers {
		if f >= i || n.outputs[f] == nil {
			return fmt.Errorf("layer %d (%s) father %d: %w", i, l.Type(), f, ErrNoOutput)
		}
		in[j] = n.outputs[f]
	}
	y, err := l.Forward(sess, in)
	if err != nil {
		return fmt.Errorf("layer %d (%s): %w", i, l.Type(), err)
	}
	if y == nil {
		return fmt.Errorf("layer %d (%s) produced no output", i, l.Type())
	}
	n.outputs[i] = y
	return nil
}
