package shareUtils

import (
	"errors"
	"fmt"

	"github.com/ldsec/dnn-inference/mpc/plainUtils"
)

//SharedVariablePair is a trainable parameter group jointly owned by L and R.
//Its shape is fixed at construction and every load replaces the whole value
type SharedVariablePair struct {
	Name     string
	Shape    []int
	value    *SharedPair
	fracBits uint
}

var ErrOutOfRange = errors.New("value does not fit the fixed-point range")

func NewSharedVariablePair(s *Session, name string, init *plainUtils.Tensor) *SharedVariablePair {
	return &SharedVariablePair{Name: name, Shape: plainUtils.CopyShape(init.Shape), value: s.Share(init), fracBits: s.FracBits}
}

func (v *SharedVariablePair) Value() *SharedPair {
	return v.value
}

//CheckPlain fails if t cannot be loaded into v
func (v *SharedVariablePair) CheckPlain(t *plainUtils.Tensor) error {
	if t == nil {
		return fmt.Errorf("%s: nil tensor: %w", v.Name, ErrShapeMismatch)
	}
	if !plainUtils.SameShape(t.Shape, v.Shape) || len(t.Data) != plainUtils.Size(v.Shape) {
		return fmt.Errorf("%s expects %v, got %v: %w", v.Name, v.Shape, t.Shape, ErrShapeMismatch)
	}
	for i, x := range t.Data {
		if !InRange(x, v.fracBits) {
			return fmt.Errorf("%s value %d is %v: %w", v.Name, i, x, ErrOutOfRange)
		}
	}
	return nil
}

//LoadFromPlain reshares t as the new value of v
func (v *SharedVariablePair) LoadFromPlain(s *Session, t *plainUtils.Tensor) error {
	if err := v.CheckPlain(t); err != nil {
		return err
	}
	v.value = s.Share(t)
	return nil
}

//Reveal reconstructs v as plaintext at owner
func (v *SharedVariablePair) Reveal(s *Session, owner string) (*plainUtils.Tensor, error) {
	return s.Reveal(v.value, owner)
}

func (v *SharedVariablePair) String() string {
	return fmt.Sprintf("%s%v", v.Name, v.Shape)
}
