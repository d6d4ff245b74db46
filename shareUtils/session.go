package shareUtils

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/ldsec/dnn-inference/mpc/distributed"
	"github.com/ldsec/dnn-inference/mpc/plainUtils"
	lattigoUtils "github.com/tuneinsight/lattigo/v3/utils"
)

const (
	PartyL = distributed.PartyL
	PartyR = distributed.PartyR
)

var ErrUnknownParty = distributed.ErrUnknownParty

type Config struct {
	FracBits uint             //0 means DefaultFracBits
	Seed     []byte           //key of the session PRNG. nil means a random key
	Link     distributed.Link //nil means an in-memory pipe
}

//Session is the execution context shared by the two parties:
//randomness, the party link and the helper functionalities.
//It is not safe for concurrent use
type Session struct {
	FracBits uint
	prng     *lattigoUtils.KeyedPRNG
	seed     []byte
	epoch    uint64 //number of RandomInit calls
	link     distributed.Link
	seq      int
}

func NewSession(cfg Config) (*Session, error) {
	s := &Session{FracBits: cfg.FracBits, link: cfg.Link}
	if s.FracBits == 0 {
		s.FracBits = DefaultFracBits
	}
	if s.FracBits >= 32 {
		return nil, fmt.Errorf("%d fractional bits leave no room for products", s.FracBits)
	}
	if cfg.Seed != nil {
		s.seed = append([]byte(nil), cfg.Seed...)
	}
	if err := s.rekey(); err != nil {
		return nil, err
	}
	if s.link == nil {
		s.link = distributed.NewPipeLink()
	}
	return s, nil
}

//RandomInit moves the session to a fresh randomness stream, to be called before reading a prediction batch.
//A seeded session derives the stream key from the seed and the number of calls, so runs are reproducible
//but no mask of an earlier stream is drawn again
func (s *Session) RandomInit() error {
	s.epoch++
	return s.rekey()
}

func (s *Session) rekey() error {
	var prng *lattigoUtils.KeyedPRNG
	var err error
	if s.seed != nil {
		key := make([]byte, len(s.seed)+8)
		copy(key, s.seed)
		binary.LittleEndian.PutUint64(key[len(s.seed):], s.epoch)
		prng, err = lattigoUtils.NewKeyedPRNG(key)
	} else {
		prng, err = lattigoUtils.NewPRNG()
	}
	if err != nil {
		return err
	}
	s.prng = prng
	return nil
}

func (s *Session) Close() error {
	return s.link.Close()
}

func (s *Session) randUint64(n int) []uint64 {
	buf := make([]byte, 8*n)
	s.prng.Clock(buf)
	v := make([]uint64, n)
	for i := range v {
		v[i] = binary.LittleEndian.Uint64(buf[8*i:])
	}
	return v
}

//RandUniform returns n values uniform in [-limit, limit)
func (s *Session) RandUniform(n int, limit float64) []float64 {
	v := s.randUint64(n)
	x := make([]float64, n)
	for i := range v {
		u := float64(v[i]>>11) / float64(uint64(1)<<53)
		x[i] = (2*u - 1) * limit
	}
	return x
}

//splits the ring values v with a fresh mask
func (s *Session) shareRing(shape []int, v []uint64) *SharedPair {
	mask := s.randUint64(len(v))
	return &SharedPair{Shape: plainUtils.CopyShape(shape), L: mask, R: ringSub(v, mask)}
}

//Share secret-shares a plaintext tensor between L and R
func (s *Session) Share(t *plainUtils.Tensor) *SharedPair {
	return s.shareRing(t.Shape, EncodeVec(t.Data, s.FracBits))
}

//sends the share of from to its peer, returns what the peer received
func (s *Session) send(typ distributed.ProtocolType, from string, shape []int, share []uint64) ([]uint64, error) {
	s.seq++
	resp, err := s.link.Exchange(from, distributed.ProtocolMsg{
		Type:  typ,
		Id:    s.seq,
		Shape: shape,
		Share: distributed.EncodeShare(share),
	})
	if err != nil {
		return nil, err
	}
	v, err := distributed.DecodeShare(resp.Share)
	if err != nil {
		return nil, err
	}
	if len(v) != len(share) {
		return nil, fmt.Errorf("received %d values, sent %d: %w", len(v), len(share), ErrShapeMismatch)
	}
	return v, nil
}

func (x *SharedPair) shareOf(party string) []uint64 {
	if party == PartyL {
		return x.L
	}
	return x.R
}

//reveals the ring values of x to owner
func (s *Session) revealRing(x *SharedPair, owner string) ([]uint64, error) {
	sender, err := distributed.Other(owner)
	if err != nil {
		return nil, err
	}
	received, err := s.send(distributed.REVEAL, sender, x.Shape, x.shareOf(sender))
	if err != nil {
		return nil, err
	}
	return ringAdd(x.shareOf(owner), received), nil
}

//Reveal reconstructs x as plaintext at owner
func (s *Session) Reveal(x *SharedPair, owner string) (*plainUtils.Tensor, error) {
	v, err := s.revealRing(x, owner)
	if err != nil {
		return nil, err
	}
	return plainUtils.NewTensor(x.Shape, DecodeVec(v, s.FracBits))
}

//RevealToStrings reveals x at owner and formats one comma separated record per row
func (s *Session) RevealToStrings(x *SharedPair, owner string) ([]string, error) {
	t, err := s.Reveal(x, owner)
	if err != nil {
		return nil, err
	}
	records := make([]string, t.Rows())
	for i := range records {
		row := t.Row(i)
		fields := make([]string, len(row))
		for j, v := range row {
			fields[j] = strconv.FormatFloat(v, 'f', 6, 64)
		}
		records[i] = strings.Join(fields, ",")
	}
	return records, nil
}

//opens x to both parties
func (s *Session) open(x *SharedPair) ([]uint64, error) {
	atR, err := s.send(distributed.OPEN, PartyL, x.Shape, x.L)
	if err != nil {
		return nil, err
	}
	atL, err := s.send(distributed.OPEN, PartyR, x.Shape, x.R)
	if err != nil {
		return nil, err
	}
	vL, vR := ringAdd(x.L, atL), ringAdd(atR, x.R)
	for i := range vL {
		if vL[i] != vR[i] {
			return nil, fmt.Errorf("parties disagree on opened value at %d", i)
		}
	}
	return vL, nil
}

//MatMul computes x y for x [m,k] (any trailing shape flattened) and y [k,n] with a Beaver triple,
//then truncates the product back to FracBits
func (s *Session) MatMul(x, y *SharedPair) (*SharedPair, error) {
	m, k := x.Rows(), x.Cols()
	if len(y.Shape) != 2 || y.Shape[0] != k {
		return nil, fmt.Errorf("matmul %v by %v: %w", x.Shape, y.Shape, ErrShapeMismatch)
	}
	n := y.Shape[1]
	a, b, c := s.triple(m, k, n)

	e, err := s.open(&SharedPair{Shape: []int{m, k}, L: ringSub(x.L, a.L), R: ringSub(x.R, a.R)})
	if err != nil {
		return nil, err
	}
	f, err := s.open(&SharedPair{Shape: []int{k, n}, L: ringSub(y.L, b.L), R: ringSub(y.R, b.R)})
	if err != nil {
		return nil, err
	}
	//z_L = ef + e b_L + a_L f + c_L, z_R = e b_R + a_R f + c_R
	zL := ringAdd(ringMatMul(e, f, m, k, n), ringAdd(ringMatMul(e, b.L, m, k, n), ringAdd(ringMatMul(a.L, f, m, k, n), c.L)))
	zR := ringAdd(ringMatMul(e, b.R, m, k, n), ringAdd(ringMatMul(a.R, f, m, k, n), c.R))
	return s.Trunc(&SharedPair{Shape: []int{m, n}, L: zL, R: zR}), nil
}

//MulConst multiplies x by a public real constant
func (s *Session) MulConst(x *SharedPair, c float64) *SharedPair {
	return s.Trunc(MulPublic(x, Encode(c, s.FracBits)))
}
