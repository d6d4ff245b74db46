package distributed

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var TYPES = []string{"Reveal", "Open", "End"}

type ProtocolType int16

const (
	REVEAL ProtocolType = iota //one party sends its share to the owner
	OPEN   ProtocolType = iota //both parties send their share of a masked value
	END    ProtocolType = iota
)

func (p ProtocolType) String() string {
	if int(p) < 0 || int(p) >= len(TYPES) {
		return fmt.Sprintf("ProtocolType(%d)", int16(p))
	}
	return TYPES[p]
}

//Party to party message
type ProtocolMsg struct {
	Type  ProtocolType
	Id    int //sequence number of the exchange in the session
	From  string
	Shape []int
	Share []byte //little endian uint64 share
}

var ErrShareLen = errors.New("share payload is not a multiple of 8 bytes")
var ErrMsg = errors.New("malformed message")

//MarshalBinary lays out type (2 bytes), id (8), from (1 byte len + bytes), shape (4 byte rank + 8 per dim),
//then the share bytes up to the end
func (m *ProtocolMsg) MarshalBinary() ([]byte, error) {
	if len(m.From) > 255 {
		return nil, fmt.Errorf("sender name of %d bytes: %w", len(m.From), ErrMsg)
	}
	buf := make([]byte, 0, 15+len(m.From)+8*len(m.Shape)+len(m.Share))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(m.Type))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(m.Id))
	buf = append(buf, uint8(len(m.From)))
	buf = append(buf, m.From...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Shape)))
	for _, d := range m.Shape {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(d))
	}
	return append(buf, m.Share...), nil
}

func (m *ProtocolMsg) UnmarshalBinary(buf []byte) error {
	if len(buf) < 11 {
		return ErrMsg
	}
	m.Type = ProtocolType(binary.LittleEndian.Uint16(buf))
	m.Id = int(binary.LittleEndian.Uint64(buf[2:]))
	l := int(buf[10])
	buf = buf[11:]
	if len(buf) < l+4 {
		return ErrMsg
	}
	m.From = string(buf[:l])
	rank := int(binary.LittleEndian.Uint32(buf[l:]))
	buf = buf[l+4:]
	if rank < 0 || len(buf)/8 < rank {
		return ErrMsg
	}
	m.Shape = make([]int, rank)
	for i := range m.Shape {
		m.Shape[i] = int(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	m.Share = append([]byte(nil), buf[8*rank:]...)
	return nil
}

//HELPERS
func EncodeShare(v []uint64) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], x)
	}
	return buf
}

func DecodeShare(buf []byte) ([]uint64, error) {
	if len(buf)%8 != 0 {
		return nil, ErrShareLen
	}
	v := make([]uint64, len(buf)/8)
	for i := range v {
		v[i] = binary.LittleEndian.Uint64(buf[8*i:])
	}
	return v, nil
}
