package distributed

//Framing of party to party messages, and simulated networks

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc/benchmark/latency"
)

//frame types: a message is zero or more TYP_MORE frames closed by one TYP frame
var TYP = uint8(255)
var TYP_MORE = uint8(254)

var KB = 1024
var MB = 1024 * KB

//payload of one frame
var MAX_FRAME = 4 * MB

//whole message
var MAX_SIZE = 1024 * MB

var Local = latency.Network{ //simulates LAN on localhost
	Kbps:    1024 * 1024, //1 Gbps
	Latency: 200 * time.Millisecond,
	MTU:     1500, // Ethernet
}

var Lan = latency.Local //no overhead, used in real distributed env.

var ErrNotTYP = errors.New("Not TYP")
var ErrTooLarge = errors.New("Payload too large")

//CheckSize fails if a message of n bytes cannot be sent
func CheckSize(n int) error {
	if n > MAX_SIZE {
		return fmt.Errorf("%d bytes, limit %d: %w", n, MAX_SIZE, ErrTooLarge)
	}
	return nil
}

//WriteTo writes buf as a sequence of TLV frames of at most MAX_FRAME bytes each
func WriteTo(c io.Writer, buf []byte) error {
	if err := CheckSize(len(buf)); err != nil {
		return err
	}
	for {
		n, typ := len(buf), TYP
		if n > MAX_FRAME {
			n, typ = MAX_FRAME, TYP_MORE
		}
		//1-byte type, 4-byte len
		var header [5]byte
		header[0] = typ
		binary.LittleEndian.PutUint32(header[1:], uint32(n))
		if _, err := c.Write(header[:]); err != nil {
			return err
		}
		//an empty write would block a synchronous pipe
		if n > 0 {
			if _, err := c.Write(buf[:n]); err != nil {
				return err
			}
		}
		buf = buf[n:]
		if typ == TYP {
			return nil
		}
	}
}

//ReadFrom reads the frames written by one WriteTo and joins them
func ReadFrom(c io.Reader) ([]byte, error) {
	var res []byte
	for {
		var header [5]byte
		if _, err := io.ReadFull(c, header[:]); err != nil {
			return nil, err
		}
		typ, l := header[0], int(binary.LittleEndian.Uint32(header[1:]))
		if typ != TYP && typ != TYP_MORE {
			return nil, ErrNotTYP
		}
		if l > MAX_FRAME {
			return nil, fmt.Errorf("frame of %d bytes: %w", l, ErrTooLarge)
		}
		if err := CheckSize(len(res) + l); err != nil {
			return nil, err
		}
		chunk := make([]byte, l)
		if _, err := io.ReadFull(c, chunk); err != nil {
			return nil, err
		}
		if typ == TYP && res == nil {
			return chunk, nil
		}
		res = append(res, chunk...)
		if typ == TYP {
			return res, nil
		}
	}
}
