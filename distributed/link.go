package distributed

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc/benchmark/latency"
)

//names of the two computing parties
const (
	PartyL = "L"
	PartyR = "R"
)

var ErrUnknownParty = errors.New("unknown party")

//Other returns the peer of party
func Other(party string) (string, error) {
	switch party {
	case PartyL:
		return PartyR, nil
	case PartyR:
		return PartyL, nil
	}
	return "", fmt.Errorf("%q: %w", party, ErrUnknownParty)
}

//Link is the channel between the two parties.
//Exchange blocks until the peer of from has received msg and returns it as decoded by the peer
type Link interface {
	Exchange(from string, msg ProtocolMsg) (ProtocolMsg, error)
	Close() error
}

//two endpoints of the same connection, one per party
type connLink struct {
	mux      sync.Mutex
	conns    map[string]net.Conn
	listener net.Listener
}

//NewPipeLink connects the parties with an in-memory synchronous pipe
func NewPipeLink() Link {
	l, r := net.Pipe()
	return &connLink{conns: map[string]net.Conn{PartyL: l, PartyR: r}}
}

//NewTCPLink listens on addr as party R and dials it as party L.
//If network is not nil both endpoints are wrapped to simulate its latency and bandwidth
func NewTCPLink(addr string, network *latency.Network) (Link, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	type accepted struct {
		c   net.Conn
		err error
	}
	ch := make(chan accepted, 1)
	go func() {
		c, err := listener.Accept()
		ch <- accepted{c, err}
	}()
	cl, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		listener.Close()
		return nil, err
	}
	acc := <-ch
	if acc.err != nil {
		cl.Close()
		listener.Close()
		return nil, acc.err
	}
	cr := acc.c
	if network != nil {
		cl, cr, err = wrapLatency(network, cl, cr)
		if err != nil {
			listener.Close()
			return nil, err
		}
	}
	return &connLink{conns: map[string]net.Conn{PartyL: cl, PartyR: cr}, listener: listener}, nil
}

//both ends sync with each other when wrapped, so it happens concurrently
func wrapLatency(network *latency.Network, a, b net.Conn) (net.Conn, net.Conn, error) {
	var wa, wb net.Conn
	var ea, eb error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		wa, ea = network.Conn(a)
	}()
	go func() {
		defer wg.Done()
		wb, eb = network.Conn(b)
	}()
	wg.Wait()
	if ea != nil || eb != nil {
		a.Close()
		b.Close()
		if ea != nil {
			return nil, nil, ea
		}
		return nil, nil, eb
	}
	return wa, wb, nil
}

func (l *connLink) Exchange(from string, msg ProtocolMsg) (ProtocolMsg, error) {
	l.mux.Lock()
	defer l.mux.Unlock()

	var resp ProtocolMsg
	to, err := Other(from)
	if err != nil {
		return resp, err
	}
	src, dst := l.conns[from], l.conns[to]
	if src == nil || dst == nil {
		return resp, errors.New("link is closed")
	}
	msg.From = from
	buf, err := msg.MarshalBinary()
	if err != nil {
		return resp, err
	}
	if err := CheckSize(len(buf)); err != nil {
		return resp, fmt.Errorf("party %s sending %s: %w", from, msg.Type, err)
	}
	sent := make(chan error, 1)
	go func() {
		err := WriteTo(src, buf)
		if err != nil {
			//unblocks the reader
			dst.Close()
		}
		sent <- err
	}()
	data, err := ReadFrom(dst)
	if err != nil {
		//unblocks the writer, the stream is unusable anyway
		src.Close()
	}
	if werr := <-sent; werr != nil {
		return resp, fmt.Errorf("party %s sending %s: %w", from, msg.Type, werr)
	}
	if err != nil {
		return resp, fmt.Errorf("party %s receiving %s: %w", to, msg.Type, err)
	}
	if err = resp.UnmarshalBinary(data); err != nil {
		return resp, err
	}
	if resp.Id != msg.Id || resp.Type != msg.Type {
		return resp, fmt.Errorf("party %s expected %s #%d, got %s #%d", to, msg.Type, msg.Id, resp.Type, resp.Id)
	}
	return resp, nil
}

func (l *connLink) Close() error {
	l.mux.Lock()
	defer l.mux.Unlock()
	var err error
	for p, c := range l.conns {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
		delete(l.conns, p)
	}
	if l.listener != nil {
		if lerr := l.listener.Close(); lerr != nil && err == nil {
			err = lerr
		}
		l.listener = nil
	}
	return err
}
