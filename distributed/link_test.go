package distributed

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/benchmark/latency"
)

func TestTLV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, []byte("share")))
	require.Equal(t, 5+5, buf.Len())
	got, err := ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, []byte("share"), got)

	t.Run("Empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteTo(&buf, nil))
		got, err := ReadFrom(&buf)
		require.NoError(t, err)
		require.Empty(t, got)
	})
	t.Run("Frames", func(t *testing.T) {
		defer func(f int) { MAX_FRAME = f }(MAX_FRAME)
		MAX_FRAME = 4
		var buf bytes.Buffer
		payload := []byte("0123456789")
		require.NoError(t, WriteTo(&buf, payload))
		require.Equal(t, 3*5+len(payload), buf.Len())
		require.Equal(t, TYP_MORE, buf.Bytes()[0])
		got, err := ReadFrom(&buf)
		require.NoError(t, err)
		require.Equal(t, payload, got)
	})
	t.Run("TooLarge", func(t *testing.T) {
		defer func(s int) { MAX_SIZE = s }(MAX_SIZE)
		MAX_SIZE = 8
		var buf bytes.Buffer
		require.ErrorIs(t, WriteTo(&buf, make([]byte, 9)), ErrTooLarge)
		require.Zero(t, buf.Len())
	})
	t.Run("WrongType", func(t *testing.T) {
		_, err := ReadFrom(bytes.NewReader([]byte{1, 0, 0, 0, 0}))
		require.ErrorIs(t, err, ErrNotTYP)
	})
	t.Run("Truncated", func(t *testing.T) {
		_, err := ReadFrom(bytes.NewReader([]byte{255, 4, 0, 0, 0, 1}))
		require.Error(t, err)
	})
}

func TestProtocolMsg(t *testing.T) {
	msg := ProtocolMsg{Type: OPEN, Id: 42, From: PartyR, Shape: []int{3, 400}, Share: EncodeShare([]uint64{7, ^uint64(0)})}
	buf, err := msg.MarshalBinary()
	require.NoError(t, err)
	var got ProtocolMsg
	require.NoError(t, got.UnmarshalBinary(buf))
	require.Equal(t, msg, got)

	require.ErrorIs(t, got.UnmarshalBinary(buf[:5]), ErrMsg)
	require.ErrorIs(t, got.UnmarshalBinary(buf[:14]), ErrMsg)
}

func TestShareCodec(t *testing.T) {
	v := []uint64{0, 1, ^uint64(0), 1 << 40}
	got, err := DecodeShare(EncodeShare(v))
	require.NoError(t, err)
	require.Equal(t, v, got)

	_, err = DecodeShare([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrShareLen)
}

func TestOther(t *testing.T) {
	p, err := Other(PartyL)
	require.NoError(t, err)
	require.Equal(t, PartyR, p)
	_, err = Other("M")
	require.ErrorIs(t, err, ErrUnknownParty)
}

func testExchange(t *testing.T, link Link) {
	defer link.Close()
	for i, from := range []string{PartyL, PartyR, PartyL} {
		msg := ProtocolMsg{Type: REVEAL, Id: i, Shape: []int{2, 2}, Share: EncodeShare([]uint64{1, 2, 3, uint64(i)})}
		resp, err := link.Exchange(from, msg)
		require.NoError(t, err)
		require.Equal(t, from, resp.From)
		require.Equal(t, msg.Shape, resp.Shape)
		require.Equal(t, msg.Share, resp.Share)
	}
	_, err := link.Exchange("X", ProtocolMsg{})
	require.ErrorIs(t, err, ErrUnknownParty)
}

func TestPipeLink(t *testing.T) {
	testExchange(t, NewPipeLink())
}

func TestTCPLink(t *testing.T) {
	t.Run("Lan", func(t *testing.T) {
		link, err := NewTCPLink("127.0.0.1:0", &Lan)
		require.NoError(t, err)
		testExchange(t, link)
	})
	t.Run("SimulatedLatency", func(t *testing.T) {
		link, err := NewTCPLink("127.0.0.1:0", &latency.Network{Kbps: 100 * 1024, Latency: time.Millisecond, MTU: 1500})
		require.NoError(t, err)
		testExchange(t, link)
	})
}

func TestLargeExchange(t *testing.T) {
	defer func(f int) { MAX_FRAME = f }(MAX_FRAME)
	MAX_FRAME = 1024
	link := NewPipeLink()
	defer link.Close()
	share := make([]uint64, 10000)
	for i := range share {
		share[i] = uint64(i)
	}
	resp, err := link.Exchange(PartyL, ProtocolMsg{Type: OPEN, Id: 1, Shape: []int{100, 100}, Share: EncodeShare(share)})
	require.NoError(t, err)
	got, err := DecodeShare(resp.Share)
	require.NoError(t, err)
	require.Equal(t, share, got)
}

func TestOversizedExchange(t *testing.T) {
	defer func(s int) { MAX_SIZE = s }(MAX_SIZE)
	MAX_SIZE = 1024
	link := NewPipeLink()
	defer link.Close()
	done := make(chan error, 1)
	go func() {
		_, err := link.Exchange(PartyL, ProtocolMsg{Type: OPEN, Id: 1, Share: EncodeShare(make([]uint64, 1000))})
		done <- err
	}()
	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrTooLarge)
	case <-time.After(10 * time.Second):
		t.Fatal("exchange of an oversized message did not return")
	}

	resp, err := link.Exchange(PartyR, ProtocolMsg{Type: REVEAL, Id: 2, Share: EncodeShare([]uint64{5})})
	require.NoError(t, err, "a rejected message leaves the link usable")
	require.Equal(t, 2, resp.Id)
}

func TestClosedLink(t *testing.T) {
	link := NewPipeLink()
	require.NoError(t, link.Close())
	_, err := link.Exchange(PartyL, ProtocolMsg{})
	require.Error(t, err)
}
