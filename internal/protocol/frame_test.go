package protocol

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSendRecvRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sc := NewChannel(server)
	cc := NewChannel(client)

	done := make(chan struct{})
	go func() {
		defer close(done)
		require.NoError(t, sc.Send("CAR A 1 10"))
	}()

	msg, err := cc.Recv()
	require.NoError(t, err)
	assert.Equal(t, "CAR A 1 10", msg)
	<-done
}

func TestChannelRecvReportsPeerClosed(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	_ = server.Close()

	cc := NewChannel(client)
	_, err := cc.Recv()
	assert.ErrorIs(t, err, ErrPeerClosed)
}

func TestChannelRejectsOversizedFrame(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sc := NewChannel(server)
	big := make([]byte, MaxFrameLen+1)
	for i := range big {
		big[i] = 'x'
	}
	err := sc.Send(string(big))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}
