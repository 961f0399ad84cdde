package link_test

import (
	"io"
	"net"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"vibos/internal/link"
	"vibos/pkg/netstack"
	"vibos/pkg/netstack/tcp"
)

func newStack(t *testing.T) (*netstack.Stack, *link.Reflector) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	s := netstack.New(netstack.WithLogger(log))
	ifc, err := s.AddInterface("eth0",
		net.HardwareAddr{0x52, 0x54, 0x00, 0x12, 0x34, 0x56},
		0x0A00020F, 0xFFFFFF00, 0x0A000202)
	require.NoError(t, err)

	r := &link.Reflector{
		Stack:   s,
		Iface:   ifc,
		PeerIP:  0x0A000202,
		PeerMAC: net.HardwareAddr{0x52, 0x55, 0x0A, 0x00, 0x02, 0x02},
		ISS:     1000,
	}
	ifc.Send = r.Send
	return s, r
}

func TestCaptureCopiesFrames(t *testing.T) {
	var c link.Capture

	frame := []byte{1, 2, 3}
	require.NoError(t, c.Send(frame))
	frame[0] = 0xFF

	require.Equal(t, []byte{1, 2, 3}, c.Last())

	c.Reset()
	require.Nil(t, c.Last())
}

func TestReflectorAnswersARP(t *testing.T) {
	s, r := newStack(t)

	require.NoError(t, s.SendARPRequest(r.PeerIP))
	r.Pump()

	mac, ok := s.ARPLookup(r.PeerIP)
	require.True(t, ok)
	require.Equal(t, r.PeerMAC, mac)
}

func TestReflectorEchoesPing(t *testing.T) {
	s, r := newStack(t)

	require.NoError(t, s.SendEcho(r.PeerIP, 1, 1))
	r.Pump()

	// The reply came back through the stack's receive path.
	require.Equal(t, uint64(1), r.Iface.RxPackets)
}

func TestReflectorCompletesLifecycle(t *testing.T) {
	s, r := newStack(t)

	idx, err := s.Connect(r.PeerIP, 80)
	require.NoError(t, err)
	r.Pump()
	c := s.Connection(idx)
	require.Equal(t, tcp.StateEstablished, c.State)

	n, err := s.Send(idx, []byte("request"))
	require.NoError(t, err)
	require.Equal(t, 7, n)
	r.Pump()
	require.Equal(t, tcp.StateEstablished, c.State)

	require.NoError(t, s.Close(idx))
	r.Pump()
	require.Equal(t, tcp.StateTimeWait, c.State)
}

func TestReflectorDeliversData(t *testing.T) {
	s, r := newStack(t)

	idx, err := s.Connect(r.PeerIP, 80)
	require.NoError(t, err)
	r.Pump()
	c := s.Connection(idx)

	r.SendData(c.LocalIP, c.LocalPort, 80, []byte("response"))
	r.Pump()

	buf := make([]byte, 64)
	n, err := s.Recv(idx, buf)
	require.NoError(t, err)
	require.Equal(t, []byte("response"), buf[:n])
}
