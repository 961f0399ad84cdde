package netstack_test

import (
	"io"
	"net"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"vibos/internal/link"
	"vibos/pkg/netstack"
	"vibos/pkg/netstack/ethernet"
	ipv4 "vibos/pkg/netstack/ip"
	"vibos/pkg/netstack/tcp"
)

// Test topology: 10.0.2.15/24 talking to a peer at 10.0.2.2, which is also
// the default gateway.
const (
	testIP      = 0x0A00020F
	testNetmask = 0xFFFFFF00
	testPeerIP  = 0x0A000202
	peerISS     = 1000
	peerPort    = 80
)

var (
	testMAC = net.HardwareAddr{0x52, 0x54, 0x00, 0x12, 0x34, 0x56}
	peerMAC = net.HardwareAddr{0x52, 0x55, 0x0A, 0x00, 0x02, 0x02}
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestStack(t *testing.T, opts ...netstack.Option) (*netstack.Stack, *netstack.Interface) {
	t.Helper()
	opts = append([]netstack.Option{netstack.WithLogger(quietLogger())}, opts...)
	s := netstack.New(opts...)
	ifc, err := s.AddInterface("eth0", testMAC, testIP, testNetmask, testPeerIP)
	require.NoError(t, err)
	return s, ifc
}

// newCaptureStack wires the interface to a frame recorder; nothing answers.
func newCaptureStack(t *testing.T) (*netstack.Stack, *netstack.Interface, *link.Capture) {
	t.Helper()
	s, ifc := newTestStack(t)
	cap := &link.Capture{}
	ifc.Send = cap.Send
	return s, ifc, cap
}

// newReflectorStack wires the interface to a scripted peer at testPeerIP.
func newReflectorStack(t *testing.T) (*netstack.Stack, *link.Reflector) {
	t.Helper()
	s, ifc := newTestStack(t)
	r := &link.Reflector{
		Stack:   s,
		Iface:   ifc,
		PeerIP:  testPeerIP,
		PeerMAC: peerMAC,
		ISS:     peerISS,
	}
	ifc.Send = r.Send
	return s, r
}

// peerTCPFrame hand-builds a TCP segment from the peer for driving the state
// machine directly, bypassing the reflector's scripted reactions.
func peerTCPFrame(localPort uint16, seq, ack uint32, flags uint8, payload []byte) []byte {
	hdr := &tcp.Header{
		SrcPort:    peerPort,
		DstPort:    localPort,
		Seq:        seq,
		Ack:        ack,
		DataOffset: tcp.HeaderLength / 4,
		Flags:      flags,
		Window:     tcp.DefaultWindow,
	}
	hdr.Checksum = hdr.CalcChecksum(testPeerIP, testIP, payload)
	segment := append(hdr.Serialize(), payload...)

	iph := ipv4.NewHeader(testPeerIP, testIP, ipv4.ProtocolTCP, 1, len(segment))
	iph.Checksum = iph.CalcChecksum()
	frame := ethernet.NewFrame(testMAC, peerMAC, ethernet.EtherTypeIPv4, append(iph.Serialize(), segment...))
	return frame.Serialize()
}

// parseTCPFrame unpacks an Ethernet+IPv4+TCP frame captured from the stack.
func parseTCPFrame(t *testing.T, frame []byte) (*ipv4.Header, *tcp.Header, []byte) {
	t.Helper()
	eth, err := ethernet.ParseFrame(frame)
	require.NoError(t, err)
	require.Equal(t, ethernet.EtherTypeIPv4, eth.EtherType)

	iph, err := ipv4.ParseHeader(eth.Payload)
	require.NoError(t, err)
	require.Equal(t, ipv4.ProtocolTCP, iph.Protocol)

	segment := eth.Payload[iph.HeaderBytes():iph.Length]
	hdr, err := tcp.ParseHeader(segment)
	require.NoError(t, err)
	return iph, hdr, hdr.Payload(segment)
}

func TestLoopbackRegistered(t *testing.T) {
	s := netstack.New(netstack.WithLogger(quietLogger()))

	ifaces := s.Interfaces()
	require.Len(t, ifaces, 1)

	lo := ifaces[0]
	require.Equal(t, "lo", lo.Name)
	require.Equal(t, uint32(0x7F000001), lo.IP)
	require.Equal(t, uint32(0xFF000000), lo.Netmask)
	require.True(t, lo.Up)
	require.Nil(t, lo.Send)
}

func TestAddInterfaceLimit(t *testing.T) {
	s := netstack.New(netstack.WithLogger(quietLogger()))

	// Loopback occupies the first slot; three more fit.
	for i := 0; i < 3; i++ {
		_, err := s.AddInterface("eth", testMAC, testIP+uint32(i), testNetmask, 0)
		require.NoError(t, err)
	}

	_, err := s.AddInterface("eth3", testMAC, testIP+3, testNetmask, 0)
	require.ErrorIs(t, err, netstack.ErrTooManyInterfaces)
	require.Len(t, s.Interfaces(), 4)
}

func TestInterfaceNameTruncated(t *testing.T) {
	s := netstack.New(netstack.WithLogger(quietLogger()))

	ifc, err := s.AddInterface("very-long-interface-name", testMAC, testIP, testNetmask, 0)
	require.NoError(t, err)
	require.Equal(t, "very-long-inter", ifc.Name)
	require.Len(t, ifc.Name, 15)
}

func TestNextHop(t *testing.T) {
	ifc := &netstack.Interface{
		IP:      testIP,
		Netmask: testNetmask,
		Gateway: testPeerIP,
	}

	// On-subnet destinations resolve directly.
	require.Equal(t, uint32(0x0A000203), ifc.NextHop(0x0A000203))
	// Off-subnet destinations go through the gateway.
	require.Equal(t, uint32(testPeerIP), ifc.NextHop(0x08080808))

	ifc.Gateway = 0
	require.Equal(t, uint32(0x08080808), ifc.NextHop(0x08080808))
}

func TestTransmitCounters(t *testing.T) {
	s, ifc, _ := newCaptureStack(t)

	require.NoError(t, s.SendEcho(testPeerIP, 1, 1))
	require.Equal(t, uint64(1), ifc.TxPackets)
	require.Equal(t, uint64(42), ifc.TxBytes)
}
