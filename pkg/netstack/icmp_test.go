package netstack_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vibos/pkg/netstack"
	"vibos/pkg/netstack/checksum"
	"vibos/pkg/netstack/ethernet"
	ipv4 "vibos/pkg/netstack/ip"
)

func TestSendEchoFrame(t *testing.T) {
	s, _, cap := newCaptureStack(t)

	require.NoError(t, s.SendEcho(testPeerIP, 1, 1))
	require.Len(t, cap.Frames, 1)

	// Ethernet + IPv4 + echo header, no payload: exactly 42 bytes.
	frame := cap.Last()
	require.Len(t, frame, 42)

	eth, err := ethernet.ParseFrame(frame)
	require.NoError(t, err)
	require.Equal(t, ethernet.EtherTypeIPv4, eth.EtherType)
	require.Equal(t, testMAC, eth.SrcMAC)

	iph, err := ipv4.ParseHeader(eth.Payload)
	require.NoError(t, err)
	require.Equal(t, ipv4.ProtocolICMP, iph.Protocol)
	require.Equal(t, uint16(1), iph.ID)
	require.Equal(t, uint8(64), iph.TTL)
	require.Equal(t, uint32(testIP), iph.SrcIP)
	require.Equal(t, uint32(testPeerIP), iph.DstIP)
	require.Zero(t, checksum.Sum(eth.Payload[:ipv4.HeaderLength]), "IP header checksum must verify")

	msg, err := ipv4.ParseICMPMessage(eth.Payload[ipv4.HeaderLength:iph.Length])
	require.NoError(t, err)
	require.True(t, msg.IsEchoRequest())
	require.Zero(t, msg.Header.Code)
	require.Equal(t, uint16(1), msg.Header.ID)
	require.Equal(t, uint16(1), msg.Header.Seq)
	require.Empty(t, msg.Payload)
}

func TestEchoRequestAnswered(t *testing.T) {
	s, ifc, cap := newCaptureStack(t)

	payload := []byte("ping data")
	req := ipv4.NewEchoRequest(0x1234, 9, payload)
	iph := ipv4.NewHeader(testPeerIP, testIP, ipv4.ProtocolICMP, 1, ipv4.ICMPHeaderLength+len(payload))
	iph.Checksum = iph.CalcChecksum()
	frame := ethernet.NewFrame(testMAC, peerMAC, ethernet.EtherTypeIPv4, append(iph.Serialize(), req.Serialize()...))

	s.Rx(ifc, frame.Serialize())

	require.Len(t, cap.Frames, 1)
	eth, err := ethernet.ParseFrame(cap.Last())
	require.NoError(t, err)

	out, err := ipv4.ParseHeader(eth.Payload)
	require.NoError(t, err)
	require.Equal(t, uint32(testPeerIP), out.DstIP)

	reply, err := ipv4.ParseICMPMessage(eth.Payload[out.HeaderBytes():out.Length])
	require.NoError(t, err)
	require.True(t, reply.IsEchoReply())
	require.Equal(t, uint16(0x1234), reply.Header.ID)
	require.Equal(t, uint16(9), reply.Header.Seq)
	require.Equal(t, payload, reply.Payload)
}

func TestPingRoundTrip(t *testing.T) {
	s, r := newReflectorStack(t)

	require.NoError(t, s.SendEcho(testPeerIP, 1, 1))
	r.Pump()

	// The peer's reply was delivered back into the stack.
	require.Equal(t, uint64(1), r.Iface.RxPackets)
	// Only the request went out; replies are consumed, not answered.
	require.Len(t, r.Frames, 1)
}

func TestSendEchoNoInterface(t *testing.T) {
	s := netstack.New(netstack.WithLogger(quietLogger()))
	require.ErrorIs(t, s.SendEcho(testPeerIP, 1, 1), netstack.ErrNoInterface)
}
