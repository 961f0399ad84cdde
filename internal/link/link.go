// Package link provides in-memory link layers for driving the protocol
// engine without hardware: Capture records what the stack transmits, and
// Reflector additionally plays the part of a remote peer. Both stand in for
// the interface driver the engine models as a send callback.
package link

import (
	"net"

	"vibos/pkg/netstack"
	"vibos/pkg/netstack/ethernet"
	ipv4 "vibos/pkg/netstack/ip"
	"vibos/pkg/netstack/tcp"
	"vibos/pkg/netstack/udp"
)

// Capture records every frame handed to it.
type Capture struct {
	Frames [][]byte
}

// Send implements the interface send callback by copying the frame.
func (c *Capture) Send(frame []byte) error {
	c.Frames = append(c.Frames, append([]byte(nil), frame...))
	return nil
}

// Last returns the most recently captured frame, or nil.
func (c *Capture) Last() []byte {
	if len(c.Frames) == 0 {
		return nil
	}
	return c.Frames[len(c.Frames)-1]
}

// Reset discards all captured frames.
func (c *Capture) Reset() {
	c.Frames = nil
}

// Reflector captures outbound frames and synthesizes the peer's side of the
// conversation: it answers ARP requests for its address, echoes pings,
// completes TCP handshakes and acknowledges data and FINs. Replies are
// queued rather than injected from inside the send callback; Pump delivers
// them, keeping the engine's single-context execution model intact.
type Reflector struct {
	Capture

	Stack   *netstack.Stack
	Iface   *netstack.Interface
	PeerIP  uint32
	PeerMAC net.HardwareAddr
	ISS     uint32 // Peer's initial sequence number

	peerSeq uint32
	pending [][]byte
}

// Send records the frame and queues any scripted peer reaction.
func (r *Reflector) Send(frame []byte) error {
	if err := r.Capture.Send(frame); err != nil {
		return err
	}
	r.react(frame)
	return nil
}

// Pump delivers queued peer frames into the stack until none remain.
func (r *Reflector) Pump() {
	for len(r.pending) > 0 {
		frame := r.pending[0]
		r.pending = r.pending[1:]
		r.Stack.Rx(r.Iface, frame)
	}
}

func (r *Reflector) react(frame []byte) {
	eth, err := ethernet.ParseFrame(frame)
	if err != nil {
		return
	}

	switch eth.EtherType {
	case ethernet.EtherTypeARP:
		r.reactARP(eth.Payload)
	case ethernet.EtherTypeIPv4:
		r.reactIPv4(eth.Payload)
	}
}

func (r *Reflector) reactARP(payload []byte) {
	pkt, err := ethernet.ParseARPPacket(payload)
	if err != nil || pkt.Operation != ethernet.ARPOperationRequest || pkt.TargetIP != r.PeerIP {
		return
	}
	reply := ethernet.NewARPReply(r.PeerMAC, r.PeerIP, pkt.SenderMAC, pkt.SenderIP)
	r.queue(ethernet.EtherTypeARP, reply.Serialize())
}

func (r *Reflector) reactIPv4(packet []byte) {
	hdr, err := ipv4.ParseHeader(packet)
	if err != nil || hdr.DstIP != r.PeerIP || len(packet) < int(hdr.Length) {
		return
	}
	payload := packet[hdr.HeaderBytes():hdr.Length]

	switch hdr.Protocol {
	case ipv4.ProtocolICMP:
		r.reactICMP(hdr, payload)
	case ipv4.ProtocolTCP:
		r.reactTCP(hdr, payload)
	}
}

func (r *Reflector) reactICMP(iph *ipv4.Header, payload []byte) {
	msg, err := ipv4.ParseICMPMessage(payload)
	if err != nil || !msg.IsEchoRequest() {
		return
	}
	reply := ipv4.NewEchoReply(msg.Header.ID, msg.Header.Seq, msg.Payload)
	r.queueIPv4(iph.SrcIP, ipv4.ProtocolICMP, reply.Serialize())
}

func (r *Reflector) reactTCP(iph *ipv4.Header, segment []byte) {
	hdr, err := tcp.ParseHeader(segment)
	if err != nil {
		return
	}
	data := hdr.Payload(segment)

	switch {
	case hdr.Flags&tcp.FlagSYN != 0 && hdr.Flags&tcp.FlagACK == 0:
		r.peerSeq = r.ISS
		r.queueTCP(iph, hdr, tcp.FlagSYN|tcp.FlagACK, hdr.Seq+1)
		r.peerSeq++

	case hdr.Flags&tcp.FlagFIN != 0:
		// Acknowledge the FIN, then close our side too.
		r.queueTCP(iph, hdr, tcp.FlagACK, hdr.Seq+1)
		r.queueTCP(iph, hdr, tcp.FlagFIN|tcp.FlagACK, hdr.Seq+1)
		r.peerSeq++

	case len(data) > 0:
		r.queueTCP(iph, hdr, tcp.FlagACK, hdr.Seq+uint32(len(data)))
	}
}

func (r *Reflector) queueTCP(iph *ipv4.Header, req *tcp.Header, flags uint8, ack uint32) {
	reply := &tcp.Header{
		SrcPort:    req.DstPort,
		DstPort:    req.SrcPort,
		Seq:        r.peerSeq,
		Ack:        ack,
		DataOffset: tcp.HeaderLength / 4,
		Flags:      flags,
		Window:     tcp.DefaultWindow,
	}
	reply.Checksum = reply.CalcChecksum(r.PeerIP, iph.SrcIP, nil)
	r.queueIPv4(iph.SrcIP, ipv4.ProtocolTCP, reply.Serialize())
}

// queueIPv4 wraps a transport payload in IPv4+Ethernet headers from the peer
// and queues it for delivery.
func (r *Reflector) queueIPv4(dstIP uint32, protocol uint8, payload []byte) {
	hdr := ipv4.NewHeader(r.PeerIP, dstIP, protocol, 1, len(payload))
	hdr.Checksum = hdr.CalcChecksum()
	r.queue(ethernet.EtherTypeIPv4, append(hdr.Serialize(), payload...))
}

func (r *Reflector) queue(etherType ethernet.EtherType, payload []byte) {
	frame := ethernet.NewFrame(r.Iface.MAC, r.PeerMAC, etherType, payload)
	r.pending = append(r.pending, frame.Serialize())
}

// SendData queues a PSH+ACK data segment from the peer toward the given
// local port, advancing the peer's sequence number.
func (r *Reflector) SendData(localIP uint32, localPort, peerPort uint16, data []byte) {
	hdr := &tcp.Header{
		SrcPort:    peerPort,
		DstPort:    localPort,
		Seq:        r.peerSeq,
		DataOffset: tcp.HeaderLength / 4,
		Flags:      tcp.FlagPSH | tcp.FlagACK,
		Window:     tcp.DefaultWindow,
	}
	hdr.Checksum = hdr.CalcChecksum(r.PeerIP, localIP, data)
	r.queueIPv4(localIP, ipv4.ProtocolTCP, append(hdr.Serialize(), data...))
	r.peerSeq += uint32(len(data))
}

// Datagram builds a UDP datagram header for tests that need the peer to
// speak UDP on the wire.
func Datagram(srcPort, dstPort uint16, payload []byte) []byte {
	return append(udp.NewHeader(srcPort, dstPort, len(payload)).Serialize(), payload...)
}
