package netstack

import (
	"net"

	"vibos/pkg/netstack/ethernet"
	ipv4 "vibos/pkg/netstack/ip"
)

// handleIPv4 validates an inbound IPv4 packet and dispatches its payload by
// protocol number. Checksums are not validated on receive; the engine trusts
// the link and only computes checksums on transmit.
func (s *Stack) handleIPv4(ifc *Interface, packet []byte) {
	hdr, err := ipv4.ParseHeader(packet)
	if err != nil {
		s.log.WithError(err).Debug("netstack: bad IPv4 header")
		return
	}
	if hdr.Version != 4 {
		return
	}

	hlen := hdr.HeaderBytes()
	if hlen < ipv4.HeaderLength || int(hdr.Length) < hlen || len(packet) < int(hdr.Length) {
		s.log.Debug("netstack: truncated IPv4 packet dropped")
		return
	}
	payload := packet[hlen:hdr.Length]

	switch hdr.Protocol {
	case ipv4.ProtocolICMP:
		s.handleICMP(ifc, hdr, payload)
	case ipv4.ProtocolTCP:
		s.handleTCPSegment(hdr.SrcIP, hdr.DstIP, payload)
	case ipv4.ProtocolUDP:
		// Send-only transport: datagrams are noted, never delivered.
		s.log.WithField("src", FormatIPv4(hdr.SrcIP)).Debug("netstack: UDP packet received")
	default:
		// Unknown protocol, dropped silently.
	}
}

// resolveMAC returns the destination MAC for an IP transmission: the ARP
// cache entry for the next hop, or broadcast on a miss so sends stay
// non-blocking.
func (s *Stack) resolveMAC(ifc *Interface, dst uint32) net.HardwareAddr {
	if mac, ok := s.ARPLookup(ifc.NextHop(dst)); ok {
		return mac
	}
	return ethernet.BroadcastMAC()
}

// sendIP builds an Ethernet+IPv4 frame around payload and transmits it on
// the interface. The header checksum is always computed; flagsFrag carries
// the don't-fragment bit for TCP.
func (s *Stack) sendIP(ifc *Interface, srcIP, dstIP uint32, protocol uint8, id uint16, flagsFrag uint16, payload []byte) error {
	hdr := ipv4.NewHeader(srcIP, dstIP, protocol, id, len(payload))
	hdr.FlagsFrag = flagsFrag
	hdr.Checksum = hdr.CalcChecksum()

	packet := append(hdr.Serialize(), payload...)
	frame := ethernet.NewFrame(s.resolveMAC(ifc, dstIP), ifc.MAC, ethernet.EtherTypeIPv4, packet)
	return s.transmit(ifc, frame.Serialize())
}
