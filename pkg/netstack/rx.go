package netstack

import (
	"vibos/pkg/netstack/ethernet"
	ipv4 "vibos/pkg/netstack/ip"
)

// Rx delivers an inbound frame from the interface driver. Runt, truncated
// and unknown-protocol frames are dropped silently; nothing in the receive
// path returns an error to the driver.
func (s *Stack) Rx(ifc *Interface, frame []byte) {
	if ifc == nil || len(frame) < ethernet.HeaderLength {
		return
	}

	eth, err := ethernet.ParseFrame(frame)
	if err != nil {
		return
	}

	ifc.RxPackets++
	ifc.RxBytes += uint64(len(frame))

	switch eth.EtherType {
	case ethernet.EtherTypeARP:
		if len(eth.Payload) < ethernet.ARPPacketSize {
			s.log.Debug("netstack: runt ARP packet dropped")
			return
		}
		pkt, err := ethernet.ParseARPPacket(eth.Payload)
		if err != nil {
			return
		}
		s.handleARP(ifc, pkt)

	case ethernet.EtherTypeIPv4:
		if len(eth.Payload) < ipv4.HeaderLength {
			s.log.Debug("netstack: runt IPv4 packet dropped")
			return
		}
		s.handleIPv4(ifc, eth.Payload)

	default:
		// Unknown EtherType, not ours to handle.
	}
}
