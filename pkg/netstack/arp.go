package netstack

import (
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"vibos/pkg/netstack/ethernet"
)

// arpEntry is one slot of the fixed 64-entry ARP cache.
type arpEntry struct {
	ip      uint32
	mac     net.HardwareAddr
	addedAt time.Time
	valid   bool
}

// ARPLookup scans the cache for a valid entry matching ip.
func (s *Stack) ARPLookup(ip uint32) (net.HardwareAddr, bool) {
	for i := range s.arpCache {
		if s.arpCache[i].valid && s.arpCache[i].ip == ip {
			return s.arpCache[i].mac, true
		}
	}
	return nil, false
}

// arpAdd inserts or refreshes a mapping. An existing entry for the IP is
// updated in place, so the cache holds at most one entry per IP. Otherwise
// the first invalid slot is used, else the oldest entry is evicted.
func (s *Stack) arpAdd(ip uint32, mac net.HardwareAddr) {
	slot := -1
	for i := range s.arpCache {
		e := &s.arpCache[i]
		if e.valid && e.ip == ip {
			slot = i
			break
		}
		if !e.valid {
			if slot < 0 || s.arpCache[slot].valid {
				slot = i
			}
			continue
		}
		if slot < 0 || (s.arpCache[slot].valid && e.addedAt.Before(s.arpCache[slot].addedAt)) {
			slot = i
		}
	}

	e := &s.arpCache[slot]
	e.ip = ip
	e.mac = append(net.HardwareAddr(nil), mac...)
	e.addedAt = s.now()
	e.valid = true
}

// ARPEntry is a snapshot row of the ARP cache.
type ARPEntry struct {
	IP      uint32
	MAC     net.HardwareAddr
	AddedAt time.Time
}

// ARPEntries returns a snapshot of the valid cache entries in slot order.
func (s *Stack) ARPEntries() []ARPEntry {
	var out []ARPEntry
	for i := range s.arpCache {
		if s.arpCache[i].valid {
			out = append(out, ARPEntry{
				IP:      s.arpCache[i].ip,
				MAC:     s.arpCache[i].mac,
				AddedAt: s.arpCache[i].addedAt,
			})
		}
	}
	return out
}

// handleARP processes an inbound ARP packet: requests for one of our
// addresses are answered, replies populate the cache.
func (s *Stack) handleARP(ifc *Interface, pkt *ethernet.ARPPacket) {
	switch pkt.Operation {
	case ethernet.ARPOperationRequest:
		if pkt.TargetIP != ifc.IP {
			return
		}
		s.log.WithField("from", FormatIPv4(pkt.SenderIP)).Debug("netstack: ARP request for our IP, sending reply")

		reply := ethernet.NewARPReply(ifc.MAC, ifc.IP, pkt.SenderMAC, pkt.SenderIP)
		frame := ethernet.NewFrame(pkt.SenderMAC, ifc.MAC, ethernet.EtherTypeARP, reply.Serialize())
		if err := s.transmit(ifc, frame.Serialize()); err != nil {
			s.log.WithError(err).Debug("netstack: ARP reply transmit failed")
		}

	case ethernet.ARPOperationReply:
		s.arpAdd(pkt.SenderIP, pkt.SenderMAC)
		s.log.WithFields(logrus.Fields{
			"ip":  FormatIPv4(pkt.SenderIP),
			"mac": pkt.SenderMAC.String(),
		}).Debug("netstack: ARP cache entry added")
	}
}

// SendARPRequest broadcasts an ARP request for targetIP on the default
// interface.
func (s *Stack) SendARPRequest(targetIP uint32) error {
	ifc := s.defaultInterface()
	if ifc == nil {
		return ErrNoInterface
	}

	req := ethernet.NewARPRequest(ifc.MAC, ifc.IP, targetIP)
	frame := ethernet.NewFrame(ethernet.BroadcastMAC(), ifc.MAC, ethernet.EtherTypeARP, req.Serialize())

	s.log.WithField("target", FormatIPv4(targetIP)).Debug("netstack: sending ARP request")
	return s.transmit(ifc, frame.Serialize())
}
