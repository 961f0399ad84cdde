package netstack

import (
	"github.com/sirupsen/logrus"

	ipv4 "vibos/pkg/netstack/ip"
)

// SendEcho builds and transmits an ICMP echo request (ping) on the default
// interface. The emitted frame is exactly 42 bytes: Ethernet + IPv4 + echo
// header, no payload.
func (s *Stack) SendEcho(destIP uint32, id, seq uint16) error {
	ifc := s.defaultInterface()
	if ifc == nil {
		return ErrNoInterface
	}

	msg := ipv4.NewEchoRequest(id, seq, nil)
	s.log.WithFields(logrus.Fields{
		"dest": FormatIPv4(destIP),
		"id":   id,
		"seq":  seq,
	}).Debug("netstack: sending ICMP echo request")

	return s.sendIP(ifc, ifc.IP, destIP, ipv4.ProtocolICMP, 1, 0, msg.Serialize())
}

// handleICMP processes an inbound ICMP message. Echo requests addressed to
// us are answered with an echo reply mirroring the request's ID, sequence
// number and payload; echo replies are logged. Everything else is dropped.
func (s *Stack) handleICMP(ifc *Interface, iph *ipv4.Header, payload []byte) {
	msg, err := ipv4.ParseICMPMessage(payload)
	if err != nil {
		s.log.WithError(err).Debug("netstack: bad ICMP message")
		return
	}

	switch {
	case msg.IsEchoReply():
		s.log.WithFields(logrus.Fields{
			"from": FormatIPv4(iph.SrcIP),
			"seq":  msg.Header.Seq,
		}).Info("netstack: ICMP echo reply received")

	case msg.IsEchoRequest():
		s.log.WithField("from", FormatIPv4(iph.SrcIP)).Debug("netstack: ICMP echo request, sending reply")
		reply := ipv4.NewEchoReply(msg.Header.ID, msg.Header.Seq, msg.Payload)
		if err := s.sendIP(ifc, ifc.IP, iph.SrcIP, ipv4.ProtocolICMP, 1, 0, reply.Serialize()); err != nil {
			s.log.WithError(err).Debug("netstack: echo reply transmit failed")
		}
	}
}
