package netstack

import (
	"github.com/sirupsen/logrus"

	ipv4 "vibos/pkg/netstack/ip"
	"vibos/pkg/netstack/udp"
)

// SendUDP builds and transmits a single UDP datagram on the default
// interface, fire-and-forget. The UDP checksum is left at zero, which UDP
// permits. Returns the number of payload bytes handed to the driver; success
// is independent of actual delivery.
func (s *Stack) SendUDP(destIP uint32, srcPort, dstPort uint16, data []byte) (int, error) {
	ifc := s.defaultInterface()
	if ifc == nil {
		return -1, ErrNoInterface
	}

	hdr := udp.NewHeader(srcPort, dstPort, len(data))
	payload := append(hdr.Serialize(), data...)

	if err := s.sendIP(ifc, ifc.IP, destIP, ipv4.ProtocolUDP, 1, 0, payload); err != nil {
		return -1, err
	}

	s.log.WithFields(logrus.Fields{
		"dest":  FormatIPv4(destIP),
		"port":  dstPort,
		"bytes": len(data),
	}).Debug("netstack: UDP datagram sent")
	return len(data), nil
}
