package netstack

import (
	"net"

	"github.com/sirupsen/logrus"
)

// SendFunc hands a fully built frame to the transmission layer. It is
// assumed synchronous: it returns only after the frame has been handed off.
type SendFunc func(frame []byte) error

// Interface represents a network interface. Addresses are 32-bit host-order
// values. Interfaces live for the duration of the process; they are never
// destroyed.
type Interface struct {
	Name    string // At most 15 characters
	MAC     net.HardwareAddr
	IP      uint32
	Netmask uint32
	Gateway uint32
	Up      bool
	Send    SendFunc

	// Traffic counters, mutated on every send and receive.
	RxPackets uint64
	RxBytes   uint64
	TxPackets uint64
	TxBytes   uint64
}

// NextHop returns the address the destination MAC must be resolved for:
// the destination itself when it is on the interface's subnet, otherwise the
// default gateway when one is configured.
func (ifc *Interface) NextHop(dst uint32) uint32 {
	if ifc.Netmask != 0 && dst&ifc.Netmask == ifc.IP&ifc.Netmask {
		return dst
	}
	if ifc.Gateway != 0 {
		return ifc.Gateway
	}
	return dst
}

// AddInterface registers a network interface and marks it up. At most
// MaxInterfaces interfaces (including loopback) can be live. Names longer
// than 15 characters are truncated.
func (s *Stack) AddInterface(name string, mac net.HardwareAddr, ip, netmask, gateway uint32) (*Interface, error) {
	if s.numIfaces >= MaxInterfaces {
		return nil, ErrTooManyInterfaces
	}
	if len(name) > 15 {
		name = name[:15]
	}

	ifc := &s.ifaces[s.numIfaces]
	s.numIfaces++

	ifc.Name = name
	ifc.MAC = append(net.HardwareAddr(nil), mac...)
	ifc.IP = ip
	ifc.Netmask = netmask
	ifc.Gateway = gateway
	ifc.Up = true

	s.log.WithFields(logrus.Fields{"iface": name, "ip": FormatIPv4(ip)}).Info("netstack: added interface")
	return ifc, nil
}

// Interfaces returns the live interfaces in registration order.
func (s *Stack) Interfaces() []*Interface {
	out := make([]*Interface, 0, s.numIfaces)
	for i := 0; i < s.numIfaces; i++ {
		out = append(out, &s.ifaces[i])
	}
	return out
}

// defaultInterface returns the first up interface with a send capability.
// Loopback never qualifies.
func (s *Stack) defaultInterface() *Interface {
	for i := 0; i < s.numIfaces; i++ {
		if s.ifaces[i].Up && s.ifaces[i].Send != nil {
			return &s.ifaces[i]
		}
	}
	return nil
}

// transmit hands a frame to the interface driver and bumps the tx counters.
func (s *Stack) transmit(ifc *Interface, frame []byte) error {
	if ifc.Send == nil {
		return ErrNoInterface
	}
	if err := ifc.Send(frame); err != nil {
		return err
	}
	ifc.TxPackets++
	ifc.TxBytes += uint64(len(frame))
	return nil
}
