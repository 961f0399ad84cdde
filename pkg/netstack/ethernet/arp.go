package ethernet

import (
	"encoding/binary"
	"fmt"
	"net"
)

// ARP operation codes.
const (
	ARPOperationRequest uint16 = 1
	ARPOperationReply   uint16 = 2
)

// ARPPacketSize is the size of an Ethernet/IPv4 ARP packet in bytes.
const ARPPacketSize = 28

// ARPPacket represents an ARP packet for Ethernet/IPv4 networks. Addresses
// are 32-bit host-order values; byte order is converted at the wire boundary.
type ARPPacket struct {
	HardwareType uint16
	ProtocolType uint16
	HardwareLen  uint8
	ProtocolLen  uint8
	Operation    uint16
	SenderMAC    net.HardwareAddr
	SenderIP     uint32
	TargetMAC    net.HardwareAddr
	TargetIP     uint32
}

// ParseARPPacket parses an ARP packet from raw bytes.
func ParseARPPacket(data []byte) (*ARPPacket, error) {
	if len(data) < ARPPacketSize {
		return nil, fmt.Errorf("ARP packet too short: %d bytes", len(data))
	}

	return &ARPPacket{
		HardwareType: binary.BigEndian.Uint16(data[0:2]),
		ProtocolType: binary.BigEndian.Uint16(data[2:4]),
		HardwareLen:  data[4],
		ProtocolLen:  data[5],
		Operation:    binary.BigEndian.Uint16(data[6:8]),
		SenderMAC:    net.HardwareAddr{data[8], data[9], data[10], data[11], data[12], data[13]},
		SenderIP:     binary.BigEndian.Uint32(data[14:18]),
		TargetMAC:    net.HardwareAddr{data[18], data[19], data[20], data[21], data[22], data[23]},
		TargetIP:     binary.BigEndian.Uint32(data[24:28]),
	}, nil
}

// Serialize converts the ARP packet to raw bytes.
func (p *ARPPacket) Serialize() []byte {
	buf := make([]byte, ARPPacketSize)
	binary.BigEndian.PutUint16(buf[0:2], p.HardwareType)
	binary.BigEndian.PutUint16(buf[2:4], p.ProtocolType)
	buf[4] = p.HardwareLen
	buf[5] = p.ProtocolLen
	binary.BigEndian.PutUint16(buf[6:8], p.Operation)
	copy(buf[8:14], p.SenderMAC)
	binary.BigEndian.PutUint32(buf[14:18], p.SenderIP)
	copy(buf[18:24], p.TargetMAC)
	binary.BigEndian.PutUint32(buf[24:28], p.TargetIP)
	return buf
}

// NewARPRequest creates an ARP request asking who holds targetIP.
func NewARPRequest(senderMAC net.HardwareAddr, senderIP, targetIP uint32) *ARPPacket {
	return &ARPPacket{
		HardwareType: 1, // Ethernet
		ProtocolType: uint16(EtherTypeIPv4),
		HardwareLen:  6,
		ProtocolLen:  4,
		Operation:    ARPOperationRequest,
		SenderMAC:    senderMAC,
		SenderIP:     senderIP,
		TargetMAC:    net.HardwareAddr{0, 0, 0, 0, 0, 0},
		TargetIP:     targetIP,
	}
}

// NewARPReply creates an ARP reply announcing senderIP's MAC to the target.
func NewARPReply(senderMAC net.HardwareAddr, senderIP uint32, targetMAC net.HardwareAddr, targetIP uint32) *ARPPacket {
	return &ARPPacket{
		HardwareType: 1,
		ProtocolType: uint16(EtherTypeIPv4),
		HardwareLen:  6,
		ProtocolLen:  4,
		Operation:    ARPOperationReply,
		SenderMAC:    senderMAC,
		SenderIP:     senderIP,
		TargetMAC:    targetMAC,
		TargetIP:     targetIP,
	}
}

// IsValid returns true if the packet describes an Ethernet/IPv4 mapping.
func (p *ARPPacket) IsValid() bool {
	return p.HardwareType == 1 &&
		p.ProtocolType == uint16(EtherTypeIPv4) &&
		p.HardwareLen == 6 &&
		p.ProtocolLen == 4
}
