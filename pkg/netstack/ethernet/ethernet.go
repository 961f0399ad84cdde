// Package ethernet provides the Ethernet frame and ARP packet wire formats.
package ethernet

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Ethernet header length in bytes.
const HeaderLength = 14

// EtherType identifies the protocol carried in an Ethernet frame.
type EtherType uint16

// EtherType values handled by the stack.
const (
	EtherTypeIPv4 EtherType = 0x0800
	EtherTypeARP  EtherType = 0x0806
	EtherTypeIPv6 EtherType = 0x86DD
)

// Frame represents an Ethernet frame.
type Frame struct {
	DstMAC    net.HardwareAddr // Destination MAC address (6 bytes)
	SrcMAC    net.HardwareAddr // Source MAC address (6 bytes)
	EtherType EtherType        // EtherType field
	Payload   []byte           // Frame payload (IP packet, ARP, etc.)
}

// ParseFrame parses an Ethernet frame from raw bytes.
func ParseFrame(data []byte) (*Frame, error) {
	if len(data) < HeaderLength {
		return nil, fmt.Errorf("frame too short: %d bytes", len(data))
	}

	return &Frame{
		DstMAC:    net.HardwareAddr{data[0], data[1], data[2], data[3], data[4], data[5]},
		SrcMAC:    net.HardwareAddr{data[6], data[7], data[8], data[9], data[10], data[11]},
		EtherType: EtherType(binary.BigEndian.Uint16(data[12:14])),
		Payload:   data[14:],
	}, nil
}

// Serialize serializes the Ethernet frame to bytes.
func (f *Frame) Serialize() []byte {
	buf := make([]byte, HeaderLength+len(f.Payload))
	copy(buf[0:6], f.DstMAC)
	copy(buf[6:12], f.SrcMAC)
	binary.BigEndian.PutUint16(buf[12:14], uint16(f.EtherType))
	copy(buf[14:], f.Payload)
	return buf
}

// IsBroadcast checks if the destination MAC is broadcast.
func (f *Frame) IsBroadcast() bool {
	for _, b := range f.DstMAC {
		if b != 0xFF {
			return false
		}
	}
	return true
}

// NewFrame creates a new Ethernet frame.
func NewFrame(dstMAC, srcMAC net.HardwareAddr, etherType EtherType, payload []byte) *Frame {
	return &Frame{
		DstMAC:    dstMAC,
		SrcMAC:    srcMAC,
		EtherType: etherType,
		Payload:   payload,
	}
}

// BroadcastMAC returns the Ethernet broadcast MAC address.
func BroadcastMAC() net.HardwareAddr {
	return net.HardwareAddr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
}
