// Package ipv4 provides the IPv4 and ICMP wire formats used by the stack.
// Header options are not supported: the stack always emits 20-byte headers
// and assumes IHL describes the fixed header on receive.
package ipv4

import (
	"encoding/binary"
	"fmt"

	"vibos/pkg/netstack/checksum"
)

// IPv4 header length in bytes (no options).
const HeaderLength = 20

// Protocol numbers carried in the IPv4 protocol field.
const (
	ProtocolICMP uint8 = 1
	ProtocolTCP  uint8 = 6
	ProtocolUDP  uint8 = 17
)

// Flag bits of the flags/fragment-offset word.
const (
	FlagDontFragment  uint16 = 0x4000
	FlagMoreFragments uint16 = 0x2000
)

// Header represents an IPv4 header. Addresses are 32-bit host-order values;
// byte order is converted at the wire boundary.
type Header struct {
	Version   uint8  // IP version (4)
	IHL       uint8  // Header length in 32-bit words
	TOS       uint8  // Type of Service
	Length    uint16 // Total length of the datagram
	ID        uint16 // Identification
	FlagsFrag uint16 // Flags (top 3 bits) and fragment offset
	TTL       uint8  // Time to Live
	Protocol  uint8  // Upper layer protocol
	Checksum  uint16 // Header checksum
	SrcIP     uint32
	DstIP     uint32
}

// ParseHeader parses an IPv4 header from raw bytes.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderLength {
		return nil, fmt.Errorf("IPv4 header too short: %d bytes", len(data))
	}

	return &Header{
		Version:   data[0] >> 4,
		IHL:       data[0] & 0x0F,
		TOS:       data[1],
		Length:    binary.BigEndian.Uint16(data[2:4]),
		ID:        binary.BigEndian.Uint16(data[4:6]),
		FlagsFrag: binary.BigEndian.Uint16(data[6:8]),
		TTL:       data[8],
		Protocol:  data[9],
		Checksum:  binary.BigEndian.Uint16(data[10:12]),
		SrcIP:     binary.BigEndian.Uint32(data[12:16]),
		DstIP:     binary.BigEndian.Uint32(data[16:20]),
	}, nil
}

// Serialize serializes the IPv4 header to its 20-byte wire form.
func (h *Header) Serialize() []byte {
	buf := make([]byte, HeaderLength)
	buf[0] = (h.Version << 4) | (h.IHL & 0x0F)
	buf[1] = h.TOS
	binary.BigEndian.PutUint16(buf[2:4], h.Length)
	binary.BigEndian.PutUint16(buf[4:6], h.ID)
	binary.BigEndian.PutUint16(buf[6:8], h.FlagsFrag)
	buf[8] = h.TTL
	buf[9] = h.Protocol
	binary.BigEndian.PutUint16(buf[10:12], h.Checksum)
	binary.BigEndian.PutUint32(buf[12:16], h.SrcIP)
	binary.BigEndian.PutUint32(buf[16:20], h.DstIP)
	return buf
}

// CalcChecksum calculates the header checksum with the checksum field zeroed.
func (h *Header) CalcChecksum() uint16 {
	buf := h.Serialize()
	buf[10] = 0
	buf[11] = 0
	return checksum.Sum(buf)
}

// HeaderBytes returns the header length in bytes as declared by IHL.
func (h *Header) HeaderBytes() int {
	return int(h.IHL) * 4
}

// NewHeader creates an IPv4 header for a datagram carrying payloadLen bytes
// of the given protocol. The checksum is left for the caller to fill after
// any final field adjustments.
func NewHeader(srcIP, dstIP uint32, protocol uint8, id uint16, payloadLen int) *Header {
	return &Header{
		Version:  4,
		IHL:      HeaderLength / 4,
		Length:   uint16(HeaderLength + payloadLen),
		ID:       id,
		TTL:      64,
		Protocol: protocol,
		SrcIP:    srcIP,
		DstIP:    dstIP,
	}
}
