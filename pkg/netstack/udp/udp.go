// Package udp provides the UDP datagram wire format.
package udp

import (
	"encoding/binary"
	"fmt"

	"vibos/pkg/netstack/checksum"
)

// UDP header length in bytes.
const HeaderLength = 8

// Header represents a UDP header.
type Header struct {
	SrcPort  uint16 // Source port
	DstPort  uint16 // Destination port
	Length   uint16 // Length of header plus payload
	Checksum uint16 // Checksum; zero means not computed
}

// ParseHeader parses a UDP header from raw bytes.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderLength {
		return nil, fmt.Errorf("UDP header too short: %d bytes", len(data))
	}

	return &Header{
		SrcPort:  binary.BigEndian.Uint16(data[0:2]),
		DstPort:  binary.BigEndian.Uint16(data[2:4]),
		Length:   binary.BigEndian.Uint16(data[4:6]),
		Checksum: binary.BigEndian.Uint16(data[6:8]),
	}, nil
}

// Serialize serializes the UDP header to bytes.
func (h *Header) Serialize() []byte {
	buf := make([]byte, HeaderLength)
	binary.BigEndian.PutUint16(buf[0:2], h.SrcPort)
	binary.BigEndian.PutUint16(buf[2:4], h.DstPort)
	binary.BigEndian.PutUint16(buf[4:6], h.Length)
	binary.BigEndian.PutUint16(buf[6:8], h.Checksum)
	return buf
}

// CalcChecksum calculates the UDP checksum using the IPv4 pseudo-header.
// The UDP checksum is optional; the stack transmits zero, but the routine is
// exact for peers that do compute it.
func (h *Header) CalcChecksum(srcIP, dstIP uint32, payload []byte) uint16 {
	hdr := *h
	hdr.Checksum = 0
	sum := checksum.Pseudo(srcIP, dstIP, 17, append(hdr.Serialize(), payload...))
	// An all-zero result is transmitted as 0xFFFF so that zero keeps meaning
	// "no checksum".
	if sum == 0 {
		return 0xFFFF
	}
	return sum
}

// NewHeader creates a UDP header for payloadLen bytes of payload, with the
// checksum left at zero.
func NewHeader(srcPort, dstPort uint16, payloadLen int) *Header {
	return &Header{
		SrcPort: srcPort,
		DstPort: dstPort,
		Length:  uint16(HeaderLength + payloadLen),
	}
}
