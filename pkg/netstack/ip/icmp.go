package ipv4

import (
	"encoding/binary"
	"fmt"

	"vibos/pkg/netstack/checksum"
)

// ICMP message types handled by the stack.
const (
	ICMPTypeEchoReply uint8 = 0
	ICMPTypeEcho      uint8 = 8
)

// ICMPHeaderLength is the length of the ICMP echo header in bytes.
const ICMPHeaderLength = 8

// ICMPHeader represents an ICMP echo header.
type ICMPHeader struct {
	Type     uint8  // ICMP type
	Code     uint8  // ICMP code
	Checksum uint16 // Checksum
	ID       uint16 // Identifier
	Seq      uint16 // Sequence number
}

// ParseICMPHeader parses an ICMP header from raw bytes.
func ParseICMPHeader(data []byte) (*ICMPHeader, error) {
	if len(data) < ICMPHeaderLength {
		return nil, fmt.Errorf("ICMP header too short: %d bytes", len(data))
	}

	return &ICMPHeader{
		Type:     data[0],
		Code:     data[1],
		Checksum: binary.BigEndian.Uint16(data[2:4]),
		ID:       binary.BigEndian.Uint16(data[4:6]),
		Seq:      binary.BigEndian.Uint16(data[6:8]),
	}, nil
}

// Serialize serializes the ICMP header to bytes.
func (h *ICMPHeader) Serialize() []byte {
	buf := make([]byte, ICMPHeaderLength)
	buf[0] = h.Type
	buf[1] = h.Code
	binary.BigEndian.PutUint16(buf[2:4], h.Checksum)
	binary.BigEndian.PutUint16(buf[4:6], h.ID)
	binary.BigEndian.PutUint16(buf[6:8], h.Seq)
	return buf
}

// ICMPMessage represents an ICMP message with optional payload.
type ICMPMessage struct {
	Header  *ICMPHeader
	Payload []byte
}

// ParseICMPMessage parses an ICMP message from raw bytes.
func ParseICMPMessage(data []byte) (*ICMPMessage, error) {
	header, err := ParseICMPHeader(data)
	if err != nil {
		return nil, err
	}

	return &ICMPMessage{
		Header:  header,
		Payload: data[ICMPHeaderLength:],
	}, nil
}

// Serialize serializes the message, computing the checksum over the header
// and payload with the checksum field zeroed.
func (m *ICMPMessage) Serialize() []byte {
	m.Header.Checksum = 0
	msg := append(m.Header.Serialize(), m.Payload...)
	m.Header.Checksum = checksum.Sum(msg)
	binary.BigEndian.PutUint16(msg[2:4], m.Header.Checksum)
	return msg
}

// NewEchoRequest creates an ICMP echo request (ping).
func NewEchoRequest(id, seq uint16, data []byte) *ICMPMessage {
	return &ICMPMessage{
		Header:  &ICMPHeader{Type: ICMPTypeEcho, ID: id, Seq: seq},
		Payload: data,
	}
}

// NewEchoReply creates an ICMP echo reply.
func NewEchoReply(id, seq uint16, data []byte) *ICMPMessage {
	return &ICMPMessage{
		Header:  &ICMPHeader{Type: ICMPTypeEchoReply, ID: id, Seq: seq},
		Payload: data,
	}
}

// IsEchoRequest returns true if the message is an echo request.
func (m *ICMPMessage) IsEchoRequest() bool {
	return m.Header.Type == ICMPTypeEcho
}

// IsEchoReply returns true if the message is an echo reply.
func (m *ICMPMessage) IsEchoReply() bool {
	return m.Header.Type == ICMPTypeEchoReply
}
