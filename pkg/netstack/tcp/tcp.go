// Package tcp provides the TCP segment wire format and the connection record
// tracked by the stack's connection table.
package tcp

import (
	"encoding/binary"
	"fmt"

	"vibos/pkg/netstack/checksum"
)

// TCP header length in bytes (without options).
const HeaderLength = 20

// TCP control flags.
const (
	FlagFIN uint8 = 1 << iota
	FlagSYN
	FlagRST
	FlagPSH
	FlagACK
	FlagURG
)

// State is the TCP connection state.
type State uint8

// TCP connection states.
const (
	StateClosed State = iota
	StateListen
	StateSynSent
	StateSynReceived
	StateEstablished
	StateFinWait1
	StateFinWait2
	StateCloseWait
	StateClosing
	StateLastAck
	StateTimeWait
)

var stateNames = map[State]string{
	StateClosed:      "CLOSED",
	StateListen:      "LISTEN",
	StateSynSent:     "SYN_SENT",
	StateSynReceived: "SYN_RECEIVED",
	StateEstablished: "ESTABLISHED",
	StateFinWait1:    "FIN_WAIT_1",
	StateFinWait2:    "FIN_WAIT_2",
	StateCloseWait:   "CLOSE_WAIT",
	StateClosing:     "CLOSING",
	StateLastAck:     "LAST_ACK",
	StateTimeWait:    "TIME_WAIT",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Buffer and window defaults.
const (
	BufferCapacity = 65536
	DefaultWindow  = 65535
)

// Header represents a TCP header. Options are not generated; on receive they
// are skipped via DataOffset.
type Header struct {
	SrcPort    uint16 // Source port
	DstPort    uint16 // Destination port
	Seq        uint32 // Sequence number
	Ack        uint32 // Acknowledgment number
	DataOffset uint8  // Header length in 32-bit words
	Flags      uint8  // Control flags
	Window     uint16 // Receive window
	Checksum   uint16 // Checksum
	Urgent     uint16 // Urgent pointer
}

// ParseHeader parses a TCP header from raw bytes.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderLength {
		return nil, fmt.Errorf("TCP header too short: %d bytes", len(data))
	}

	return &Header{
		SrcPort:    binary.BigEndian.Uint16(data[0:2]),
		DstPort:    binary.BigEndian.Uint16(data[2:4]),
		Seq:        binary.BigEndian.Uint32(data[4:8]),
		Ack:        binary.BigEndian.Uint32(data[8:12]),
		DataOffset: data[12] >> 4,
		Flags:      data[13],
		Window:     binary.BigEndian.Uint16(data[14:16]),
		Checksum:   binary.BigEndian.Uint16(data[16:18]),
		Urgent:     binary.BigEndian.Uint16(data[18:20]),
	}, nil
}

// Serialize serializes the TCP header to its 20-byte wire form.
func (h *Header) Serialize() []byte {
	buf := make([]byte, HeaderLength)
	binary.BigEndian.PutUint16(buf[0:2], h.SrcPort)
	binary.BigEndian.PutUint16(buf[2:4], h.DstPort)
	binary.BigEndian.PutUint32(buf[4:8], h.Seq)
	binary.BigEndian.PutUint32(buf[8:12], h.Ack)
	buf[12] = h.DataOffset << 4
	buf[13] = h.Flags
	binary.BigEndian.PutUint16(buf[14:16], h.Window)
	binary.BigEndian.PutUint16(buf[16:18], h.Checksum)
	binary.BigEndian.PutUint16(buf[18:20], h.Urgent)
	return buf
}

// Payload returns the segment payload, skipping the header and any options
// as declared by DataOffset. Returns nil if the offset is out of bounds.
func (h *Header) Payload(segment []byte) []byte {
	offset := int(h.DataOffset) * 4
	if offset > len(segment) {
		return nil
	}
	return segment[offset:]
}

// CalcChecksum calculates the TCP checksum over the pseudo-header, header
// and payload, with the header checksum field zeroed.
func (h *Header) CalcChecksum(srcIP, dstIP uint32, payload []byte) uint16 {
	hdr := *h
	hdr.Checksum = 0
	return checksum.Pseudo(srcIP, dstIP, 6, append(hdr.Serialize(), payload...))
}

// Connection is one slot of the stack's connection table, identified by the
// (local IP, local port, remote IP, remote port) 4-tuple. Seq and Ack wrap
// modulo 2^32. RecvBuf and SendBuf are append-only with FIFO consumption;
// their length is the fill level and their capacity is BufferCapacity.
type Connection struct {
	LocalIP    uint32
	LocalPort  uint16
	RemoteIP   uint32
	RemotePort uint16

	State State
	Seq   uint32 // Next sequence number to send
	Ack   uint32 // Next sequence number expected from the peer

	RecvWnd uint32
	SendWnd uint32
	RecvBuf []byte
	SendBuf []byte

	InUse bool
}

// Matches reports whether the connection is live and bound to the given
// 4-tuple.
func (c *Connection) Matches(remoteIP uint32, remotePort uint16, localIP uint32, localPort uint16) bool {
	return c.InUse &&
		c.RemoteIP == remoteIP && c.RemotePort == remotePort &&
		c.LocalIP == localIP && c.LocalPort == localPort
}

// SeqLess returns true if a < b modulo 2^32.
func SeqLess(a, b uint32) bool {
	return int32(a-b) < 0
}
