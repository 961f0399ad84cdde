package netstack

import (
	"github.com/sirupsen/logrus"

	ipv4 "vibos/pkg/netstack/ip"
	"vibos/pkg/netstack/tcp"
)

// allocConnection claims the first free slot of the connection table and
// initializes its buffers and windows.
func (s *Stack) allocConnection() (int, *tcp.Connection) {
	for i := range s.conns {
		if s.conns[i].InUse {
			continue
		}
		c := &s.conns[i]
		*c = tcp.Connection{
			State:   tcp.StateClosed,
			RecvWnd: tcp.DefaultWindow,
			SendWnd: tcp.DefaultWindow,
			RecvBuf: make([]byte, 0, tcp.BufferCapacity),
			SendBuf: make([]byte, 0, tcp.BufferCapacity),
			InUse:   true,
		}
		return i, c
	}
	return -1, nil
}

// releaseConnection frees a slot. CLOSED never persists: reaching it always
// ends here.
func (s *Stack) releaseConnection(c *tcp.Connection) {
	c.RecvBuf = nil
	c.SendBuf = nil
	c.State = tcp.StateClosed
	c.InUse = false
}

// Connection returns the connection in the given slot, or nil if the index
// is out of range or the slot is free.
func (s *Stack) Connection(idx int) *tcp.Connection {
	if idx < 0 || idx >= MaxTCPConnections || !s.conns[idx].InUse {
		return nil
	}
	return &s.conns[idx]
}

// findConnection locates a live connection by exact 4-tuple match.
func (s *Stack) findConnection(remoteIP uint32, remotePort uint16, localIP uint32, localPort uint16) *tcp.Connection {
	for i := range s.conns {
		if s.conns[i].Matches(remoteIP, remotePort, localIP, localPort) {
			return &s.conns[i]
		}
	}
	return nil
}

// sendSegment builds a TCP segment for the connection and transmits it
// inside an Ethernet+IPv4 frame with the don't-fragment bit set.
func (s *Stack) sendSegment(c *tcp.Connection, flags uint8, payload []byte) error {
	ifc := s.defaultInterface()
	if ifc == nil {
		return ErrNoInterface
	}

	hdr := &tcp.Header{
		SrcPort:    c.LocalPort,
		DstPort:    c.RemotePort,
		Seq:        c.Seq,
		Ack:        c.Ack,
		DataOffset: tcp.HeaderLength / 4,
		Flags:      flags,
		Window:     uint16(c.RecvWnd),
	}
	hdr.Checksum = hdr.CalcChecksum(c.LocalIP, c.RemoteIP, payload)

	segment := append(hdr.Serialize(), payload...)
	return s.sendIP(ifc, c.LocalIP, c.RemoteIP, ipv4.ProtocolTCP, uint16(c.Seq), ipv4.FlagDontFragment, segment)
}

// Connect performs a TCP active open toward destIP:destPort and returns the
// connection's table index. The local port comes from the rotating ephemeral
// counter and the ISN from the deterministic LCG; the connection is left in
// SYN_SENT with exactly one SYN on the wire.
func (s *Stack) Connect(destIP uint32, destPort uint16) (int, error) {
	ifc := s.defaultInterface()
	if ifc == nil {
		return -1, ErrNoInterface
	}

	idx, c := s.allocConnection()
	if c == nil {
		return -1, ErrNoFreeConnection
	}

	c.LocalIP = ifc.IP
	c.LocalPort = s.nextEphemeralPort
	s.nextEphemeralPort++
	if s.nextEphemeralPort > ephemeralPortLast {
		s.nextEphemeralPort = ephemeralPortFirst
	}

	c.RemoteIP = destIP
	c.RemotePort = destPort
	c.Seq = s.generateISN()
	c.Ack = 0
	c.State = tcp.StateSynSent

	s.log.WithFields(logrus.Fields{
		"dest": FormatIPv4(destIP),
		"port": destPort,
		"seq":  c.Seq,
	}).Info("netstack: TCP connecting")

	if err := s.sendSegment(c, tcp.FlagSYN, nil); err != nil {
		s.releaseConnection(c)
		return -1, err
	}
	c.Seq++ // the SYN consumes one sequence number

	return idx, nil
}

// Send queues data on an established connection and transmits it at once as
// a single PSH+ACK segment; there is no MTU-aware segmentation and no
// partial write. Fails without side effects when the 64KB send buffer cannot
// take the whole chunk.
func (s *Stack) Send(idx int, data []byte) (int, error) {
	c := s.Connection(idx)
	if c == nil {
		return -1, ErrNotFound
	}
	if c.State != tcp.StateEstablished {
		return -1, ErrNotEstablished
	}
	if len(c.SendBuf)+len(data) > tcp.BufferCapacity {
		return -1, ErrBufferFull
	}

	c.SendBuf = append(c.SendBuf, data...)
	if err := s.sendSegment(c, tcp.FlagPSH|tcp.FlagACK, data); err != nil {
		return -1, err
	}
	c.Seq += uint32(len(data))

	return len(data), nil
}

// Recv copies up to len(buf) buffered bytes in FIFO order and shifts the
// remainder down. Non-blocking: returns 0 when nothing is buffered.
func (s *Stack) Recv(idx int, buf []byte) (int, error) {
	c := s.Connection(idx)
	if c == nil {
		return -1, ErrNotFound
	}
	if len(c.RecvBuf) == 0 {
		return 0, nil
	}

	n := copy(buf, c.RecvBuf)
	rest := copy(c.RecvBuf, c.RecvBuf[n:])
	c.RecvBuf = c.RecvBuf[:rest]

	return n, nil
}

// Close initiates an orderly shutdown. From ESTABLISHED it sends FIN+ACK and
// waits in FIN_WAIT_1; from CLOSE_WAIT it sends FIN+ACK and waits in
// LAST_ACK; from SYN_SENT or LISTEN the slot is freed immediately with no
// handshake. Closing is a state transition, not an interrupt: any later
// segments drive the state machine to completion.
func (s *Stack) Close(idx int) error {
	c := s.Connection(idx)
	if c == nil {
		return ErrNotFound
	}

	switch c.State {
	case tcp.StateEstablished:
		c.State = tcp.StateFinWait1
		if err := s.sendSegment(c, tcp.FlagFIN|tcp.FlagACK, nil); err != nil {
			return err
		}
		c.Seq++ // the FIN consumes one sequence number
		s.log.Debug("netstack: TCP sent FIN, entering FIN_WAIT_1")

	case tcp.StateCloseWait:
		c.State = tcp.StateLastAck
		if err := s.sendSegment(c, tcp.FlagFIN|tcp.FlagACK, nil); err != nil {
			return err
		}
		c.Seq++
		s.log.Debug("netstack: TCP sent FIN, entering LAST_ACK")

	case tcp.StateSynSent, tcp.StateListen:
		s.releaseConnection(c)

	default:
		// Already closing; the state machine finishes on inbound segments.
	}
	return nil
}

// handleTCPSegment applies one inbound segment to the state machine. The
// engine has no retransmission or timeout layer, so every transition is
// driven solely by what arrives: unrecognized flag/state combinations are
// ignored without a transition, and a segment matching no connection is
// dropped (a RST would be the protocol-correct response but is only logged).
func (s *Stack) handleTCPSegment(srcIP, dstIP uint32, segment []byte) {
	hdr, err := tcp.ParseHeader(segment)
	if err != nil {
		s.log.WithError(err).Debug("netstack: bad TCP header")
		return
	}

	c := s.findConnection(srcIP, hdr.SrcPort, dstIP, hdr.DstPort)
	if c == nil {
		if hdr.Flags&tcp.FlagRST == 0 {
			s.log.WithField("port", hdr.DstPort).Debug("netstack: no TCP connection, would send RST")
		}
		return
	}

	data := hdr.Payload(segment)
	if data == nil {
		s.log.Debug("netstack: TCP data offset out of bounds")
		return
	}

	switch c.State {
	case tcp.StateSynSent:
		if hdr.Flags&(tcp.FlagSYN|tcp.FlagACK) == tcp.FlagSYN|tcp.FlagACK {
			c.Ack = hdr.Seq + 1
			c.State = tcp.StateEstablished
			s.ackPeer(c)
			s.log.Info("netstack: TCP connection established")
		} else if hdr.Flags&tcp.FlagRST != 0 {
			s.log.Info("netstack: TCP connection refused (RST)")
			s.releaseConnection(c)
		}

	case tcp.StateEstablished:
		if hdr.Flags&tcp.FlagFIN != 0 {
			c.Ack = hdr.Seq + uint32(len(data)) + 1
			c.State = tcp.StateCloseWait
			s.ackPeer(c)
			s.log.Debug("netstack: TCP received FIN, entering CLOSE_WAIT")
		} else if len(data) > 0 {
			// Data beyond the 64KB buffer is dropped silently and not
			// acknowledged.
			if len(c.RecvBuf)+len(data) <= tcp.BufferCapacity {
				c.RecvBuf = append(c.RecvBuf, data...)
				c.Ack = hdr.Seq + uint32(len(data))
				s.ackPeer(c)
			}
		}
		// A bare ACK is a no-op: send-buffer trimming is unimplemented.

	case tcp.StateFinWait1:
		if hdr.Flags&tcp.FlagACK != 0 {
			c.State = tcp.StateFinWait2
			s.log.Debug("netstack: TCP entering FIN_WAIT_2")
		}
		if hdr.Flags&tcp.FlagFIN != 0 {
			c.Ack = hdr.Seq + 1
			s.ackPeer(c)
			if c.State == tcp.StateFinWait2 {
				c.State = tcp.StateTimeWait
				s.log.Debug("netstack: TCP entering TIME_WAIT")
			} else {
				c.State = tcp.StateClosing
			}
		}

	case tcp.StateFinWait2:
		if hdr.Flags&tcp.FlagFIN != 0 {
			c.Ack = hdr.Seq + 1
			s.ackPeer(c)
			c.State = tcp.StateTimeWait
			s.log.Debug("netstack: TCP entering TIME_WAIT")
		}

	case tcp.StateClosing:
		if hdr.Flags&tcp.FlagACK != 0 {
			c.State = tcp.StateTimeWait
		}

	case tcp.StateLastAck:
		if hdr.Flags&tcp.FlagACK != 0 {
			s.releaseConnection(c)
			s.log.Debug("netstack: TCP connection closed")
		}

	case tcp.StateTimeWait:
		// No 2*MSL timer exists in the engine: the slot is reclaimed on the
		// next observed segment, trading duplicate-segment protection for a
		// timer-free design.
		s.releaseConnection(c)
	}
}

// ackPeer emits a bare ACK carrying the connection's current seq/ack pair.
func (s *Stack) ackPeer(c *tcp.Connection) {
	if err := s.sendSegment(c, tcp.FlagACK, nil); err != nil {
		s.log.WithError(err).Debug("netstack: TCP ACK transmit failed")
	}
}
