package netstack

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"vibos/pkg/netstack/tcp"
)

// Table capacities. The engine is allocation-free in steady state: all three
// tables are fixed arrays scanned linearly, sized the way the kernel sizes
// them.
const (
	MaxInterfaces     = 4
	ARPCacheSize      = 64
	MaxTCPConnections = 256
)

// Errors reported by the engine. No error is fatal to the stack itself; the
// worst outcome is a dropped packet or a failed call.
var (
	ErrNoInterface       = errors.New("netstack: no usable interface")
	ErrTooManyInterfaces = errors.New("netstack: interface table full")
	ErrNoFreeConnection  = errors.New("netstack: no free connection slot")
	ErrNotEstablished    = errors.New("netstack: connection not established")
	ErrBufferFull        = errors.New("netstack: send buffer full")
	ErrNotFound          = errors.New("netstack: no such connection")
)

// isnSeed seeds the linear-congruential ISN generator. Sequence numbers are
// deterministic across runs and not cryptographically unpredictable.
const isnSeed uint32 = 0x12345678

// Ephemeral port rotation bounds.
const (
	ephemeralPortFirst uint16 = 49152
	ephemeralPortLast  uint16 = 65000
)

// Stack is the protocol engine: interface registry, ARP cache, IP dispatch
// and TCP connection table behind a single owned aggregate. Construct with
// New; the zero value is not usable.
type Stack struct {
	ifaces    [MaxInterfaces]Interface
	numIfaces int

	arpCache [ARPCacheSize]arpEntry

	conns             [MaxTCPConnections]tcp.Connection
	nextEphemeralPort uint16
	isn               uint32

	now func() time.Time
	log *logrus.Logger
}

// Option configures a Stack at construction time.
type Option func(*Stack)

// WithLogger sets the logger used by the engine.
func WithLogger(log *logrus.Logger) Option {
	return func(s *Stack) { s.log = log }
}

// WithClock sets the time source used for ARP cache aging.
func WithClock(now func() time.Time) Option {
	return func(s *Stack) { s.now = now }
}

// New creates a stack with a loopback interface already registered.
// Loopback has no send capability, so it is never chosen for transmission.
func New(opts ...Option) *Stack {
	s := &Stack{
		nextEphemeralPort: ephemeralPortFirst,
		isn:               isnSeed,
		now:               time.Now,
		log:               logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	lo := &s.ifaces[0]
	lo.Name = "lo"
	lo.IP = 0x7F000001 // 127.0.0.1
	lo.Netmask = 0xFF000000
	lo.Up = true
	s.numIfaces = 1

	s.log.Info("netstack: TCP/IP stack initialized")
	return s
}

// generateISN advances the linear-congruential counter and returns the next
// initial sequence number.
func (s *Stack) generateISN() uint32 {
	s.isn = s.isn*1103515245 + 12345
	return s.isn
}
