// Package netstack implements the in-kernel TCP/IP protocol engine:
// Ethernet dispatch, ARP resolution, IPv4, ICMP echo, UDP transmit and a
// fixed-capacity TCP connection table with the full state machine.
//
// All state lives in a Stack value constructed with New; there is no hidden
// process-wide state, so independent stacks can coexist (one per test, for
// instance). The engine is single-threaded and polling-driven: Rx and every
// outbound entry point run synchronously in the caller's context with no
// internal locking, and no call blocks or suspends. A host embedding the
// stack on a multi-threaded runtime must serialize access to it.
//
// The physical interface driver is modeled as the Interface.Send callback on
// the way out and a call to Stack.Rx on the way in:
//
//	s := netstack.New()
//	iface, _ := s.AddInterface("eth0", mac, ip, netmask, gateway)
//	iface.Send = driverTx            // outbound frames
//	s.Rx(iface, frame)               // inbound frames
//	s.SendEcho(dest, 1, 1)           // ping
//	idx, _ := s.Connect(dest, 80)    // TCP active open
package netstack
