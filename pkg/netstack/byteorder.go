package netstack

import (
	"fmt"
	"net"
)

// The engine keeps IPv4 addresses as 32-bit host-order values and converts
// explicitly at the wire boundary, so byte order never depends on struct
// layout. Htons/Htonl are their own inverses.

// Htons converts a 16-bit value between host and network byte order.
func Htons(v uint16) uint16 {
	return v<<8 | v>>8
}

// Ntohs converts a 16-bit value between network and host byte order.
func Ntohs(v uint16) uint16 {
	return Htons(v)
}

// Htonl converts a 32-bit value between host and network byte order.
func Htonl(v uint32) uint32 {
	return v<<24 | (v&0x0000FF00)<<8 | (v&0x00FF0000)>>8 | v>>24
}

// Ntohl converts a 32-bit value between network and host byte order.
func Ntohl(v uint32) uint32 {
	return Htonl(v)
}

// IPToUint32 converts an IPv4 address to its 32-bit host-order form.
// Returns 0 if the address is not IPv4.
func IPToUint32(ip net.IP) uint32 {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0
	}
	return uint32(ip4[0])<<24 | uint32(ip4[1])<<16 | uint32(ip4[2])<<8 | uint32(ip4[3])
}

// Uint32ToIP converts a 32-bit host-order value to an IPv4 address.
func Uint32ToIP(v uint32) net.IP {
	return net.IP{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// ParseIPv4 parses a dotted-quad string into a 32-bit host-order address.
func ParseIPv4(s string) (uint32, error) {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return 0, fmt.Errorf("invalid IPv4 address: %s", s)
	}
	return IPToUint32(ip), nil
}

// FormatIPv4 renders a 32-bit host-order address as a dotted quad.
func FormatIPv4(v uint32) string {
	return Uint32ToIP(v).String()
}
