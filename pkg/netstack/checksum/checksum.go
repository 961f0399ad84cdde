// Package checksum implements the Internet one's-complement checksum
// (RFC 1071) used by the IPv4, ICMP and TCP layers.
package checksum

// Sum computes the 16-bit one's-complement checksum over data. Odd-length
// input is padded with a trailing zero byte.
func Sum(data []byte) uint16 {
	return finish(sumBytes(0, data))
}

// Pseudo computes a transport checksum over segment prefixed by the IPv4
// pseudo-header: source address, destination address, zero+protocol and the
// segment length. The pseudo-header is folded into the sum but never
// transmitted.
func Pseudo(srcIP, dstIP uint32, protocol uint8, segment []byte) uint16 {
	sum := (srcIP >> 16) + (srcIP & 0xFFFF)
	sum += (dstIP >> 16) + (dstIP & 0xFFFF)
	sum += uint32(protocol)
	sum += uint32(uint16(len(segment)))
	return finish(sumBytes(sum, segment))
}

func sumBytes(sum uint32, data []byte) uint32 {
	n := len(data) &^ 1
	for i := 0; i < n; i += 2 {
		sum += uint32(data[i])<<8 | uint32(data[i+1])
	}
	if len(data)&1 == 1 {
		sum += uint32(data[n]) << 8
	}
	return sum
}

// finish folds the carries back into the low 16 bits and complements.
func finish(sum uint32) uint16 {
	for sum > 0xFFFF {
		sum = (sum >> 16) + (sum & 0xFFFF)
	}
	return ^uint16(sum)
}
