package ipv4_test

import (
	"bytes"
	"testing"

	"vibos/pkg/netstack/checksum"
	ipv4 "vibos/pkg/netstack/ip"
)

func TestEchoRequestSerialize(t *testing.T) {
	msg := ipv4.NewEchoRequest(1, 1, []byte{0x61, 0x62})
	out := msg.Serialize()

	if len(out) != ipv4.ICMPHeaderLength+2 {
		t.Fatalf("serialized length = %d, want 10", len(out))
	}
	if out[0] != ipv4.ICMPTypeEcho || out[1] != 0 {
		t.Errorf("type/code = %d/%d, want 8/0", out[0], out[1])
	}

	// Checksum over the whole message verifies to zero.
	if got := checksum.Sum(out); got != 0 {
		t.Errorf("verification sum = 0x%04x, want 0", got)
	}
}

func TestICMPRoundTrip(t *testing.T) {
	payload := []byte("ping payload")
	msg := ipv4.NewEchoReply(0x1234, 7, payload)

	parsed, err := ipv4.ParseICMPMessage(msg.Serialize())
	if err != nil {
		t.Fatalf("ParseICMPMessage failed: %v", err)
	}

	if !parsed.IsEchoReply() || parsed.IsEchoRequest() {
		t.Error("expected an echo reply")
	}
	if parsed.Header.ID != 0x1234 || parsed.Header.Seq != 7 {
		t.Errorf("ID/Seq = 0x%04x/%d, want 0x1234/7", parsed.Header.ID, parsed.Header.Seq)
	}
	if !bytes.Equal(parsed.Payload, payload) {
		t.Error("payload round trip mismatch")
	}
}

func TestParseICMPMessageTooShort(t *testing.T) {
	if _, err := ipv4.ParseICMPMessage(make([]byte, 7)); err == nil {
		t.Error("expected error for short ICMP message")
	}
}
