package ethernet_test

import (
	"bytes"
	"net"
	"testing"

	"vibos/pkg/netstack/ethernet"
)

func TestParseFrame(t *testing.T) {
	data := []byte{
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // dst: broadcast
		0x52, 0x54, 0x00, 0x12, 0x34, 0x56, // src
		0x08, 0x06, // ARP
		0x00, 0x01, // payload
	}

	f, err := ethernet.ParseFrame(data)
	if err != nil {
		t.Fatalf("ParseFrame failed: %v", err)
	}

	if !f.IsBroadcast() {
		t.Error("expected broadcast frame")
	}
	if f.EtherType != ethernet.EtherTypeARP {
		t.Errorf("EtherType = 0x%04x, want 0x0806", uint16(f.EtherType))
	}
	if !bytes.Equal(f.SrcMAC, net.HardwareAddr{0x52, 0x54, 0x00, 0x12, 0x34, 0x56}) {
		t.Errorf("SrcMAC = %s", f.SrcMAC)
	}
	if !bytes.Equal(f.Payload, []byte{0x00, 0x01}) {
		t.Errorf("Payload = %v", f.Payload)
	}
}

func TestParseFrameTooShort(t *testing.T) {
	if _, err := ethernet.ParseFrame(make([]byte, 13)); err == nil {
		t.Error("expected error for runt frame")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	src := net.HardwareAddr{0x00, 0x0C, 0x29, 0xAB, 0xCD, 0xEF}
	dst := net.HardwareAddr{0x52, 0x55, 0x0A, 0x00, 0x02, 0x02}
	payload := []byte("payload bytes")

	f := ethernet.NewFrame(dst, src, ethernet.EtherTypeIPv4, payload)
	out := f.Serialize()

	if len(out) != ethernet.HeaderLength+len(payload) {
		t.Fatalf("serialized length = %d, want %d", len(out), ethernet.HeaderLength+len(payload))
	}

	parsed, err := ethernet.ParseFrame(out)
	if err != nil {
		t.Fatalf("ParseFrame failed: %v", err)
	}
	if !bytes.Equal(parsed.DstMAC, dst) || !bytes.Equal(parsed.SrcMAC, src) {
		t.Error("MAC round trip mismatch")
	}
	if parsed.EtherType != ethernet.EtherTypeIPv4 {
		t.Errorf("EtherType = 0x%04x, want 0x0800", uint16(parsed.EtherType))
	}
	if !bytes.Equal(parsed.Payload, payload) {
		t.Error("payload round trip mismatch")
	}
}

func TestBroadcastMAC(t *testing.T) {
	mac := ethernet.BroadcastMAC()
	for _, b := range mac {
		if b != 0xFF {
			t.Fatalf("BroadcastMAC = %s", mac)
		}
	}
}
