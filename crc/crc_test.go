package crc

import "testing"

func TestCRC(t *testing.T) {
	var c CRC
	c.Reset()
	c.PushBytes([]byte{0x02, 0x07})

	if c.Value() != 0x1241 {
		t.Fatalf("crc expected %v, actual %v", 0x1241, c.Value())
	}
}

func TestCRCChaining(t *testing.T) {
	var c CRC
	if got := c.Reset().PushBytes([]byte{0x02, 0x07}).Value(); got != 0x1241 {
		t.Fatalf("chained crc expected %v, actual %v", 0x1241, got)
	}
}

func TestChecksumHelper(t *testing.T) {
	if got := Checksum([]byte{0x02, 0x07}); got != 0x1241 {
		t.Fatalf("Checksum expected %v, actual %v", 0x1241, got)
	}
}

func TestCRCResidueIsZeroOverFullFrame(t *testing.T) {
	frame := []byte{0x02, 0x07}
	sum := Checksum(frame)

	full := append(append([]byte{}, frame...), byte(sum), byte(sum>>8))
	if Checksum(full[:len(full)-2]) != sum {
		t.Fatalf("checksum of payload should match computed sum")
	}

	var c CRC
	c.Reset().PushBytes(full)
	if c.Value() != 0 {
		t.Fatalf("crc over frame+checksum should residue to zero, got %#04x", c.Value())
	}
}

func TestPushByteMatchesPushBytes(t *testing.T) {
	var a, b CRC
	a.Reset()
	for _, x := range []byte{0xAA, 0x01, 0x10, 0x00, 0x0A} {
		a.PushByte(x)
	}
	b.Reset().PushBytes([]byte{0xAA, 0x01, 0x10, 0x00, 0x0A})

	if a.Value() != b.Value() {
		t.Fatalf("PushByte loop and PushBytes diverged: %#04x vs %#04x", a.Value(), b.Value())
	}
}
