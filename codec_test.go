package modbus

import "testing"

func TestUint16RoundTrip(t *testing.T) {
	buf := make([]byte, 2)
	putUint16(buf, 0xBEEF)
	if got := getUint16(buf); got != 0xBEEF {
		t.Fatalf("got %#04x, want 0xBEEF", got)
	}
	if buf[0] != 0xBE || buf[1] != 0xEF {
		t.Fatalf("buf = % X, want BE EF (big-endian)", buf)
	}
}

func TestFloat32RoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	PutFloat32(buf, 3.14159)
	if got := GetFloat32(buf); got != float32(3.14159) {
		t.Fatalf("got %v, want 3.14159", got)
	}
}

func TestBitPacking(t *testing.T) {
	data := make([]byte, 2)
	SetBit(data, 0, true)
	SetBit(data, 3, true)
	SetBit(data, 9, true)

	if !GetBit(data, 0) || !GetBit(data, 3) || !GetBit(data, 9) {
		t.Fatalf("expected bits 0, 3, 9 set, data = %08b %08b", data[0], data[1])
	}
	if GetBit(data, 1) || GetBit(data, 8) {
		t.Fatalf("unexpected bit set, data = %08b %08b", data[0], data[1])
	}

	SetBit(data, 3, false)
	if GetBit(data, 3) {
		t.Fatalf("bit 3 should have been cleared")
	}
}

func TestByteCountForBits(t *testing.T) {
	cases := map[int]int{1: 1, 8: 1, 9: 2, 16: 2, 17: 3}
	for quantity, want := range cases {
		if got := byteCountForBits(quantity); got != want {
			t.Fatalf("byteCountForBits(%d) = %d, want %d", quantity, got, want)
		}
	}
}

func TestClampQuantity(t *testing.T) {
	if !clampQuantity(uint16(1), uint16(1), uint16(2000)) {
		t.Fatalf("1 should be within [1, 2000]")
	}
	if clampQuantity(uint16(0), uint16(1), uint16(2000)) {
		t.Fatalf("0 should be outside [1, 2000]")
	}
	if clampQuantity(uint16(2001), uint16(1), uint16(2000)) {
		t.Fatalf("2001 should be outside [1, 2000]")
	}
}
