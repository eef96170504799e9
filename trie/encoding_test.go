package trie

import (
	"bytes"
	"testing"
)

func TestHexCompactRoundTrip(t *testing.T) {
	tests := [][]byte{
		{},
		{16},
		{1, 2, 3, 4, 5},
		{0, 1, 2, 3, 4, 5},
		{1, 2, 3, 4, 5, 16},
		{0, 15, 1, 12, 11, 8, 16},
	}
	for _, hex := range tests {
		compact := hexToCompact(hex)
		back := compactToHex(compact)
		if !bytes.Equal(back, hex) {
			t.Errorf("round trip %v -> %x -> %v", hex, compact, back)
		}
	}
}

func TestHexToCompactKnown(t *testing.T) {
	// Yellow Paper Appendix C examples.
	tests := []struct {
		hex     []byte
		compact []byte
	}{
		{[]byte{1, 2, 3, 4, 5}, []byte{0x11, 0x23, 0x45}},
		{[]byte{0, 1, 2, 3, 4, 5}, []byte{0x00, 0x01, 0x23, 0x45}},
		{[]byte{0, 15, 1, 12, 11, 8, 16}, []byte{0x20, 0x0f, 0x1c, 0xb8}},
		{[]byte{15, 1, 12, 11, 8, 16}, []byte{0x3f, 0x1c, 0xb8}},
	}
	for _, tt := range tests {
		if got := hexToCompact(tt.hex); !bytes.Equal(got, tt.compact) {
			t.Errorf("hexToCompact(%v) = %x, want %x", tt.hex, got, tt.compact)
		}
	}
}

func TestKeybytesToHex(t *testing.T) {
	got := keybytesToHex([]byte{0x12, 0xab})
	want := []byte{1, 2, 10, 11, 16}
	if !bytes.Equal(got, want) {
		t.Errorf("keybytesToHex = %v, want %v", got, want)
	}
}

func TestPrefixLen(t *testing.T) {
	if got := prefixLen([]byte{1, 2, 3}, []byte{1, 2, 4}); got != 2 {
		t.Errorf("prefixLen = %d, want 2", got)
	}
	if got := prefixLen([]byte{1}, []byte{1, 2}); got != 1 {
		t.Errorf("prefixLen short = %d, want 1", got)
	}
}
