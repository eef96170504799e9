package types

import (
	"bytes"
	"testing"
)

func TestReceiptRLPRoundTrip(t *testing.T) {
	r := NewReceipt(HexToHash("0xabcd").Bytes(), 54321)
	r.Logs = []*Log{
		{
			Address: HexToAddress("0x4444444444444444444444444444444444444444"),
			Topics:  []Hash{HexToHash("0x01"), HexToHash("0x02")},
			Data:    []byte{0xca, 0xfe},
		},
	}
	r.Bloom = LogsBloom(r.Logs)

	enc, err := r.EncodeRLP()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, err := DecodeReceiptRLP(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !bytes.Equal(dec.PostState, r.PostState) {
		t.Errorf("PostState = %x, want %x", dec.PostState, r.PostState)
	}
	if dec.CumulativeGasUsed != r.CumulativeGasUsed {
		t.Errorf("CumulativeGasUsed = %d, want %d", dec.CumulativeGasUsed, r.CumulativeGasUsed)
	}
	if dec.Bloom != r.Bloom {
		t.Errorf("bloom mismatch")
	}
	if len(dec.Logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(dec.Logs))
	}
	l := dec.Logs[0]
	if l.Address != r.Logs[0].Address || len(l.Topics) != 2 || !bytes.Equal(l.Data, r.Logs[0].Data) {
		t.Errorf("log round trip mismatch: %+v", l)
	}
}

func TestReceiptNoLogs(t *testing.T) {
	r := NewReceipt(EmptyRootHash.Bytes(), 21000)
	enc, err := r.EncodeRLP()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, err := DecodeReceiptRLP(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(dec.Logs) != 0 || dec.CumulativeGasUsed != 21000 {
		t.Errorf("round trip = %+v", dec)
	}
}
