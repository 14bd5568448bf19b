package rlp_test

import (
	"bytes"
	"testing"

	"github.com/deffrian/silkworm/pkg/rlp"
)

func TestEncodeDecodeUint64RoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 255, 256, 1<<32 - 1, 1 << 40}
	for _, n := range cases {
		enc := rlp.EncodeUint64(n)
		v, consumed, err := rlp.Decode(enc)
		if err != nil {
			t.Fatalf("decode(%d): %v", n, err)
		}
		if consumed != len(enc) {
			t.Fatalf("decode(%d) consumed %d, want %d", n, consumed, len(enc))
		}
		got, err := v.Uint64()
		if err != nil {
			t.Fatalf("Uint64(%d): %v", n, err)
		}
		if got != n {
			t.Fatalf("round-trip %d -> %d", n, got)
		}
	}
}

func TestEncodeDecodeListRoundTrip(t *testing.T) {
	list := rlp.EncodeList(
		rlp.EncodeBytes([]byte("cat")),
		rlp.EncodeBytes([]byte("dog")),
		rlp.EncodeUint64(42),
	)

	items, err := rlp.DecodeList(list)
	if err != nil {
		t.Fatalf("DecodeList: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if !bytes.Equal(items[0].Bytes, []byte("cat")) {
		t.Errorf("items[0] = %q", items[0].Bytes)
	}
	if !bytes.Equal(items[1].Bytes, []byte("dog")) {
		t.Errorf("items[1] = %q", items[1].Bytes)
	}
	n, err := items[2].Uint64()
	if err != nil || n != 42 {
		t.Errorf("items[2] = %d, err %v", n, err)
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	list := rlp.EncodeList(rlp.EncodeUint64(1))
	_, err := rlp.DecodeList(append(list, 0xff))
	if err == nil {
		t.Fatal("expected error for trailing bytes")
	}
}

func TestDecodeEmptyInput(t *testing.T) {
	if _, _, err := rlp.Decode(nil); err == nil {
		t.Fatal("expected error decoding empty input")
	}
}

func TestLongStringRoundTrip(t *testing.T) {
	long := bytes.Repeat([]byte{0xab}, 200)
	enc := rlp.EncodeBytes(long)
	v, n, err := rlp.Decode(enc)
	if err != nil {
		t.Fatalf("decode long string: %v", err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d, want %d", n, len(enc))
	}
	if !bytes.Equal(v.Bytes, long) {
		t.Fatal("long string round-trip mismatch")
	}
}
