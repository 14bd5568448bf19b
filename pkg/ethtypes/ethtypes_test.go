package ethtypes_test

import (
	"bytes"
	"testing"

	"github.com/deffrian/silkworm/pkg/ethtypes"
	"github.com/deffrian/silkworm/pkg/rlp"
)

func encodeTestHeader(number uint64, parentHash [32]byte) []byte {
	zero32 := make([]byte, 32)
	zero20 := make([]byte, 20)
	return rlp.EncodeList(
		rlp.EncodeBytes(parentHash[:]), // parentHash
		rlp.EncodeBytes(zero32),        // ommersHash
		rlp.EncodeBytes(zero20),        // beneficiary
		rlp.EncodeBytes(zero32),        // stateRoot
		rlp.EncodeBytes(zero32),        // txRoot
		rlp.EncodeBytes(zero32),        // receiptsRoot
		rlp.EncodeBytes(nil),           // logsBloom (elided)
		rlp.EncodeUint64(0),            // difficulty
		rlp.EncodeUint64(number),       // number
		rlp.EncodeUint64(30000000),     // gasLimit
		rlp.EncodeUint64(21000),        // gasUsed
		rlp.EncodeUint64(1700000000),   // timestamp
		rlp.EncodeBytes(nil),           // extraData
		rlp.EncodeBytes(zero32),        // mixHash
		rlp.EncodeBytes([]byte{0, 0, 0, 0, 0, 0, 0, 1}), // nonce
	)
}

func TestDecodeHeaderAndHash(t *testing.T) {
	var parent [32]byte
	parent[0] = 0xaa
	raw := encodeTestHeader(499, parent)

	h, err := ethtypes.DecodeHeader(raw)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if h.Number != 499 {
		t.Fatalf("Number = %d, want 499", h.Number)
	}
	if h.ParentHash != ethtypes.Hash(parent) {
		t.Fatalf("ParentHash mismatch")
	}

	h2, err := ethtypes.DecodeHeader(raw)
	if err != nil {
		t.Fatal(err)
	}
	if h.Hash() != h2.Hash() {
		t.Fatal("Hash() not deterministic across identical decodes")
	}

	other := encodeTestHeader(500, parent)
	h3, _ := ethtypes.DecodeHeader(other)
	if h.Hash() == h3.Hash() {
		t.Fatal("different headers hashed identically")
	}
}

func TestDecodeStoredBody(t *testing.T) {
	raw := rlp.EncodeList(
		rlp.EncodeUint64(7000),
		rlp.EncodeUint64(3),
		rlp.EncodeList(), // no ommers
	)
	body, err := ethtypes.DecodeStoredBody(raw)
	if err != nil {
		t.Fatalf("DecodeStoredBody: %v", err)
	}
	if body.BaseTxnID != 7000 || body.TxnCount != 3 || len(body.Ommers) != 0 {
		t.Fatalf("got %+v", body)
	}
}

func TestDecodeTxEnvelopeLegacy(t *testing.T) {
	envelope := rlp.EncodeList(
		rlp.EncodeUint64(1),               // nonce
		rlp.EncodeUint64(20000000000),     // gasPrice
		rlp.EncodeUint64(21000),           // gasLimit
		rlp.EncodeBytes(make([]byte, 20)), // to
		rlp.EncodeUint64(0),               // value
		rlp.EncodeBytes(nil),              // data
	)
	tx, err := ethtypes.DecodeTxEnvelope(envelope)
	if err != nil {
		t.Fatalf("DecodeTxEnvelope: %v", err)
	}
	if tx.TypeTag != 0 {
		t.Fatalf("TypeTag = %d, want 0", tx.TypeTag)
	}
	if !bytes.Equal(tx.RLP(), envelope) {
		t.Fatal("RLP() should equal envelope for legacy tx")
	}
}

func TestDecodeTxEnvelopeTyped(t *testing.T) {
	listContent := append(rlp.EncodeUint64(5), rlp.EncodeUint64(6)...)
	payload := rlp.EncodeList(rlp.EncodeUint64(5), rlp.EncodeUint64(6))
	envelope := append([]byte{0x02}, payload...)

	tx, err := ethtypes.DecodeTxEnvelope(envelope)
	if err != nil {
		t.Fatalf("DecodeTxEnvelope: %v", err)
	}
	if tx.TypeTag != 0x02 {
		t.Fatalf("TypeTag = %d, want 2", tx.TypeTag)
	}
	// RLP() must strip both the type byte and the list's own header,
	// leaving only the list's content bytes (spec.md's tx_payload_offset).
	if !bytes.Equal(tx.RLP(), listContent) {
		t.Fatalf("RLP() = %x, want list content %x (type byte and list header both stripped)", tx.RLP(), listContent)
	}
	if bytes.Equal(tx.RLP(), payload) {
		t.Fatal("RLP() should not merely strip the type byte, leaving the list header behind")
	}
	if !bytes.Equal(tx.Envelope(), envelope) {
		t.Fatal("Envelope() should retain the type byte")
	}
}

func TestWithSender(t *testing.T) {
	envelope := rlp.EncodeList(rlp.EncodeUint64(1))
	tx, err := ethtypes.DecodeTxEnvelope(envelope)
	if err != nil {
		t.Fatal(err)
	}
	var sender [20]byte
	sender[19] = 0x42
	full := tx.WithSender(sender)
	if !full.HasFrom || full.Sender != sender {
		t.Fatal("WithSender did not populate sender")
	}
}
