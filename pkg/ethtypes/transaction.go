package ethtypes

import (
	"github.com/deffrian/silkworm/pkg/rlp"
	"github.com/deffrian/silkworm/pkg/snaperr"
)

// Transaction is a decoded transaction envelope plus the sender restored
// from the segment word's dedicated sender field (senders are not part of
// the signed RLP envelope and cannot be recovered from it without an
// out-of-scope ECDSA recovery step).
type Transaction struct {
	TypeTag uint8 // 0 for legacy transactions
	Sender  [20]byte
	HasFrom bool
	raw     []byte // full envelope bytes (type byte + rlp payload for typed txs)
}

// DecodeTxEnvelope decodes a transaction envelope: for legacy transactions
// envelope IS the RLP list; for typed transactions (EIP-2718) the first byte
// is a type tag and the remainder is the RLP payload. Either way the
// envelope is only validated structurally (it must be a well-formed RLP
// list); field-level interpretation is left to higher layers that are out
// of this store's scope.
func DecodeTxEnvelope(envelope []byte) (*Transaction, error) {
	if len(envelope) == 0 {
		return nil, snaperr.ErrDecodeFailure
	}

	tx := &Transaction{raw: append([]byte(nil), envelope...)}

	first := envelope[0]
	if first <= 0x7f {
		// Typed transaction: type tag byte followed by an RLP list payload.
		tx.TypeTag = first
		if _, err := rlp.DecodeList(envelope[1:]); err != nil {
			return nil, err
		}
		return tx, nil
	}

	// Legacy transaction: the envelope itself is the RLP list.
	tx.TypeTag = 0
	if _, err := rlp.DecodeList(envelope); err != nil {
		return nil, err
	}
	return tx, nil
}

// WithSender returns a copy of tx with the sender field populated.
func (t Transaction) WithSender(sender [20]byte) Transaction {
	t.Sender = sender
	t.HasFrom = true
	return t
}

// RLP returns the transaction's payload per the store's tx_payload_offset
// rule: 0 for legacy transactions (the payload is the whole envelope), or
// the typed envelope's RLP list content with both the leading type byte
// and the list's own header stripped — not merely the type byte, since the
// list header remains otherwise. A malformed typed envelope (one that
// fails DecodeTxEnvelope's own structural check) cannot reach this point,
// so ListContent is expected to succeed; it is treated as a programmer
// error rather than a caller-facing failure if it doesn't.
func (t Transaction) RLP() []byte {
	if t.TypeTag == 0 {
		return t.raw
	}
	content, err := rlp.ListContent(t.raw[1:])
	if err != nil {
		return nil
	}
	return content
}

// Envelope returns the full envelope bytes (type byte included, for typed txs).
func (t Transaction) Envelope() []byte {
	return t.raw
}

// Hash returns the Keccak256 hash of the full transaction envelope, which is
// how Ethereum identifies both legacy and typed transactions.
func (t Transaction) Hash() Hash {
	return Keccak256(t.raw)
}
