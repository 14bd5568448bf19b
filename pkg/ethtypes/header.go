// Package ethtypes holds the minimal Ethereum domain types the snapshot
// readers decode out of segment words: block headers, stored bodies, and
// transaction envelopes. Hashing is Keccak256 (golang.org/x/crypto/sha3),
// not stdlib SHA-256/SHA-3 — Ethereum's "keccak256" predates the final
// NIST SHA-3 padding and the two are not interchangeable.
package ethtypes

import (
	"golang.org/x/crypto/sha3"

	"github.com/deffrian/silkworm/pkg/rlp"
	"github.com/deffrian/silkworm/pkg/snaperr"
)

// Hash is a 32-byte Keccak256 digest.
type Hash [32]byte

func (h Hash) Bytes() []byte { return h[:] }

// Header is a decoded block header. Only the fields the snapshot store's
// invariants touch (Number, ParentHash) plus enough of the envelope to
// round-trip and hash correctly are named explicitly; the remainder of the
// RLP list is retained verbatim so Hash() reflects the full original header.
type Header struct {
	ParentHash Hash
	Number     uint64
	raw        []byte // full original RLP encoding, for hashing
}

// Keccak256 hashes b with Ethereum's Keccak256 (pre-NIST-padding variant).
func Keccak256(b []byte) Hash {
	var h Hash
	d := sha3.NewLegacyKeccak256()
	d.Write(b)
	d.Sum(h[:0])
	return h
}

// DecodeHeader decodes an RLP-encoded header. The canonical Ethereum header
// list is {parentHash, ommersHash, beneficiary, stateRoot, txRoot,
// receiptsRoot, logsBloom, difficulty, number, gasLimit, gasUsed, timestamp,
// extraData, mixHash, nonce, [baseFee], [withdrawalsRoot], [blobGasUsed],
// [excessBlobGas], [parentBeaconBlockRoot]}. Only fields consulted by the
// snapshot's invariants are extracted; the rest pass through unexamined.
func DecodeHeader(data []byte) (*Header, error) {
	items, err := rlp.DecodeList(data)
	if err != nil {
		return nil, err
	}
	if len(items) < 15 {
		return nil, snaperr.ErrDecodeFailure
	}
	if items[0].IsList || len(items[0].Bytes) != 32 {
		return nil, snaperr.ErrDecodeFailure
	}
	number, err := items[8].Uint64()
	if err != nil {
		return nil, err
	}

	h := &Header{Number: number, raw: append([]byte(nil), data...)}
	copy(h.ParentHash[:], items[0].Bytes)
	return h, nil
}

// Hash returns the Keccak256 hash of the header's original RLP encoding.
func (h *Header) Hash() Hash {
	return Keccak256(h.raw)
}
