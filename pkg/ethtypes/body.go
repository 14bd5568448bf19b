package ethtypes

import (
	"github.com/deffrian/silkworm/pkg/rlp"
	"github.com/deffrian/silkworm/pkg/snaperr"
)

// StoredBody is the compact on-disk body record: the transactions
// themselves live in the transaction segment, addressed by a contiguous
// ordinal range; only the ommer (uncle) headers are inlined here.
type StoredBody struct {
	BaseTxnID uint64
	TxnCount  uint64
	Ommers    []Header
}

// DecodeStoredBody decodes the RLP list {base_txn_id, txn_count, ommers}.
func DecodeStoredBody(data []byte) (*StoredBody, error) {
	items, err := rlp.DecodeList(data)
	if err != nil {
		return nil, err
	}
	if len(items) != 3 {
		return nil, snaperr.ErrDecodeFailure
	}

	baseTxnID, err := items[0].Uint64()
	if err != nil {
		return nil, err
	}
	txnCount, err := items[1].Uint64()
	if err != nil {
		return nil, err
	}
	if !items[2].IsList {
		return nil, snaperr.ErrDecodeFailure
	}

	ommers := make([]Header, 0, len(items[2].List))
	for _, item := range items[2].List {
		if !item.IsList {
			return nil, snaperr.ErrDecodeFailure
		}
		raw := rlp.EncodeList(rawEncodeItems(item.List)...)
		h, err := DecodeHeader(raw)
		if err != nil {
			return nil, err
		}
		ommers = append(ommers, *h)
	}

	return &StoredBody{BaseTxnID: baseTxnID, TxnCount: txnCount, Ommers: ommers}, nil
}

func rawEncodeItems(items []rlp.Value) [][]byte {
	out := make([][]byte, len(items))
	for i, it := range items {
		if it.IsList {
			out[i] = rlp.EncodeList(rawEncodeItems(it.List)...)
		} else {
			out[i] = rlp.EncodeBytes(it.Bytes)
		}
	}
	return out
}
