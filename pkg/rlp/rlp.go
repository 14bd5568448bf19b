// Package rlp implements the subset of Ethereum's Recursive Length Prefix
// encoding needed to decode (and, for test round-trips, re-encode) block
// headers, bodies, and transaction envelopes out of snapshot words.
//
// No library in the retrieved example corpus implements RLP; this is
// written from the wire-format rules directly, in the same hand-rolled,
// binary.Read-style idiom the teacher uses for its own on-disk formats
// (see pkg/disk/handler.go's length-prefixed message framing).
package rlp

import (
	"fmt"

	"github.com/deffrian/silkworm/pkg/snaperr"
)

// Value is a decoded RLP item: either a byte string or a list of Values.
type Value struct {
	IsList   bool
	Bytes    []byte
	List     []Value
	rawStart int
	rawEnd   int
}

// Decode parses exactly one RLP item from the front of data and returns it
// along with the number of bytes consumed.
func Decode(data []byte) (Value, int, error) {
	if len(data) == 0 {
		return Value{}, 0, fmt.Errorf("%w: empty rlp input", snaperr.ErrDecodeFailure)
	}

	b0 := data[0]
	switch {
	case b0 < 0x80:
		return Value{Bytes: data[0:1], rawStart: 0, rawEnd: 1}, 1, nil

	case b0 < 0xb8:
		length := int(b0 - 0x80)
		if 1+length > len(data) {
			return Value{}, 0, fmt.Errorf("%w: short string overruns input", snaperr.ErrDecodeFailure)
		}
		return Value{Bytes: data[1 : 1+length]}, 1 + length, nil

	case b0 < 0xc0:
		lenOfLen := int(b0 - 0xb7)
		if 1+lenOfLen > len(data) {
			return Value{}, 0, fmt.Errorf("%w: long string length overruns input", snaperr.ErrDecodeFailure)
		}
		length, err := decodeBigEndianLen(data[1 : 1+lenOfLen])
		if err != nil {
			return Value{}, 0, err
		}
		start := 1 + lenOfLen
		if start+length > len(data) {
			return Value{}, 0, fmt.Errorf("%w: long string overruns input", snaperr.ErrDecodeFailure)
		}
		return Value{Bytes: data[start : start+length]}, start + length, nil

	case b0 < 0xf8:
		length := int(b0 - 0xc0)
		start := 1
		if start+length > len(data) {
			return Value{}, 0, fmt.Errorf("%w: short list overruns input", snaperr.ErrDecodeFailure)
		}
		items, err := decodeList(data[start : start+length])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{IsList: true, List: items}, start + length, nil

	default:
		lenOfLen := int(b0 - 0xf7)
		if 1+lenOfLen > len(data) {
			return Value{}, 0, fmt.Errorf("%w: long list length overruns input", snaperr.ErrDecodeFailure)
		}
		length, err := decodeBigEndianLen(data[1 : 1+lenOfLen])
		if err != nil {
			return Value{}, 0, err
		}
		start := 1 + lenOfLen
		if start+length > len(data) {
			return Value{}, 0, fmt.Errorf("%w: long list overruns input", snaperr.ErrDecodeFailure)
		}
		items, err := decodeList(data[start : start+length])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{IsList: true, List: items}, start + length, nil
	}
}

// ListContent returns the raw content bytes of a top-level RLP list —
// data with its list header (the 0xc0-0xf7/0xf8+ prefix and any length-of-
// length bytes) stripped, leaving exactly the concatenated encodings of the
// list's items. Used where a caller needs the list's payload bytes
// verbatim rather than its decoded items (e.g. a typed transaction's
// signed payload).
func ListContent(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty rlp input", snaperr.ErrDecodeFailure)
	}

	b0 := data[0]
	switch {
	case b0 < 0xc0:
		return nil, fmt.Errorf("%w: expected rlp list, got scalar", snaperr.ErrDecodeFailure)

	case b0 < 0xf8:
		length := int(b0 - 0xc0)
		start := 1
		if start+length > len(data) {
			return nil, fmt.Errorf("%w: short list overruns input", snaperr.ErrDecodeFailure)
		}
		if start+length != len(data) {
			return nil, fmt.Errorf("%w: trailing bytes after rlp list", snaperr.ErrDecodeFailure)
		}
		return data[start : start+length], nil

	default:
		lenOfLen := int(b0 - 0xf7)
		if 1+lenOfLen > len(data) {
			return nil, fmt.Errorf("%w: long list length overruns input", snaperr.ErrDecodeFailure)
		}
		length, err := decodeBigEndianLen(data[1 : 1+lenOfLen])
		if err != nil {
			return nil, err
		}
		start := 1 + lenOfLen
		if start+length > len(data) {
			return nil, fmt.Errorf("%w: long list overruns input", snaperr.ErrDecodeFailure)
		}
		if start+length != len(data) {
			return nil, fmt.Errorf("%w: trailing bytes after rlp list", snaperr.ErrDecodeFailure)
		}
		return data[start : start+length], nil
	}
}

// DecodeList decodes data as a top-level RLP list and returns its items.
func DecodeList(data []byte) ([]Value, error) {
	v, n, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if !v.IsList {
		return nil, fmt.Errorf("%w: expected rlp list at top level", snaperr.ErrDecodeFailure)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: trailing bytes after rlp list", snaperr.ErrDecodeFailure)
	}
	return v.List, nil
}

func decodeList(data []byte) ([]Value, error) {
	var items []Value
	for len(data) > 0 {
		v, n, err := Decode(data)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		data = data[n:]
	}
	return items, nil
}

func decodeBigEndianLen(b []byte) (int, error) {
	if len(b) == 0 || len(b) > 8 {
		return 0, fmt.Errorf("%w: invalid rlp length field", snaperr.ErrDecodeFailure)
	}
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	if n > uint64(1)<<32 {
		return 0, fmt.Errorf("%w: rlp length implausibly large", snaperr.ErrDecodeFailure)
	}
	return int(n), nil
}

// Uint64 interprets a decoded byte-string Value as a big-endian unsigned
// integer with no leading zero bytes (canonical RLP integer encoding).
func (v Value) Uint64() (uint64, error) {
	if v.IsList {
		return 0, fmt.Errorf("%w: expected scalar, got list", snaperr.ErrDecodeFailure)
	}
	if len(v.Bytes) > 8 {
		return 0, fmt.Errorf("%w: scalar too large for uint64", snaperr.ErrDecodeFailure)
	}
	if len(v.Bytes) > 0 && v.Bytes[0] == 0 {
		return 0, fmt.Errorf("%w: non-canonical leading zero in scalar", snaperr.ErrDecodeFailure)
	}
	var n uint64
	for _, c := range v.Bytes {
		n = n<<8 | uint64(c)
	}
	return n, nil
}

// EncodeBytes encodes a byte string as an RLP item.
func EncodeBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return []byte{b[0]}
	}
	return append(encodeLength(len(b), 0x80, 0xb7), b...)
}

// EncodeUint64 encodes an unsigned integer using the canonical minimal
// big-endian representation (empty string for zero).
func EncodeUint64(n uint64) []byte {
	if n == 0 {
		return EncodeBytes(nil)
	}
	var buf [8]byte
	i := 8
	for n > 0 {
		i--
		buf[i] = byte(n)
		n >>= 8
	}
	return EncodeBytes(buf[i:])
}

// EncodeList wraps already-encoded items in an RLP list header.
func EncodeList(items ...[]byte) []byte {
	var body []byte
	for _, it := range items {
		body = append(body, it...)
	}
	return append(encodeLength(len(body), 0xc0, 0xf7), body...)
}

func encodeLength(n int, shortBase, longBase byte) []byte {
	if n < 56 {
		return []byte{shortBase + byte(n)}
	}
	var lenBytes []byte
	x := n
	for x > 0 {
		lenBytes = append([]byte{byte(x)}, lenBytes...)
		x >>= 8
	}
	return append([]byte{longBase + byte(len(lenBytes))}, lenBytes...)
}
