package seg

import (
	"encoding/binary"
	"fmt"

	"github.com/deffrian/silkworm/pkg/snaperr"
)

// dictEntry is one row of a pattern or position dictionary table: a Huffman
// code depth (bit length) and the payload that code decodes to. For the
// pattern dictionary payload is the raw pattern bytes; for the position
// dictionary payload is a big-endian encoded position/gap value.
type dictEntry struct {
	depth   uint64
	payload []byte
}

// parseDict reads the {u64 depth, u64 length, bytes[length]} rows that make
// up a pattern or position dictionary, per the segment header layout.
func parseDict(data []byte) ([]dictEntry, error) {
	var entries []dictEntry
	for len(data) > 0 {
		if len(data) < 16 {
			return nil, fmt.Errorf("%w: truncated dictionary row", snaperr.ErrCorruptHeader)
		}
		depth := binary.LittleEndian.Uint64(data[0:8])
		length := binary.LittleEndian.Uint64(data[8:16])
		data = data[16:]
		if uint64(len(data)) < length {
			return nil, fmt.Errorf("%w: dictionary row overruns table", snaperr.ErrCorruptHeader)
		}
		entries = append(entries, dictEntry{depth: depth, payload: append([]byte(nil), data[:length]...)})
		data = data[length:]
	}
	return entries, nil
}

// huffNode is a binary trie node used to decode canonical Huffman codes bit
// by bit; leaves carry the payload for a complete code.
type huffNode struct {
	leaf    bool
	payload []byte
	zero    *huffNode
	one     *huffNode
}

type huffTable struct {
	root *huffNode
}

// huffCode is one entry's assigned canonical Huffman code: depth 0 marks the
// table's single implicit symbol (no bits consumed); depth > 0 gives the
// code's bit length and value.
type huffCode struct {
	depth   uint64
	code    uint64
	payload []byte
}

// assignCanonicalCodes orders entries by (depth, original index) — the
// standard canonical-code construction — and returns each entry's assigned
// code. Factored out of buildHuffman so the test-fixture segment builder
// (builder.go) can encode bit streams using the exact same assignment the
// reader's decode trie is built from, rather than a hand-derived duplicate
// that could silently drift out of sync with it.
func assignCanonicalCodes(entries []dictEntry) ([]huffCode, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	maxDepth := uint64(0)
	for _, e := range entries {
		if e.depth > maxDepth {
			maxDepth = e.depth
		}
	}
	if maxDepth > 56 {
		return nil, fmt.Errorf("%w: implausible huffman code depth %d", snaperr.ErrCorruptHeader, maxDepth)
	}

	// Stable order by depth, preserving table order within a depth.
	byDepth := make([][]dictEntry, maxDepth+1)
	for _, e := range entries {
		byDepth[e.depth] = append(byDepth[e.depth], e)
	}

	var codes []huffCode
	if len(byDepth[0]) > 0 {
		codes = append(codes, huffCode{depth: 0, payload: byDepth[0][0].payload})
	}

	code := uint64(0)
	for depth := uint64(1); depth <= maxDepth; depth++ {
		code <<= 1
		for _, e := range byDepth[depth] {
			codes = append(codes, huffCode{depth: depth, code: code, payload: e.payload})
			code++
		}
	}
	return codes, nil
}

// buildHuffman assigns canonical Huffman codes to entries and inserts each
// into a binary decode trie. A depth of 0 marks the table as empty (single
// implicit symbol, used by segments with a trivial dictionary).
func buildHuffman(entries []dictEntry) (*huffTable, error) {
	root := &huffNode{}
	codes, err := assignCanonicalCodes(entries)
	if err != nil {
		return nil, err
	}

	for _, c := range codes {
		if c.depth == 0 {
			// depth-0 denotes a one-symbol table: every code (including the
			// empty code) resolves to this single payload.
			root.leaf = true
			root.payload = c.payload
			continue
		}
		if err := insertCode(root, c.code, c.depth, c.payload); err != nil {
			return nil, err
		}
	}
	return &huffTable{root: root}, nil
}

func insertCode(root *huffNode, code, depth uint64, payload []byte) error {
	n := root
	for i := int(depth) - 1; i >= 0; i-- {
		bit := (code >> uint(i)) & 1
		if bit == 0 {
			if n.zero == nil {
				n.zero = &huffNode{}
			}
			n = n.zero
		} else {
			if n.one == nil {
				n.one = &huffNode{}
			}
			n = n.one
		}
	}
	if n.leaf {
		return fmt.Errorf("%w: duplicate huffman code", snaperr.ErrCorruptHeader)
	}
	n.leaf = true
	n.payload = payload
	return nil
}

// decode consumes one code from br and returns its payload.
func (t *huffTable) decode(br *bitReader) ([]byte, error) {
	n := t.root
	if n.leaf && n.zero == nil && n.one == nil {
		return n.payload, nil
	}
	for {
		if n.leaf {
			return n.payload, nil
		}
		bit, err := br.readBit()
		if err != nil {
			return nil, err
		}
		if bit == 0 {
			if n.zero == nil {
				return nil, fmt.Errorf("%w: unrecognized huffman code", snaperr.ErrDecodeFailure)
			}
			n = n.zero
		} else {
			if n.one == nil {
				return nil, fmt.Errorf("%w: unrecognized huffman code", snaperr.ErrDecodeFailure)
			}
			n = n.one
		}
	}
}

// positionValue decodes a position dictionary payload as a big-endian
// unsigned integer (0-length payload is value 0).
func positionValue(payload []byte) uint64 {
	var v uint64
	for _, b := range payload {
		v = v<<8 | uint64(b)
	}
	return v
}

// bitReader reads MSB-first bits out of a byte slice.
type bitReader struct {
	data []byte
	pos  int // bit position
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func (r *bitReader) readBit() (byte, error) {
	byteIdx := r.pos / 8
	if byteIdx >= len(r.data) {
		return 0, fmt.Errorf("%w: bit stream exhausted", snaperr.ErrDecodeFailure)
	}
	bitIdx := 7 - uint(r.pos%8)
	bit := (r.data[byteIdx] >> bitIdx) & 1
	r.pos++
	return bit, nil
}
