package seg_test

import (
	"path/filepath"
	"testing"

	"github.com/deffrian/silkworm/pkg/seg"
)

// TestDecodeWordWithRealHuffmanDictionaries exercises the actual word codec
// real segment-producing tooling would exercise: a multi-symbol, multi-depth
// canonical Huffman pattern dictionary and position dictionary, decoded
// through buildHuffman's code assignment, huffTable.decode's bit walk, and
// reconstructWord's literal/pattern interleaving — not the single trivial
// terminator symbol WriteSegmentFile's pure-literal fixtures use.
func TestDecodeWordWithRealHuffmanDictionaries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v1-000000-000500-headers.seg")

	// Pattern dictionary: two two-byte patterns at depth 1 (codes "0"/"1").
	patternEntries := []seg.DictEntryForTest{
		{Depth: 1, Payload: []byte("AB")},
		{Depth: 1, Payload: []byte("CD")},
	}
	// Position dictionary: terminator (value 0) at depth 1 ("0"), two
	// non-zero gap values at depth 2 ("10"/"11") — a genuine multi-depth
	// canonical table, not a single-symbol trivial one.
	positionEntries := []seg.DictEntryForTest{
		{Depth: 2, Payload: []byte{2}}, // gap value 2 -> copy 1 literal byte
		{Depth: 1, Payload: nil},       // terminator (value 0)
		{Depth: 2, Payload: []byte{1}}, // gap value 1 -> copy 0 literal bytes
	}

	// Word: "X" + AB + CD + "Z" = "XABCDZ"
	words := []seg.CompressedWord{
		{
			Literal: []byte("XZ"),
			Placements: []seg.PatternPlacement{
				{Gap: 1, Pattern: []byte("AB")},
				{Gap: 0, Pattern: []byte("CD")},
			},
		},
	}

	if err := seg.WriteCompressedSegmentFile(path, seg.ToDictEntries(patternEntries), seg.ToDictEntries(positionEntries), words); err != nil {
		t.Fatalf("WriteCompressedSegmentFile: %v", err)
	}

	dec, err := seg.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dec.Close()

	it := dec.MakeIterator()
	if !it.HasNext() {
		t.Fatal("expected one word")
	}
	word, _, err := it.Next(nil)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(word) != "XABCDZ" {
		t.Fatalf("decoded word = %q, want %q", word, "XABCDZ")
	}
	if it.HasNext() {
		t.Fatal("expected exactly one word")
	}
}
