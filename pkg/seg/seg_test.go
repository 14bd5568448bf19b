package seg_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deffrian/silkworm/pkg/seg"
)

func TestOpenAndIterateWords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v1-000000-000500-headers.seg")

	words := [][]byte{[]byte("hello"), {}, []byte("world!")}
	if err := seg.WriteSegmentFile(path, words); err != nil {
		t.Fatalf("WriteSegmentFile: %v", err)
	}

	dec, err := seg.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dec.Close()

	if dec.WordCount() != uint64(len(words)) {
		t.Fatalf("WordCount = %d, want %d", dec.WordCount(), len(words))
	}

	it := dec.MakeIterator()
	var got [][]byte
	for it.HasNext() {
		word, _, err := it.Next(nil)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, word)
	}

	if len(got) != 3 {
		t.Fatalf("decoded %d words, want 3", len(got))
	}
	if !bytes.Equal(got[0], []byte("hello")) {
		t.Errorf("word[0] = %q", got[0])
	}
	if len(got[1]) != 0 {
		t.Errorf("word[1] should be empty, got %q", got[1])
	}
	if !bytes.Equal(got[2], []byte("world!")) {
		t.Errorf("word[2] = %q", got[2])
	}
}

func TestResetToWordBoundary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v1-000000-000500-headers.seg")

	words := [][]byte{[]byte("first"), []byte("second")}
	if err := seg.WriteSegmentFile(path, words); err != nil {
		t.Fatal(err)
	}

	dec, err := seg.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	it := dec.MakeIterator()
	_, secondOffset, err := it.Next(nil)
	if err != nil {
		t.Fatal(err)
	}

	it2 := dec.MakeIterator()
	it2.Reset(secondOffset)
	word, _, err := it2.Next(nil)
	if err != nil {
		t.Fatalf("Next after reset: %v", err)
	}
	if !bytes.Equal(word, []byte("second")) {
		t.Fatalf("word after reset = %q, want \"second\"", word)
	}
}

func TestReadAheadStopsEarly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v1-000000-000500-headers.seg")

	words := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	if err := seg.WriteSegmentFile(path, words); err != nil {
		t.Fatal(err)
	}
	dec, err := seg.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	count := 0
	completed := dec.ReadAhead(func(it *seg.Iterator) bool {
		for it.HasNext() {
			if _, _, err := it.Next(nil); err != nil {
				return false
			}
			count++
			if count == 2 {
				return false
			}
		}
		return true
	})
	if completed {
		t.Fatal("expected ReadAhead to report incomplete iteration")
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestCorruptedWordAbortsIteration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v1-000000-000500-headers.seg")

	if err := seg.WriteSegmentFile(path, [][]byte{[]byte("ok")}); err != nil {
		t.Fatal(err)
	}

	// Corrupt the file by truncating it mid-word so a later field read fails.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data[:len(data)-1], 0o644); err != nil {
		t.Fatal(err)
	}

	dec, err := seg.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	it := dec.MakeIterator()
	if !it.HasNext() {
		t.Fatal("expected a word to attempt decoding")
	}
	if _, _, err := it.Next(nil); err == nil {
		t.Fatal("expected decode error on truncated word")
	}
}

func TestLastWriteTimeReflectsMtime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v1-000000-000500-headers.seg")
	if err := seg.WriteSegmentFile(path, [][]byte{[]byte("x")}); err != nil {
		t.Fatal(err)
	}

	want := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, want, want); err != nil {
		t.Fatal(err)
	}

	dec, err := seg.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	if !dec.LastWriteTime().Equal(want) {
		t.Fatalf("LastWriteTime = %v, want %v", dec.LastWriteTime(), want)
	}
}
