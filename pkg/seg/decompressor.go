// Package seg implements the Decompressor: it memory-maps an immutable
// segment file and exposes a positional iterator over its decompressed
// words. Grounded on the teacher's mmap + length-prefixed reading idiom
// (pkg/disk/handler.go's ReadMessages, pkg/disk/index.go's mmap.Open use)
// and on dd0wney-graphdb's readEntryFromMmap binary.Read pattern, adapted
// to a bit-level Huffman word codec instead of the teacher's flat
// length-prefixed messages.
package seg

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/exp/mmap"

	"github.com/deffrian/silkworm/pkg/snaperr"
)

const headerFixedSize = 8 + 8 + 8 // word_count, empty_word_count, pattern_dict_size

// Decompressor memory-maps one segment file and provides seekable word
// iteration. It is safe for concurrent lookups once opened; ReadAhead takes
// a read lock against concurrent Open/Close so a reopen never races a scan.
type Decompressor struct {
	mu sync.RWMutex

	path string
	r    *mmap.ReaderAt
	mt   time.Time

	wordCount      uint64
	emptyWordCount uint64
	patterns       *huffTable
	positions      *huffTable
	bodyOffset     int64 // byte offset where the compressed word stream begins
	size           int64
}

// Open maps path read-only and parses its fixed header and dictionaries.
func Open(path string) (*Decompressor, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", snaperr.ErrIoError, path, err)
	}

	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap open %s: %v", snaperr.ErrIoError, path, err)
	}

	d := &Decompressor{path: path, r: r, mt: info.ModTime(), size: info.Size()}
	if err := d.parseHeader(); err != nil {
		r.Close()
		return nil, err
	}
	return d, nil
}

func (d *Decompressor) parseHeader() error {
	if d.size < headerFixedSize {
		return fmt.Errorf("%w: segment smaller than fixed header", snaperr.ErrCorruptHeader)
	}

	buf := make([]byte, 8)
	off := int64(0)

	readU64 := func() (uint64, error) {
		if _, err := d.r.ReadAt(buf, off); err != nil {
			return 0, fmt.Errorf("%w: %v", snaperr.ErrIoError, err)
		}
		off += 8
		return binary.LittleEndian.Uint64(buf), nil
	}

	wordCount, err := readU64()
	if err != nil {
		return err
	}
	emptyWordCount, err := readU64()
	if err != nil {
		return err
	}
	patternDictSize, err := readU64()
	if err != nil {
		return err
	}

	if off+int64(patternDictSize) > d.size {
		return fmt.Errorf("%w: pattern dictionary overruns file", snaperr.ErrCorruptHeader)
	}
	patternBytes := make([]byte, patternDictSize)
	if _, err := d.r.ReadAt(patternBytes, off); err != nil {
		return fmt.Errorf("%w: %v", snaperr.ErrIoError, err)
	}
	off += int64(patternDictSize)

	if off+8 > d.size {
		return fmt.Errorf("%w: missing position dictionary size", snaperr.ErrCorruptHeader)
	}
	if _, err := d.r.ReadAt(buf, off); err != nil {
		return fmt.Errorf("%w: %v", snaperr.ErrIoError, err)
	}
	positionDictSize := binary.LittleEndian.Uint64(buf)
	off += 8

	if off+int64(positionDictSize) > d.size {
		return fmt.Errorf("%w: position dictionary overruns file", snaperr.ErrCorruptHeader)
	}
	positionBytes := make([]byte, positionDictSize)
	if _, err := d.r.ReadAt(positionBytes, off); err != nil {
		return fmt.Errorf("%w: %v", snaperr.ErrIoError, err)
	}
	off += int64(positionDictSize)

	patternEntries, err := parseDict(patternBytes)
	if err != nil {
		return err
	}
	positionEntries, err := parseDict(positionBytes)
	if err != nil {
		return err
	}
	patterns, err := buildHuffman(patternEntries)
	if err != nil {
		return err
	}
	positions, err := buildHuffman(positionEntries)
	if err != nil {
		return err
	}

	d.wordCount = wordCount
	d.emptyWordCount = emptyWordCount
	d.patterns = patterns
	d.positions = positions
	d.bodyOffset = off
	return nil
}

// LastWriteTime returns the segment file's mtime captured at open.
func (d *Decompressor) LastWriteTime() time.Time {
	return d.mt
}

// WordCount returns the declared total word count (including empty words).
func (d *Decompressor) WordCount() uint64 { return d.wordCount }

// Close unmaps the segment.
func (d *Decompressor) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.r == nil {
		return nil
	}
	err := d.r.Close()
	d.r = nil
	return err
}

// Iterator walks words starting from an absolute byte offset.
type Iterator struct {
	d      *Decompressor
	offset int64
}

// MakeIterator returns a positional iterator starting at the segment body.
func (d *Decompressor) MakeIterator() *Iterator {
	return &Iterator{d: d, offset: d.bodyOffset}
}

// Reset seeks the iterator to an absolute byte offset that must be a word
// boundary. Behaviour on a non-boundary offset is undefined; in practice it
// surfaces as a DecodeFailure on the next Next call.
func (it *Iterator) Reset(offset int64) {
	it.offset = offset
}

// HasNext reports whether a word remains at the iterator's current offset.
func (it *Iterator) HasNext() bool {
	return it.offset < it.d.size
}

// Offset returns the iterator's current byte offset (the offset the next
// Next call will decode from).
func (it *Iterator) Offset() int64 {
	return it.offset
}

// Next decodes the word at the iterator's current offset, appends its bytes
// to out, and advances to the following word, returning that word's offset.
func (it *Iterator) Next(out []byte) ([]byte, int64, error) {
	d := it.d
	if it.offset >= d.size {
		return out, it.offset, fmt.Errorf("%w: no word at offset %d", snaperr.ErrDecodeFailure, it.offset)
	}

	word, consumed, err := d.decodeWordAt(it.offset)
	if err != nil {
		return out, it.offset, err
	}
	out = append(out, word...)
	it.offset += consumed
	return out, it.offset, nil
}

// uvarint-length-prefixed word record:
//
//	uvarint outputLen
//	if outputLen > 0:
//	  uvarint literalLen, uvarint positionBitsLen, uvarint patternBitsLen
//	  positionBits[positionBitsLen] patternBits[patternBitsLen] literal[literalLen]
//
// This concretizes the segment's "design-level" word codec (spec leaves the
// exact interleaving unpinned) into a self-describing layout: each word
// carries its own bit-cursors, so Reset never depends on stream state left
// over from a previous word.
func (d *Decompressor) decodeWordAt(offset int64) ([]byte, int64, error) {
	r := newByteCursor(d.r, offset, d.size)

	outputLen, err := r.uvarint()
	if err != nil {
		return nil, 0, err
	}
	if outputLen == 0 {
		return nil, r.consumed(), nil
	}

	literalLen, err := r.uvarint()
	if err != nil {
		return nil, 0, err
	}
	positionBitsLen, err := r.uvarint()
	if err != nil {
		return nil, 0, err
	}
	patternBitsLen, err := r.uvarint()
	if err != nil {
		return nil, 0, err
	}

	positionBits, err := r.take(int64(positionBitsLen))
	if err != nil {
		return nil, 0, err
	}
	patternBits, err := r.take(int64(patternBitsLen))
	if err != nil {
		return nil, 0, err
	}
	literal, err := r.take(int64(literalLen))
	if err != nil {
		return nil, 0, err
	}

	word, err := reconstructWord(int(outputLen), literal, d.positions, d.patterns, positionBits, patternBits)
	if err != nil {
		return nil, 0, err
	}
	return word, r.consumed(), nil
}

// reconstructWord interleaves Huffman-decoded patterns and positions with
// literal runs to rebuild one word's output bytes, per the algorithm
// described in the segment format: a position of 0 terminates the pattern
// list (the remaining output is one final literal run); a non-zero position
// p means "copy p-1 literal bytes, then place the next decoded pattern".
func reconstructWord(outputLen int, literal []byte, positions, patterns *huffTable, posBits, patBits []byte) ([]byte, error) {
	out := make([]byte, 0, outputLen)
	posReader := newBitReader(posBits)
	patReader := newBitReader(patBits)
	litCursor := 0

	for {
		posPayload, err := positions.decode(posReader)
		if err != nil {
			return nil, err
		}
		pos := positionValue(posPayload)
		if pos == 0 {
			break
		}
		gap := int(pos - 1)
		if litCursor+gap > len(literal) {
			return nil, fmt.Errorf("%w: literal run overruns word", snaperr.ErrDecodeFailure)
		}
		out = append(out, literal[litCursor:litCursor+gap]...)
		litCursor += gap

		pattern, err := patterns.decode(patReader)
		if err != nil {
			return nil, err
		}
		out = append(out, pattern...)

		if len(out) > outputLen {
			return nil, fmt.Errorf("%w: decoded word exceeds declared length", snaperr.ErrDecodeFailure)
		}
	}

	if litCursor > len(literal) {
		return nil, fmt.Errorf("%w: literal cursor overrun", snaperr.ErrDecodeFailure)
	}
	out = append(out, literal[litCursor:]...)

	if len(out) != outputLen {
		return nil, fmt.Errorf("%w: reconstructed word length %d != declared %d", snaperr.ErrDecodeFailure, len(out), outputLen)
	}
	return out, nil
}

// ReadAhead runs fn with a fresh iterator under a read lock, so a concurrent
// reopen/close cannot tear down the mapping mid-scan. fn's final bool return
// (false to stop early) is returned by ReadAhead.
func (d *Decompressor) ReadAhead(fn func(it *Iterator) bool) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return fn(d.MakeIterator())
}
