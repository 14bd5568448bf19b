package seg

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/mmap"

	"github.com/deffrian/silkworm/pkg/snaperr"
)

// byteCursor reads a uvarint-framed word record directly out of the mmap'd
// segment, tracking how many bytes it has consumed from the start offset.
type byteCursor struct {
	r     *mmap.ReaderAt
	start int64
	pos   int64
	size  int64
}

func newByteCursor(r *mmap.ReaderAt, offset, size int64) *byteCursor {
	return &byteCursor{r: r, start: offset, pos: offset, size: size}
}

func (c *byteCursor) consumed() int64 {
	return c.pos - c.start
}

func (c *byteCursor) uvarint() (uint64, error) {
	buf := make([]byte, binary.MaxVarintLen64)
	n := int(c.size - c.pos)
	if n <= 0 {
		return 0, fmt.Errorf("%w: uvarint at end of segment", snaperr.ErrDecodeFailure)
	}
	if n > binary.MaxVarintLen64 {
		n = binary.MaxVarintLen64
	}
	if _, err := c.r.ReadAt(buf[:n], c.pos); err != nil {
		return 0, fmt.Errorf("%w: %v", snaperr.ErrIoError, err)
	}
	v, w := binary.Uvarint(buf[:n])
	if w <= 0 {
		return 0, fmt.Errorf("%w: malformed uvarint", snaperr.ErrDecodeFailure)
	}
	c.pos += int64(w)
	return v, nil
}

func (c *byteCursor) take(n int64) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if c.pos+n > c.size {
		return nil, fmt.Errorf("%w: word field overruns segment", snaperr.ErrDecodeFailure)
	}
	buf := make([]byte, n)
	if _, err := c.r.ReadAt(buf, c.pos); err != nil {
		return nil, fmt.Errorf("%w: %v", snaperr.ErrIoError, err)
	}
	c.pos += n
	return buf, nil
}
