package bridge

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dshills/cloverleaf/internal/protocol"
)

// Transport reads and writes newline-delimited JSON messages.
type Transport struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer

	mu     sync.Mutex
	closed atomic.Bool
}

// NewTransport creates a transport over r and w. c, if non-nil, is closed
// by Close.
func NewTransport(r io.Reader, w io.Writer, c io.Closer) *Transport {
	return &Transport{
		reader: bufio.NewReaderSize(r, 64*1024),
		writer: w,
		closer: c,
	}
}

// Send writes m as one line. It is safe for concurrent use.
func (t *Transport) Send(m protocol.Message) error {
	if t.closed.Load() {
		return ErrClosed
	}

	data, err := protocol.Encode(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.Command(), err)
	}
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.writer.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", m.Command(), err)
	}
	return nil
}

// ReadLine returns the next non-blank line with surrounding whitespace
// removed. A final line without a newline is returned before io.EOF.
func (t *Transport) ReadLine() ([]byte, error) {
	for {
		line, err := t.reader.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			return line, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Close closes the transport. Later sends fail with ErrClosed.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
