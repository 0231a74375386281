package compile

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"
)

// OutputStream identifies the source stream.
type OutputStream int

const (
	// OutputStreamStdout is standard output.
	OutputStreamStdout OutputStream = iota
	// OutputStreamStderr is standard error.
	OutputStreamStderr
)

// String returns the stream name.
func (s OutputStream) String() string {
	switch s {
	case OutputStreamStdout:
		return "stdout"
	case OutputStreamStderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// OutputLine is a single line of compiler output.
type OutputLine struct {
	// Content is the line content (without newline).
	Content string

	// Stream identifies the source (stdout or stderr).
	Stream OutputStream

	// Timestamp is when the line was received.
	Timestamp time.Time
}

// OutputBuffer merges the lines of both streams of one run in arrival
// order. Order within a stream is preserved; order across streams is
// whatever the scheduler produced.
type OutputBuffer struct {
	mu         sync.RWMutex
	lines      []OutputLine
	bufferSize int
}

// NewOutputBuffer creates a buffer whose scanner accepts lines up to
// bufferSize bytes.
func NewOutputBuffer(bufferSize int) *OutputBuffer {
	if bufferSize <= 0 {
		bufferSize = 1024 * 1024
	}
	return &OutputBuffer{
		lines:      make([]OutputLine, 0, 256),
		bufferSize: bufferSize,
	}
}

// Consume reads r line by line until EOF, appending each line and invoking
// callback for it. If the scanner fails (a line longer than the buffer),
// the rest of r is discarded so the writer never blocks.
func (b *OutputBuffer) Consume(r io.Reader, stream OutputStream, callback func(OutputLine)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), b.bufferSize)

	for scanner.Scan() {
		line := OutputLine{
			Content:   scanner.Text(),
			Stream:    stream,
			Timestamp: time.Now(),
		}

		b.mu.Lock()
		b.lines = append(b.lines, line)
		b.mu.Unlock()

		if callback != nil {
			callback(line)
		}
	}

	err := scanner.Err()
	if err != nil {
		_, _ = io.Copy(io.Discard, r)
	}
	return err
}

// Lines returns a copy of all captured lines.
func (b *OutputBuffer) Lines() []OutputLine {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]OutputLine, len(b.lines))
	copy(result, b.lines)
	return result
}

// LineCount returns the number of captured lines.
func (b *OutputBuffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Content returns all output joined by newlines.
func (b *OutputBuffer) Content() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var sb strings.Builder
	for i, line := range b.lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line.Content)
	}
	return sb.String()
}
