package editor

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"testing"

	"9fans.net/go/plumb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/cloverleaf/internal/compile"
	"github.com/dshills/cloverleaf/internal/synctex"
)

func TestConsole_RevealSource(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ColorOff)

	require.NoError(t, c.RevealSource(synctex.SourcePosition{File: "/doc/main.tex", Line: 10, Column: 0}))

	assert.Equal(t, "/doc/main.tex:10:1\n", buf.String())
}

func TestConsole_Notify(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ColorOff)

	c.Notify(LevelWarning, "Could not find source location for this position")

	assert.Equal(t, "warning: Could not find source location for this position\n", buf.String())
}

func TestConsole_PublishDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ColorOff)

	c.PublishDiagnostics("/doc/main.tex", []compile.Diagnostic{
		{Line: 12, Message: "Undefined control sequence.", Severity: compile.SeverityError},
		{Message: "Reference undefined", Severity: compile.SeverityWarning},
	})

	assert.Equal(t,
		"/doc/main.tex:12: error: Undefined control sequence.\n"+
			"/doc/main.tex: warning: Reference undefined\n",
		buf.String())
}

func TestConsole_ColorOn(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ColorOn)

	c.Notify(LevelError, "boom")

	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "boom")
}

func TestConsole_AutoIsPlainForBuffers(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ColorAuto)

	c.Notify(LevelInfo, "hello")

	assert.Equal(t, "info: hello\n", buf.String())
}

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func TestPlumber_RevealSource(t *testing.T) {
	var port string
	sink := &bufferCloser{}
	p := NewPlumber(nil, WithOpener(func(name string) (io.WriteCloser, error) {
		port = name
		return sink, nil
	}))

	err := p.RevealSource(synctex.SourcePosition{File: "/doc/ch1.tex", Line: 42, Column: 3})
	require.NoError(t, err)
	assert.Equal(t, "send", port)
	assert.True(t, sink.closed)

	var msg plumb.Message
	require.NoError(t, msg.Recv(bufio.NewReader(&sink.Buffer)))
	assert.Equal(t, "cloverleaf", msg.Src)
	assert.Equal(t, "edit", msg.Dst)
	assert.Equal(t, "/doc", msg.Dir)
	assert.Equal(t, "text", msg.Type)
	assert.Equal(t, "/doc/ch1.tex", string(msg.Data))
	require.NotNil(t, msg.Attr)
	assert.Equal(t, "addr", msg.Attr.Name)
	assert.Equal(t, "42", msg.Attr.Value)
}

func TestPlumber_OpenError(t *testing.T) {
	p := NewPlumber(nil, WithPort("edit"), WithOpener(func(string) (io.WriteCloser, error) {
		return nil, errors.New("no plumber")
	}))

	err := p.RevealSource(synctex.SourcePosition{File: "/doc/main.tex", Line: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open plumber port edit")
}

func TestPlumber_Fallback(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlumber(NewConsole(&buf, ColorOff))

	p.Notify(LevelInfo, "LaTeX compilation successful")

	assert.Equal(t, "info: LaTeX compilation successful\n", buf.String())
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "warning", LevelWarning.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "unknown", Level(9).String())
}
