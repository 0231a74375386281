package compile

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/cloverleaf/internal/integration/process"
	"github.com/dshills/cloverleaf/internal/integration/process/processtest"
)

type recordingSink struct {
	mu        sync.Mutex
	published [][]Diagnostic
	mainFiles []string
	clears    int
}

func (s *recordingSink) Publish(mainFile string, diags []Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mainFiles = append(s.mainFiles, mainFile)
	s.published = append(s.published, diags)
}

func (s *recordingSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
}

// newDocument creates dir/main.tex and optionally dir/main.pdf.
func newDocument(t *testing.T, withArtifact bool) string {
	t.Helper()
	dir := t.TempDir()
	source := filepath.Join(dir, "main.tex")
	require.NoError(t, os.WriteFile(source, []byte("\\documentclass{article}"), 0o644))
	if withArtifact {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "main.pdf"), []byte("%PDF-1.5"), 0o644))
	}
	return source
}

func TestCompiler_Success(t *testing.T) {
	source := newDocument(t, true)
	spawner := processtest.NewSpawner(processtest.Script{Stdout: "Output written on main.pdf (1 page).\n"})
	var transcript bytes.Buffer

	c := NewCompiler(spawner, WithTranscript(&transcript))
	res, err := c.Compile(context.Background(), source)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.ArtifactExists)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.Canceled)
	assert.NoError(t, res.Err())
	assert.Equal(t, filepath.Join(filepath.Dir(source), "main.pdf"), res.Artifact)
	assert.Contains(t, res.Output, "Output written on main.pdf")

	calls := spawner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "pdflatex", calls[0].Name)
	assert.Equal(t, []string{"-synctex=1", "-interaction=nonstopmode", "main.tex"}, calls[0].Args)
	assert.Equal(t, filepath.Dir(source), calls[0].Dir)

	out := transcript.String()
	assert.Contains(t, out, "Compiling main.tex with pdflatex...")
	assert.Contains(t, out, "Command: pdflatex -synctex=1 -interaction=nonstopmode main.tex")
	assert.Contains(t, out, "Working directory: "+filepath.Dir(source))
	assert.Contains(t, out, "✓ Compilation completed successfully.")
	assert.Equal(t, StateIdle, c.State())
}

func TestCompiler_CustomCommand(t *testing.T) {
	source := newDocument(t, false)
	dir := filepath.Dir(source)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.dvi"), nil, 0o644))
	spawner := processtest.NewSpawner(processtest.Script{})

	c := NewCompiler(spawner,
		WithCommand("latex", []string{"-synctex=-1"}),
		WithOutputExtension(".dvi"),
	)
	res, err := c.Compile(context.Background(), source)

	require.NoError(t, err)
	assert.True(t, res.Success)
	calls := spawner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "latex", calls[0].Name)
	assert.Equal(t, []string{"-synctex=-1", "main.tex"}, calls[0].Args)
}

func TestCompiler_ArtifactMissing(t *testing.T) {
	source := newDocument(t, false)
	var transcript bytes.Buffer
	c := NewCompiler(processtest.NewSpawner(processtest.Script{}), WithTranscript(&transcript))

	res, err := c.Compile(context.Background(), source)

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.False(t, res.ArtifactExists)
	assert.Equal(t, 0, res.ExitCode)
	assert.ErrorIs(t, res.Err(), ErrArtifactMissing)
	assert.Contains(t, transcript.String(), "main.pdf not found")
}

func TestCompiler_FailurePublishesDiagnostics(t *testing.T) {
	source := newDocument(t, true)
	sink := &recordingSink{}
	spawner := processtest.NewSpawner(processtest.Script{
		Stdout: "! Undefined control sequence.\nl.12 \\foo\n",
		Stderr: "LaTeX Warning: Reference undefined\n",
		Code:   1,
	})

	c := NewCompiler(spawner, WithDiagnosticSink(sink))
	res, err := c.Compile(context.Background(), source)

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.ExitCode)

	var exitErr *ExitError
	require.ErrorAs(t, res.Err(), &exitErr)
	assert.Equal(t, 1, exitErr.Code)

	require.Len(t, res.Diagnostics, 2)
	assert.ElementsMatch(t,
		[]string{"Undefined control sequence.", "Reference undefined"},
		[]string{res.Diagnostics[0].Message, res.Diagnostics[1].Message},
	)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, 1, sink.clears)
	require.Len(t, sink.published, 1)
	assert.Equal(t, source, sink.mainFiles[0])
	assert.Equal(t, res.Diagnostics, sink.published[0])
}

func TestCompiler_StartError(t *testing.T) {
	source := newDocument(t, true)
	spawner := processtest.NewSpawner(processtest.Script{StartErr: exec.ErrNotFound})

	c := NewCompiler(spawner)
	res, err := c.Compile(context.Background(), source)

	require.Error(t, err)
	var startErr *process.StartError
	require.ErrorAs(t, err, &startErr)
	assert.True(t, startErr.NotFound())
	assert.Equal(t, "pdflatex", startErr.Command)
	assert.Equal(t, "pdflatex: command not found", err.Error())
	assert.False(t, res.Success)
	assert.Equal(t, StateIdle, c.State())
}

func TestCompiler_Cancel(t *testing.T) {
	source := newDocument(t, true)
	spawner := processtest.NewSpawner(processtest.Script{Stdout: "working\n", Block: true})
	started := spawner.Started()

	c := NewCompiler(spawner)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var resolutions atomic.Int32
	done := make(chan Result, 1)
	go func() {
		res, err := c.Compile(ctx, source)
		assert.NoError(t, err)
		resolutions.Add(1)
		done <- res
	}()

	h := <-started
	assert.Equal(t, StateRunning, c.State())
	assert.Equal(t, source, c.Active())
	cancel()

	select {
	case res := <-done:
		assert.False(t, res.Success)
		assert.True(t, res.Canceled)
		assert.Equal(t, -1, res.ExitCode)
		assert.ErrorIs(t, res.Err(), ErrCanceled)
		assert.Empty(t, res.Diagnostics)
	case <-time.After(5 * time.Second):
		t.Fatal("compile did not resolve after cancel")
	}

	// A natural exit racing the termination must not produce a second
	// resolution or a second terminate.
	h.Exit(0)
	assert.Equal(t, 1, h.Terminations())
	assert.Equal(t, int32(1), resolutions.Load())
	assert.Equal(t, StateIdle, c.State())
}

func TestCompiler_CanceledBeforeStart(t *testing.T) {
	source := newDocument(t, true)
	spawner := processtest.NewSpawner(processtest.Script{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewCompiler(spawner).Compile(ctx, source)

	require.NoError(t, err)
	assert.True(t, res.Canceled)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err(), ErrCanceled)
}

func TestCompiler_Close(t *testing.T) {
	source := newDocument(t, true)
	spawner := processtest.NewSpawner(processtest.Script{Block: true})
	started := spawner.Started()
	c := NewCompiler(spawner)

	done := make(chan Result, 1)
	go func() {
		res, _ := c.Compile(context.Background(), source)
		done <- res
	}()

	h := <-started
	c.Close()

	select {
	case res := <-done:
		assert.True(t, res.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not stop the active compile")
	}
	assert.Equal(t, 1, h.Terminations())
}

func TestCompiler_RejectsOtherDocument(t *testing.T) {
	first := newDocument(t, true)
	second := newDocument(t, true)
	spawner := processtest.NewSpawner(processtest.Script{Block: true})
	started := spawner.Started()
	c := NewCompiler(spawner)

	done := make(chan Result, 1)
	go func() {
		res, _ := c.Compile(context.Background(), first)
		done <- res
	}()
	h := <-started

	_, err := c.Compile(context.Background(), second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCompileInProgress))
	assert.Contains(t, err.Error(), first)

	h.Exit(0)
	res := <-done
	assert.True(t, res.Success)
	assert.Len(t, spawner.Calls(), 1)
}

func TestCompiler_CoalescesSameDocument(t *testing.T) {
	source := newDocument(t, true)
	var starts atomic.Int32
	spawner := &processtest.Spawner{
		Script: func(process.Spec) processtest.Script {
			if starts.Add(1) == 1 {
				return processtest.Script{Stdout: "first run\n", Block: true}
			}
			return processtest.Script{Stdout: "later run\n"}
		},
	}
	started := spawner.Started()
	c := NewCompiler(spawner)

	results := make(chan Result, 2)
	go func() {
		res, _ := c.Compile(context.Background(), source)
		results <- res
	}()
	h := <-started

	go func() {
		res, _ := c.Compile(context.Background(), source)
		results <- res
	}()
	// Give the second caller time to join the in-flight run.
	time.Sleep(50 * time.Millisecond)
	h.Exit(0)

	a, b := <-results, <-results
	assert.True(t, a.Success)
	assert.Equal(t, a.Output, b.Output)
	assert.Contains(t, a.Output, "first run")
	assert.Len(t, spawner.Calls(), 1)
}

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		source string
		ext    string
		want   string
	}{
		{"/doc/main.tex", ".pdf", "/doc/main.pdf"},
		{"/doc/thesis.v2.tex", ".pdf", "/doc/thesis.v2.pdf"},
		{"/doc/noext", ".pdf", "/doc/noext.pdf"},
		{"/doc/main.tex", ".dvi", "/doc/main.dvi"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ArtifactPath(tt.source, tt.ext))
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
}
