package compile

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticStore_Publish(t *testing.T) {
	main := filepath.Join(string(filepath.Separator), "doc", "main.tex")
	s := NewDiagnosticStore(WithTTL(0))

	s.Publish(main, []Diagnostic{
		{Message: "fatal", Severity: SeverityError},
		{File: "./chap.tex", Line: 3, Message: "bad", Severity: SeverityError},
		{File: "/abs/other.tex", Line: 1, Message: "x", Severity: SeverityWarning},
	})

	assert.Equal(t, 3, s.Count())
	assert.Equal(t, []string{
		"/abs/other.tex",
		filepath.Join("/doc", "chap.tex"),
		main,
	}, s.Files())

	got := s.Get(main)
	require.Len(t, got, 1)
	assert.Equal(t, "fatal", got[0].Message)
	assert.Equal(t, main, got[0].File)

	chap := s.Get(filepath.Join("/doc", "chap.tex"))
	require.Len(t, chap, 1)
	assert.Equal(t, 3, chap[0].Line)

	assert.Len(t, s.All(), 3)
	assert.Nil(t, s.Get("/nowhere.tex"))
}

func TestDiagnosticStore_PublishReplaces(t *testing.T) {
	s := NewDiagnosticStore(WithTTL(0))
	s.Publish("/doc/main.tex", []Diagnostic{{File: "a.tex", Message: "one"}})
	s.Publish("/doc/main.tex", []Diagnostic{{File: "b.tex", Message: "two"}})

	assert.Equal(t, []string{"/doc/b.tex"}, s.Files())
}

func TestDiagnosticStore_Clear(t *testing.T) {
	var mu sync.Mutex
	changes := map[string][]Diagnostic{}
	s := NewDiagnosticStore(WithTTL(0), WithChangeHandler(func(file string, diags []Diagnostic) {
		mu.Lock()
		defer mu.Unlock()
		changes[file] = diags
	}))

	s.Publish("/doc/main.tex", []Diagnostic{{Message: "boom"}})
	mu.Lock()
	assert.Len(t, changes["/doc/main.tex"], 1)
	mu.Unlock()

	s.Clear()
	assert.Zero(t, s.Count())
	mu.Lock()
	v, ok := changes["/doc/main.tex"]
	mu.Unlock()
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestDiagnosticStore_Expires(t *testing.T) {
	expired := make(chan string, 4)
	s := NewDiagnosticStore(
		WithTTL(20*time.Millisecond),
		WithChangeHandler(func(file string, diags []Diagnostic) {
			if diags == nil {
				expired <- file
			}
		}),
	)

	s.Publish("/doc/main.tex", []Diagnostic{{Message: "boom"}})
	assert.Equal(t, 1, s.Count())

	select {
	case file := <-expired:
		assert.Equal(t, "/doc/main.tex", file)
	case <-time.After(2 * time.Second):
		t.Fatal("diagnostics did not expire")
	}
	assert.Zero(t, s.Count())
}

func TestDiagnosticStore_StaleTimerIgnored(t *testing.T) {
	s := NewDiagnosticStore(WithTTL(time.Hour))
	s.Publish("/doc/main.tex", []Diagnostic{{Message: "old"}})

	// A timer from an earlier generation must not clear a newer batch.
	s.expire(0)
	assert.Equal(t, 1, s.Count())

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()
	s.expire(gen)
	assert.Zero(t, s.Count())
}
