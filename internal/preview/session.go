package preview

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one live preview surface.
type Session struct {
	// ID identifies the session in logs.
	ID string

	// Created is when the surface was opened.
	Created time.Time

	surface Surface

	mu       sync.RWMutex
	artifact string
}

func newSession(surface Surface) *Session {
	return &Session{
		ID:      uuid.New().String(),
		Created: time.Now(),
		surface: surface,
	}
}

// Surface returns the session's surface.
func (s *Session) Surface() Surface {
	return s.surface
}

// ArtifactPath returns the PDF most recently loaded, or "".
func (s *Session) ArtifactPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact
}

func (s *Session) setArtifact(path string) {
	s.mu.Lock()
	s.artifact = path
	s.mu.Unlock()
}
