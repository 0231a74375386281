package app

import (
	"io"
	"sync"

	"github.com/dshills/cloverleaf/internal/preview"
	"github.com/dshills/cloverleaf/internal/protocol"
)

// textSurface stands in for a viewer when no host is attached. Each
// command is written to w as one JSON line, so an external viewer can
// follow along by reading the stream.
type textSurface struct {
	mu        sync.Mutex
	w         io.Writer
	disposed  bool
	callbacks []func()
}

func textSurfaceFactory(w io.Writer) preview.SurfaceFactory {
	return func() (preview.Surface, error) {
		return &textSurface{w: w}, nil
	}
}

func (s *textSurface) Reveal() error {
	return s.Post(protocol.Reveal{})
}

func (s *textSurface) Post(cmd protocol.SurfaceCommand) error {
	data, err := protocol.Encode(protocol.SurfaceNotification{Message: cmd})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrSurfaceDisposed
	}
	_, err = s.w.Write(append(data, '\n'))
	return err
}

func (s *textSurface) OnDispose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

func (s *textSurface) Dispose() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true
	callbacks := s.callbacks
	s.callbacks = nil
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return nil
}
