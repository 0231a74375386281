package bridge

import (
	"sync"

	"github.com/dshills/cloverleaf/internal/protocol"
)

// hostSurface is a preview surface living in the host's webview. Commands
// are relayed as surface notifications.
type hostSurface struct {
	transport *Transport

	mu        sync.Mutex
	disposed  bool
	callbacks []func()
}

func (s *hostSurface) Reveal() error {
	return s.Post(protocol.Reveal{})
}

func (s *hostSurface) Post(cmd protocol.SurfaceCommand) error {
	s.mu.Lock()
	disposed := s.disposed
	s.mu.Unlock()
	if disposed {
		return ErrSurfaceDisposed
	}
	return s.transport.Send(protocol.SurfaceNotification{Message: cmd})
}

func (s *hostSurface) OnDispose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// Dispose asks the host to close the webview and runs the callbacks.
func (s *hostSurface) Dispose() error {
	callbacks, ok := s.markDisposed()
	if !ok {
		return nil
	}
	err := s.transport.Send(protocol.SurfaceNotification{Message: protocol.Dispose{}})
	for _, fn := range callbacks {
		fn()
	}
	return err
}

// closedByHost runs the callbacks without messaging the host, which
// already tore the webview down.
func (s *hostSurface) closedByHost() {
	callbacks, ok := s.markDisposed()
	if !ok {
		return
	}
	for _, fn := range callbacks {
		fn()
	}
}

func (s *hostSurface) markDisposed() ([]func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return nil, false
	}
	s.disposed = true
	callbacks := s.callbacks
	s.callbacks = nil
	return callbacks, true
}
