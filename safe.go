package imgfs

import "sync"

// SafeEngine wraps an Engine with a mutex. The engine itself remains
// single-threaded and non-reentrant by design; this wrapper exists only
// for a process that spawns goroutines around one open image (a progress
// ticker alongside a long copy, for example) and needs those goroutines to
// not race on it. It is belt-and-braces at the process boundary, not a
// concurrency feature of the filesystem.
type SafeEngine struct {
	mu sync.Mutex
	e  *Engine
}

// NewSafeEngine wraps e.
func NewSafeEngine(e *Engine) *SafeEngine {
	return &SafeEngine{e: e}
}

func (s *SafeEngine) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.e.Close()
}

func (s *SafeEngine) BlockSize() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.e.BlockSize()
}

func (s *SafeEngine) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.e.Stats()
}

func (s *SafeEngine) WriteAttributes(path string, attrs Attributes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.e.WriteAttributes(path, attrs)
}

func (s *SafeEngine) ReadAttributes(path string) (Attributes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.e.ReadAttributes(path)
}

func (s *SafeEngine) CreateDirectory(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.e.CreateDirectory(path)
}

func (s *SafeEngine) ListDirectory(path string) ([]Attributes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.e.ListDirectory(path)
}

func (s *SafeEngine) DeleteDirectory(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.e.DeleteDirectory(path)
}

func (s *SafeEngine) WriteFile(path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.e.WriteFile(path, data)
}

func (s *SafeEngine) ReadFile(path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.e.ReadFile(path)
}

func (s *SafeEngine) DeleteFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.e.DeleteFile(path)
}

func (s *SafeEngine) Chmod(path string, mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.e.Chmod(path, mode)
}

func (s *SafeEngine) Dump() (DumpReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.e.Dump()
}
