package decay

import (
	"context"
	"fmt"
	"os"
)

// FileStore keeps the decay record as the entire content of a file.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by path, creating an empty record if the
// file does not exist yet.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

// Init creates the backing file when it is absent. Existing content is left
// untouched, so calling Init more than once is harmless.
func (s *FileStore) Init() error {
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrStorageWrite, s.path, err)
	}
	return f.Close()
}

// Path returns the file backing the record.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(_ context.Context) (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return State{}, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	return Decode(data)
}

// Update truncates the file and writes the encoded state from offset zero.
func (s *FileStore) Update(_ context.Context, state State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	return nil
}
