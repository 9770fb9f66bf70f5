package computer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ROMProvider supplies ROM images by identifier.
type ROMProvider interface {
	ReadOnlyMemoryData(id string) ([]byte, error)
}

// ErrROMNotFound is returned, wrapped, for a ROM the provider does not have.
var ErrROMNotFound = errors.New("rom not found")

// DirROMProvider reads <dir>/<id>.rom.
type DirROMProvider string

func (d DirROMProvider) ReadOnlyMemoryData(id string) ([]byte, error) {
	path := filepath.Join(string(d), id+".rom")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("computer: %s: %w", path, ErrROMNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("computer: %w", err)
	}
	return data, nil
}

// MapROMProvider serves ROM images from memory.
type MapROMProvider map[string][]byte

func (m MapROMProvider) ReadOnlyMemoryData(id string) ([]byte, error) {
	data, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("computer: %s: %w", id, ErrROMNotFound)
	}
	return data, nil
}
