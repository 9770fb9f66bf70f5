// Package disk provides random access disk images for the floppy and IDE
// controllers.
package disk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// ErrReadOnly is returned when writing to an image opened read only.
var ErrReadOnly = errors.New("disk: image is read only")

// Image is a disk image.
type Image interface {
	io.ReaderAt
	io.WriterAt
	io.Closer

	// Length returns the image size in bytes.
	Length() int64

	// IsReadOnly reports whether writes are refused.
	IsReadOnly() bool

	// Name is a human readable name of the image, usually its file name.
	Name() string
}

// File is an Image backed by a host file.
type File struct {
	mu       sync.Mutex
	f        *os.File
	length   int64
	readOnly bool
}

// Open opens the image at path. Unless readOnly is set the file is opened for
// writing and locked so no other emulator instance can mount it at the same
// time; a file that cannot be opened for writing falls back to read only.
func Open(path string, readOnly bool) (*File, error) {
	var f *os.File
	var err error
	if !readOnly {
		f, err = os.OpenFile(path, os.O_RDWR, 0)
		if errors.Is(err, os.ErrPermission) {
			readOnly = true
		}
	}
	if readOnly {
		f, err = os.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("disk: open %s: %w", path, err)
	}

	if err := lock(f, readOnly); err != nil {
		f.Close()
		return nil, fmt.Errorf("disk: lock %s: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("disk: stat %s: %w", path, err)
	}

	return &File{f: f, length: fi.Size(), readOnly: readOnly}, nil
}

func (d *File) ReadAt(p []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.ReadAt(p, off)
}

func (d *File) WriteAt(p []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readOnly {
		return 0, ErrReadOnly
	}
	n, err := d.f.WriteAt(p, off)
	if end := off + int64(n); end > d.length {
		d.length = end
	}
	return n, err
}

func (d *File) Length() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.length
}

func (d *File) IsReadOnly() bool { return d.readOnly }

func (d *File) Name() string { return filepath.Base(d.f.Name()) }

// Close unlocks and closes the file.
func (d *File) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	unlock(d.f)
	return d.f.Close()
}

// Memory is an Image held in memory.
type Memory struct {
	mu       sync.Mutex
	name     string
	data     []byte
	readOnly bool
}

// NewMemoryImage returns an image over data. The slice is used directly.
func NewMemoryImage(name string, data []byte, readOnly bool) *Memory {
	return &Memory{name: name, data: data, readOnly: readOnly}
}

func (d *Memory) ReadAt(p []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if off < 0 || off >= int64(len(d.data)) {
		return 0, io.EOF
	}
	n := copy(p, d.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (d *Memory) WriteAt(p []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readOnly {
		return 0, ErrReadOnly
	}
	if off < 0 {
		return 0, fmt.Errorf("disk: negative offset %d", off)
	}
	if end := off + int64(len(p)); end > int64(len(d.data)) {
		d.data = append(d.data, make([]byte, end-int64(len(d.data)))...)
	}
	return copy(d.data[off:], p), nil
}

func (d *Memory) Length() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.data))
}

func (d *Memory) IsReadOnly() bool { return d.readOnly }

func (d *Memory) Name() string { return d.name }

func (d *Memory) Close() error { return nil }

// Bytes returns the current image contents.
func (d *Memory) Bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data
}
