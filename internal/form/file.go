package form

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File is a file the user selected for upload. Its bytes are read on demand.
type File struct {
	Name string
	Size int64
	open func() (io.ReadCloser, error)
}

// FileFromPath selects a file on disk.
func FileFromPath(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("select file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("select file: %s is a directory", path)
	}
	return &File{
		Name: filepath.Base(path),
		Size: info.Size(),
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// FileFromBytes selects an in-memory file.
func FileFromBytes(name string, data []byte) *File {
	return &File{
		Name: name,
		Size: int64(len(data)),
		open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// ReadAll reads the whole file.
func (f *File) ReadAll() ([]byte, error) {
	if f == nil || f.open == nil {
		return nil, fmt.Errorf("no file selected")
	}
	rc, err := f.open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return b, nil
}
