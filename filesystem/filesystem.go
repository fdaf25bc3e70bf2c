package filesystem

import (
	"io"
	"os"
)

// FileSystem ...
type FileSystem interface {
	Open(name string) (io.ReadCloser, error)
	ReadDir(name string) ([]os.DirEntry, error)
	ReadFile(name string) ([]byte, error)
}

type fileSystem struct{}

// NewFileSystem ...
func NewFileSystem() FileSystem {
	return fileSystem{}
}

func (f fileSystem) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

func (f fileSystem) ReadDir(name string) ([]os.DirEntry, error) {
	return os.ReadDir(name)
}

func (f fileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}
