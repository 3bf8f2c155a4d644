package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore writes files under a root directory on the local filesystem.
// Visibility is not enforced at this level; the web server in front decides
// what is reachable, so SetVisibility is a no-op and TemporaryURL degrades to
// the plain asset URL.
type LocalStore struct {
	root    string
	baseURL string
	folder  string
}

// NewLocalStore creates a local disk store rooted at root. baseURL is the
// app-relative prefix served by the host (typically "/storage").
func NewLocalStore(root, baseURL, folder string) *LocalStore {
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		folder:  folder,
	}
}

func (s *LocalStore) Name() string   { return "local" }
func (s *LocalStore) Folder() string { return s.folder }

// Root returns the filesystem root the store writes under.
func (s *LocalStore) Root() string { return s.root }

// AbsolutePath resolves a stored relative path to its on-disk location.
func (s *LocalStore) AbsolutePath(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

func (s *LocalStore) Put(folder, sourcePath, fileName, visibility string) (string, error) {
	relative := fileName
	if folder != "" {
		relative = folder + "/" + fileName
	}
	target := s.AbsolutePath(relative)

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy file content: %w", err)
	}

	return relative, nil
}

func (s *LocalStore) Delete(path string) error {
	if err := os.Remove(s.AbsolutePath(path)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalStore) SetVisibility(path, visibility string) error {
	return nil
}

func (s *LocalStore) URL(path string) string {
	return s.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func (s *LocalStore) TemporaryURL(path string, ttl time.Duration) (string, error) {
	return s.URL(path), nil
}
