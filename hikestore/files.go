// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package hikestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pan-thu/m-hike-native-sub000/hikesync"
)

// FileStore keeps journal image files under a root directory. Image
// references stored on hikes and observations are paths relative to that
// root.
type FileStore struct {
	Root string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image root %s: %w", root, err)
	}
	return &FileStore{Root: root}, nil
}

// Exists reports whether the referenced image file is present.
func (s *FileStore) Exists(path string) (bool, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(resolved); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return true, nil
}

// Size returns the byte length of the referenced image file.
func (s *FileStore) Size(path string) (int64, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, hikesync.ErrFileNotFound
		}
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// Remove deletes the referenced image file.
func (s *FileStore) Remove(path string) error {
	resolved, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(resolved); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return hikesync.ErrFileNotFound
		}
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Write stores image bytes under the given relative reference, creating
// intermediate directories. Used when attaching a new photo.
func (s *FileStore) Write(path string, data []byte) error {
	resolved, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// resolve maps an image reference onto the root, rejecting references that
// would escape it.
func (s *FileStore) resolve(path string) (string, error) {
	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid image reference: %s", path)
	}
	return filepath.Join(s.Root, cleaned), nil
}
