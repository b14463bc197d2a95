// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package imagestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/pan-thu/m-hike-native-sub000/hikesync"
)

// MemoryUploader is an in-process ImageUploader for demos and tests. It
// records every upload and assigns each a URL under BaseURL without touching
// the network.
type MemoryUploader struct {
	// BaseURL prefixes every returned URL, e.g. "https://cdn.example.com".
	BaseURL string

	// Files, when set, is consulted so that missing local files fail the
	// same way they would against real storage.
	Files hikesync.FileStore

	mu       sync.Mutex
	uploads  map[string]string // local path -> assigned URL
	failures map[string]error  // local path -> injected error
}

// NewMemoryUploader creates an empty in-memory uploader.
func NewMemoryUploader(baseURL string) *MemoryUploader {
	return &MemoryUploader{
		BaseURL:  baseURL,
		uploads:  make(map[string]string),
		failures: make(map[string]error),
	}
}

// Upload records the image and returns its assigned URL.
func (u *MemoryUploader) Upload(ctx context.Context, localPath, hikeID, observationID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if u.Files != nil {
		ok, err := u.Files.Exists(localPath)
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", localPath, err)
		}
		if !ok {
			return "", fmt.Errorf("%w: %s", hikesync.ErrFileNotFound, localPath)
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if err, ok := u.failures[localPath]; ok {
		return "", err
	}
	url := u.BaseURL + "/" + ObjectKey(hikeID, observationID, localPath)
	u.uploads[localPath] = url
	return url, nil
}

// FailWith makes subsequent uploads of localPath return err.
func (u *MemoryUploader) FailWith(localPath string, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failures[localPath] = err
}

// URLFor returns the URL assigned to localPath, if it was uploaded.
func (u *MemoryUploader) URLFor(localPath string) (string, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	url, ok := u.uploads[localPath]
	return url, ok
}

// Count reports how many images were uploaded.
func (u *MemoryUploader) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.uploads)
}
