// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Package imagestore provides ImageUploader implementations for the journal:
// S3 object storage for production and an in-memory uploader for demos and
// tests.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/google/uuid"

	"github.com/pan-thu/m-hike-native-sub000/hikesync"
)

// S3Uploader uploads local image files to an S3 bucket. Transfers run through
// the SDK's upload manager and are cancelled through the caller's context, so
// the migration pipeline can abandon an upload that exceeds its budget
// without leaking the transfer.
type S3Uploader struct {
	uploader *manager.Uploader
	bucket   string
	root     string // local image root the journal's references resolve against
	baseURL  string // optional public/CDN prefix; falls back to the SDK's location
	logger   *slog.Logger
}

// S3Config configures the S3 uploader.
type S3Config struct {
	Bucket  string
	Root    string // local image root directory
	BaseURL string // optional public URL prefix, e.g. a CDN domain
}

// NewS3Uploader creates an uploader using the ambient AWS configuration.
func NewS3Uploader(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3Uploader{
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		root:     cfg.Root,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:   logger,
	}, nil
}

// Upload stores one local image file under a fresh object key and returns its
// public URL.
func (u *S3Uploader) Upload(ctx context.Context, localPath, hikeID, observationID string) (string, error) {
	full := filepath.Join(u.root, filepath.Clean(localPath))
	file, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", hikesync.ErrFileNotFound, localPath)
		}
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer file.Close()

	key := ObjectKey(hikeID, observationID, localPath)
	result, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentTypeFor(localPath)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", localPath, err)
	}

	u.logger.Debug("Uploaded image", "key", key, "hike_id", hikeID)
	if u.baseURL != "" {
		return u.baseURL + "/" + key, nil
	}
	return result.Location, nil
}

// ObjectKey builds the bucket key for an image: hike images live under the
// hike, observation images under the observation. The random element keeps
// retried migration attempts from overwriting a half-written object.
func ObjectKey(hikeID, observationID, localPath string) string {
	ext := strings.ToLower(path.Ext(localPath))
	name := uuid.New().String() + ext
	if observationID != "" {
		return fmt.Sprintf("hikes/%s/observations/%s/%s", hikeID, observationID, name)
	}
	return fmt.Sprintf("hikes/%s/%s", hikeID, name)
}

func contentTypeFor(localPath string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(localPath))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
