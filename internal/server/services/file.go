package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dropvault/dropvault/internal/common"
	"github.com/dropvault/dropvault/internal/server/blob"
	"github.com/dropvault/dropvault/internal/server/models"
	"github.com/dropvault/dropvault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// MaxUploadSize caps a single upload at 10 MiB.
const MaxUploadSize = 10 << 20

// downloadURLTTL bounds how long a presigned download link stays usable.
const downloadURLTTL = 15 * time.Minute

var allowedTypePattern = regexp.MustCompile(`^(jpeg|jpg|png|gif|pdf|txt|doc|docx|xls|xlsx|zip|rar|mp4|mp3|avi|mov)$`)

// FileService handles uploads, listings, and download URLs. The blob store
// put happens before the metadata insert, so a failed upload never leaves a
// dangling record.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blob.Store
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store blob.Store) *FileService {
	return &FileService{db: db, repomanager: m, store: store}
}

// GetRandomStorageKey returns a date-bucketed, collision-free object key.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("users/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

// allowedFileType gates uploads by extension. The declared content type is
// recorded but not trusted for filtering; browsers disagree too much on it.
func allowedFileType(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return allowedTypePattern.MatchString(ext)
}

// Upload stores the payload in the blob store and records its metadata.
// Rejections (empty payload, oversize, disallowed type) are
// common.ErrorInvalidInput and happen before any byte leaves the process.
func (s *FileService) Upload(ctx context.Context, ownerID, originalName, mimeType string, data []byte) (*models.File, error) {
	if originalName == "" || len(data) == 0 {
		return nil, fmt.Errorf("%w: no file provided", common.ErrorInvalidInput)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", common.ErrorInvalidInput, MaxUploadSize)
	}
	if !allowedFileType(originalName) {
		return nil, fmt.Errorf("%w: file type not allowed", common.ErrorInvalidInput)
	}

	key := GetRandomStorageKey()
	url, err := s.store.Put(ctx, key, data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}

	file := &models.File{
		UserID:       ownerID,
		OriginalName: originalName,
		StorageKey:   key,
		StorageURL:   url,
		Size:         int64(len(data)),
		MimeType:     mimeType,
	}
	created, err := s.repomanager.Files(s.db).Create(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("error creating file record: %w", err)
	}
	return created, nil
}

// List returns the owner's files, newest first.
func (s *FileService) List(ctx context.Context, ownerID string) ([]*models.File, error) {
	return s.repomanager.Files(s.db).ListByOwner(ctx, ownerID)
}

// DownloadURL returns a presigned download link for a file the caller owns.
// Absent and not-owned collapse into common.ErrorNotFound.
func (s *FileService) DownloadURL(ctx context.Context, fileID, ownerID string) (string, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", err
	}
	if file.UserID != ownerID {
		return "", common.ErrorNotFound
	}
	return s.PresignDownload(ctx, file)
}

// PresignDownload returns a presigned link for an already-authorized record.
// The shared-access path uses it after the share token has been resolved.
func (s *FileService) PresignDownload(ctx context.Context, file *models.File) (string, error) {
	url, err := s.store.PresignGet(ctx, file.StorageKey, downloadURLTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}
	return url, nil
}
