package filestore

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/devanmodhavadiya189/chatapp/internal/domain"
	"github.com/devanmodhavadiya189/chatapp/internal/storage"
)

// Service manages message attachments. It saves uploaded content through
// the storage backend and hands back the FileRef that gets embedded in the
// message.
type Service struct {
	store   storage.Store
	baseURL string
}

// NewService creates a file service. baseURL is the public address under
// which stored files are served, without a trailing slash.
func NewService(store storage.Store, baseURL string) *Service {
	return &Service{store: store, baseURL: baseURL}
}

// UploadFile saves the content under a collision-free path owned by the
// uploading user and returns a FileRef pointing at its public URL.
func (s *Service) UploadFile(ctx context.Context, userID, originalFilename, mimeType string, content io.Reader) (*domain.FileRef, error) {
	// Sanitize the filename to prevent path traversal.
	sanitized := filepath.Base(originalFilename)
	uniqueFilename := uuid.NewString() + filepath.Ext(sanitized)
	storagePath := path.Join(userID, uniqueFilename)

	bytesWritten, err := s.store.Save(ctx, storagePath, content)
	if err != nil {
		return nil, fmt.Errorf("saving file content: %w", err)
	}

	return &domain.FileRef{
		URL:      s.baseURL + "/uploads/" + storagePath,
		MimeType: mimeType,
		Filename: sanitized,
		Size:     bytesWritten,
	}, nil
}

// Open returns a reader for a stored file by its storage path.
func (s *Service) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	return s.store.Get(ctx, storagePath)
}
