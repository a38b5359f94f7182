package files

import (
	"context"

	"github.com/dropvault/dropvault/internal/server/models"
)

// Repository is the only write path for file records. SetShare and ClearShare
// are the sole mutations of the sharing state; both are single atomic updates.
type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	ListByOwner(ctx context.Context, userID string) ([]*models.File, error)
	GetByID(ctx context.Context, id string) (*models.File, error)
	SetShare(ctx context.Context, fileID, token string) error
	ClearShare(ctx context.Context, fileID string) error
	GetShared(ctx context.Context, fileID, token string) (*models.File, error)
}
