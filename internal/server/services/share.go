package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dropvault/dropvault/internal/common"
	"github.com/dropvault/dropvault/internal/server/auth"
	"github.com/dropvault/dropvault/internal/server/config"
	"github.com/dropvault/dropvault/internal/server/models"
	"github.com/dropvault/dropvault/internal/server/repositories/repomanager"
)

// ShareService mints, resolves, and revokes share links. A share token passes
// two independent gates: its own signature and expiry, and equality with the
// token currently stored on the file record. The second gate is what makes a
// superseded or revoked link dead even though its signature still checks out.
type ShareService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	tokens        *auth.TokenManager
	shareValidity time.Duration
}

// NewShareService constructs a ShareService using repositories and server config.
func NewShareService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenManager, cfg *config.Config) *ShareService {
	return &ShareService{
		db:            db,
		repomanager:   m,
		tokens:        tokens,
		shareValidity: cfg.ShareTokenValidityDuration,
	}
}

// Issue mints a share token for the file and records it as the live token,
// superseding any previous link. The ownership check happens before minting;
// a file that is absent or owned by someone else yields common.ErrorNotFound
// either way, so callers cannot probe for existence.
func (s *ShareService) Issue(ctx context.Context, fileID, ownerID string) (string, *models.File, error) {
	repo := s.repomanager.Files(s.db)

	file, err := repo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrorNotFound
		}
		return "", nil, err
	}
	if file.UserID != ownerID {
		return "", nil, common.ErrorNotFound
	}

	token, err := s.tokens.GenerateShareToken(fileID, ownerID, s.shareValidity)
	if err != nil {
		return "", nil, common.ErrorInternal
	}

	if err := repo.SetShare(ctx, fileID, token); err != nil {
		return "", nil, err
	}

	file.IsShared = true
	file.ShareToken = token
	return token, file, nil
}

// Resolve validates a share token and returns the file it grants access to.
// Signature or expiry defects yield common.ErrorUnauthorized; a token that no
// longer matches the stored one (superseded or revoked) yields
// common.ErrorNotFound. Links are multi-use within their validity window.
func (s *ShareService) Resolve(ctx context.Context, token string) (*models.File, error) {
	claims, err := s.tokens.ParseShareToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}

	file, err := s.repomanager.Files(s.db).GetShared(ctx, claims.FileID, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return file, nil
}

// Revoke clears the sharing state of a file, invalidating its live link
// without issuing a new one. Same ownership rules as Issue.
func (s *ShareService) Revoke(ctx context.Context, fileID, ownerID string) error {
	repo := s.repomanager.Files(s.db)

	file, err := repo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return err
	}
	if file.UserID != ownerID {
		return common.ErrorNotFound
	}

	return repo.ClearShare(ctx, fileID)
}
