package services

import (
	"context"

	"github.com/dropvault/dropvault/internal/server/models"
)

// Gate is the single request-level authorization point. The transport layer
// hands it whichever credential the request carries; the gate picks the
// verification path and nothing else. One instance is shared across all
// entry points, so the signing secret and clock are configured exactly once.
type Gate struct {
	users  *UserService
	shares *ShareService
}

func NewGate(users *UserService, shares *ShareService) *Gate {
	return &Gate{users: users, shares: shares}
}

// AuthorizeOwnerAction verifies a session credential and returns the caller's
// identity. Gates the list/upload/download-own/share paths.
func (g *Gate) AuthorizeOwnerAction(ctx context.Context, credential string) (*Session, error) {
	return g.users.Verify(ctx, credential)
}

// AuthorizeSharedAccess resolves a bare share token into the file it grants.
// Gates the anonymous shared-download path.
func (g *Gate) AuthorizeSharedAccess(ctx context.Context, token string) (*models.File, error) {
	return g.shares.Resolve(ctx, token)
}
