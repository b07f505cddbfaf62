package loginlink

import (
	"context"
	"time"
)

// Repo is the narrow document-store surface the link service needs.
// Implementations must make MarkUsed a conditional update so exactly
// one caller ever transitions a link to used.
type Repo interface {
	// Create persists a new link keyed by its LinkKey.
	Create(ctx context.Context, link *LoginLink) error

	// Get retrieves a link by key, or ErrLinkNotFound.
	Get(ctx context.Context, linkKey string) (*LoginLink, error)

	// MarkUsed atomically flips is_used from false to true. Returns
	// ErrLinkAlreadyUsed if the link was already used and
	// ErrLinkNotFound if it does not exist.
	MarkUsed(ctx context.Context, linkKey string, usedAt time.Time) error

	// Delete removes a link. Deleting an absent link is not an error.
	Delete(ctx context.Context, linkKey string) error
}
