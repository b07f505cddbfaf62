// Package loginlink issues and consumes the one-time login links that
// support agents hand to users, reachable from any device through
// zay://zayapi/supportticket deep links. Links are server-persisted,
// expire after 24h and succeed exactly once.
package loginlink

import (
	"context"
	"fmt"
	"time"

	"github.com/chrissyx/zay-linkauth/internal/securerand"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	ticketIDLength = 7
	linkKeyLength  = 27
	linkTTL        = 24 * time.Hour
)

// LoginLink is a server-persisted one-time login credential tied to a
// support ticket.
type LoginLink struct {
	ID             string    `json:"id" db:"id"`
	TicketID       string    `json:"ticket_id" db:"ticket_id"`
	TargetUsername string    `json:"target_username" db:"target_username"`
	LinkKey        string    `json:"link_key" db:"link_key"`
	IssuerAdmin    string    `json:"issuer_admin" db:"issuer_admin"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	ExpiresAt      time.Time `json:"expires_at" db:"expires_at"`
	IsUsed         bool      `json:"is_used" db:"is_used"`
	UsedAt         time.Time `json:"used_at" db:"used_at"`
}

// NewTicketID generates a support ticket identifier like "JH13BNK".
func NewTicketID() string {
	return securerand.Token(ticketIDLength, securerand.UpperAlphanumeric)
}

// LinkURL builds the deep link a support agent sends to the user.
func LinkURL(ticketID, linkKey string) string {
	return fmt.Sprintf("zay://zayapi/supportticket/id?=%s/key?=%s", ticketID, linkKey)
}

// Service creates and resolves login links.
type Service struct {
	repo    Repo
	nowTime func() time.Time
	log     zerolog.Logger
}

// ServiceOption modifies a Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a Service with its repository dependency.
func NewService(repo Repo, log zerolog.Logger, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[loginlink.NewService] repo is required")
	}

	s := &Service{
		repo:    repo,
		nowTime: time.Now,
		log:     log,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Create issues a login link for ticketID targeting targetUsername,
// valid for 24 hours.
func (s *Service) Create(ctx context.Context, ticketID, targetUsername, issuer string) (*LoginLink, error) {
	now := s.nowTime()
	link := &LoginLink{
		ID:             uuid.New().String(),
		TicketID:       ticketID,
		TargetUsername: targetUsername,
		LinkKey:        securerand.Token(linkKeyLength, securerand.LowerAlphanumeric),
		IssuerAdmin:    issuer,
		CreatedAt:      now,
		ExpiresAt:      now.Add(linkTTL),
		IsUsed:         false,
	}

	if err := s.repo.Create(ctx, link); err != nil {
		return nil, errors.Wrap(err, "[Service.Create] repo.Create")
	}

	s.log.Info().
		Str("ticket_id", ticketID).
		Str("target", targetUsername).
		Str("issuer", issuer).
		Msg("login link created")
	return link, nil
}

// Resolve validates a tapped link and returns the target username.
// The is_used flag is the single authority: it is flipped with a
// conditional update, so two devices racing on the same link produce
// exactly one success. Deletion is a separate best-effort step; call
// Retire once the login has been applied.
func (s *Service) Resolve(ctx context.Context, linkKey, ticketID string) (string, error) {
	link, err := s.repo.Get(ctx, linkKey)
	if errors.Cause(err) == ErrLinkNotFound {
		return "", ErrLinkNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "[Service.Resolve] repo.Get")
	}

	if link.IsUsed {
		return "", ErrLinkAlreadyUsed
	}

	if s.nowTime().After(link.ExpiresAt) {
		if err := s.repo.Delete(ctx, linkKey); err != nil {
			s.log.Warn().Err(err).Str("link_key", linkKey).Msg("failed to delete expired login link")
		}
		return "", ErrLinkExpired
	}

	if link.TicketID != ticketID {
		return "", ErrTicketMismatch
	}

	// The conditional mark-used is the success gate. If two devices
	// race on the same link, exactly one passes.
	if err := s.repo.MarkUsed(ctx, linkKey, s.nowTime()); err != nil {
		cause := errors.Cause(err)
		if cause == ErrLinkAlreadyUsed || cause == ErrLinkNotFound {
			return "", cause
		}
		return "", errors.Wrap(err, "[Service.Resolve] repo.MarkUsed")
	}

	s.log.Info().
		Str("ticket_id", ticketID).
		Str("target", link.TargetUsername).
		Msg("login link consumed")
	return link.TargetUsername, nil
}

// Retire deletes a consumed link. Ordering matters: the link is marked
// used in Resolve first and deleted here second, so a crash in between
// leaves an inert link, never a reusable one. Deletion failures are
// logged and forgotten for the same reason.
func (s *Service) Retire(ctx context.Context, linkKey string) {
	if err := s.repo.Delete(ctx, linkKey); err != nil {
		s.log.Warn().Err(err).Str("link_key", linkKey).Msg("failed to delete consumed login link")
	}
}
