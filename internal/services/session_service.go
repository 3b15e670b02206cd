package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wortdestages/backend/internal/auth"
	"github.com/wortdestages/backend/internal/models"
	"go.uber.org/zap"
)

// ErrNoSession is returned when the caller has no usable session
var ErrNoSession = errors.New("no active session")

// SessionRepository is the interface that wraps methods for sessions table data access
type SessionRepository interface {
	// GetByID retrieves a session by its ID.
	//
	// Returns (nil, nil) when no session with that ID exists.
	GetByID(ctx context.Context, sessionID string) (*models.Session, error)
}

// sessionService implements SessionProvider
type sessionService struct {
	repo   SessionRepository
	logger *zap.Logger
}

// NewSessionService creates a new session service
func NewSessionService(repo SessionRepository, logger *zap.Logger) *sessionService {
	return &sessionService{
		repo:   repo,
		logger: logger,
	}
}

// Session re-verifies the caller's session against the sessions table. The
// identity the middleware cached in the context is not trusted on its own:
// the session row may have been revoked or expired since the token was issued.
func (s *sessionService) Session(ctx context.Context) (*models.Session, error) {
	ident, ok := auth.GetIdentity(ctx)
	if !ok || ident.SessionID == "" {
		return nil, ErrNoSession
	}

	session, err := s.repo.GetByID(ctx, ident.SessionID)
	if err != nil {
		s.logger.Error("failed to look up session", zap.Error(err))
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil || !session.Valid(time.Now()) {
		return nil, ErrNoSession
	}

	return session, nil
}
