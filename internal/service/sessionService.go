package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	repository "github.com/courtsidehq/booking-server/internal/database/postgres"
	cache "github.com/courtsidehq/booking-server/internal/database/redis"
	"github.com/courtsidehq/booking-server/internal/entity"
)

type sessionService struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	cache       *cache.SessionCache
	logger      *logrus.Logger
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	sessionCache *cache.SessionCache,
	logger *logrus.Logger,
) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		cache:       sessionCache,
		logger:      logger,
	}
}

func (s *sessionService) CreateSession(ctx context.Context, req *CreateSessionRequest, requestingUserID int64) (*entity.Session, error) {
	requester, err := s.userRepo.GetByID(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() {
		return nil, entity.ErrForbidden
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, fmt.Errorf("%w: starts_at must be RFC3339", entity.ErrInvalidInput)
	}
	if !startsAt.After(time.Now()) {
		return nil, fmt.Errorf("%w: starts_at must be in the future", entity.ErrInvalidInput)
	}

	session := &entity.Session{
		Title:          req.Title,
		PriceCents:     req.PriceCents,
		SpotsRemaining: req.Spots,
		Status:         entity.SessionStatusOpen,
		StartsAt:       startsAt,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, session); err != nil {
			s.logger.WithField("session_id", session.ID).WithError(err).Warn("failed to cache session")
		}
	}

	return session, nil
}

func (s *sessionService) GetSession(ctx context.Context, id int64) (*entity.Session, error) {
	if s.cache != nil {
		if session, err := s.cache.Get(ctx, id); err == nil {
			return session, nil
		}
	}

	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, session); err != nil {
			s.logger.WithField("session_id", session.ID).WithError(err).Warn("failed to cache session")
		}
	}

	return session, nil
}

func (s *sessionService) GetOpenSessions(ctx context.Context) ([]*entity.Session, error) {
	return s.sessionRepo.GetOpen(ctx)
}
