package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	repository "github.com/courtsidehq/booking-server/internal/database/postgres"
	"github.com/courtsidehq/booking-server/internal/entity"
	"github.com/courtsidehq/booking-server/internal/payments"
)

type userService struct {
	userRepo repository.UserRepository
	gateway  payments.Gateway
	logger   *logrus.Logger
}

func NewUserService(userRepo repository.UserRepository, gateway payments.Gateway, logger *logrus.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		gateway:  gateway,
		logger:   logger,
	}
}

func (s *userService) RegisterUser(ctx context.Context, req *RegisterUserRequest) (*entity.User, error) {
	user := &entity.User{
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Name:  strings.TrimSpace(req.Name),
		Role:  entity.RoleMember,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Gateway customer creation is best effort at registration; the payment
	// paths create the customer lazily if it is still missing.
	customerID, err := s.gateway.CreateCustomer(ctx, user.Email, user.Name)
	if err != nil {
		s.logger.WithField("user_id", user.ID).WithError(err).Warn("failed to create gateway customer at registration")
		return user, nil
	}
	if err := s.userRepo.UpdateStripeCustomerID(ctx, user.ID, customerID); err != nil {
		s.logger.WithField("user_id", user.ID).WithError(err).Warn("failed to store gateway customer id")
		return user, nil
	}
	user.StripeCustomerID = customerID

	return user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
