package service

import (
	"context"

	repository "github.com/courtsidehq/booking-server/internal/database/postgres"
	"github.com/courtsidehq/booking-server/internal/entity"
)

type membershipService struct {
	membershipRepo repository.MembershipRepository
}

func NewMembershipService(membershipRepo repository.MembershipRepository) MembershipService {
	return &membershipService{membershipRepo: membershipRepo}
}

func (s *membershipService) GetForUser(ctx context.Context, userID int64) (*entity.Membership, error) {
	return s.membershipRepo.GetByUserID(ctx, userID)
}
