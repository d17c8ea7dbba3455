package service

import (
	"context"

	apperrors "github.com/pulseofpair/pairsync/internal/errors"
	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/repository"
)

// PairView is a pair seen from one member.
type PairView struct {
	Pair    *model.Pair    `json:"pair"`
	Role    model.PairRole `json:"role"`
	Partner *model.User    `json:"partner"`
}

// PairService answers "who is my partner". Pairs are created only by invitation consumption.
type PairService struct {
	pairRepo repository.PairRepository
	userRepo repository.UserRepository
}

func NewPairService(pairRepo repository.PairRepository, userRepo repository.UserRepository) *PairService {
	return &PairService{pairRepo: pairRepo, userRepo: userRepo}
}

// Find returns the user's pair, or nil when unpaired.
func (s *PairService) Find(ctx context.Context, userID string) (*model.Pair, error) {
	pair, err := s.pairRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return pair, nil
}

// Require is Find that fails with NOT_PAIRED.
func (s *PairService) Require(ctx context.Context, userID string) (*model.Pair, string, error) {
	pair, err := s.Find(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if pair == nil {
		return nil, "", apperrors.NotPaired()
	}
	partnerID, _ := pair.PartnerOf(userID)
	return pair, partnerID, nil
}

func (s *PairService) GetPair(ctx context.Context, userID string) (*PairView, error) {
	pair, partnerID, err := s.Require(ctx, userID)
	if err != nil {
		return nil, err
	}

	partner, err := s.userRepo.FindByID(ctx, partnerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &PairView{
		Pair:    pair,
		Role:    pair.RoleOf(userID),
		Partner: partner,
	}, nil
}
