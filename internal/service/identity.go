package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pulseofpair/pairsync/internal/audit"
	apperrors "github.com/pulseofpair/pairsync/internal/errors"
	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/repository"
	"github.com/pulseofpair/pairsync/internal/telegram"
)

const maxDisplayNameLen = 64

// CredentialValidator turns an opaque launch credential into verified init data.
type CredentialValidator interface {
	Validate(raw string) (*telegram.InitData, error)
}

// Caller is the authenticated principal of a request.
type Caller struct {
	User     *model.User
	InitData *telegram.InitData
}

// RegisterResult reports the registered user and the outcome of an optional invite replay.
type RegisterResult struct {
	User        *model.User         `json:"user"`
	Pair        *model.Pair         `json:"pair,omitempty"`
	InviteError *apperrors.AppError `json:"inviteError,omitempty"`
}

type IdentityService struct {
	validator   CredentialValidator
	userRepo    repository.UserRepository
	invitations *InvitationService
	pairs       *PairService
}

func NewIdentityService(
	validator CredentialValidator,
	userRepo repository.UserRepository,
	invitations *InvitationService,
	pairs *PairService,
) *IdentityService {
	return &IdentityService{
		validator:   validator,
		userRepo:    userRepo,
		invitations: invitations,
		pairs:       pairs,
	}
}

// ResolveCaller verifies the credential and returns the matching user, creating it on first sight.
func (s *IdentityService) ResolveCaller(ctx context.Context, credential string) (*Caller, error) {
	data, err := s.validator.Validate(credential)
	if err != nil {
		log.Debug().Err(err).Msg("credential rejected")
		return nil, apperrors.Unauthenticated("Invalid or missing Telegram init data").WithCause(err)
	}

	var username *string
	if data.User.Username != "" {
		username = &data.User.Username
	}

	user, err := s.userRepo.Upsert(ctx, model.CreateUserParams{
		TelegramID:  data.User.ID,
		DisplayName: truncateName(data.User.DisplayName()),
		Username:    username,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &Caller{User: user, InitData: data}, nil
}

// Register confirms the caller's account and replays an invitation when one is supplied
// explicitly or carried in the launch start parameter. A failed replay does not fail registration.
func (s *IdentityService) Register(ctx context.Context, caller *Caller, inviteCode string) (*RegisterResult, error) {
	result := &RegisterResult{User: caller.User}

	if inviteCode == "" && caller.InitData != nil {
		inviteCode, _ = caller.InitData.InviteCode()
	}

	audit.Log(ctx, audit.Event{
		Type:   audit.EventUserRegister,
		UserID: caller.User.ID,
		Details: map[string]interface{}{
			"withInvite": inviteCode != "",
		},
	})

	if inviteCode != "" {
		pair, err := s.invitations.Consume(ctx, inviteCode, caller.User.ID)
		if err != nil {
			appErr, ok := apperrors.AsAppError(err)
			if !ok || appErr.Code == apperrors.ErrCodeDatabase {
				return nil, err
			}
			result.InviteError = appErr
		}
		result.Pair = pair
	}

	if result.Pair == nil {
		pair, err := s.pairs.Find(ctx, caller.User.ID)
		if err != nil {
			return nil, err
		}
		result.Pair = pair
	}

	return result, nil
}

func (s *IdentityService) UpdateDisplayName(ctx context.Context, userID, displayName string) (*model.User, error) {
	displayName = truncateName(strings.TrimSpace(displayName))
	if displayName == "" {
		return nil, apperrors.MissingRequired("displayName")
	}

	user, err := s.userRepo.UpdateDisplayName(ctx, userID, displayName)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}
	return user, nil
}

func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) > maxDisplayNameLen {
		return string(runes[:maxDisplayNameLen])
	}
	return name
}
