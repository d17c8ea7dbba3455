package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pulseofpair/pairsync/internal/audit"
	apperrors "github.com/pulseofpair/pairsync/internal/errors"
	"github.com/pulseofpair/pairsync/internal/metrics"
	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/repository"
	"github.com/pulseofpair/pairsync/internal/sse"
	"github.com/pulseofpair/pairsync/internal/util"
)

const (
	DefaultInvitationTTL = 7 * 24 * time.Hour
	maxCodeAttempts      = 5
	defaultListLimit     = 20
	maxListLimit         = 100
)

// InvitationPreview is what peek reveals about a code.
type InvitationPreview struct {
	Code       string    `json:"code"`
	IssuerName string    `json:"issuerName"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Used       bool      `json:"used"`
}

// PairCreatedEvent is published to both members after a successful consume.
type PairCreatedEvent struct {
	PairID    string `json:"pairId"`
	PartnerID string `json:"partnerId"`
}

type InvitationService struct {
	invitationRepo repository.InvitationRepository
	pairRepo       repository.PairRepository
	userRepo       repository.UserRepository
	events         EventPublisher
	ttl            time.Duration
	now            clock
	generateCode   func() (string, error)
}

func NewInvitationService(
	invitationRepo repository.InvitationRepository,
	pairRepo repository.PairRepository,
	userRepo repository.UserRepository,
	events EventPublisher,
	ttl time.Duration,
) *InvitationService {
	if ttl <= 0 {
		ttl = DefaultInvitationTTL
	}
	return &InvitationService{
		invitationRepo: invitationRepo,
		pairRepo:       pairRepo,
		userRepo:       userRepo,
		events:         events,
		ttl:            ttl,
		now:            time.Now,
		generateCode:   util.GenerateCode,
	}
}

// Issue returns the issuer's live invitation, creating one when none exists.
func (s *InvitationService) Issue(ctx context.Context, issuerID string) (*model.Invitation, error) {
	pair, err := s.pairRepo.FindByUserID(ctx, issuerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if pair != nil {
		metrics.Invitations.WithLabelValues("issue", string(apperrors.ErrCodeAlreadyPaired)).Inc()
		return nil, apperrors.AlreadyPaired()
	}

	now := s.now()
	existing, err := s.invitationRepo.FindActiveByIssuer(ctx, issuerID, now)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		log.Info().
			Str("code", util.MaskCode(existing.Code)).
			Str("userId", issuerID).
			Time("expiresAt", existing.ExpiresAt).
			Msg("reusing existing invitation")
		return existing, nil
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, apperrors.Internal("Failed to generate invitation code").WithCause(err)
		}

		inv, err := s.invitationRepo.Create(ctx, model.CreateInvitationParams{
			Code:      code,
			IssuerID:  issuerID,
			ExpiresAt: now.Add(s.ttl),
		})
		if repository.IsUniqueViolation(err) {
			continue
		}
		if err != nil {
			return nil, apperrors.Database(err)
		}

		log.Info().
			Str("code", util.MaskCode(inv.Code)).
			Str("userId", issuerID).
			Time("expiresAt", inv.ExpiresAt).
			Msg("invitation issued")
		audit.Log(ctx, audit.Event{
			Type:   audit.EventInvitationIssue,
			UserID: issuerID,
			Details: map[string]interface{}{
				"code": util.MaskCode(inv.Code),
			},
		})
		metrics.Invitations.WithLabelValues("issue", metrics.ResultOK).Inc()
		return inv, nil
	}

	return nil, apperrors.Internal(fmt.Sprintf("Failed to allocate a unique code after %d attempts", maxCodeAttempts))
}

// Peek describes a code without consuming it.
func (s *InvitationService) Peek(ctx context.Context, code string) (*InvitationPreview, error) {
	code = util.NormalizeCode(code)
	if code == "" {
		return nil, apperrors.NotFound("Invitation")
	}

	inv, err := s.invitationRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if inv == nil || inv.IsExpired(s.now()) {
		return nil, apperrors.NotFound("Invitation")
	}

	preview := &InvitationPreview{
		Code:      inv.Code,
		ExpiresAt: inv.ExpiresAt,
		Used:      inv.IsUsed(),
	}

	issuer, err := s.userRepo.FindByID(ctx, inv.IssuerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if issuer != nil {
		preview.IssuerName = issuer.DisplayName
	}

	return preview, nil
}

// Consume pairs the invitee with the issuer. At most one caller ever succeeds per code.
func (s *InvitationService) Consume(ctx context.Context, code, inviteeID string) (*model.Pair, error) {
	code = util.NormalizeCode(code)
	if code == "" {
		return nil, apperrors.NotFound("Invitation")
	}

	pair, err := s.invitationRepo.Consume(ctx, code, inviteeID, s.now())
	if err != nil {
		appErr := consumeError(err)
		metrics.Invitations.WithLabelValues("consume", string(appErr.Code)).Inc()
		if appErr.Code != apperrors.ErrCodeDatabase {
			audit.Log(ctx, audit.Event{
				Type:   audit.EventInvitationReject,
				UserID: inviteeID,
				Details: map[string]interface{}{
					"code":   util.MaskCode(code),
					"reason": string(appErr.Code),
				},
			})
		}
		return nil, appErr
	}

	issuerID, _ := pair.PartnerOf(inviteeID)

	log.Info().
		Str("pairId", pair.ID).
		Str("code", util.MaskCode(code)).
		Str("issuerId", issuerID).
		Str("inviteeId", inviteeID).
		Msg("invitation consumed, pair created")
	audit.Log(ctx, audit.Event{
		Type:   audit.EventPairCreate,
		UserID: inviteeID,
		PairID: pair.ID,
		Details: map[string]interface{}{
			"code":     util.MaskCode(code),
			"issuerId": issuerID,
		},
	})
	metrics.Invitations.WithLabelValues("consume", metrics.ResultOK).Inc()

	publish(ctx, s.events, issuerID, sse.EventPairCreated, PairCreatedEvent{PairID: pair.ID, PartnerID: inviteeID})
	publish(ctx, s.events, inviteeID, sse.EventPairCreated, PairCreatedEvent{PairID: pair.ID, PartnerID: issuerID})

	return pair, nil
}

// ListIssued returns the issuer's invitations, newest first.
func (s *InvitationService) ListIssued(ctx context.Context, issuerID string, limit int) ([]model.Invitation, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	invitations, err := s.invitationRepo.ListByIssuer(ctx, issuerID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return invitations, nil
}

func consumeError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, repository.ErrInvitationNotFound):
		return apperrors.NotFound("Invitation")
	case errors.Is(err, repository.ErrInvitationUsed):
		return apperrors.AlreadyUsed()
	case errors.Is(err, repository.ErrSelfInvite):
		return apperrors.SelfInvite()
	case errors.Is(err, repository.ErrAlreadyPaired):
		return apperrors.AlreadyPaired()
	default:
		return apperrors.Database(err)
	}
}
