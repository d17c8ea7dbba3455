package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pulseofpair/pairsync/internal/audit"
	apperrors "github.com/pulseofpair/pairsync/internal/errors"
	"github.com/pulseofpair/pairsync/internal/metrics"
	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/repository"
	"github.com/pulseofpair/pairsync/internal/sse"
)

const DefaultReminderCooldown = 60 * time.Second

// ReminderThrottle is the check-and-set gate in front of reminder delivery.
type ReminderThrottle interface {
	Acquire(ctx context.Context, userID string, kind model.PromptKind, cooldown time.Duration) (ThrottleDecision, error)
	Release(ctx context.Context, userID string, kind model.PromptKind, d ThrottleDecision) error
}

type ReminderResult struct {
	PromptID    int64     `json:"promptId"`
	RecipientID string    `json:"recipientId"`
	SentAt      time.Time `json:"sentAt"`
}

type ReminderEvent struct {
	PromptID int64            `json:"promptId"`
	Kind     model.PromptKind `json:"kind"`
	FromName string           `json:"fromName"`
}

type ReminderService struct {
	promptRepo       repository.PromptRepository
	answerRepo       repository.AnswerRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	pairs            *PairService
	throttle         ReminderThrottle
	notifier         Notifier
	events           EventPublisher
	cooldowns        map[model.PromptKind]time.Duration
	now              clock
}

func NewReminderService(
	promptRepo repository.PromptRepository,
	answerRepo repository.AnswerRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	pairs *PairService,
	throttle ReminderThrottle,
	notifier Notifier,
	events EventPublisher,
	cooldowns map[model.PromptKind]time.Duration,
) *ReminderService {
	return &ReminderService{
		promptRepo:       promptRepo,
		answerRepo:       answerRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		pairs:            pairs,
		throttle:         throttle,
		notifier:         notifier,
		events:           events,
		cooldowns:        cooldowns,
		now:              time.Now,
	}
}

func (s *ReminderService) cooldown(kind model.PromptKind) time.Duration {
	if d, ok := s.cooldowns[kind]; ok && d > 0 {
		return d
	}
	return DefaultReminderCooldown
}

// RequestReminder nudges the partner about a prompt the caller finished and the partner has not.
func (s *ReminderService) RequestReminder(ctx context.Context, userID string, promptID int64) (*ReminderResult, error) {
	prompt, err := s.promptRepo.FindByID(ctx, promptID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if prompt == nil {
		return nil, apperrors.NotFound("Prompt")
	}

	result, err := s.remind(ctx, userID, prompt)
	if err != nil {
		metrics.Reminders.WithLabelValues(string(prompt.Kind), string(apperrors.GetCode(err))).Inc()
		return nil, err
	}
	metrics.Reminders.WithLabelValues(string(prompt.Kind), metrics.ResultOK).Inc()
	return result, nil
}

func (s *ReminderService) remind(ctx context.Context, userID string, prompt *model.Prompt) (*ReminderResult, error) {
	pair, partnerID, err := s.pairs.Require(ctx, userID)
	if err != nil {
		return nil, err
	}

	answers, err := s.answerRepo.FindByPrompt(ctx, prompt.ID, []string{userID, partnerID})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	var mine, theirs []model.Answer
	for _, a := range answers {
		if a.UserID == userID {
			mine = append(mine, a)
		} else {
			theirs = append(theirs, a)
		}
	}

	if !model.NewAnswerSet(mine).Complete(prompt.Variant) {
		return nil, apperrors.SelfNotReady()
	}
	if model.NewAnswerSet(theirs).Complete(prompt.Variant) {
		return nil, apperrors.PartnerAlreadyAnswered()
	}

	decision, err := s.throttle.Acquire(ctx, userID, prompt.Kind, s.cooldown(prompt.Kind))
	if err != nil {
		log.Warn().
			Err(err).
			Str("userId", userID).
			Msg("reminder throttle check failed, denying request for safety")
		return nil, apperrors.Internal("Reminder throttle unavailable").WithCause(err)
	}
	if !decision.Allowed {
		log.Debug().
			Str("userId", userID).
			Str("kind", string(prompt.Kind)).
			Dur("retryAfter", decision.RetryAfter).
			Msg("reminder throttled")
		audit.Log(ctx, audit.Event{
			Type:   audit.EventReminderThrottled,
			UserID: userID,
			PairID: pair.ID,
			Details: map[string]interface{}{
				"promptId": prompt.ID,
				"kind":     string(prompt.Kind),
			},
		})
		return nil, apperrors.Throttled(decision.RetryAfterSeconds())
	}

	sender, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.release(ctx, userID, prompt.Kind, decision)
		return nil, apperrors.Database(err)
	}
	recipient, err := s.userRepo.FindByID(ctx, partnerID)
	if err != nil {
		s.release(ctx, userID, prompt.Kind, decision)
		return nil, apperrors.Database(err)
	}
	if sender == nil || recipient == nil {
		s.release(ctx, userID, prompt.Kind, decision)
		return nil, apperrors.NotFound("User")
	}

	if err := s.notifier.NotifyPartner(ctx, ReminderNotice{
		Sender:    sender,
		Recipient: recipient,
		Prompt:    prompt,
	}); err != nil {
		s.release(ctx, userID, prompt.Kind, decision)
		log.Error().
			Err(err).
			Str("userId", userID).
			Str("recipientId", partnerID).
			Msg("reminder delivery failed")
		return nil, apperrors.External("Telegram", err)
	}

	sentAt := s.now()
	if _, err := s.notificationRepo.Create(ctx, model.CreateNotificationParams{
		Kind:        prompt.Kind,
		SenderID:    userID,
		RecipientID: partnerID,
		PairID:      pair.ID,
		PromptID:    prompt.ID,
	}); err != nil {
		log.Warn().Err(err).Str("pairId", pair.ID).Msg("failed to record notification")
	}

	log.Info().
		Str("userId", userID).
		Str("recipientId", partnerID).
		Str("pairId", pair.ID).
		Int64("promptId", prompt.ID).
		Str("kind", string(prompt.Kind)).
		Msg("reminder sent")
	audit.Log(ctx, audit.Event{
		Type:   audit.EventReminderSent,
		UserID: userID,
		PairID: pair.ID,
		Details: map[string]interface{}{
			"promptId":    prompt.ID,
			"recipientId": partnerID,
		},
	})
	publish(ctx, s.events, partnerID, sse.EventReminder, ReminderEvent{
		PromptID: prompt.ID,
		Kind:     prompt.Kind,
		FromName: sender.DisplayName,
	})

	return &ReminderResult{
		PromptID:    prompt.ID,
		RecipientID: partnerID,
		SentAt:      sentAt,
	}, nil
}

// ListSent returns the pair's recorded reminders, newest first.
func (s *ReminderService) ListSent(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	pair, _, err := s.pairs.Require(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	notifications, err := s.notificationRepo.ListByPair(ctx, pair.ID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return notifications, nil
}

func (s *ReminderService) release(ctx context.Context, userID string, kind model.PromptKind, d ThrottleDecision) {
	if err := s.throttle.Release(ctx, userID, kind, d); err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("failed to release reminder throttle")
	}
}
