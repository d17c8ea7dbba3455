package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/sse"
)

// EventPublisher pushes hint events to a user's open connections.
type EventPublisher interface {
	Publish(ctx context.Context, userID string, event sse.Event) error
}

// ReminderNotice is what the delivery collaborator needs to nudge a partner.
type ReminderNotice struct {
	Sender    *model.User
	Recipient *model.User
	Prompt    *model.Prompt
}

// Notifier delivers a reminder to the recipient. Transport is its concern.
type Notifier interface {
	NotifyPartner(ctx context.Context, notice ReminderNotice) error
}

type clock func() time.Time

// publish is best effort; events are hints and clients re-fetch on their own.
func publish(ctx context.Context, events EventPublisher, userID, eventType string, payload any) {
	if events == nil {
		return
	}
	event, err := sse.NewEvent(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("eventType", eventType).Msg("failed to encode event")
		return
	}
	if err := events.Publish(ctx, userID, event); err != nil {
		log.Warn().
			Err(err).
			Str("userId", userID).
			Str("eventType", eventType).
			Msg("failed to publish event")
	}
}
