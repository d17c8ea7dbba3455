package model

import (
	"time"
)

// Notification records a delivered partner reminder.
type Notification struct {
	ID          string     `db:"id" json:"id"`
	Kind        PromptKind `db:"kind" json:"kind"`
	SenderID    string     `db:"sender_id" json:"senderId"`
	RecipientID string     `db:"recipient_id" json:"recipientId"`
	PairID      string     `db:"pair_id" json:"pairId"`
	PromptID    int64      `db:"prompt_id" json:"promptId"`
	SentAt      time.Time  `db:"sent_at" json:"sentAt"`
}

type CreateNotificationParams struct {
	Kind        PromptKind
	SenderID    string
	RecipientID string
	PairID      string
	PromptID    int64
}
