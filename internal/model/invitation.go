package model

import (
	"time"
)

// Invitation is a single-use pairing code owned by its issuer until consumed.
type Invitation struct {
	Code      string     `db:"code" json:"code"`
	IssuerID  string     `db:"issuer_id" json:"issuerId"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	UsedAt    *time.Time `db:"used_at" json:"usedAt,omitempty"`
	UsedBy    *string    `db:"used_by" json:"usedBy,omitempty"`
}

type CreateInvitationParams struct {
	Code      string
	IssuerID  string
	ExpiresAt time.Time
}

// IsExpired reports whether the TTL elapsed at now.
func (i *Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

func (i *Invitation) IsUsed() bool {
	return i.UsedAt != nil
}

// Usable reports whether the code can still be consumed at now.
func (i *Invitation) Usable(now time.Time) bool {
	return !i.IsUsed() && !i.IsExpired(now)
}
