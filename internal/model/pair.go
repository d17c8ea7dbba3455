package model

import (
	"time"
)

// Pair links two users. UserAID always sorts before UserBID.
type Pair struct {
	ID        string    `db:"id" json:"id"`
	UserAID   string    `db:"user_a_id" json:"userAId"`
	UserBID   string    `db:"user_b_id" json:"userBId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// CanonicalMembers orders two user ids into the A/B slots.
func CanonicalMembers(u1, u2 string) (a, b string) {
	if u2 < u1 {
		return u2, u1
	}
	return u1, u2
}

func (p *Pair) Has(userID string) bool {
	return p.UserAID == userID || p.UserBID == userID
}

// PartnerOf returns the other member, or false when userID is not in the pair.
func (p *Pair) PartnerOf(userID string) (string, bool) {
	switch userID {
	case p.UserAID:
		return p.UserBID, true
	case p.UserBID:
		return p.UserAID, true
	}
	return "", false
}

func (p *Pair) RoleOf(userID string) PairRole {
	if userID == p.UserAID {
		return PairRoleA
	}
	return PairRoleB
}
