package model

import (
	"time"
)

// Answer is immutable once stored; the (user, prompt, sub kind) key is written once.
type Answer struct {
	ID        string    `db:"id" json:"id"`
	PairID    string    `db:"pair_id" json:"pairId"`
	UserID    string    `db:"user_id" json:"userId"`
	PromptID  int64     `db:"prompt_id" json:"promptId"`
	SubKind   SubKind   `db:"sub_kind" json:"subKind"`
	Value     string    `db:"value" json:"value"`
	Choice    *int      `db:"choice" json:"choice,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateAnswerParams struct {
	PairID   string
	UserID   string
	PromptID int64
	SubKind  SubKind
	Value    string
	Choice   *int
}

// AnswerSet indexes one user's answers to one prompt by sub kind.
type AnswerSet map[SubKind]*Answer

func NewAnswerSet(answers []Answer) AnswerSet {
	set := make(AnswerSet, len(answers))
	for i := range answers {
		set[answers[i].SubKind] = &answers[i]
	}
	return set
}

// Complete reports whether every sub-answer the variant requires is present.
func (s AnswerSet) Complete(variant PromptVariant) bool {
	for _, sub := range variant.RequiredSubKinds() {
		if s[sub] == nil {
			return false
		}
	}
	return true
}

// SubKinds lists the answered sub kinds in variant order.
func (s AnswerSet) SubKinds(variant PromptVariant) []SubKind {
	out := make([]SubKind, 0, len(s))
	for _, sub := range variant.RequiredSubKinds() {
		if s[sub] != nil {
			out = append(out, sub)
		}
	}
	return out
}

// CompletedAt is the time of the latest answer in the set.
func (s AnswerSet) CompletedAt() time.Time {
	var latest time.Time
	for _, a := range s {
		if a.CreatedAt.After(latest) {
			latest = a.CreatedAt
		}
	}
	return latest
}
