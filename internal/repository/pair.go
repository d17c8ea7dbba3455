package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pulseofpair/pairsync/internal/model"
)

// PairRepository is read-only; pairs are only written by InvitationRepository.Consume.
type PairRepository interface {
	FindByID(ctx context.Context, id string) (*model.Pair, error)
	FindByUserID(ctx context.Context, userID string) (*model.Pair, error)
}

type pairRepo struct {
	db sqlxDB
}

func NewPairRepository(db *sqlx.DB) PairRepository {
	return &pairRepo{db: db}
}

func (r *pairRepo) FindByID(ctx context.Context, id string) (*model.Pair, error) {
	var pair model.Pair
	err := r.db.GetContext(ctx, &pair, `
		SELECT * FROM pairs WHERE id = $1
	`, id)
	return HandleNotFound(&pair, err)
}

func (r *pairRepo) FindByUserID(ctx context.Context, userID string) (*model.Pair, error) {
	var pair model.Pair
	err := r.db.GetContext(ctx, &pair, `
		SELECT p.* FROM pairs p
		JOIN pair_members m ON m.pair_id = p.id
		WHERE m.user_id = $1
	`, userID)
	return HandleNotFound(&pair, err)
}
