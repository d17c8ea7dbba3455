package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pulseofpair/pairsync/internal/database"
	"github.com/pulseofpair/pairsync/internal/model"
)

type InvitationRepository interface {
	FindByCode(ctx context.Context, code string) (*model.Invitation, error)
	FindActiveByIssuer(ctx context.Context, issuerID string, now time.Time) (*model.Invitation, error)
	ListByIssuer(ctx context.Context, issuerID string, limit int) ([]model.Invitation, error)
	Create(ctx context.Context, params model.CreateInvitationParams) (*model.Invitation, error)
	// Consume marks the invitation used and creates the pair in one transaction.
	Consume(ctx context.Context, code, inviteeID string, now time.Time) (*model.Pair, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type invitationRepo struct {
	db *sqlx.DB
}

func NewInvitationRepository(db *sqlx.DB) InvitationRepository {
	return &invitationRepo{db: db}
}

func (r *invitationRepo) FindByCode(ctx context.Context, code string) (*model.Invitation, error) {
	var inv model.Invitation
	err := r.db.GetContext(ctx, &inv, `
		SELECT * FROM invitations WHERE code = $1
	`, code)
	return HandleNotFound(&inv, err)
}

func (r *invitationRepo) FindActiveByIssuer(ctx context.Context, issuerID string, now time.Time) (*model.Invitation, error) {
	var inv model.Invitation
	err := r.db.GetContext(ctx, &inv, `
		SELECT * FROM invitations
		WHERE issuer_id = $1 AND used_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`, issuerID, now)
	return HandleNotFound(&inv, err)
}

func (r *invitationRepo) ListByIssuer(ctx context.Context, issuerID string, limit int) ([]model.Invitation, error) {
	invitations := []model.Invitation{}
	err := r.db.SelectContext(ctx, &invitations, `
		SELECT * FROM invitations
		WHERE issuer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, issuerID, limit)
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *invitationRepo) Create(ctx context.Context, params model.CreateInvitationParams) (*model.Invitation, error) {
	var inv model.Invitation
	err := r.db.GetContext(ctx, &inv, `
		INSERT INTO invitations (code, issuer_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.Code, params.IssuerID, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepo) Consume(ctx context.Context, code, inviteeID string, now time.Time) (*model.Pair, error) {
	var pair model.Pair

	err := database.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Row lock serializes concurrent consumers of the same code.
		var inv model.Invitation
		found, err := HandleNotFound(&inv, tx.GetContext(ctx, &inv, `
			SELECT * FROM invitations WHERE code = $1 FOR UPDATE
		`, code))
		if err != nil {
			return err
		}
		if found == nil || inv.IsExpired(now) {
			return ErrInvitationNotFound
		}
		if inv.IsUsed() {
			return ErrInvitationUsed
		}
		if inv.IssuerID == inviteeID {
			return ErrSelfInvite
		}

		var paired int
		if err := tx.GetContext(ctx, &paired, `
			SELECT COUNT(*) FROM pair_members WHERE user_id IN ($1, $2)
		`, inv.IssuerID, inviteeID); err != nil {
			return err
		}
		if paired > 0 {
			return ErrAlreadyPaired
		}

		a, b := model.CanonicalMembers(inv.IssuerID, inviteeID)
		if err := tx.GetContext(ctx, &pair, `
			INSERT INTO pairs (id, user_a_id, user_b_id, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING *
		`, uuid.NewString(), a, b, now); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pair_members (user_id, pair_id)
			VALUES ($1, $3), ($2, $3)
		`, a, b, pair.ID); err != nil {
			if IsUniqueViolation(err) {
				return ErrAlreadyPaired
			}
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE invitations SET
				used_at = $2,
				used_by = $3
			WHERE code = $1 AND used_at IS NULL
		`, code, now, inviteeID)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return ErrInvitationUsed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// DeleteExpired removes expired codes that were never used; used codes stay as history.
func (r *invitationRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM invitations
		WHERE expires_at < NOW() AND used_at IS NULL
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
