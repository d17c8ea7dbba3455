package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pulseofpair/pairsync/internal/database"
	"github.com/pulseofpair/pairsync/internal/model"
)

type PromptRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Prompt, error)
	// FindAll returns the catalog ordered by number; kind "" means every kind.
	FindAll(ctx context.Context, kind model.PromptKind) ([]model.Prompt, error)
	// Upsert inserts by number or rewrites the existing row. Once a prompt has answers its
	// kind, variant, answer type and options are fixed; changing them fails with ErrPromptLocked.
	Upsert(ctx context.Context, params model.UpsertPromptParams) (*model.Prompt, error)
}

type promptRepo struct {
	db sqlxDB
}

func NewPromptRepository(db *sqlx.DB) PromptRepository {
	return &promptRepo{db: db}
}

func (r *promptRepo) FindByID(ctx context.Context, id int64) (*model.Prompt, error) {
	var prompt model.Prompt
	err := r.db.GetContext(ctx, &prompt, `
		SELECT * FROM prompts WHERE id = $1
	`, id)
	return HandleNotFound(&prompt, err)
}

func (r *promptRepo) FindAll(ctx context.Context, kind model.PromptKind) ([]model.Prompt, error) {
	prompts := []model.Prompt{}
	err := r.db.SelectContext(ctx, &prompts, `
		SELECT * FROM prompts
		WHERE $1 = '' OR kind = $1
		ORDER BY number ASC, id ASC
	`, kind)
	if err != nil {
		return nil, err
	}
	return prompts, nil
}

func (r *promptRepo) Upsert(ctx context.Context, params model.UpsertPromptParams) (*model.Prompt, error) {
	var prompt model.Prompt
	err := r.db.GetContext(ctx, &prompt, `
		INSERT INTO prompts (number, kind, variant, answer_type, category, text, text_about_self, text_about_partner, options)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (number) DO UPDATE SET
			kind = EXCLUDED.kind,
			variant = EXCLUDED.variant,
			answer_type = EXCLUDED.answer_type,
			category = EXCLUDED.category,
			text = EXCLUDED.text,
			text_about_self = EXCLUDED.text_about_self,
			text_about_partner = EXCLUDED.text_about_partner,
			options = EXCLUDED.options
		WHERE NOT EXISTS (SELECT 1 FROM answers WHERE answers.prompt_id = prompts.id)
			OR (prompts.kind = EXCLUDED.kind
				AND prompts.variant = EXCLUDED.variant
				AND prompts.answer_type = EXCLUDED.answer_type
				AND prompts.options = EXCLUDED.options)
		RETURNING *
	`, params.Number, params.Kind, params.Variant, params.AnswerType, params.Category,
		params.Text, params.TextAboutSelf, params.TextAboutPartner, params.Options)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPromptLocked
	}
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}

// ImportPrompts upserts the batch in one transaction; any failure leaves the catalog unchanged.
func ImportPrompts(ctx context.Context, db *sqlx.DB, prompts []model.UpsertPromptParams) error {
	return database.RunInTx(ctx, db, func(tx *sqlx.Tx) error {
		repo := &promptRepo{db: tx}
		for _, p := range prompts {
			if _, err := repo.Upsert(ctx, p); err != nil {
				return fmt.Errorf("prompt %d: %w", p.Number, err)
			}
		}
		return nil
	})
}
