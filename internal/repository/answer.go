package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pulseofpair/pairsync/internal/model"
)

type AnswerRepository interface {
	// Create stores the answer or returns ErrDuplicateAnswer when the key is taken.
	Create(ctx context.Context, params model.CreateAnswerParams) (*model.Answer, error)
	FindByUser(ctx context.Context, userID string) ([]model.Answer, error)
	FindByPrompt(ctx context.Context, promptID int64, userIDs []string) ([]model.Answer, error)
}

type answerRepo struct {
	db sqlxDB
}

func NewAnswerRepository(db *sqlx.DB) AnswerRepository {
	return &answerRepo{db: db}
}

func (r *answerRepo) Create(ctx context.Context, params model.CreateAnswerParams) (*model.Answer, error) {
	var answers []model.Answer
	err := r.db.SelectContext(ctx, &answers, `
		INSERT INTO answers (id, pair_id, user_id, prompt_id, sub_kind, value, choice)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, prompt_id, sub_kind) DO NOTHING
		RETURNING *
	`, uuid.NewString(), params.PairID, params.UserID, params.PromptID, params.SubKind, params.Value, params.Choice)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, ErrDuplicateAnswer
	}
	return &answers[0], nil
}

func (r *answerRepo) FindByUser(ctx context.Context, userID string) ([]model.Answer, error) {
	answers := []model.Answer{}
	err := r.db.SelectContext(ctx, &answers, `
		SELECT * FROM answers
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepo) FindByPrompt(ctx context.Context, promptID int64, userIDs []string) ([]model.Answer, error) {
	answers := []model.Answer{}
	err := r.db.SelectContext(ctx, &answers, `
		SELECT * FROM answers
		WHERE prompt_id = $1 AND user_id = ANY($2)
		ORDER BY created_at ASC
	`, promptID, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	return answers, nil
}
