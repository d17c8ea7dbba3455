package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	apperrors "github.com/pulseofpair/pairsync/internal/errors"
	"github.com/pulseofpair/pairsync/internal/metrics"
	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/repository"
	"github.com/pulseofpair/pairsync/internal/sse"
)

const MaxAnswerLength = 2000

type SubmitParams struct {
	PromptID int64
	SubKind  model.SubKind
	Value    string
	Choice   *int
}

// RevealResult is a prompt's answers as the caller may see them.
// Partner is null until both sides completed the prompt.
type RevealResult struct {
	Prompt          *model.Prompt  `json:"prompt"`
	Mine            []model.Answer `json:"mine"`
	Partner         []model.Answer `json:"partner"`
	MineComplete    bool           `json:"mineComplete"`
	PartnerComplete bool           `json:"partnerComplete"`
	Match           *MatchResult   `json:"match,omitempty"`
}

// PartnerAnsweredEvent tells the partner a prompt became revealable from this side.
type PartnerAnsweredEvent struct {
	PromptID int64            `json:"promptId"`
	Kind     model.PromptKind `json:"kind"`
}

type AnswerService struct {
	promptRepo repository.PromptRepository
	answerRepo repository.AnswerRepository
	pairs      *PairService
	events     EventPublisher
}

func NewAnswerService(
	promptRepo repository.PromptRepository,
	answerRepo repository.AnswerRepository,
	pairs *PairService,
	events EventPublisher,
) *AnswerService {
	return &AnswerService{
		promptRepo: promptRepo,
		answerRepo: answerRepo,
		pairs:      pairs,
		events:     events,
	}
}

// Submit stores one sub-answer. The first write for a key wins; later ones fail with DUPLICATE_ANSWER.
func (s *AnswerService) Submit(ctx context.Context, userID string, params SubmitParams) (*model.Answer, error) {
	prompt, err := s.findPrompt(ctx, params.PromptID)
	if err != nil {
		return nil, err
	}

	pair, partnerID, err := s.pairs.Require(ctx, userID)
	if err != nil {
		metrics.Answers.WithLabelValues(string(prompt.Kind), string(apperrors.GetCode(err))).Inc()
		return nil, err
	}

	if params.SubKind == "" && prompt.Variant == model.PromptVariantSingle {
		params.SubKind = model.SubKindAnswer
	}
	value, err := validateAnswer(prompt, params)
	if err != nil {
		metrics.Answers.WithLabelValues(string(prompt.Kind), string(apperrors.GetCode(err))).Inc()
		return nil, err
	}

	answer, err := s.answerRepo.Create(ctx, model.CreateAnswerParams{
		PairID:   pair.ID,
		UserID:   userID,
		PromptID: prompt.ID,
		SubKind:  params.SubKind,
		Value:    value,
		Choice:   params.Choice,
	})
	if errors.Is(err, repository.ErrDuplicateAnswer) {
		metrics.Answers.WithLabelValues(string(prompt.Kind), string(apperrors.ErrCodeDuplicateAnswer)).Inc()
		log.Debug().
			Str("userId", userID).
			Int64("promptId", prompt.ID).
			Str("subKind", string(params.SubKind)).
			Msg("duplicate answer rejected")
		return nil, apperrors.DuplicateAnswer()
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("answerId", answer.ID).
		Str("userId", userID).
		Str("pairId", pair.ID).
		Int64("promptId", prompt.ID).
		Str("subKind", string(answer.SubKind)).
		Msg("answer stored")
	metrics.Answers.WithLabelValues(string(prompt.Kind), metrics.ResultOK).Inc()

	mine, err := s.answerRepo.FindByPrompt(ctx, prompt.ID, []string{userID})
	if err != nil {
		log.Warn().Err(err).Int64("promptId", prompt.ID).Msg("failed to check completion after submit")
		return answer, nil
	}
	if model.NewAnswerSet(mine).Complete(prompt.Variant) {
		publish(ctx, s.events, partnerID, sse.EventPartnerAnswered, PartnerAnsweredEvent{
			PromptID: prompt.ID,
			Kind:     prompt.Kind,
		})
	}

	return answer, nil
}

// Reveal returns the caller's answers, and the partner's once both completed the prompt.
func (s *AnswerService) Reveal(ctx context.Context, userID string, promptID int64) (*RevealResult, error) {
	prompt, err := s.findPrompt(ctx, promptID)
	if err != nil {
		return nil, err
	}

	pair, err := s.pairs.Find(ctx, userID)
	if err != nil {
		return nil, err
	}

	users := []string{userID}
	var partnerID string
	if pair != nil {
		partnerID, _ = pair.PartnerOf(userID)
		users = append(users, partnerID)
	}

	answers, err := s.answerRepo.FindByPrompt(ctx, prompt.ID, users)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	mine := []model.Answer{}
	var theirs []model.Answer
	for _, a := range answers {
		if a.UserID == userID {
			mine = append(mine, a)
		} else if a.UserID == partnerID {
			theirs = append(theirs, a)
		}
	}

	mineSet := model.NewAnswerSet(mine)
	theirSet := model.NewAnswerSet(theirs)

	result := &RevealResult{
		Prompt:          prompt,
		Mine:            mine,
		MineComplete:    mineSet.Complete(prompt.Variant),
		PartnerComplete: theirSet.Complete(prompt.Variant),
	}

	if CanReveal(result.MineComplete, result.PartnerComplete) {
		result.Partner = theirs
		match := EvaluateMatch(prompt.Variant, mineSet, theirSet)
		result.Match = &match
	}

	return result, nil
}

func (s *AnswerService) findPrompt(ctx context.Context, promptID int64) (*model.Prompt, error) {
	prompt, err := s.promptRepo.FindByID(ctx, promptID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if prompt == nil {
		return nil, apperrors.NotFound("Prompt")
	}
	return prompt, nil
}

// validateAnswer checks the sub kind and value against the prompt and returns the value to store.
func validateAnswer(prompt *model.Prompt, params SubmitParams) (string, error) {
	if !prompt.Variant.Allows(params.SubKind) {
		return "", apperrors.InvalidInput("subKind", "not valid for this prompt")
	}

	if prompt.AnswerType == model.AnswerTypeChoice {
		if params.Choice == nil {
			return "", apperrors.MissingRequired("choice")
		}
		if !prompt.ValidChoice(*params.Choice) {
			return "", apperrors.InvalidInput("choice", "out of range")
		}
		return prompt.Options[*params.Choice], nil
	}

	if params.Choice != nil {
		return "", apperrors.InvalidInput("choice", "prompt takes a text answer")
	}
	value := strings.TrimSpace(params.Value)
	if value == "" {
		return "", apperrors.MissingRequired("value")
	}
	if utf8.RuneCountInString(value) > MaxAnswerLength {
		return "", apperrors.InvalidInput("value", "too long")
	}
	return value, nil
}
