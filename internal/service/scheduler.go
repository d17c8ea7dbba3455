package service

import (
	"context"
	"math"
	"sort"
	"time"

	apperrors "github.com/pulseofpair/pairsync/internal/errors"
	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/repository"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// PromptProgress is the next prompt plus how far the caller and partner got with it.
type PromptProgress struct {
	Prompt           *model.Prompt   `json:"prompt"`
	AnsweredSubKinds []model.SubKind `json:"answeredSubKinds"`
	PartnerCompleted bool            `json:"partnerCompleted"`
}

type HistoryEntry struct {
	Prompt           *model.Prompt `json:"prompt"`
	CompletedAt      time.Time     `json:"completedAt"`
	PartnerCompleted bool          `json:"partnerCompleted"`
	CanReveal        bool          `json:"canReveal"`
}

type Stats struct {
	TotalPrompts         int     `json:"totalPrompts"`
	CompletedByMe        int     `json:"completedByMe"`
	CompletedByPartner   int     `json:"completedByPartner"`
	CompletedByBoth      int     `json:"completedByBoth"`
	CompletionPercentage float64 `json:"completionPercentage"`
}

// SchedulerService walks the catalog in sequence order for each user independently.
type SchedulerService struct {
	promptRepo repository.PromptRepository
	answerRepo repository.AnswerRepository
	pairs      *PairService
}

func NewSchedulerService(
	promptRepo repository.PromptRepository,
	answerRepo repository.AnswerRepository,
	pairs *PairService,
) *SchedulerService {
	return &SchedulerService{
		promptRepo: promptRepo,
		answerRepo: answerRepo,
		pairs:      pairs,
	}
}

// NextPrompt returns the lowest-numbered prompt the user has not fully answered,
// or nil when the catalog (optionally narrowed to kind) is exhausted.
func (s *SchedulerService) NextPrompt(ctx context.Context, userID string, kind model.PromptKind) (*PromptProgress, error) {
	prompts, err := s.promptRepo.FindAll(ctx, kind)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	mine, err := s.answersByPrompt(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := SelectNext(prompts, mine)
	if next == nil {
		return nil, nil
	}

	progress := &PromptProgress{
		Prompt:           next,
		AnsweredSubKinds: mine[next.ID].SubKinds(next.Variant),
	}

	pair, err := s.pairs.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pair != nil {
		partnerID, _ := pair.PartnerOf(userID)
		answers, err := s.answerRepo.FindByPrompt(ctx, next.ID, []string{partnerID})
		if err != nil {
			return nil, apperrors.Database(err)
		}
		progress.PartnerCompleted = model.NewAnswerSet(answers).Complete(next.Variant)
	}

	return progress, nil
}

// History returns the user's fully answered prompts, most recently completed first.
func (s *SchedulerService) History(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	prompts, err := s.promptRepo.FindAll(ctx, "")
	if err != nil {
		return nil, apperrors.Database(err)
	}

	mine, theirs, err := s.pairAnswers(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0)
	for i := range prompts {
		p := &prompts[i]
		set := mine[p.ID]
		if !set.Complete(p.Variant) {
			continue
		}
		partnerDone := theirs[p.ID].Complete(p.Variant)
		entries = append(entries, HistoryEntry{
			Prompt:           p,
			CompletedAt:      set.CompletedAt(),
			PartnerCompleted: partnerDone,
			CanReveal:        CanReveal(true, partnerDone),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CompletedAt.Equal(entries[j].CompletedAt) {
			return entries[i].CompletedAt.After(entries[j].CompletedAt)
		}
		return entries[i].Prompt.Number > entries[j].Prompt.Number
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *SchedulerService) Stats(ctx context.Context, userID string) (*Stats, error) {
	prompts, err := s.promptRepo.FindAll(ctx, "")
	if err != nil {
		return nil, apperrors.Database(err)
	}

	mine, theirs, err := s.pairAnswers(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalPrompts: len(prompts)}
	for i := range prompts {
		p := &prompts[i]
		me := mine[p.ID].Complete(p.Variant)
		partner := theirs[p.ID].Complete(p.Variant)
		if me {
			stats.CompletedByMe++
		}
		if partner {
			stats.CompletedByPartner++
		}
		if me && partner {
			stats.CompletedByBoth++
		}
	}
	if stats.TotalPrompts > 0 {
		pct := float64(stats.CompletedByMe) / float64(stats.TotalPrompts) * 100
		stats.CompletionPercentage = math.Round(pct*10) / 10
	}
	return stats, nil
}

// pairAnswers loads the user's and, when paired, the partner's answers.
func (s *SchedulerService) pairAnswers(ctx context.Context, userID string) (mine, theirs map[int64]model.AnswerSet, err error) {
	mine, err = s.answersByPrompt(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.pairs.Find(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if pair == nil {
		return mine, map[int64]model.AnswerSet{}, nil
	}

	partnerID, _ := pair.PartnerOf(userID)
	theirs, err = s.answersByPrompt(ctx, partnerID)
	if err != nil {
		return nil, nil, err
	}
	return mine, theirs, nil
}

func (s *SchedulerService) answersByPrompt(ctx context.Context, userID string) (map[int64]model.AnswerSet, error) {
	answers, err := s.answerRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return GroupByPrompt(answers), nil
}

// GroupByPrompt indexes answers by prompt id.
func GroupByPrompt(answers []model.Answer) map[int64]model.AnswerSet {
	grouped := make(map[int64]model.AnswerSet)
	for i := range answers {
		a := &answers[i]
		if grouped[a.PromptID] == nil {
			grouped[a.PromptID] = model.AnswerSet{}
		}
		grouped[a.PromptID][a.SubKind] = a
	}
	return grouped
}

// SelectNext picks the lowest (number, id) prompt whose required answers are incomplete.
// The input order does not matter.
func SelectNext(prompts []model.Prompt, answered map[int64]model.AnswerSet) *model.Prompt {
	var next *model.Prompt
	for i := range prompts {
		p := &prompts[i]
		if answered[p.ID].Complete(p.Variant) {
			continue
		}
		if next == nil || p.Number < next.Number || (p.Number == next.Number && p.ID < next.ID) {
			next = p
		}
	}
	return next
}
