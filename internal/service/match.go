package service

import (
	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/textnorm"
)

// MatchResult annotates a revealed prompt. Agreement flags are only set for
// two-sided prompts where both sides answered the aligned sub-questions.
type MatchResult struct {
	Variant        model.PromptVariant `json:"variant"`
	MinePresent    bool                `json:"minePresent"`
	PartnerPresent bool                `json:"partnerPresent"`
	// AboutMe: my about_self against the partner's about_partner prediction.
	AboutMe *bool `json:"aboutMe,omitempty"`
	// AboutPartner: my about_partner prediction against the partner's about_self.
	AboutPartner *bool `json:"aboutPartner,omitempty"`
}

// CanReveal is the visibility gate: partner answers are shown only once both
// sides have supplied every required sub-answer.
func CanReveal(mineComplete, partnerComplete bool) bool {
	return mineComplete && partnerComplete
}

// EvaluateMatch compares two answer sets for one prompt.
func EvaluateMatch(variant model.PromptVariant, mine, partner model.AnswerSet) MatchResult {
	result := MatchResult{
		Variant:        variant,
		MinePresent:    len(mine) > 0,
		PartnerPresent: len(partner) > 0,
	}
	if variant != model.PromptVariantTwoSided {
		return result
	}

	result.AboutMe = agreement(mine[model.SubKindAboutSelf], partner[model.SubKindAboutPartner])
	result.AboutPartner = agreement(mine[model.SubKindAboutPartner], partner[model.SubKindAboutSelf])
	return result
}

func agreement(a, b *model.Answer) *bool {
	if a == nil || b == nil {
		return nil
	}
	eq := AnswersEqual(a, b)
	return &eq
}

// AnswersEqual compares choice indexes when both carry one, else normalized text.
func AnswersEqual(a, b *model.Answer) bool {
	if a.Choice != nil && b.Choice != nil {
		return *a.Choice == *b.Choice
	}
	if a.Choice != nil || b.Choice != nil {
		return false
	}
	return textnorm.Equal(a.Value, b.Value)
}
