package model

type PromptKind string

const (
	PromptKindDaily PromptKind = "daily"
	PromptKindTune  PromptKind = "tune"
)

func (k PromptKind) Valid() bool {
	return k == PromptKindDaily || k == PromptKindTune
}

// PromptVariant decides how many sub-answers complete a prompt.
type PromptVariant string

const (
	PromptVariantSingle   PromptVariant = "single"
	PromptVariantTwoSided PromptVariant = "two_sided"
)

func (v PromptVariant) Valid() bool {
	return v == PromptVariantSingle || v == PromptVariantTwoSided
}

// RequiredSubKinds lists every sub-answer a user owes for a prompt of this variant.
func (v PromptVariant) RequiredSubKinds() []SubKind {
	if v == PromptVariantTwoSided {
		return []SubKind{SubKindAboutSelf, SubKindAboutPartner}
	}
	return []SubKind{SubKindAnswer}
}

func (v PromptVariant) Allows(sub SubKind) bool {
	for _, s := range v.RequiredSubKinds() {
		if s == sub {
			return true
		}
	}
	return false
}

type AnswerType string

const (
	AnswerTypeText   AnswerType = "text"
	AnswerTypeChoice AnswerType = "choice"
)

func (t AnswerType) Valid() bool {
	return t == AnswerTypeText || t == AnswerTypeChoice
}

type SubKind string

const (
	SubKindAnswer       SubKind = "answer"
	SubKindAboutSelf    SubKind = "about_self"
	SubKindAboutPartner SubKind = "about_partner"
)

type PairRole string

const (
	PairRoleA PairRole = "A"
	PairRoleB PairRole = "B"
)
