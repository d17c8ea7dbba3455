package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/util"
)

const sampleCatalog = `
prompts:
  - number: 1
    kind: daily
    category: memories
    text: "  Where did we first meet?  "
  - number: 2
    kind: tune
    variant: two_sided
    answer_type: choice
    about_self: How do you recharge?
    about_partner: How does your partner recharge?
    options: [Alone, With friends, Outdoors]
`

func TestParse(t *testing.T) {
	t.Run("applies defaults and trims", func(t *testing.T) {
		prompts, err := Parse(strings.NewReader(sampleCatalog))
		require.NoError(t, err)
		require.Len(t, prompts, 2)

		first := prompts[0]
		assert.Equal(t, model.PromptKindDaily, first.Kind)
		assert.Equal(t, model.PromptVariantSingle, first.Variant)
		assert.Equal(t, model.AnswerTypeText, first.AnswerType)
		assert.Equal(t, "Where did we first meet?", first.Text)
		assert.Nil(t, first.Options)

		second := prompts[1]
		assert.Equal(t, model.PromptVariantTwoSided, second.Variant)
		assert.Equal(t, model.Options{"Alone", "With friends", "Outdoors"}, second.Options)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		_, err := Parse(strings.NewReader("prompts:\n  - number: 1\n    kind: daily\n    text: x\n    weight: 3\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "weight")
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := Parse(strings.NewReader(""))
		assert.EqualError(t, err, "catalog is empty")
	})

	t.Run("field rules report yaml names", func(t *testing.T) {
		_, err := Parse(strings.NewReader("prompts:\n  - number: 1\n    kind: weekly\n    text: x\n"))
		require.Error(t, err)

		var ve util.ValidationErrors
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "kind", ve[0].Field)
	})

	t.Run("no prompts", func(t *testing.T) {
		_, err := Parse(strings.NewReader("prompts: []\n"))
		assert.Error(t, err)
	})
}

func TestCheck(t *testing.T) {
	valid := model.UpsertPromptParams{
		Number: 1, Kind: model.PromptKindDaily, Variant: model.PromptVariantSingle,
		AnswerType: model.AnswerTypeText, Text: "q",
	}

	tests := []struct {
		name    string
		mutate  func(p *model.UpsertPromptParams)
		message string
	}{
		{"single needs text", func(p *model.UpsertPromptParams) { p.Text = "" }, "text is required"},
		{"about text on single", func(p *model.UpsertPromptParams) { p.TextAboutSelf = "me" }, "only allowed on two_sided"},
		{"two sided needs both texts", func(p *model.UpsertPromptParams) {
			p.Variant = model.PromptVariantTwoSided
			p.TextAboutSelf = "me"
		}, "need about_self and about_partner"},
		{"choice needs options", func(p *model.UpsertPromptParams) {
			p.AnswerType = model.AnswerTypeChoice
			p.Options = model.Options{"only"}
		}, "at least 2 options"},
		{"text has no options", func(p *model.UpsertPromptParams) { p.Options = model.Options{"a", "b"} }, "only allowed on choice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)

			problems := Check([]model.UpsertPromptParams{p})
			require.Len(t, problems, 1)
			assert.Contains(t, problems[0].Message, tt.message)
		})
	}

	t.Run("duplicate numbers across kinds", func(t *testing.T) {
		other := valid
		other.Kind = model.PromptKindTune

		problems := Check([]model.UpsertPromptParams{valid, other})
		require.Len(t, problems, 1)
		assert.Equal(t, "prompt 1: duplicate number", problems[0].String())
	})

	t.Run("valid entry", func(t *testing.T) {
		assert.Empty(t, Check([]model.UpsertPromptParams{valid}))
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o600))

	prompts, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, prompts, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
