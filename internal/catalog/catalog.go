// Package catalog reads the prompt catalog from YAML and checks it before import.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/util"
)

const minChoiceOptions = 2

// File is the top-level YAML document.
type File struct {
	Prompts []Entry `yaml:"prompts" validate:"required,min=1,dive"`
}

// Entry is one prompt as written in the catalog file. Variant and answer_type
// default to single and text.
type Entry struct {
	Number       int      `yaml:"number" validate:"required,gt=0"`
	Kind         string   `yaml:"kind" validate:"required,oneof=daily tune"`
	Variant      string   `yaml:"variant" validate:"omitempty,oneof=single two_sided"`
	AnswerType   string   `yaml:"answer_type" validate:"omitempty,oneof=text choice"`
	Category     string   `yaml:"category" validate:"max=64"`
	Text         string   `yaml:"text" validate:"max=1000"`
	AboutSelf    string   `yaml:"about_self" validate:"max=1000"`
	AboutPartner string   `yaml:"about_partner" validate:"max=1000"`
	Options      []string `yaml:"options" validate:"omitempty,dive,required,max=200"`
}

// Problem is a cross-field rule an entry breaks.
type Problem struct {
	Number  int
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("prompt %d: %s", p.Number, p.Message)
}

// Problems is returned when the file parses but its entries are inconsistent.
type Problems []Problem

func (p Problems) Error() string {
	parts := make([]string, len(p))
	for i, problem := range p {
		parts[i] = problem.String()
	}
	return "invalid catalog: " + strings.Join(parts, "; ")
}

func Load(path string) ([]model.UpsertPromptParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes, validates and converts a catalog. Unknown keys are rejected.
func Parse(r io.Reader) ([]model.UpsertPromptParams, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog is empty")
		}
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if err := util.ValidateStruct(&file); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	params := make([]model.UpsertPromptParams, 0, len(file.Prompts))
	for _, entry := range file.Prompts {
		params = append(params, entry.toParams())
	}

	if problems := Check(params); len(problems) > 0 {
		return nil, problems
	}
	return params, nil
}

// Check applies the rules that span fields or entries.
func Check(prompts []model.UpsertPromptParams) Problems {
	var problems Problems
	seen := make(map[int]bool, len(prompts))

	for _, p := range prompts {
		report := func(format string, args ...any) {
			problems = append(problems, Problem{Number: p.Number, Message: fmt.Sprintf(format, args...)})
		}

		if seen[p.Number] {
			report("duplicate number")
		}
		seen[p.Number] = true

		switch p.Variant {
		case model.PromptVariantTwoSided:
			if p.TextAboutSelf == "" || p.TextAboutPartner == "" {
				report("two_sided prompts need about_self and about_partner")
			}
		default:
			if p.Text == "" {
				report("text is required")
			}
			if p.TextAboutSelf != "" || p.TextAboutPartner != "" {
				report("about_self and about_partner are only allowed on two_sided prompts")
			}
		}

		switch p.AnswerType {
		case model.AnswerTypeChoice:
			if len(p.Options) < minChoiceOptions {
				report("choice prompts need at least %d options", minChoiceOptions)
			}
		default:
			if len(p.Options) > 0 {
				report("options are only allowed on choice prompts")
			}
		}
	}

	return problems
}

func (e Entry) toParams() model.UpsertPromptParams {
	variant := model.PromptVariant(e.Variant)
	if variant == "" {
		variant = model.PromptVariantSingle
	}
	answerType := model.AnswerType(e.AnswerType)
	if answerType == "" {
		answerType = model.AnswerTypeText
	}

	var options model.Options
	for _, opt := range e.Options {
		options = append(options, strings.TrimSpace(opt))
	}

	return model.UpsertPromptParams{
		Number:           e.Number,
		Kind:             model.PromptKind(e.Kind),
		Variant:          variant,
		AnswerType:       answerType,
		Category:         strings.TrimSpace(e.Category),
		Text:             strings.TrimSpace(e.Text),
		TextAboutSelf:    strings.TrimSpace(e.AboutSelf),
		TextAboutPartner: strings.TrimSpace(e.AboutPartner),
		Options:          options,
	}
}
