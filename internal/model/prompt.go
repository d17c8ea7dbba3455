package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Prompt is an immutable catalog entry. Number is the scheduling key.
type Prompt struct {
	ID               int64         `db:"id" json:"id"`
	Number           int           `db:"number" json:"number"`
	Kind             PromptKind    `db:"kind" json:"kind"`
	Variant          PromptVariant `db:"variant" json:"variant"`
	AnswerType       AnswerType    `db:"answer_type" json:"answerType"`
	Category         string        `db:"category" json:"category"`
	Text             string        `db:"text" json:"text,omitempty"`
	TextAboutSelf    string        `db:"text_about_self" json:"textAboutSelf,omitempty"`
	TextAboutPartner string        `db:"text_about_partner" json:"textAboutPartner,omitempty"`
	Options          Options       `db:"options" json:"options,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
}

type UpsertPromptParams struct {
	Number           int
	Kind             PromptKind
	Variant          PromptVariant
	AnswerType       AnswerType
	Category         string
	Text             string
	TextAboutSelf    string
	TextAboutPartner string
	Options          Options
}

// ValidChoice reports whether idx addresses one of the prompt's options.
func (p *Prompt) ValidChoice(idx int) bool {
	return p.AnswerType == AnswerTypeChoice && idx >= 0 && idx < len(p.Options)
}

// Options is a JSONB string array.
type Options []string

// Value encodes as a JSON string; pq would send []byte as bytea, which jsonb rejects.
func (o Options) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(o))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *Options) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*o = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("options: unsupported type %T", src)
	}
	return json.Unmarshal(raw, (*[]string)(o))
}
