package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	PromptID int64  `json:"promptId" validate:"required,gt=0"`
	SubKind  string `json:"subKind" validate:"omitempty,oneof=answer about_self about_partner"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct passes", func(t *testing.T) {
		assert.NoError(t, ValidateStruct(sampleRequest{PromptID: 5, SubKind: "about_self"}))
	})

	t.Run("reports json field names", func(t *testing.T) {
		err := ValidateStruct(sampleRequest{SubKind: "other"})
		require.Error(t, err)

		var ve ValidationErrors
		require.ErrorAs(t, err, &ve)
		require.Len(t, ve, 2)
		assert.Equal(t, "promptId", ve[0].Field)
		assert.Equal(t, "required", ve[0].Tag)
		assert.Equal(t, "subKind", ve[1].Field)
		assert.Equal(t, "oneof", ve[1].Tag)
		assert.Contains(t, err.Error(), "subKind failed on oneof=")
	})
}
