package submission

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeExplicitFormType(t *testing.T) {
	body := `{"formType":"feedback","email":" ada@example.com ","feedback":"Great site","businessName":"ignored"}`

	p, err := Decode(strings.NewReader(body), DecodeOptions{})
	require.NoError(t, err)

	assert.Equal(t, FormFeedback, p.FormType)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, "Great site", p.Feedback)
	assert.Empty(t, p.BusinessName, "fields of other forms are dropped")
	assert.False(t, p.Inferred)
}

func TestDecodeLegacyInference(t *testing.T) {
	cases := []struct {
		name string
		body string
		want FormType
	}{
		{"business name", `{"email":"a@b.co","businessName":"Acme","businessOffer":"Ads"}`, FormBusiness},
		{"feedback", `{"email":"a@b.co","feedback":"Nice"}`, FormFeedback},
		{"job role", `{"email":"a@b.co","jobRole":"Editor","jobInterest":"Video"}`, FormJob},
		{"role alias", `{"name":"Ada","email":"a@b.co","role":"Intern"}`, FormJob},
		{"business wins over feedback", `{"businessName":"Acme","feedback":"Nice"}`, FormBusiness},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Decode(strings.NewReader(tc.body), DecodeOptions{AllowLegacy: true})
			require.NoError(t, err)
			assert.Equal(t, tc.want, p.FormType)
			assert.True(t, p.Inferred)
		})
	}
}

func TestDecodeRoleAliasKeepsName(t *testing.T) {
	p, err := Decode(strings.NewReader(`{"name":"Ada","email":"a@b.co","role":"Intern"}`), DecodeOptions{AllowLegacy: true})
	require.NoError(t, err)

	assert.Equal(t, "Intern", p.JobRole)
	assert.Equal(t, "Ada", p.Name)
}

func TestDecodeRejectsMissingTagWithoutLegacy(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"businessName":"Acme"}`), DecodeOptions{})
	require.ErrorIs(t, err, ErrMissingFormType)
}

func TestDecodeRejectsUndiscriminatedLegacyPayload(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"email":"a@b.co"}`), DecodeOptions{AllowLegacy: true})
	require.ErrorIs(t, err, ErrMissingFormType)
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"formType":"sales","businessName":"Acme"}`), DecodeOptions{AllowLegacy: true})
	require.ErrorIs(t, err, ErrUnknownFormType)
}

func TestDecodeValidation(t *testing.T) {
	t.Run("tagged form without its field", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{"formType":"job","email":"a@b.co"}`), DecodeOptions{})
		require.Error(t, err)
	})

	t.Run("malformed email", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{"formType":"feedback","email":"nope","feedback":"x"}`), DecodeOptions{})
		require.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{"formType":`), DecodeOptions{})
		require.Error(t, err)
	})
}

func TestParseFormType(t *testing.T) {
	ft, err := ParseFormType(" Business ")
	require.NoError(t, err)
	assert.Equal(t, FormBusiness, ft)

	_, err = ParseFormType("")
	assert.ErrorIs(t, err, ErrMissingFormType)
}
