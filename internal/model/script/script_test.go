package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optm-media/site-assistant/backend/internal/model/submission"
)

func TestSeedCoversEveryForm(t *testing.T) {
	store := NewMemoryStore(Seed())

	s, ok := store.FindByID(DefaultID)
	require.True(t, ok)

	assert.Equal(t, []string{"Business Offer", "Job/Internship Opportunities", "Feedback"}, s.Labels())
	for _, ft := range submission.FormTypes {
		found := false
		for _, o := range s.Options {
			found = found || o.FormType == ft
		}
		assert.Truef(t, found, "no option for %s", ft)
	}
}

func TestFindOption(t *testing.T) {
	s := Seed()[0]

	opt, ok := s.FindOption("Feedback")
	require.True(t, ok)
	assert.Equal(t, submission.FormFeedback, opt.FormType)

	_, ok = s.FindOption("feedback")
	assert.False(t, ok, "labels match exactly")
}

func TestMemoryStoreMissing(t *testing.T) {
	store := NewMemoryStore(nil)
	_, ok := store.FindByID(DefaultID)
	assert.False(t, ok)
	assert.Empty(t, store.List())
}
