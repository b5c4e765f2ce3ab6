package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optm-media/site-assistant/backend/internal/middleware"
	"github.com/optm-media/site-assistant/backend/internal/model/submission"
	relaysvc "github.com/optm-media/site-assistant/backend/internal/service/relay"
)

type recordingRelay struct {
	got []submission.Payload
	err error
}

func (r *recordingRelay) Submit(_ context.Context, p submission.Payload) error {
	r.got = append(r.got, p)
	return r.err
}

func setupRouter(relay Submitter, legacy bool, limit func(http.Handler) http.Handler) (*chi.Mux, *test.Hook) {
	logger, hook := test.NewNullLogger()
	r := chi.NewRouter()
	New(relay, submission.DecodeOptions{AllowLegacy: legacy}, limit, logger).RegisterRoutes(r)
	return r, hook
}

func post(r http.Handler, body string) (*httptest.ResponseRecorder, relaysvc.Response) {
	req := httptest.NewRequest(http.MethodPost, "/submit-business-offer", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var out relaysvc.Response
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	return resp, out
}

func TestSubmitExplicitFormType(t *testing.T) {
	relay := &recordingRelay{}
	r, _ := setupRouter(relay, false, nil)

	resp, out := post(r, `{"formType":"job","email":"ada@example.com","jobRole":"Intern","jobInterest":"Design"}`)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, MessageSuccess, out.Message)
	require.Len(t, relay.got, 1)
	assert.Equal(t, submission.FormJob, relay.got[0].FormType)
	assert.False(t, relay.got[0].Inferred)
}

func TestSubmitLegacyShapes(t *testing.T) {
	relay := &recordingRelay{}
	r, _ := setupRouter(relay, true, nil)

	for body, want := range map[string]submission.FormType{
		`{"email":"a@example.com","businessName":"Acme","businessOffer":"Ads"}`: submission.FormBusiness,
		`{"email":"a@example.com","feedback":"Nice"}`:                          submission.FormFeedback,
		`{"email":"a@example.com","jobRole":"Intern"}`:                         submission.FormJob,
		`{"name":"Ada","email":"a@example.com","role":"Intern"}`:               submission.FormJob,
	} {
		resp, _ := post(r, body)
		require.Equal(t, http.StatusOK, resp.Code, body)
		got := relay.got[len(relay.got)-1]
		assert.Equal(t, want, got.FormType, body)
		assert.True(t, got.Inferred)
	}
}

func TestSubmitLegacyDisabledRejectsUntagged(t *testing.T) {
	relay := &recordingRelay{}
	r, hook := setupRouter(relay, false, nil)

	resp, out := post(r, `{"email":"a@example.com","feedback":"Nice"}`)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, MessageFailure, out.Message)
	assert.Empty(t, relay.got)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestSubmitFailuresAreGeneric(t *testing.T) {
	cases := map[string]struct {
		body  string
		relay *recordingRelay
	}{
		"malformed json":  {body: `{"formType":`, relay: &recordingRelay{}},
		"missing field":   {body: `{"formType":"business","email":"a@example.com"}`, relay: &recordingRelay{}},
		"bad email":       {body: `{"formType":"feedback","email":"nope","feedback":"x"}`, relay: &recordingRelay{}},
		"unknown type":    {body: `{"formType":"press","feedback":"x"}`, relay: &recordingRelay{}},
		"transport error": {body: `{"formType":"feedback","feedback":"x"}`, relay: &recordingRelay{err: errors.New("smtp down")}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r, _ := setupRouter(tc.relay, true, nil)
			resp, out := post(r, tc.body)
			assert.Equal(t, http.StatusInternalServerError, resp.Code)
			assert.Equal(t, MessageFailure, out.Message)
		})
	}
}

func TestSubmitRateLimited(t *testing.T) {
	limiter := middleware.NewIPRateLimiter(0.0001, 1)
	r, _ := setupRouter(&recordingRelay{}, true, limiter.Middleware(relaysvc.Response{Message: MessageLimited}))

	resp, _ := post(r, `{"formType":"feedback","feedback":"x"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	resp, out := post(r, `{"formType":"feedback","feedback":"x"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, MessageLimited, out.Message)
}
