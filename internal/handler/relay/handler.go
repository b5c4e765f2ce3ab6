package relay

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/optm-media/site-assistant/backend/internal/model/submission"
	relaysvc "github.com/optm-media/site-assistant/backend/internal/service/relay"
	"github.com/optm-media/site-assistant/backend/pkg/utils"
)

const (
	MessageSuccess = "Submission successful"
	MessageFailure = "Error submitting the form"
	MessageLimited = "Too many submissions, please try again later"

	maxBodyBytes = 64 << 10
)

// Submitter is satisfied by the in-process relay service.
type Submitter interface {
	Submit(ctx context.Context, p submission.Payload) error
}

// Handler is the public submit endpoint.
type Handler struct {
	relay Submitter
	opts  submission.DecodeOptions
	log   logrus.FieldLogger
	limit func(http.Handler) http.Handler
}

// New builds the handler. limit may be nil to disable rate limiting.
func New(relay Submitter, opts submission.DecodeOptions, limit func(http.Handler) http.Handler, log logrus.FieldLogger) *Handler {
	return &Handler{relay: relay, opts: opts, limit: limit, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.limit != nil {
			r.Use(h.limit)
		}
		r.Post("/submit-business-offer", h.handleSubmit)
	})
}

// handleSubmit answers every failure with the same generic body; the cause
// only reaches the log.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	entry := h.log.WithField("request_id", chimw.GetReqID(r.Context()))

	payload, err := submission.Decode(body, h.opts)
	if err != nil {
		entry.WithError(err).Warn("rejected submission")
		utils.RespondJSON(w, http.StatusInternalServerError, relaysvc.Response{Message: MessageFailure})
		return
	}

	ctx := relaysvc.WithRequestID(r.Context(), chimw.GetReqID(r.Context()))
	if err := h.relay.Submit(ctx, payload); err != nil {
		entry.WithError(err).WithField("form_type", payload.FormType).Error("error submitting form")
		utils.RespondJSON(w, http.StatusInternalServerError, relaysvc.Response{Message: MessageFailure})
		return
	}

	utils.RespondJSON(w, http.StatusOK, relaysvc.Response{Message: MessageSuccess})
}
