package conversation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	convmodel "github.com/optm-media/site-assistant/backend/internal/model/conversation"
	convservice "github.com/optm-media/site-assistant/backend/internal/service/conversation"
	"github.com/optm-media/site-assistant/backend/internal/service/typing"
	"github.com/optm-media/site-assistant/backend/pkg/utils"
)

// Handler exposes the conversation controller over REST and a websocket.
type Handler struct {
	svc      *convservice.Service
	player   *typing.Player
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

// New creates the conversation handler. The player paces websocket turns;
// REST turns are returned whole with their delays for the client to honour.
func New(svc *convservice.Service, player *typing.Player, log logrus.FieldLogger) *Handler {
	return &Handler{
		svc:    svc,
		player: player,
		log:    log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the conversation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleSnapshot)
			r.Post("/text", h.handleText)
			r.Post("/option", h.handleOption)
			r.Put("/form", h.handleField)
			r.Post("/change-option", h.handleChangeOption)
			r.Post("/submit", h.handleSubmit)
			r.Post("/new-chat", h.handleNewChat)
			r.Get("/ws", h.handleWebSocket)
		})
	})
}

type createRequest struct {
	ScriptID string `json:"scriptId"`
}

type textRequest struct {
	Text string `json:"text"`
}

type optionRequest struct {
	Option string `json:"option"`
}

type fieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.svc.CreateSession(r.Context(), req.ScriptID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, snap)
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decode(w, r, &req) {
		return
	}
	turn, err := h.svc.SendText(r.Context(), chi.URLParam(r, "sessionID"), req.Text)
	h.respondTurn(w, r, turn, err)
}

func (h *Handler) handleOption(w http.ResponseWriter, r *http.Request) {
	var req optionRequest
	if !decode(w, r, &req) {
		return
	}
	turn, err := h.svc.SelectOption(r.Context(), chi.URLParam(r, "sessionID"), req.Option)
	h.respondTurn(w, r, turn, err)
}

func (h *Handler) handleField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := h.svc.UpdateField(r.Context(), chi.URLParam(r, "sessionID"), convmodel.Field(req.Field), req.Value)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, view)
}

func (h *Handler) handleChangeOption(w http.ResponseWriter, r *http.Request) {
	turn, err := h.svc.ChangeOption(r.Context(), chi.URLParam(r, "sessionID"))
	h.respondTurn(w, r, turn, err)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	turn, err := h.svc.Submit(r.Context(), chi.URLParam(r, "sessionID"))
	h.respondTurn(w, r, turn, err)
}

func (h *Handler) handleNewChat(w http.ResponseWriter, r *http.Request) {
	turn, err := h.svc.NewChat(r.Context(), chi.URLParam(r, "sessionID"))
	h.respondTurn(w, r, turn, err)
}

func (h *Handler) respondTurn(w http.ResponseWriter, r *http.Request, turn convservice.Turn, err error) {
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turn)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", r.URL.Path).Error("conversation request failed")
		utils.RespondError(w, status, "internal error")
		return
	}
	utils.RespondError(w, status, err.Error())
}

// StatusFor maps controller errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, convservice.ErrSessionNotFound), errors.Is(err, convservice.ErrScriptNotFound):
		return http.StatusNotFound
	case errors.Is(err, convservice.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, convservice.ErrEmptyText),
		errors.Is(err, convservice.ErrUnknownOption),
		errors.Is(err, convservice.ErrFieldNotInForm),
		errors.Is(err, convservice.ErrIncompleteForm):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
