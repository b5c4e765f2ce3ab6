package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/optm-media/site-assistant/backend/internal/handler/conversation"
	"github.com/optm-media/site-assistant/backend/internal/handler/relay"
	scriptHandler "github.com/optm-media/site-assistant/backend/internal/handler/script"
	middlewarePkg "github.com/optm-media/site-assistant/backend/internal/middleware"
	"github.com/optm-media/site-assistant/backend/internal/model/script"
	"github.com/optm-media/site-assistant/backend/internal/model/submission"
	convService "github.com/optm-media/site-assistant/backend/internal/service/conversation"
	relayService "github.com/optm-media/site-assistant/backend/internal/service/relay"
	"github.com/optm-media/site-assistant/backend/internal/service/typing"
	"github.com/optm-media/site-assistant/backend/pkg/utils"
)

// Deps carries everything the router wires to routes.
type Deps struct {
	Scripts        script.Store
	Conversations  *convService.Service
	Player         *typing.Player
	Relay          relay.Submitter
	Decode         submission.DecodeOptions
	SubmitLimiter  *middlewarePkg.IPRateLimiter
	AllowedOrigins []string
	Log            logrus.FieldLogger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(d.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var limit func(http.Handler) http.Handler
	if d.SubmitLimiter != nil {
		limit = d.SubmitLimiter.Middleware(relayService.Response{Message: relay.MessageLimited})
	}

	r.Route("/api", func(api chi.Router) {
		scriptHandler.New(d.Scripts).RegisterRoutes(api)

		if d.Conversations != nil {
			conversation.New(d.Conversations, d.Player, d.Log).RegisterRoutes(api)
		}

		// The relay endpoint keeps the path older widget builds post to.
		if d.Relay != nil {
			relay.New(d.Relay, d.Decode, limit, d.Log).RegisterRoutes(api)
		}
	})

	return r
}
