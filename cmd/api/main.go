package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/optm-media/site-assistant/backend/internal/config"
	"github.com/optm-media/site-assistant/backend/internal/handler"
	"github.com/optm-media/site-assistant/backend/internal/middleware"
	"github.com/optm-media/site-assistant/backend/internal/model/script"
	"github.com/optm-media/site-assistant/backend/internal/model/submission"
	"github.com/optm-media/site-assistant/backend/internal/service/conversation"
	"github.com/optm-media/site-assistant/backend/internal/service/events"
	"github.com/optm-media/site-assistant/backend/internal/service/mail"
	"github.com/optm-media/site-assistant/backend/internal/service/relay"
	"github.com/optm-media/site-assistant/backend/internal/service/typing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Warn("no .env file, using process environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := cfg.Log.NewLogger(os.Stderr)

	app, err := newApp(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to start")
	}
	defer app.Close()

	app.startBackground(ctx)
	startServer(ctx, cfg.Server, app.router, log)
}

type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	router    http.Handler
	convs     *conversation.Service
	limiter   *middleware.IPRateLimiter
	publisher events.Publisher
}

// newApp wires stores, services and routes from cfg.
func newApp(cfg *config.Config, log *logrus.Logger) (*app, error) {
	scripts := script.NewMemoryStore(script.Seed())

	publisher, err := newPublisher(cfg.Events, log)
	if err != nil {
		return nil, err
	}

	relaySvc, err := relay.NewService(relay.Config{From: mailFrom(cfg.Mail), To: cfg.Mail.Recipient}, newSender(cfg.Mail, log), publisher, log)
	if err != nil {
		publisher.Close()
		return nil, err
	}

	// The controller hands forms to a remote relay when one is configured.
	var submitter conversation.Submitter = relaySvc
	if cfg.Relay.URL != "" {
		client := relay.NewClient(cfg.Relay.URL, &http.Client{Timeout: cfg.Mail.Timeout + 5*time.Second})
		submitter = client
		log.WithField("endpoint", client.Endpoint()).Info("submitting to remote relay")
	}

	convs := conversation.NewService(conversation.Config{
		DefaultScriptID: cfg.Widget.ScriptID,
		ReplyDelay:      cfg.Widget.ReplyDelay,
		FollowUpDelay:   cfg.Widget.FollowUpDelay,
	}, scripts, submitter, log)
	if _, ok := scripts.FindByID(cfg.Widget.ScriptID); !ok {
		publisher.Close()
		return nil, errors.New("unknown WIDGET_SCRIPT_ID: " + cfg.Widget.ScriptID)
	}

	var limiter *middleware.IPRateLimiter
	if cfg.Server.SubmitRateLimit > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.Server.SubmitRateLimit, cfg.Server.SubmitRateBurst)
	}

	router := handler.NewRouter(handler.Deps{
		Scripts:        scripts,
		Conversations:  convs,
		Player:         typing.NewPlayer(cfg.Widget.TypingInterval, 1),
		Relay:          relaySvc,
		Decode:         submission.DecodeOptions{AllowLegacy: cfg.Relay.LegacyPayloads},
		SubmitLimiter:  limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Log:            log,
	})

	return &app{
		cfg:       cfg,
		log:       log,
		router:    router,
		convs:     convs,
		limiter:   limiter,
		publisher: publisher,
	}, nil
}

func (a *app) startBackground(ctx context.Context) {
	go a.convs.RunJanitor(ctx, a.cfg.Widget.SessionTTL, time.Minute)
	if a.limiter != nil {
		go a.limiter.Run(ctx, time.Minute, 10*time.Minute)
	}
}

func (a *app) Close() {
	if err := a.publisher.Close(); err != nil {
		a.log.WithError(err).Warn("close event publisher")
	}
}

func newSender(cfg config.MailConfig, log logrus.FieldLogger) mail.Sender {
	if !cfg.Enabled() {
		log.Warn("EMAIL_USER/EMAIL_PASSWORD not set, submissions will be logged instead of mailed")
		return mail.NewLogSender(log)
	}
	sender, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		log.WithError(err).Warn("smtp disabled, submissions will be logged instead of mailed")
		return mail.NewLogSender(log)
	}
	return sender
}

func mailFrom(cfg config.MailConfig) string {
	if cfg.User != "" {
		return cfg.User
	}
	return "site-assistant@localhost"
}

func newPublisher(cfg config.EventsConfig, log logrus.FieldLogger) (events.Publisher, error) {
	if !cfg.Enabled() {
		return events.Nop{}, nil
	}
	pub, err := events.NewAMQP(cfg.URL, cfg.Exchange, log)
	if err != nil {
		return nil, err
	}
	log.WithField("exchange", cfg.Exchange).Info("publishing submission events")
	return pub, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log logrus.FieldLogger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.WithField("addr", serverCfg.Addr).Info("site assistant backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.WithError(err).Fatal("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
