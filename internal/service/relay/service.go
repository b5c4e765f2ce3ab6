// Package relay turns widget submissions into emails for the company inbox.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/optm-media/site-assistant/backend/internal/model/submission"
	"github.com/optm-media/site-assistant/backend/internal/service/events"
	mailsvc "github.com/optm-media/site-assistant/backend/internal/service/mail"
)

// Config addresses outgoing mail.
type Config struct {
	From string
	To   string
}

// Service relays one payload per call. It holds no per-request state.
type Service struct {
	cfg       Config
	sender    mailsvc.Sender
	publisher events.Publisher
	log       logrus.FieldLogger
}

// NewService wires a relay. A nil publisher disables events.
func NewService(cfg Config, sender mailsvc.Sender, publisher events.Publisher, log logrus.FieldLogger) (*Service, error) {
	if sender == nil {
		return nil, errors.New("mail sender is required")
	}
	if cfg.From == "" {
		return nil, errors.New("sender address is required")
	}
	if cfg.To == "" {
		cfg.To = cfg.From
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{cfg: cfg, sender: sender, publisher: publisher, log: log}, nil
}

// Submit validates p, mails it and announces the delivery. Delivery is
// attempted once.
func (s *Service) Submit(ctx context.Context, p submission.Payload) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	subject, html, err := Compose(p)
	if err != nil {
		return err
	}

	msg := mailsvc.Message{
		From:    s.cfg.From,
		To:      s.cfg.To,
		Subject: subject,
		HTML:    html,
	}
	if _, err := mail.ParseAddress(p.Email); err == nil {
		msg.ReplyTo = p.Email
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("deliver %s submission: %w", p.FormType, err)
	}

	s.log.WithFields(logrus.Fields{
		"form_type": p.FormType,
		"inferred":  p.Inferred,
		"subject":   subject,
	}).Info("submission relayed")

	s.announce(ctx, p, subject)
	return nil
}

func (s *Service) announce(ctx context.Context, p submission.Payload, subject string) {
	env := events.NewEnvelope(events.TypeSubmissionReceived, events.SubmissionReceived{
		FormType:    string(p.FormType),
		HasEmail:    p.Email != "",
		Inferred:    p.Inferred,
		Subject:     subject,
		DeliveredAt: time.Now().UTC(),
	}, requestID(ctx))

	key := "submission.received." + string(p.FormType)
	if err := s.publisher.Publish(ctx, key, env); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("publish submission event")
	}
}

type ctxKey struct{}

// WithRequestID tags ctx so published events correlate with the request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
