package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/optm-media/site-assistant/backend/internal/model/conversation"
	"github.com/optm-media/site-assistant/backend/internal/model/script"
	"github.com/optm-media/site-assistant/backend/internal/model/submission"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrScriptNotFound    = errors.New("script not found")
	ErrInvalidTransition = errors.New("event not allowed in current state")
	ErrEmptyText         = errors.New("text is required")
	ErrUnknownOption     = errors.New("unknown option")
	ErrIncompleteForm    = errors.New("form is incomplete")
	ErrFieldNotInForm    = conversation.ErrFieldNotInForm
)

// Submitter hands a finished form to the relay.
type Submitter interface {
	Submit(ctx context.Context, p submission.Payload) error
}

// Config tunes the scripted dialogue.
type Config struct {
	DefaultScriptID string
	// ReplyDelay is the pause before the bot answers a user action.
	ReplyDelay time.Duration
	// FollowUpDelay separates the confirmation from the restart offer.
	FollowUpDelay time.Duration
}

// Reply is one bot utterance of a turn.
type Reply struct {
	Message conversation.Message `json:"message"`
	Delay   time.Duration        `json:"-"`
	DelayMS int64                `json:"delayMs"`
}

// Turn is everything one user event produced.
type Turn struct {
	SessionID string                `json:"sessionId"`
	User      *conversation.Message `json:"user,omitempty"`
	Replies   []Reply               `json:"replies"`
	View      conversation.View     `json:"view"`
}

// Snapshot is the full client-facing state of a session.
type Snapshot struct {
	Session    conversation.Session   `json:"session"`
	Transcript []conversation.Message `json:"transcript"`
	View       conversation.View      `json:"view"`
}

type session struct {
	mu       sync.Mutex
	data     conversation.Session
	script   script.Script
	messages []conversation.Message
}

// Service runs one scripted dialogue per session.
type Service struct {
	mu        sync.RWMutex
	sessions  map[string]*session
	scripts   script.Store
	submitter Submitter
	cfg       Config
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewService bootstraps the in-memory controller.
func NewService(cfg Config, scripts script.Store, submitter Submitter, log logrus.FieldLogger) *Service {
	if cfg.DefaultScriptID == "" {
		cfg.DefaultScriptID = script.DefaultID
	}
	return &Service{
		sessions:  make(map[string]*session),
		scripts:   scripts,
		submitter: submitter,
		cfg:       cfg,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession opens a conversation in the greeting state. The welcome
// line is part of the transcript from the start.
func (s *Service) CreateSession(_ context.Context, scriptID string) (Snapshot, error) {
	if scriptID == "" {
		scriptID = s.cfg.DefaultScriptID
	}
	sc, ok := s.scripts.FindByID(scriptID)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrScriptNotFound, scriptID)
	}

	now := s.now()
	sess := &session{
		data: conversation.Session{
			ID:        uuid.NewString(),
			ScriptID:  sc.ID,
			State:     conversation.StateGreeting,
			CreatedAt: now,
			UpdatedAt: now,
		},
		script:   sc,
		messages: make([]conversation.Message, 0, 16),
	}
	sess.say(now, conversation.SenderBot, sc.Welcome)

	s.mu.Lock()
	s.sessions[sess.data.ID] = sess
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"session_id": sess.data.ID, "script_id": sc.ID}).Debug("conversation started")
	return sess.snapshot(), nil
}

// Snapshot returns the current state of a session.
func (s *Service) Snapshot(_ context.Context, sessionID string) (Snapshot, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// SendText handles free text typed in the message box.
func (s *Service) SendText(ctx context.Context, sessionID, text string) (Turn, error) {
	text = strings.TrimSpace(text)
	return s.apply(ctx, sessionID, func(sess *session, now time.Time) (Turn, error) {
		if err := sess.expect(conversation.StateGreeting, conversation.StateOptionMenu); err != nil {
			return Turn{}, err
		}
		if text == "" {
			return Turn{}, ErrEmptyText
		}

		turn := Turn{User: sess.say(now, conversation.SenderUser, text)}
		turn.Replies = append(turn.Replies, sess.reply(now, sess.script.Menu, s.cfg.ReplyDelay))
		sess.data.State = conversation.StateOptionMenu
		return turn, nil
	})
}

// SelectOption opens the form behind a menu entry.
func (s *Service) SelectOption(ctx context.Context, sessionID, label string) (Turn, error) {
	return s.apply(ctx, sessionID, func(sess *session, now time.Time) (Turn, error) {
		if err := sess.expect(conversation.StateOptionMenu); err != nil {
			return Turn{}, err
		}
		opt, ok := sess.script.FindOption(label)
		if !ok {
			return Turn{}, fmt.Errorf("%w: %q", ErrUnknownOption, label)
		}

		turn := Turn{User: sess.say(now, conversation.SenderUser, opt.Label)}
		sess.data.Form.Reset()
		sess.data.Form.FormType = opt.FormType
		sess.data.State = conversation.StateForForm(opt.FormType)
		turn.Replies = append(turn.Replies, sess.reply(now, opt.Prompt, s.cfg.ReplyDelay))
		return turn, nil
	})
}

// UpdateField records one input of the active form.
func (s *Service) UpdateField(ctx context.Context, sessionID string, field conversation.Field, value string) (conversation.View, error) {
	turn, err := s.apply(ctx, sessionID, func(sess *session, _ time.Time) (Turn, error) {
		if !sess.data.State.IsForm() {
			return Turn{}, sess.invalid()
		}
		return Turn{}, sess.data.Form.Set(field, value)
	})
	return turn.View, err
}

// ChangeOption abandons the current form and returns to the menu.
func (s *Service) ChangeOption(ctx context.Context, sessionID string) (Turn, error) {
	return s.apply(ctx, sessionID, func(sess *session, now time.Time) (Turn, error) {
		if !sess.data.State.IsForm() {
			return Turn{}, sess.invalid()
		}

		turn := Turn{User: sess.say(now, conversation.SenderUser, sess.script.Change)}
		sess.data.Form.Reset()
		sess.data.State = conversation.StateOptionMenu
		turn.Replies = append(turn.Replies, sess.reply(now, sess.script.Changed, s.cfg.ReplyDelay))
		return turn, nil
	})
}

// NewChat restarts the dialogue after a confirmation. The greeting is
// replayed and the menu offered right away.
func (s *Service) NewChat(ctx context.Context, sessionID string) (Turn, error) {
	return s.apply(ctx, sessionID, func(sess *session, now time.Time) (Turn, error) {
		if err := sess.expect(conversation.StateConfirmation); err != nil {
			return Turn{}, err
		}

		turn := Turn{User: sess.say(now, conversation.SenderUser, sess.script.NewChat)}
		sess.data.State = conversation.StateGreeting
		turn.Replies = append(turn.Replies, sess.reply(now, sess.script.Menu, s.cfg.ReplyDelay))
		sess.data.State = conversation.StateOptionMenu
		return turn, nil
	})
}

// Submit relays the active form. The session reads as submitting while the
// relay call runs, so concurrent events are rejected. A relay failure is
// not an error for the caller: it becomes the scripted failure reply.
func (s *Service) Submit(ctx context.Context, sessionID string) (Turn, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return Turn{}, err
	}

	sess.mu.Lock()
	if !sess.data.State.IsForm() {
		err := sess.invalid()
		sess.mu.Unlock()
		return Turn{}, err
	}
	if missing := sess.data.Form.Missing(); len(missing) > 0 {
		sess.mu.Unlock()
		names := lo.Map(missing, func(f conversation.Field, _ int) string { return string(f) })
		return Turn{}, fmt.Errorf("%w: missing %s", ErrIncompleteForm, strings.Join(names, ", "))
	}
	payload := sess.data.Form.Payload()
	if err := payload.Validate(); err != nil {
		sess.mu.Unlock()
		return Turn{}, fmt.Errorf("%w: %v", ErrIncompleteForm, err)
	}
	sess.data.State = conversation.StateSubmitting
	sess.data.UpdatedAt = s.now()
	sess.mu.Unlock()

	submitErr := s.submitter.Submit(ctx, payload)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	now := s.now()
	turn := Turn{SessionID: sessionID}
	entry := s.log.WithFields(logrus.Fields{"session_id": sessionID, "form_type": payload.FormType})
	if submitErr != nil {
		entry.WithError(submitErr).Warn("submission failed")
		turn.Replies = append(turn.Replies, sess.reply(now, sess.script.Failure, 0))
	} else {
		entry.Info("submission relayed")
		sess.data.Form.Reset()
		turn.Replies = append(turn.Replies,
			sess.reply(now, sess.script.Thanks, 0),
			sess.reply(now, sess.script.Restart, s.cfg.FollowUpDelay),
		)
	}
	sess.data.State = conversation.StateConfirmation
	sess.data.UpdatedAt = now
	turn.View = sess.view()
	return turn, nil
}

// Prune drops sessions idle for longer than ttl and returns how many were
// removed. Sessions with a submission in flight are kept.
func (s *Service) Prune(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		stale := sess.data.UpdatedAt.Before(cutoff) && sess.data.State != conversation.StateSubmitting
		sess.mu.Unlock()
		if stale {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor prunes idle sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Prune(ttl); n > 0 {
				s.log.WithField("removed", n).Info("pruned idle conversations")
			}
		}
	}
}

func (s *Service) lookup(sessionID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// apply runs fn under the session lock and attaches the resulting view.
func (s *Service) apply(_ context.Context, sessionID string, fn func(*session, time.Time) (Turn, error)) (Turn, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return Turn{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	now := s.now()
	turn, err := fn(sess, now)
	if err != nil {
		return Turn{}, err
	}
	sess.data.UpdatedAt = now
	turn.SessionID = sessionID
	turn.View = sess.view()
	return turn, nil
}

func (sess *session) say(now time.Time, sender conversation.Sender, text string) *conversation.Message {
	msg := conversation.Message{
		ID:        uuid.NewString(),
		SessionID: sess.data.ID,
		Text:      text,
		Sender:    sender,
		CreatedAt: now,
	}
	sess.messages = append(sess.messages, msg)
	return &msg
}

func (sess *session) reply(now time.Time, text string, delay time.Duration) Reply {
	msg := sess.say(now, conversation.SenderBot, text)
	return Reply{Message: *msg, Delay: delay, DelayMS: delay.Milliseconds()}
}

func (sess *session) expect(states ...conversation.State) error {
	if lo.Contains(states, sess.data.State) {
		return nil
	}
	return sess.invalid()
}

func (sess *session) invalid() error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, sess.data.State)
}

func (sess *session) view() conversation.View {
	return conversation.NewView(sess.data.State, sess.data.Form, sess.script.Labels())
}

func (sess *session) snapshot() Snapshot {
	return Snapshot{
		Session:    sess.data,
		Transcript: append([]conversation.Message(nil), sess.messages...),
		View:       sess.view(),
	}
}
