package mail

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTPSenderRequiresCredentials(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Username: "ceo@example.com"})
	require.ErrorIs(t, err, ErrMissingCredentials)

	_, err = NewSMTPSender(SMTPConfig{Username: "u", Password: "p"})
	require.Error(t, err)

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, 587, s.cfg.Port)
}

func TestBuildMsgRejectsBadAddresses(t *testing.T) {
	_, err := buildMsg(Message{From: "not an address", To: "ceo@example.com"})
	require.Error(t, err)

	_, err = buildMsg(Message{From: "ceo@example.com", To: "ceo@example.com", ReplyTo: "@@"})
	require.Error(t, err)

	m, err := buildMsg(Message{From: "ceo@example.com", To: "ceo@example.com", ReplyTo: "ada@example.com", Subject: "Hi", HTML: "<p>x</p>"})
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestLogSenderLogsInsteadOfSending(t *testing.T) {
	logger, hook := test.NewNullLogger()

	err := NewLogSender(logger).Send(context.Background(), Message{To: "ceo@example.com", Subject: "New Feedback Submission", HTML: "<p>x</p>"})
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "New Feedback Submission", entry.Data["subject"])
}
