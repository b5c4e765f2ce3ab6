// Package typing plays bot replies with a character-by-character reveal.
package typing

import (
	"context"
	"time"

	"github.com/optm-media/site-assistant/backend/internal/model/conversation"
	convservice "github.com/optm-media/site-assistant/backend/internal/service/conversation"
)

// DefaultInterval is the pause between two revealed characters.
const DefaultInterval = 25 * time.Millisecond

// Reveal calls emit with every prefix of text, one rune longer each tick,
// starting with the empty prefix. A non-positive interval emits the empty
// prefix and the full text only. The reveal stops early when ctx is done.
func Reveal(ctx context.Context, text string, interval time.Duration, emit func(partial string) error) error {
	if err := emit(""); err != nil {
		return err
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if interval <= 0 {
		return emit(text)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 1; i <= len(runes); i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := emit(string(runes[:i])); err != nil {
			return err
		}
	}
	return nil
}

// EventType names what a played event carries.
type EventType string

const (
	EventMessage EventType = "message"
	EventTyping  EventType = "typing"
	EventView    EventType = "view"
)

// Event is one frame of a played turn.
type Event struct {
	Type    EventType
	Message conversation.Message
	View    conversation.View
}

// Player turns a controller Turn into timed frames.
type Player struct {
	interval time.Duration
	scale    float64
}

// NewPlayer returns a Player revealing one character per interval. Reply
// delays are multiplied by delayScale; 0 skips them.
func NewPlayer(interval time.Duration, delayScale float64) *Player {
	return &Player{interval: interval, scale: delayScale}
}

// Play emits the user message, then every reply after its delay as an
// in-progress entry growing to the final message, then the view.
func (p *Player) Play(ctx context.Context, turn convservice.Turn, emit func(Event) error) error {
	if turn.User != nil {
		if err := emit(Event{Type: EventMessage, Message: *turn.User}); err != nil {
			return err
		}
	}

	for _, reply := range turn.Replies {
		if err := p.wait(ctx, reply.Delay); err != nil {
			return err
		}
		final := reply.Message
		err := Reveal(ctx, final.Text, p.interval, func(partial string) error {
			frame := final
			frame.Text = partial
			frame.IsTyping = true
			return emit(Event{Type: EventTyping, Message: frame})
		})
		if err != nil {
			return err
		}
		if err := emit(Event{Type: EventMessage, Message: final}); err != nil {
			return err
		}
	}

	return emit(Event{Type: EventView, View: turn.View})
}

func (p *Player) wait(ctx context.Context, d time.Duration) error {
	d = time.Duration(float64(d) * p.scale)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
