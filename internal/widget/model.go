// Package widget is a terminal rendition of the site chat widget.
package widget

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	wsapi "github.com/optm-media/site-assistant/backend/internal/handler/conversation"
	"github.com/optm-media/site-assistant/backend/internal/model/conversation"
	convservice "github.com/optm-media/site-assistant/backend/internal/service/conversation"
)

// Sender delivers widget events to the server.
type Sender interface {
	Send(kind string, data any) error
}

type keyMap struct {
	Up           key.Binding
	Down         key.Binding
	Enter        key.Binding
	NextField    key.Binding
	Submit       key.Binding
	ChangeOption key.Binding
	NewChat      key.Binding
	Theme        key.Binding
	Quit         key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:           key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous option")),
		Down:         key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next option")),
		Enter:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send / choose")),
		NextField:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Submit:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit form")),
		ChangeOption: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "change option")),
		NewChat:      key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
		Theme:        key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "toggle theme")),
		Quit:         key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

// FrameMsg carries one server frame into the update loop.
type FrameMsg struct{ Frame wsapi.Outbound }

// ClosedMsg reports the end of the frame stream.
type ClosedMsg struct{ Err error }

type sentMsg struct{ err error }

// Model is the bubbletea model of the chat window.
type Model struct {
	title      string
	sender     Sender
	frames     <-chan wsapi.Outbound
	transcript *conversation.Transcript
	view       conversation.View
	form       map[conversation.Field]string
	field      int
	cursor     int
	input      textinput.Model
	keys       keyMap
	theme      Theme
	dark       bool
	err        string
	closed     bool
	width      int
}

// New builds the model. frames may be nil when the caller feeds FrameMsg
// values itself.
func New(title string, sender Sender, frames <-chan wsapi.Outbound, dark bool) Model {
	in := textinput.New()
	in.Placeholder = "Type your message..."
	in.CharLimit = 5000
	in.Focus()

	return Model{
		title:      title,
		sender:     sender,
		frames:     frames,
		transcript: conversation.NewTranscript(nil),
		form:       make(map[conversation.Field]string),
		input:      in,
		keys:       newKeyMap(),
		theme:      newTheme(dark),
		dark:       dark,
		width:      72,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listen(m.frames))
}

func listen(frames <-chan wsapi.Outbound) tea.Cmd {
	if frames == nil {
		return nil
	}
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return ClosedMsg{}
		}
		return FrameMsg{Frame: f}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case FrameMsg:
		m.apply(msg.Frame)
		return m, listen(m.frames)

	case ClosedMsg:
		m.closed = true
		if msg.Err != nil {
			m.err = msg.Err.Error()
		}
		return m, nil

	case sentMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Theme):
		m.dark = !m.dark
		m.theme = newTheme(m.dark)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.view.ShowOptions && m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.view.ShowOptions && m.cursor < len(m.view.Options)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.ChangeOption):
		if !m.view.ShowChangeOption {
			return m, nil
		}
		return m, m.send(wsapi.InChangeOption, nil)

	case key.Matches(msg, m.keys.NewChat):
		if !m.view.ShowNewChat {
			return m, nil
		}
		return m, m.send(wsapi.InNewChat, nil)

	case key.Matches(msg, m.keys.Submit):
		if m.view.ActiveForm == "" || m.view.Submitting {
			return m, nil
		}
		return m, tea.Sequence(m.storeField(), m.send(wsapi.InSubmit, nil))

	case key.Matches(msg, m.keys.NextField):
		if len(m.view.Fields) == 0 {
			return m, nil
		}
		cmd := m.storeField()
		m.focusField((m.field + 1) % len(m.view.Fields))
		return m, cmd

	case key.Matches(msg, m.keys.Enter):
		return m.handleEnter()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	if m.transcript.Typing() || m.view.Submitting {
		return m, nil
	}

	if len(m.view.Fields) > 0 {
		cmd := m.storeField()
		if m.field == len(m.view.Fields)-1 {
			return m, tea.Sequence(cmd, m.send(wsapi.InSubmit, nil))
		}
		m.focusField(m.field + 1)
		return m, cmd
	}

	text := strings.TrimSpace(m.input.Value())
	if text != "" && m.view.InputEnabled {
		m.input.Reset()
		return m, m.send(wsapi.InText, wsapi.TextData{Text: text})
	}
	if m.view.ShowOptions && m.cursor < len(m.view.Options) {
		return m, m.send(wsapi.InOption, wsapi.OptionData{Option: m.view.Options[m.cursor]})
	}
	return m, nil
}

// storeField pushes the input value of the focused field.
func (m *Model) storeField() tea.Cmd {
	if m.field >= len(m.view.Fields) {
		return nil
	}
	f := m.view.Fields[m.field]
	value := m.input.Value()
	if m.form[f] == value {
		return nil
	}
	m.form[f] = value
	return m.send(wsapi.InField, wsapi.FieldData{Field: string(f), Value: value})
}

func (m *Model) focusField(i int) {
	m.field = i
	f := m.view.Fields[i]
	m.input.SetValue(m.form[f])
	m.input.Placeholder = fieldLabel(f)
	m.input.CursorEnd()
}

func (m Model) send(kind string, data any) tea.Cmd {
	s := m.sender
	return func() tea.Msg {
		return sentMsg{err: s.Send(kind, data)}
	}
}

// apply folds one server frame into the model.
func (m *Model) apply(f wsapi.Outbound) {
	switch f.Type {
	case wsapi.OutSnapshot:
		var snap convservice.Snapshot
		if err := json.Unmarshal(f.Data, &snap); err != nil {
			m.err = err.Error()
			return
		}
		m.transcript = conversation.NewTranscript(snap.Transcript)
		m.setView(snap.View)
	case wsapi.OutMessage, wsapi.OutTyping:
		var msg conversation.Message
		if err := json.Unmarshal(f.Data, &msg); err != nil {
			m.err = err.Error()
			return
		}
		m.transcript.Upsert(msg)
	case wsapi.OutView:
		var v conversation.View
		if err := json.Unmarshal(f.Data, &v); err != nil {
			m.err = err.Error()
			return
		}
		m.err = ""
		m.setView(v)
	case wsapi.OutError:
		var e wsapi.ErrorData
		if err := json.Unmarshal(f.Data, &e); err != nil {
			m.err = err.Error()
			return
		}
		m.err = e.Message
	}
}

func (m *Model) setView(v conversation.View) {
	formChanged := v.ActiveForm != m.view.ActiveForm || v.State != m.view.State
	m.view = v
	if m.cursor >= len(v.Options) {
		m.cursor = 0
	}

	switch {
	case len(v.Fields) == 0:
		m.form = make(map[conversation.Field]string)
		m.field = 0
		m.input.Placeholder = "Type your message..."
		if formChanged {
			m.input.Reset()
		}
	case formChanged:
		m.form = make(map[conversation.Field]string)
		m.input.Reset()
		m.focusField(0)
	}
}

func fieldLabel(f conversation.Field) string {
	switch f {
	case conversation.FieldEmail:
		return "Email"
	case conversation.FieldBusinessName:
		return "Business Name"
	case conversation.FieldBusinessOffer:
		return "Business Offer"
	case conversation.FieldFeedback:
		return "Feedback"
	case conversation.FieldJobRole:
		return "Role"
	case conversation.FieldJobInterest:
		return "Why are you interested?"
	default:
		return string(f)
	}
}

func (m Model) View() string {
	t := m.theme
	var b strings.Builder

	b.WriteString(t.Title.Render(m.title))
	b.WriteString("\n\n")

	for _, msg := range m.transcript.Messages() {
		switch {
		case msg.Sender == conversation.SenderUser:
			b.WriteString(t.User.Render("You: " + msg.Text))
		case msg.IsTyping:
			b.WriteString(t.Typing.Render("Bot: " + msg.Text + "▍"))
		default:
			b.WriteString(t.Bot.Render("Bot: " + msg.Text))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.view.ShowOptions {
		for i, opt := range m.view.Options {
			if i == m.cursor {
				b.WriteString(t.Selected.Render("> " + opt))
			} else {
				b.WriteString(t.Option.Render("  " + opt))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(m.view.Fields) > 0 {
		var form strings.Builder
		for i, f := range m.view.Fields {
			marker := "  "
			if i == m.field {
				marker = "> "
			}
			form.WriteString(t.Field.Render(fmt.Sprintf("%s%s: %s", marker, fieldLabel(f), m.form[f])))
			if i < len(m.view.Fields)-1 {
				form.WriteString("\n")
			}
		}
		b.WriteString(t.Box.Render(form.String()))
		b.WriteString("\n")
	}

	if m.view.Submitting {
		b.WriteString(t.Typing.Render("Submitting..."))
		b.WriteString("\n")
	}
	if m.view.ShowNewChat {
		b.WriteString(t.Option.Render("Press ctrl+n to start a new chat"))
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString(t.Error.Render(m.err))
		b.WriteString("\n")
	}
	if m.closed {
		b.WriteString(t.Error.Render("connection closed"))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(t.Help.Render(m.helpLine()))
	return b.String()
}

func (m Model) helpLine() string {
	bindings := []key.Binding{m.keys.Enter}
	if m.view.ShowOptions {
		bindings = append(bindings, m.keys.Up, m.keys.Down)
	}
	if len(m.view.Fields) > 0 {
		bindings = append(bindings, m.keys.NextField, m.keys.Submit)
	}
	if m.view.ShowChangeOption {
		bindings = append(bindings, m.keys.ChangeOption)
	}
	if m.view.ShowNewChat {
		bindings = append(bindings, m.keys.NewChat)
	}
	bindings = append(bindings, m.keys.Theme, m.keys.Quit)

	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ") + fmt.Sprintf(" • theme: %s", m.theme.Name)
}
