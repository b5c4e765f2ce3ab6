package conversation

// Transcript is the ordered message list a widget renders. A bot entry that
// is still being revealed stays replaceable until its final frame arrives;
// every other entry is immutable once appended.
type Transcript struct {
	messages []Message
}

// NewTranscript seeds a transcript, e.g. from a server snapshot.
func NewTranscript(messages []Message) *Transcript {
	return &Transcript{messages: append([]Message(nil), messages...)}
}

// Append adds a message to the end.
func (t *Transcript) Append(m Message) {
	t.messages = append(t.messages, m)
}

// Upsert replaces the trailing in-progress entry carrying the same id, or
// appends m when there is none.
func (t *Transcript) Upsert(m Message) {
	if n := len(t.messages); n > 0 {
		last := t.messages[n-1]
		if last.IsTyping && last.ID == m.ID {
			t.messages[n-1] = m
			return
		}
	}
	t.Append(m)
}

// Typing reports whether the last entry is still being revealed.
func (t *Transcript) Typing() bool {
	n := len(t.messages)
	return n > 0 && t.messages[n-1].IsTyping
}

// Len returns the number of entries.
func (t *Transcript) Len() int { return len(t.messages) }

// Messages returns a copy of the entries.
func (t *Transcript) Messages() []Message {
	return append([]Message(nil), t.messages...)
}
