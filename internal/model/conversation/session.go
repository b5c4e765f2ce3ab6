package conversation

import "time"

// Session captures one anonymous widget conversation.
type Session struct {
	ID        string    `json:"id"`
	ScriptID  string    `json:"scriptId"`
	State     State     `json:"state"`
	Form      FormData  `json:"form"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
