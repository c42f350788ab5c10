package chat

import "time"

// Role tells who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Attachment is the image shown alongside a user message
type Attachment struct {
	MediaType string
	Name      string
	Data      []byte
}

// Message is one immutable entry of the conversation log
type Message struct {
	ID         string
	Content    string
	Role       Role
	CreatedAt  time.Time
	Attachment *Attachment
	// Failed marks an assistant message that carries failure text
	Failed bool
}

// IsUser reports whether the user authored the message
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}
