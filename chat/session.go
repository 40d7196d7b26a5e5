// Package chat keeps the in-memory sessions behind the chat front-end.
// Each session is a transcript of sender-labeled, timestamped messages; the
// bot answers after a short simulated "thinking" delay.
package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SenderUser = "You"
	SenderBot  = "MedBot"

	Greeting = "👋 Hello! Describe your symptoms and I’ll suggest some medicines.\n\n" +
		"⚠️ Not a substitute for professional medical advice."

	ThinkingText = "Thinking..."
)

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrReplyPending    = errors.New("a reply is still being prepared")
	ErrTooManySessions = errors.New("too many open chat sessions")
	ErrSessionFull     = errors.New("chat session reached its message limit")
)

// Message is one entry of a transcript
type Message struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Clock returns the HH:MM stamp shown next to the sender
func (m Message) Clock() string {
	return m.Timestamp.Format("15:04")
}

// Render formats the message as a transcript block
func (m Message) Render() string {
	return fmt.Sprintf("\n%s (%s):\n%s\n", m.Sender, m.Clock(), m.Text)
}

// Session is a snapshot of one conversation
type Session struct {
	ID         uuid.UUID `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Messages   []Message `json:"messages"`
	Pending    bool      `json:"pending"`
}

// Transcript renders every message in order
func (s Session) Transcript() string {
	var b strings.Builder
	for _, m := range s.Messages {
		b.WriteString(m.Render())
	}
	return b.String()
}

// LastReply returns the most recent bot message, if any
func (s Session) LastReply() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Sender == SenderBot {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

func (s *Session) snapshot() Session {
	cp := *s
	cp.Messages = append([]Message(nil), s.Messages...)
	return cp
}
