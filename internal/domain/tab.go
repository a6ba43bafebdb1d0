package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// Message is one turn of a tab's conversation. Image and PDF hold base64
// payloads (optionally as data URLs) attached by the student.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
	PDF     string `json:"pdf,omitempty"`
	TabID   string `json:"tabId"`
}

func (m Message) HasAttachment() bool {
	return m.Image != "" || m.PDF != ""
}

// Attachments are pre-encoded payloads sent along with a user message.
type Attachments struct {
	Image string
	PDF   string
}

func (a *Attachments) Empty() bool {
	return a == nil || (a.Image == "" && a.PDF == "")
}

// Tab is one independent tutoring conversation.
type Tab struct {
	ID              string         `json:"id"`
	Title           string         `json:"name"`
	EducationLevel  EducationLevel `json:"educationLevel"`
	Subject         string         `json:"subject"`
	Messages        []Message      `json:"messages"`
	Model           string         `json:"model"`
	LastUpdated     time.Time      `json:"lastUpdated"`
	UploadedContent string         `json:"uploadedContent,omitempty"`
}

// DefaultTitle is the display name a tab gets when created.
func DefaultTitle(level EducationLevel, subject string) string {
	return strings.TrimSpace(string(level) + " " + subject)
}

// Clone returns a copy that shares no mutable state with t.
func (t Tab) Clone() Tab {
	c := t
	c.Messages = make([]Message, len(t.Messages))
	copy(c.Messages, t.Messages)
	return c
}

// Visible returns the messages that belong to this tab and are meant to be
// shown, in send order.
func (t Tab) Visible() []Message {
	out := make([]Message, 0, len(t.Messages))
	for _, m := range t.Messages {
		if m.Role == RoleSystem || m.TabID != t.ID {
			continue
		}
		out = append(out, m)
	}
	return out
}

// LastVisible returns the newest visible message, if any.
func (t Tab) LastVisible() (Message, bool) {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		m := t.Messages[i]
		if m.Role != RoleSystem && m.TabID == t.ID {
			return m, true
		}
	}
	return Message{}, false
}
