// Package chat defines the transcript data model shared by the response
// pipeline, the sync store, and the terminal front end.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Attachment is a binary file inlined into a user turn. The payload is
// base64 text and never mutated after construction; size is bounded only by
// what the remote API accepts.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
	Caption  string `json:"caption,omitempty"`
}

// GroundingChunk is a web citation returned alongside generated text when
// search grounding was enabled for the request.
type GroundingChunk struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Message is one transcript entry. A thought entry records the first-stage
// raw generation and is always immediately followed by its paired final
// entry for the same turn; the two are never merged.
type Message struct {
	ID          string           `json:"id"`
	Role        Role             `json:"role"`
	Content     string           `json:"content"`
	Timestamp   int64            `json:"timestamp"`
	IsThinking  bool             `json:"isThinking,omitempty"`
	Attachments []Attachment     `json:"attachments,omitempty"`
	Grounding   []GroundingChunk `json:"groundingChunks,omitempty"`
	AudioData   string           `json:"audioData,omitempty"`
}

// NewUserMessage builds a user turn carrying the composer text and any
// attached files.
func NewUserMessage(content string, attachments []Attachment) Message {
	return Message{
		ID:          uuid.NewString(),
		Role:        RoleUser,
		Content:     content,
		Timestamp:   time.Now().UnixMilli(),
		Attachments: append([]Attachment(nil), attachments...),
	}
}

// NewThoughtMessage builds the internal first-stage entry for a model turn.
func NewThoughtMessage(content string) Message {
	return Message{
		ID:         uuid.NewString(),
		Role:       RoleModel,
		Content:    content,
		Timestamp:  time.Now().UnixMilli(),
		IsThinking: true,
	}
}

// NewModelMessage builds the user-visible final entry for a model turn.
func NewModelMessage(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleModel,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
}

// FilterHistory drops thought entries so they are never replayed as model
// call history. The returned slice preserves order and shares no backing
// array with the input.
func FilterHistory(messages []Message) []Message {
	history := make([]Message, 0, len(messages))
	for _, message := range messages {
		if message.IsThinking {
			continue
		}
		history = append(history, message)
	}
	return history
}
