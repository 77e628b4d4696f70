package chat

import (
	"encoding/json"
	"testing"
)

func TestFilterHistoryDropsThoughtEntries(t *testing.T) {
	t.Parallel()

	transcript := []Message{
		NewUserMessage("hello", nil),
		NewThoughtMessage("internal draft"),
		NewModelMessage("polished answer"),
		NewUserMessage("follow up", nil),
	}

	history := FilterHistory(transcript)
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}
	for _, message := range history {
		if message.IsThinking {
			t.Fatalf("thought entry leaked into history: %+v", message)
		}
	}
	if history[0].Content != "hello" || history[1].Content != "polished answer" {
		t.Fatalf("history order disturbed: %#v", history)
	}
}

func TestFilterHistoryDoesNotAliasInput(t *testing.T) {
	t.Parallel()

	transcript := []Message{NewUserMessage("one", nil), NewModelMessage("two")}
	history := FilterHistory(transcript)
	history[0].Content = "mutated"
	if transcript[0].Content != "one" {
		t.Fatalf("filter aliased the input slice")
	}
}

func TestMessageJSONRoundTripKeepsOptionalFields(t *testing.T) {
	t.Parallel()

	message := NewUserMessage("see attached", []Attachment{{
		ID:       "att-1",
		Name:     "notes.pdf",
		MimeType: "application/pdf",
		Data:     "aGVsbG8=",
	}})
	message.Grounding = []GroundingChunk{{URI: "https://example.com", Title: "Example"}}

	raw, err := json.Marshal(message)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(decoded.Attachments) != 1 || decoded.Attachments[0].Data != "aGVsbG8=" {
		t.Fatalf("attachment payload lost: %#v", decoded.Attachments)
	}
	if len(decoded.Grounding) != 1 || decoded.Grounding[0].URI != "https://example.com" {
		t.Fatalf("grounding chunk lost: %#v", decoded.Grounding)
	}
}

func TestThoughtMessageFlag(t *testing.T) {
	t.Parallel()

	thought := NewThoughtMessage("raw")
	final := NewModelMessage("final")
	if !thought.IsThinking {
		t.Fatalf("thought entry missing flag")
	}
	if final.IsThinking {
		t.Fatalf("final entry should not be flagged as thinking")
	}
	if thought.ID == final.ID {
		t.Fatalf("expected distinct message ids")
	}
}
