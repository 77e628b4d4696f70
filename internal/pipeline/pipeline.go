// Package pipeline turns one user turn into a two-stage model response: a
// primary generation pass followed by a polish pass that reformats the raw
// draft into the user-visible answer.
package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/csheth/nexus/internal/chat"
)

const defaultThinkingBudget = 8192

// Part is one piece of a request turn: either text or inline binary data.
type Part struct {
	Text       string
	InlineMIME string
	InlineData []byte
}

// Turn is a role-tagged history entry replayed to the model.
type Turn struct {
	Role  chat.Role
	Parts []Part
}

// SafetySetting overrides the blocking threshold for one harm category.
// Category and threshold names follow the provider's vocabulary.
type SafetySetting struct {
	Category  string
	Threshold string
}

// TextRequest is the provider-neutral shape of one generation call.
type TextRequest struct {
	History           []Turn
	Parts             []Part
	SystemInstruction string
	ThinkingBudget    int32
	EnableSearch      bool
	SafetySettings    []SafetySetting
}

// TextResponse carries the generated text plus any grounding citations.
type TextResponse struct {
	Text      string
	Grounding []chat.GroundingChunk
}

// Generator is the narrow capability the pipeline needs from a model
// provider. Implementations must be safe for concurrent use.
type Generator interface {
	GenerateText(ctx context.Context, req TextRequest) (TextResponse, error)
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)
}

// Stage names the pipeline step that produced an error.
type Stage string

const (
	StagePrimary Stage = "primary"
	StagePolish  Stage = "polish"
)

// Error wraps a remote generation failure with the stage it occurred in.
// The pipeline never retries; the caller decides what to show.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline: %s generation failed: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options tune the primary generation request.
type Options struct {
	ThinkingBudget int32
	EnableSearch   bool
	SafetySettings []SafetySetting
}

// Config wires a pipeline together.
type Config struct {
	Options Options
	Logger  *zap.Logger
}

// Result is the two-stage output for one turn. It is created fresh per
// invocation; callers extract transcript messages from it.
type Result struct {
	Raw       string
	Final     string
	Grounding []chat.GroundingChunk
	Audio     []byte
}

// Pipeline composes the two generation passes. It keeps no state between
// calls, so one instance serves any number of conversations concurrently.
type Pipeline struct {
	generator Generator
	opts      Options
	logger    *zap.Logger
}

// New returns a pipeline backed by the given generator.
func New(generator Generator, cfg Config) *Pipeline {
	opts := cfg.Options
	if opts.ThinkingBudget <= 0 {
		opts.ThinkingBudget = defaultThinkingBudget
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{generator: generator, opts: opts, logger: logger}
}

// Generate runs both passes for one user turn. The polish request embeds the
// primary output verbatim, so the passes are strictly sequential and a
// primary failure short-circuits the polish entirely. History must already
// have thought entries filtered out (chat.FilterHistory).
func (p *Pipeline) Generate(ctx context.Context, prompt string, history []chat.Message, attachments []chat.Attachment) (*Result, error) {
	parts := []Part{{Text: prompt}}
	for _, attachment := range attachments {
		data, err := base64.StdEncoding.DecodeString(attachment.Data)
		if err != nil {
			return nil, &Error{Stage: StagePrimary, Err: fmt.Errorf("decode attachment %q: %w", attachment.Name, err)}
		}
		parts = append(parts, Part{InlineMIME: attachment.MimeType, InlineData: data})
	}

	primary := TextRequest{
		History:           historyTurns(history),
		Parts:             parts,
		SystemInstruction: personaInstruction,
		ThinkingBudget:    p.opts.ThinkingBudget,
		EnableSearch:      p.opts.EnableSearch,
		SafetySettings:    append([]SafetySetting(nil), p.opts.SafetySettings...),
	}
	primaryResp, err := p.generator.GenerateText(ctx, primary)
	if err != nil {
		p.logger.Warn("primary generation failed", zap.Error(err))
		return nil, &Error{Stage: StagePrimary, Err: err}
	}
	raw := primaryResp.Text
	if strings.TrimSpace(raw) == "" {
		raw = rawFallback
	}

	polish := TextRequest{
		Parts:             []Part{{Text: buildPolishPrompt(prompt, raw)}},
		SystemInstruction: polishInstruction,
	}
	polishResp, err := p.generator.GenerateText(ctx, polish)
	if err != nil {
		p.logger.Warn("polish generation failed", zap.Error(err))
		return nil, &Error{Stage: StagePolish, Err: err}
	}
	final := polishResp.Text
	if strings.TrimSpace(final) == "" {
		final = finalFallback
	}

	return &Result{
		Raw:       raw,
		Final:     final,
		Grounding: primaryResp.Grounding,
	}, nil
}

// Narrate synthesizes audio for the given text. Narration is best-effort: a
// failed or empty synthesis logs a warning and returns nil rather than
// surfacing an error.
func (p *Pipeline) Narrate(ctx context.Context, text string) []byte {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	audio, err := p.generator.SynthesizeSpeech(ctx, text)
	if err != nil {
		p.logger.Warn("speech synthesis failed", zap.Error(err))
		return nil
	}
	return audio
}

func historyTurns(history []chat.Message) []Turn {
	turns := make([]Turn, 0, len(history))
	for _, message := range history {
		role := chat.RoleModel
		if message.Role == chat.RoleUser {
			role = chat.RoleUser
		}
		turns = append(turns, Turn{Role: role, Parts: []Part{{Text: message.Content}}})
	}
	return turns
}
