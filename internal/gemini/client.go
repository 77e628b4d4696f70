// Package gemini implements the pipeline's generator capability on top of
// the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/csheth/nexus/internal/chat"
	"github.com/csheth/nexus/internal/pipeline"
)

const (
	defaultModel       = "gemini-2.5-flash"
	defaultSpeechModel = "gemini-2.5-flash-preview-tts"
	defaultVoice       = "Kore"
)

// Config describes how to build a Gemini client.
type Config struct {
	APIKey      string
	Model       string
	SpeechModel string
	Voice       string
}

// Client calls the Gemini API. It satisfies pipeline.Generator.
type Client struct {
	client      *genai.Client
	model       string
	speechModel string
	voice       string
}

// NewFromEnv builds a client from explicit config plus environment
// fallbacks (GEMINI_API_KEY, NEXUS_MODEL, NEXUS_TTS_MODEL).
func NewFromEnv(ctx context.Context, cfg Config) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required (set GEMINI_API_KEY)")
	}
	model := cfg.Model
	if model == "" {
		if env := os.Getenv("NEXUS_MODEL"); env != "" {
			model = env
		} else {
			model = defaultModel
		}
	}
	speechModel := cfg.SpeechModel
	if speechModel == "" {
		if env := os.Getenv("NEXUS_TTS_MODEL"); env != "" {
			speechModel = env
		} else {
			speechModel = defaultSpeechModel
		}
	}
	voice := cfg.Voice
	if voice == "" {
		voice = defaultVoice
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: client, model: model, speechModel: speechModel, voice: voice}, nil
}

// Name reports the provider and model, for status lines and logs.
func (c *Client) Name() string {
	return fmt.Sprintf("Gemini (%s)", c.model)
}

// GenerateText maps the provider-neutral request onto one Gemini call.
func (c *Client) GenerateText(ctx context.Context, req pipeline.TextRequest) (pipeline.TextResponse, error) {
	contents := buildContents(req)
	config := buildConfig(req)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return pipeline.TextResponse{}, fmt.Errorf("gemini: generate content: %w", err)
	}
	return pipeline.TextResponse{
		Text:      resp.Text(),
		Grounding: extractGrounding(resp),
	}, nil
}

// SynthesizeSpeech narrates text through a TTS-capable model and returns the
// raw audio bytes.
func (c *Client) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.voice},
			},
		},
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.speechModel, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini: synthesize speech: %w", err)
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, fmt.Errorf("gemini: response carried no audio data")
}

func buildContents(req pipeline.TextRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := string(genai.RoleModel)
		if turn.Role == chat.RoleUser {
			role = string(genai.RoleUser)
		}
		contents = append(contents, &genai.Content{Role: role, Parts: mapParts(turn.Parts)})
	}
	contents = append(contents, &genai.Content{Role: string(genai.RoleUser), Parts: mapParts(req.Parts)})
	return contents
}

func mapParts(parts []pipeline.Part) []*genai.Part {
	mapped := make([]*genai.Part, 0, len(parts))
	for _, part := range parts {
		if part.InlineData != nil {
			mapped = append(mapped, genai.NewPartFromBytes(part.InlineData, part.InlineMIME))
			continue
		}
		mapped = append(mapped, genai.NewPartFromText(part.Text))
	}
	return mapped
}

func buildConfig(req pipeline.TextRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.ThinkingBudget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(req.ThinkingBudget)}
	}
	if req.EnableSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	for _, setting := range req.SafetySettings {
		config.SafetySettings = append(config.SafetySettings, &genai.SafetySetting{
			Category:  genai.HarmCategory(setting.Category),
			Threshold: genai.HarmBlockThreshold(setting.Threshold),
		})
	}
	return config
}

func extractGrounding(resp *genai.GenerateContentResponse) []chat.GroundingChunk {
	var chunks []chat.GroundingChunk
	for _, candidate := range resp.Candidates {
		if candidate.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil {
				continue
			}
			chunks = append(chunks, chat.GroundingChunk{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}
	return chunks
}
