package ner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/logger"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
)

const geminiPrompt = `Extract the named entities from the Spanish news text below.
Return only a JSON array, in the order the entities appear, where each element is
{"label": "<LOC|PER|ORG|MISC>", "text": "<entity exactly as written>"}.
Use LOC for every geographic or political place (countries, states, cities, rivers, regions).
Return [] when there are none.

TEXT:
%s`

// generator is the part of *genai.GenerativeModel used here.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	CountTokens(ctx context.Context, parts ...genai.Part) (*genai.CountTokensResponse, error)
}

// Gemini asks a Gemini model to label entities.
type Gemini struct {
	client *genai.Client
	model  generator
	log    *slog.Logger
}

// NewGemini creates a Gemini-backed recognizer.
func NewGemini(ctx context.Context, apiKey, modelName string, log *slog.Logger) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0)

	g := newGeminiWithModel(model, log)
	g.client = client
	return g, nil
}

func newGeminiWithModel(model generator, log *slog.Logger) *Gemini {
	if log == nil {
		log = logger.Discard()
	}
	return &Gemini{model: model, log: log}
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Probe verifies the key and model name with a token count call.
func (g *Gemini) Probe(ctx context.Context) error {
	if _, err := g.model.CountTokens(ctx, genai.Text("ping")); err != nil {
		return fmt.Errorf("gemini count tokens: %w", err)
	}
	return nil
}

// Recognize returns the entities the model labeled in text.
func (g *Gemini) Recognize(ctx context.Context, text string) ([]models.Entity, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(geminiPrompt, text)))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response from gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}

	entities, err := parseGeminiEntities(b.String())
	if err != nil {
		g.log.Warn("unparseable gemini entities", slog.Any("err", err))
		return nil, err
	}
	return entities, nil
}

func parseGeminiEntities(raw string) ([]models.Entity, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var parsed []models.Entity
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("decode gemini entities: %w", err)
	}

	out := make([]models.Entity, 0, len(parsed))
	for _, e := range parsed {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		out = append(out, models.Entity{Label: strings.ToUpper(strings.TrimSpace(e.Label)), Text: text})
	}
	return out, nil
}
