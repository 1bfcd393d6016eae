package ner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/logger"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
)

// Spacy calls a displaCy-style spaCy model server, as published by
// explosion/spacy-services and the spacy-api-docker image:
//
//	POST /ent    {"text": "...", "model": "es_core_news_sm"} -> [{"start": 0, "end": 7, "type": "LOC"}]
//	GET  /models -> ["es_core_news_sm"] or {"es_core_news_sm": {...}}
//
// Span offsets count characters of the submitted text. Older servers name
// the label "type", newer ones "label".
type Spacy struct {
	client *resty.Client
	model  string
	log    *slog.Logger
}

type spacyRequest struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

type spacySpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// NewSpacy builds a client for the model server at baseURL.
func NewSpacy(baseURL, model string, timeout time.Duration, log *slog.Logger) *Spacy {
	if log == nil {
		log = logger.Discard()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Spacy{client: client, model: model, log: log}
}

// Probe checks that the server has the configured model loaded.
func (s *Spacy) Probe(ctx context.Context) error {
	resp, err := s.client.R().SetContext(ctx).Get("/models")
	if err != nil {
		return fmt.Errorf("list spacy models: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("list spacy models: status %d", resp.StatusCode())
	}

	loaded, err := parseSpacyModels(resp.Body())
	if err != nil {
		return err
	}
	for _, m := range loaded {
		if m == s.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not loaded (server has %s)", s.model, strings.Join(loaded, ", "))
}

// parseSpacyModels accepts either a list of names or an object keyed by name.
func parseSpacyModels(body []byte) ([]string, error) {
	var names []string
	if err := json.Unmarshal(body, &names); err == nil {
		return names, nil
	}
	var byName map[string]json.RawMessage
	if err := json.Unmarshal(body, &byName); err != nil {
		return nil, fmt.Errorf("decode spacy models: %w", err)
	}
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Recognize sends text to the model server and returns its entities in order.
func (s *Spacy) Recognize(ctx context.Context, text string) ([]models.Entity, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(spacyRequest{Text: text, Model: s.model}).
		Post("/ent")
	if err != nil {
		return nil, fmt.Errorf("spacy request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("spacy returned status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	var spans []spacySpan
	if err := json.Unmarshal(resp.Body(), &spans); err != nil {
		return nil, fmt.Errorf("decode spacy entities: %w", err)
	}

	entities, err := spansToEntities(text, spans)
	if err != nil {
		return nil, err
	}
	s.log.Debug("spacy entities", slog.Int("count", len(entities)))
	return entities, nil
}

// spansToEntities cuts each span out of text by character offset, in
// ascending start order.
func spansToEntities(text string, spans []spacySpan) ([]models.Entity, error) {
	runes := []rune(text)
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	entities := make([]models.Entity, 0, len(spans))
	for _, sp := range spans {
		if sp.Start < 0 || sp.End > len(runes) || sp.Start >= sp.End {
			return nil, fmt.Errorf("spacy span [%d,%d) outside text of %d characters", sp.Start, sp.End, len(runes))
		}
		label := sp.Label
		if label == "" {
			label = sp.Type
		}
		entities = append(entities, models.Entity{
			Label: strings.ToUpper(label),
			Text:  string(runes[sp.Start:sp.End]),
		})
	}
	return entities, nil
}
