// Package classify labels a piece of news text with the Mexican state it
// mentions.
package classify

import (
	"context"
	"errors"
	"fmt"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/ner"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/states"
)

// Classifier maps text to a canonical state through entity recognition.
type Classifier struct {
	rec ner.Recognizer
}

// New returns a classifier backed by the given recognizer.
func New(rec ner.Recognizer) (*Classifier, error) {
	if rec == nil {
		return nil, errors.New("classifier needs a recognizer")
	}
	return &Classifier{rec: rec}, nil
}

// IsLocation reports whether an entity label denotes a place.
func IsLocation(label string) bool {
	return label == ner.LabelLOC || label == ner.LabelGPE
}

// Classify returns the first state mentioned by a location entity in text.
// Entities are visited in recognizer order and, within each, states in
// canonical order.
func (c *Classifier) Classify(ctx context.Context, text string) (string, bool, error) {
	entities, err := c.rec.Recognize(ctx, text)
	if err != nil {
		return "", false, fmt.Errorf("recognize entities: %w", err)
	}
	state, ok := FirstState(entities)
	return state, ok, nil
}

// FirstState applies the matching rule to an already recognized entity list.
func FirstState(entities []models.Entity) (string, bool) {
	for _, ent := range entities {
		if !IsLocation(ent.Label) {
			continue
		}
		if state, ok := states.Match(ent.Text); ok {
			return state, true
		}
	}
	return "", false
}
