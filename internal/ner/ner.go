// Package ner provides named-entity recognizers behind a single narrow
// interface. The concrete backend is chosen at startup and shared read-only
// by every search.
package ner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/config"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/logger"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
)

// Entity labels as emitted by the Spanish spaCy pipelines.
const (
	LabelLOC  = "LOC"
	LabelGPE  = "GPE"
	LabelPER  = "PER"
	LabelORG  = "ORG"
	LabelMISC = "MISC"
)

// Recognizer extracts labeled entities from raw text, in text order.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]models.Entity, error)
}

// prober is implemented by backends that depend on an external model.
type prober interface {
	Probe(ctx context.Context) error
}

// Load builds the configured backend and checks that its model is usable.
// Callers treat an error as fatal.
func Load(ctx context.Context, cfg config.Recognizer, log *slog.Logger) (Recognizer, error) {
	if log == nil {
		log = logger.Discard()
	}

	var (
		rec Recognizer
		err error
	)
	switch cfg.Backend {
	case config.BackendLexicon:
		rec, err = NewLexiconFromFile(cfg.GazetteerPath)
	case config.BackendSpacy, "":
		rec = NewSpacy(cfg.SpacyURL, cfg.SpacyModel, cfg.Timeout, log)
	case config.BackendGemini:
		rec, err = NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
	default:
		err = fmt.Errorf("recognizer backend %q is not supported", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s recognizer: %w", cfg.Backend, err)
	}

	if p, ok := rec.(prober); ok {
		probeCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		if err := p.Probe(probeCtx); err != nil {
			return nil, fmt.Errorf("%s model unavailable: %w", cfg.Backend, err)
		}
	}

	log.Info("entity recognizer ready", slog.String("backend", cfg.Backend))
	return rec, nil
}

// Probe re-checks a loaded recognizer. Backends without an external model are
// always ready.
func Probe(ctx context.Context, rec Recognizer) error {
	if rec == nil {
		return fmt.Errorf("recognizer not loaded")
	}
	if p, ok := rec.(prober); ok {
		return p.Probe(ctx)
	}
	return nil
}
