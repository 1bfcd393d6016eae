package ner

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
)

//go:embed gazetteer.yaml
var defaultGazetteer []byte

// Gazetteer is the YAML document read by the lexicon backend.
type Gazetteer struct {
	Entities []GazetteerGroup `yaml:"entities"`
}

// GazetteerGroup lists surface forms sharing one label.
type GazetteerGroup struct {
	Label string   `yaml:"label"`
	Names []string `yaml:"names"`
}

type term struct {
	label string
	runes []rune
}

// Lexicon recognizes entities by looking up known surface forms. Matches are
// case-insensitive, aligned to word boundaries, longest first and never
// overlapping.
type Lexicon struct {
	terms []term
}

// NewLexiconFromFile loads a gazetteer file, or the embedded one when path is empty.
func NewLexiconFromFile(path string) (*Lexicon, error) {
	if strings.TrimSpace(path) == "" {
		return ParseLexicon(defaultGazetteer)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gazetteer: %w", err)
	}
	return ParseLexicon(raw)
}

// ParseLexicon decodes a YAML gazetteer.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var g Gazetteer
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("decode gazetteer: %w", err)
	}
	return NewLexicon(g)
}

// NewLexicon builds a recognizer from an in-memory gazetteer.
func NewLexicon(g Gazetteer) (*Lexicon, error) {
	var terms []term
	for i, group := range g.Entities {
		label := strings.ToUpper(strings.TrimSpace(group.Label))
		if label == "" {
			return nil, fmt.Errorf("gazetteer group %d has no label", i)
		}
		for _, name := range group.Names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			terms = append(terms, term{label: label, runes: lowerRunes(name)})
		}
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("gazetteer contains no names")
	}

	sort.SliceStable(terms, func(i, j int) bool {
		return len(terms[i].runes) > len(terms[j].runes)
	})
	return &Lexicon{terms: terms}, nil
}

type span struct {
	start, end int
	label      string
}

// Recognize returns the gazetteer entities found in text, in text order.
func (l *Lexicon) Recognize(ctx context.Context, text string) ([]models.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	original := []rune(text)
	lower := lowerRunes(text)
	covered := make([]bool, len(lower))

	var spans []span
	for _, t := range l.terms {
		n := len(t.runes)
		for i := 0; i+n <= len(lower); i++ {
			if !equalRunes(lower[i:i+n], t.runes) || !isBoundary(lower, i, i+n) || anyCovered(covered, i, i+n) {
				continue
			}
			for k := i; k < i+n; k++ {
				covered[k] = true
			}
			spans = append(spans, span{start: i, end: i + n, label: t.label})
			i += n - 1
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	entities := make([]models.Entity, 0, len(spans))
	for _, s := range spans {
		entities = append(entities, models.Entity{
			Label: s.label,
			Text:  string(original[s.start:s.end]),
		})
	}
	return entities, nil
}

func lowerRunes(s string) []rune {
	r := []rune(s)
	for i := range r {
		r[i] = unicode.ToLower(r[i])
	}
	return r
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isBoundary(text []rune, start, end int) bool {
	if start > 0 && isWordRune(text[start-1]) {
		return false
	}
	if end < len(text) && isWordRune(text[end]) {
		return false
	}
	return true
}

func anyCovered(covered []bool, start, end int) bool {
	for k := start; k < end; k++ {
		if covered[k] {
			return true
		}
	}
	return false
}
