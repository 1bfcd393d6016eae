package ner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/ner"
)

func TestLexiconRecognizesInTextOrder(t *testing.T) {
	lex, err := ner.NewLexiconFromFile("")
	require.NoError(t, err)

	got, err := lex.Recognize(context.Background(),
		"Incendio forestal en Jalisco; brigadistas de la CONAFOR llegan desde Oaxaca")
	require.NoError(t, err)
	require.Equal(t, []models.Entity{
		{Label: ner.LabelLOC, Text: "Jalisco"},
		{Label: ner.LabelORG, Text: "CONAFOR"},
		{Label: ner.LabelLOC, Text: "Oaxaca"},
	}, got)
}

func TestLexiconLongestMatchWins(t *testing.T) {
	lex, err := ner.NewLexiconFromFile("")
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want []models.Entity
	}{
		{
			name: "estado de mexico over mexico",
			text: "Derrame en el Estado de México",
			want: []models.Entity{{Label: ner.LabelLOC, Text: "Estado de México"}},
		},
		{
			name: "organization swallows state",
			text: "El Gobierno de Jalisco informó",
			want: []models.Entity{{Label: ner.LabelORG, Text: "Gobierno de Jalisco"}},
		},
		{
			name: "case insensitive keeps surface text",
			text: "fuga en VERACRUZ",
			want: []models.Entity{{Label: ner.LabelLOC, Text: "VERACRUZ"}},
		},
		{
			name: "word boundaries",
			text: "Los jaliscienses y Sonorama",
			want: []models.Entity{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lex.Recognize(context.Background(), tt.text)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLexiconFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gaz.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entities:\n  - label: gpe\n    names: [Ciudad de México, CDMX]\n"), 0o600))

	lex, err := ner.NewLexiconFromFile(path)
	require.NoError(t, err)

	got, err := lex.Recognize(context.Background(), "Lluvias en CDMX")
	require.NoError(t, err)
	require.Equal(t, []models.Entity{{Label: ner.LabelGPE, Text: "CDMX"}}, got)
}

func TestParseLexiconErrors(t *testing.T) {
	_, err := ner.ParseLexicon([]byte("entities: []\n"))
	require.Error(t, err)

	_, err = ner.ParseLexicon([]byte("entities:\n  - names: [Jalisco]\n"))
	require.Error(t, err)

	_, err = ner.ParseLexicon([]byte("unknown: true\n"))
	require.Error(t, err)
}
