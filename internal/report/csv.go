// Package report renders search results as CSV, plain-text tables and an
// HTML page.
package report

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/processing"
)

// CSVFileName is the suggested name for downloaded exports.
const CSVFileName = "noticias_nlp_mexico.csv"

// Column headers, in export order.
var (
	EntryColumns   = []string{"Título", "Publicado", "Resumen", "Estado Detectado", "Enlace"}
	RankingColumns = []string{"Estado", "Cantidad de Incidentes"}
)

// WriteCSV writes the header and one row per entry, in the same form Row
// gives the displayed tables.
func WriteCSV(w io.Writer, entries []models.ClassifiedEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EntryColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(Row(e)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file produced by WriteCSV. Each entry comes back with the
// fields of its displayed row.
func ReadCSV(r io.Reader) ([]models.ClassifiedEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(EntryColumns)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, col := range EntryColumns {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected csv column %d: %q", i, header[i])
		}
	}

	entries := make([]models.ClassifiedEntry, 0)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		entries = append(entries, models.ClassifiedEntry{
			NewsEntry: models.NewsEntry{
				Title:       rec[0],
				PublishedAt: rec[1],
				Summary:     rec[2],
				Link:        rec[4],
			},
			DetectedState: rec[3],
		})
	}
	return entries, nil
}

// CSVDataURI encodes the entries' CSV as a base64 data URI.
func CSVDataURI(entries []models.ClassifiedEntry) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, entries); err != nil {
		return "", err
	}
	return "data:text/csv;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Row is the displayed form of an entry, in EntryColumns order. The summary
// is reduced to plain text and line breaks are normalized to "\n".
func Row(e models.ClassifiedEntry) []string {
	return []string{
		newlines(e.Title),
		newlines(e.PublishedAt),
		processing.PlainText(e.Summary),
		newlines(e.DetectedState),
		newlines(e.Link),
	}
}

var crlf = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func newlines(s string) string {
	return crlf.Replace(s)
}
