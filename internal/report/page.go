package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// Page is everything the HTML view needs. Report is nil before the first
// search; Warning is set when the search could not be completed.
type Page struct {
	Query   string
	Report  *models.Report
	Warning string
}

type pageView struct {
	Query      string
	Warning    string
	NoResults  string
	Results    bool
	Report     *models.Report
	Rows       []tableRow
	CSVName    string
	CSVURI     template.URL
	Bars       []bar
	EntryCols  []string
	RankingCol []string
}

// tableRow holds the displayed cells of an entry; the link is rendered as an
// anchor instead of text.
type tableRow struct {
	Cells []string
	Link  string
}

type bar struct {
	State   string
	Count   int
	Percent int
}

// NoResultsMessage is the page text when nothing matched.
const NoResultsMessage = "No se encontraron noticias relevantes en México para esa palabra clave."

// RenderPage writes the search page. The CSV link embeds the same entries
// shown in the table.
func RenderPage(w io.Writer, p Page) error {
	v := pageView{
		Query:      p.Query,
		Warning:    p.Warning,
		Report:     p.Report,
		CSVName:    CSVFileName,
		EntryCols:  EntryColumns,
		RankingCol: RankingColumns,
	}
	if p.Report != nil && p.Report.Empty() && v.Warning == "" {
		v.NoResults = NoResultsMessage
	}
	if p.Report != nil && !p.Report.Empty() {
		uri, err := CSVDataURI(p.Report.Entries)
		if err != nil {
			return fmt.Errorf("encode csv: %w", err)
		}
		v.Results = true
		for _, e := range p.Report.Entries {
			row := Row(e)
			v.Rows = append(v.Rows, tableRow{Cells: row[:4], Link: row[4]})
		}
		v.CSVURI = template.URL(uri)
		v.Bars = bars(p.Report.Tally)
	}

	if err := pageTemplate.Execute(w, v); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

func bars(tally []models.StateCount) []bar {
	maxCount := 0
	for _, row := range tally {
		if row.Count > maxCount {
			maxCount = row.Count
		}
	}
	out := make([]bar, 0, len(tally))
	for _, row := range tally {
		pct := 0
		if maxCount > 0 {
			pct = row.Count * 100 / maxCount
		}
		out = append(out, bar{State: row.State, Count: row.Count, Percent: pct})
	}
	return out
}
