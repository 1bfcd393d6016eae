package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
)

const (
	maxCellRunes = 60
	chartWidth   = 40
)

// WriteTable prints the entries as aligned columns. Long cells are cut.
func WriteTable(w io.Writer, entries []models.ClassifiedEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(EntryColumns, "\t"))
	for _, e := range entries {
		row := Row(e)
		for i := range row {
			row[i] = clip(row[i])
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// WriteRanking prints the per-state tally.
func WriteRanking(w io.Writer, tally []models.StateCount) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\t%s\t\n", RankingColumns[0], RankingColumns[1])
	for _, row := range tally {
		fmt.Fprintf(tw, "%s\t%d\t\n", row.State, row.Count)
	}
	return tw.Flush()
}

// WriteChart draws one horizontal bar per state, scaled to the largest count.
func WriteChart(w io.Writer, tally []models.StateCount) error {
	maxCount, width := 0, 0
	for _, row := range tally {
		if row.Count > maxCount {
			maxCount = row.Count
		}
		if n := utf8.RuneCountInString(row.State); n > width {
			width = n
		}
	}
	for _, row := range tally {
		bar := 0
		if maxCount > 0 {
			bar = row.Count * chartWidth / maxCount
		}
		if bar == 0 && row.Count > 0 {
			bar = 1
		}
		pad := strings.Repeat(" ", width-utf8.RuneCountInString(row.State))
		if _, err := fmt.Fprintf(w, "%s%s │%s %s\n", row.State, pad, strings.Repeat("█", bar), strconv.Itoa(row.Count)); err != nil {
			return err
		}
	}
	return nil
}

func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxCellRunes {
		return s
	}
	r := []rune(s)
	return string(r[:maxCellRunes-1]) + "…"
}
