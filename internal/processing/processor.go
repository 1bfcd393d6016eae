package processing

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
)

var whitespace = regexp.MustCompile(`\s+`)

// PlainText turns an HTML fragment, such as a feed description, into visible
// text with whitespace squeezed. Text without markup is returned trimmed.
func PlainText(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}

	text := input
	if strings.ContainsAny(input, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + input + "</body>"))
		if err == nil {
			var parts []string
			doc.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
				parts = append(parts, s.Text())
			})
			text = strings.Join(parts, " ")
		} else {
			text = html.UnescapeString(input)
		}
	}

	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ClassifierText is the text handed to entity recognition for an entry:
// the title followed by the summary.
func ClassifierText(entry models.NewsEntry) string {
	title := PlainText(entry.Title)
	summary := PlainText(entry.Summary)
	switch {
	case title == "":
		return summary
	case summary == "":
		return title
	default:
		return title + " " + summary
	}
}
