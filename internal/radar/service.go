// Package radar runs one incident search end to end: fetch the feed, label
// each entry with a state and tally the matches.
package radar

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/logger"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/processing"
)

// Fetcher downloads feed entries for a keyword.
type Fetcher interface {
	Fetch(ctx context.Context, query string) ([]models.NewsEntry, error)
}

// Classifier finds the state mentioned in a piece of text.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, bool, error)
}

// Service wires a fetcher and a classifier. It holds no per-search state.
type Service struct {
	fetcher    Fetcher
	classifier Classifier
	log        *slog.Logger
	now        func() time.Time
}

// New builds a Service.
func New(fetcher Fetcher, classifier Classifier, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		fetcher:    fetcher,
		classifier: classifier,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Search fetches news for query and keeps, in feed order, the entries whose
// text mentions a Mexican state. A fetch failure is returned as an error; an
// empty result is a report with no entries.
func (s *Service) Search(ctx context.Context, query string) (*models.Report, error) {
	query = strings.TrimSpace(query)
	started := s.now()

	items, err := s.fetcher.Fetch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", query, err)
	}

	entries := make([]models.ClassifiedEntry, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		state, ok, err := s.classifier.Classify(ctx, processing.ClassifierText(item))
		if err != nil {
			return nil, fmt.Errorf("classify %q: %w", item.Title, err)
		}
		if !ok {
			continue
		}
		entries = append(entries, models.ClassifiedEntry{NewsEntry: item, DetectedState: state})
	}

	report := &models.Report{
		ID:        uuid.NewString(),
		Query:     query,
		FetchedAt: started,
		Fetched:   len(items),
		Entries:   entries,
		Tally:     Rank(entries),
	}

	s.log.Info("search complete",
		slog.String("id", report.ID),
		slog.String("query", query),
		slog.Int("fetched", report.Fetched),
		slog.Int("matched", len(entries)),
		slog.Duration("took", s.now().Sub(started)),
	)
	return report, nil
}

// Rank counts entries per detected state, most frequent first. Ties keep the
// order in which each state first appeared.
func Rank(entries []models.ClassifiedEntry) []models.StateCount {
	counts := make(map[string]int)
	tally := make([]models.StateCount, 0)
	for _, e := range entries {
		if e.DetectedState == "" {
			continue
		}
		if _, ok := counts[e.DetectedState]; !ok {
			tally = append(tally, models.StateCount{State: e.DetectedState})
		}
		counts[e.DetectedState]++
	}
	for i := range tally {
		tally[i].Count = counts[tally[i].State]
	}

	sort.SliceStable(tally, func(i, j int) bool {
		return tally[i].Count > tally[j].Count
	})
	return tally
}
