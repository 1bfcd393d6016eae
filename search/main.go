package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/classify"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/config"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/feed"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/logger"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/ner"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/radar"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/report"
)

type searcher interface {
	Search(ctx context.Context, query string) (*models.Report, error)
}

func main() {
	log := logger.New("search")
	if err := config.LoadDotEnv(); err != nil {
		log.Error("load .env", slog.Any("err", err))
		os.Exit(1)
	}
	cfg, err := config.LoadSearch()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	query := flag.String("q", cfg.DefaultQuery, "keyword to search for")
	csvPath := flag.String("csv", "", "write matching news to this CSV file")
	flag.Parse()
	if flag.NArg() > 0 {
		*query = strings.Join(flag.Args(), " ")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	rec, err := ner.Load(ctx, cfg.Recognizer, log)
	if err != nil {
		log.Error("load entity recognizer", slog.Any("err", err))
		os.Exit(1)
	}
	if c, ok := rec.(interface{ Close() error }); ok {
		defer c.Close()
	}
	classifier, err := classify.New(rec)
	if err != nil {
		log.Error("init classifier", slog.Any("err", err))
		os.Exit(1)
	}
	svc := radar.New(feed.New(cfg.Feed, log), classifier, log)

	ctx, cancel := context.WithTimeout(ctx, cfg.SearchTimeout)
	defer cancel()

	if err := run(ctx, svc, *query, *csvPath, os.Stdout); err != nil {
		log.Error("search failed", slog.String("query", *query), slog.Any("err", err))
		os.Exit(1)
	}
}

// run performs one search and prints the entries, the ranking and the chart.
// A search with no matches is not an error.
func run(ctx context.Context, svc searcher, query, csvPath string, w io.Writer) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return errors.New("empty query")
	}

	rep, err := svc.Search(ctx, query)
	if err != nil {
		return err
	}
	if rep.Empty() {
		_, err := fmt.Fprintln(w, report.NoResultsMessage)
		return err
	}

	fmt.Fprintf(w, "Se encontraron %d noticias relevantes.\n\n", len(rep.Entries))
	if err := report.WriteTable(w, rep.Entries); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nRanking de Estados con Más Incidentes Ambientales")
	if err := report.WriteRanking(w, rep.Tally); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := report.WriteChart(w, rep.Tally); err != nil {
		return err
	}

	if csvPath == "" {
		return nil
	}
	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := report.WriteCSV(f, rep.Entries); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	fmt.Fprintf(w, "\nCSV guardado en %s\n", csvPath)
	return nil
}
