package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/classify"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/config"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/dedupe"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/feed"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/logger"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/ner"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/radar"
)

// searchRequest is the payload expected on the request topic.
type searchRequest struct {
	ID    string `json:"id"`
	Query string `json:"query"`
}

// searchResult is published to the result topic, keyed by request id.
type searchResult struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	*models.Report
}

type searcher interface {
	Search(ctx context.Context, query string) (*models.Report, error)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func main() {
	log := logger.New("worker")
	if err := config.LoadDotEnv(); err != nil {
		log.Error("load .env", slog.Any("err", err))
		os.Exit(1)
	}
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
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

	cache := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.RequestTopic,
		GroupID:        cfg.KafkaConsumer,
		QueueCapacity:  cfg.BatchSize,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit only
	})
	defer reader.Close()

	resultWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.ResultTopic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireOne,
	}
	defer resultWriter.Close()

	dlqTopic := cfg.RequestTopic + "_dlq"
	dlqWriter := &kafka.Writer{
		Addr:        kafka.TCP(cfg.KafkaBrokers...),
		Topic:       dlqTopic,
		MaxAttempts: 3,
	}
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("request_topic", cfg.RequestTopic),
		slog.String("result_topic", cfg.ResultTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", dlqTopic),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processMessage(ctx, log, svc, resultWriter, cache, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)
			if !sendToDLQ(ctx, log, dlqWriter, msg, err) {
				if ctx.Err() != nil {
					return
				}
				log.Error("DLQ write exhausted retries, message may be lost if later messages commit",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// processMessage runs one search request and publishes its report. Requests
// already answered inside the dedupe window are acknowledged without work.
func processMessage(ctx context.Context, log *slog.Logger, svc searcher, out messageWriter, cache *dedupe.Cache, msg kafka.Message) error {
	req, err := decodeRequest(msg)
	if err != nil {
		return err
	}

	if cache.IsSeen(req.ID) {
		log.Debug("duplicate request", slog.String("id", req.ID))
		return nil
	}

	rep, err := svc.Search(ctx, req.Query)
	if err != nil {
		return fmt.Errorf("search %q: %w", req.Query, err)
	}

	result := searchResult{RequestID: req.ID, Status: "ok", Report: rep}
	if rep.Empty() {
		result.Status = "no_results"
	}
	value, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if err := out.WriteMessages(ctx, kafka.Message{
		Key:   []byte(req.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "query", Value: []byte(req.Query)},
			{Key: "status", Value: []byte(result.Status)},
		},
	}); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}

	cache.MarkSeen(req.ID)
	log.Info("search published",
		slog.String("id", req.ID),
		slog.String("query", req.Query),
		slog.Int("matched", len(rep.Entries)),
	)
	return nil
}

// decodeRequest accepts a JSON request or, failing that, a bare query string.
// The id falls back to the message key and then to a fresh uuid.
func decodeRequest(msg kafka.Message) (searchRequest, error) {
	var req searchRequest
	raw := strings.TrimSpace(string(msg.Value))
	if raw == "" {
		return req, errors.New("empty payload")
	}
	if strings.HasPrefix(raw, "{") {
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return req, fmt.Errorf("decode request: %w", err)
		}
	} else {
		req.Query = raw
	}

	req.ID = strings.TrimSpace(req.ID)
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, errors.New("request has no query")
	}
	if req.ID == "" {
		req.ID = strings.TrimSpace(string(msg.Key))
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return req, nil
}

// sendToDLQ copies msg to the dead letter topic with error context, retrying
// with exponential backoff. It reports whether the write succeeded.
func sendToDLQ(ctx context.Context, log *slog.Logger, dlq messageWriter, msg kafka.Message, cause error) bool {
	dlqMsg := dlqMessage(msg, cause, time.Now().UTC())

	for attempt := 0; attempt < 5; attempt++ {
		dlqErr := dlq.WriteMessages(ctx, dlqMsg)
		if dlqErr == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", dlqErr),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			log.Info("context canceled during DLQ retry")
			return false
		}
	}
	return false
}

func dlqMessage(msg kafka.Message, cause error, now time.Time) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers)+4)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
		kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
		kafka.Header{Key: "error", Value: []byte(cause.Error())},
		kafka.Header{Key: "timestamp", Value: []byte(now.Format(time.RFC3339))},
	)
	return kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers}
}
