package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"docqa-backend/internal/app"
	"docqa-backend/internal/model"
)

// ReindexHandler runs one re-index job to completion.
type ReindexHandler interface {
	HandleReindex(ctx context.Context, job model.ReindexJob) error
}

// ReindexWorker consumes re-index jobs one at a time from a durable queue.
type ReindexWorker struct {
	conn      *amqp.Connection
	handler   ReindexHandler
	queueName string
	logger    zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReindexWorker(conn *amqp.Connection, handler ReindexHandler, queueName string, logger zerolog.Logger) *ReindexWorker {
	return &ReindexWorker{
		conn:      conn,
		handler:   handler,
		queueName: queueName,
		logger:    logger.With().Str("component", "reindex_worker").Str("queue", queueName).Logger(),
	}
}

func (w *ReindexWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	// ingestion is heavy, take one job at a time
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	w.logger.Info().Msg("reindex worker started")
	return nil
}

// acknowledger is the part of amqp.Delivery the worker settles messages through.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (w *ReindexWorker) handle(ctx context.Context, d amqp.Delivery) {
	w.process(ctx, d.Body, d.CorrelationId, &d)
}

func (w *ReindexWorker) process(ctx context.Context, body []byte, correlationID string, ack acknowledger) {
	logger := w.logger.With().Str("request_id", correlationID).Logger()

	var job model.ReindexJob
	if err := json.Unmarshal(body, &job); err != nil {
		logger.Error().Err(err).Msg("decode reindex job failed")
		_ = ack.Nack(false, false)
		return
	}
	logger = logger.With().Str("document_id", job.DocumentID.String()).Logger()

	err := w.handler.HandleReindex(logger.WithContext(ctx), job)
	switch {
	case err == nil:
		_ = ack.Ack(false)
	case errors.Is(err, app.ErrIngestionInProgress):
		// the running ingestion already picks up the current upload
		logger.Info().Msg("reindex skipped, ingestion in progress")
		_ = ack.Ack(false)
	default:
		logger.Error().Err(err).Msg("reindex job failed")
		_ = ack.Nack(false, false)
	}
}

func (w *ReindexWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
