package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"docqa-backend/internal/model"
)

type ReindexPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewReindexPublisher(conn *amqp.Connection, queueName string) *ReindexPublisher {
	return &ReindexPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *ReindexPublisher) PublishReindex(ctx context.Context, job model.ReindexJob) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := declareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal reindex job failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			Body:          payload,
			DeliveryMode:  amqp.Persistent,
			CorrelationId: job.RequestID,
		},
	); err != nil {
		return fmt.Errorf("publish reindex job failed: %w", err)
	}
	return nil
}
