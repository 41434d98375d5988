package kafka

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/kafka/consumer"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type JobConsumer struct {
	*consumer.Consumer
}

func NewJobConsumer(consumer *consumer.Consumer) *JobConsumer {
	return &JobConsumer{consumer}
}

func (jc *JobConsumer) ReadJob(ctx context.Context) (kafka.Message, error) {
	msg, err := jc.Reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("JobConsumer - ReadJob - jc.Reader.FetchMessage: %w", err)
	}

	return msg, nil
}

func (jc *JobConsumer) CommitJob(ctx context.Context, msg kafka.Message) error {
	err := jc.Reader.CommitMessages(ctx, msg)
	if err != nil {
		return fmt.Errorf("JobConsumer - CommitJob - jc.Reader.CommitMessages: %w", err)
	}

	return nil
}

func (jc *JobConsumer) Close() error {
	err := jc.Consumer.Close()
	if err != nil {
		return fmt.Errorf("JobConsumer - Close: %w", err)
	}

	return nil
}

// Envelope extracts the job id, queue and decoded job from a message.
func Envelope(msg kafka.Message) (uuid.UUID, entity.DerivationJob, error) {
	var idHeader, queue string
	for _, h := range msg.Headers {
		switch h.Key {
		case HeaderJobID:
			idHeader = string(h.Value)
		case HeaderQueue:
			queue = string(h.Value)
		}
	}

	id, err := uuid.Parse(idHeader)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("Envelope - uuid.Parse: %w", err)
	}

	job, err := entity.DecodeJob(queue, msg.Value)
	if err != nil {
		return id, nil, fmt.Errorf("Envelope - entity.DecodeJob: %w", err)
	}

	return id, job, nil
}
