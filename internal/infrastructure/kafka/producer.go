package kafka

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/kafka/producer"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderJobID = "job_id"
	HeaderQueue = "queue"
)

type JobProducer struct {
	*producer.Producer
	topic string
}

var _ infrastructure.JobSender = (*JobProducer)(nil)

func NewJobProducer(producer *producer.Producer, topic string) *JobProducer {
	return &JobProducer{
		producer,
		topic,
	}
}

func (jp *JobProducer) SendJobs(ctx context.Context, jobs []*entity.QueuedJob) error {
	msgsToSend := make([]kafka.Message, 0, len(jobs))

	for _, job := range jobs {
		msg := kafka.Message{
			Topic: jp.topic,
			Key:   []byte(job.ID.String()),
			Value: job.Payload,
			Headers: []kafka.Header{
				{Key: HeaderJobID, Value: []byte(job.ID.String())},
				{Key: HeaderQueue, Value: []byte(job.Queue)},
			},
		}
		msgsToSend = append(msgsToSend, msg)
	}

	if len(msgsToSend) == 0 {
		return nil
	}

	err := jp.Writer.WriteMessages(ctx, msgsToSend...)
	if err != nil {
		return fmt.Errorf("JobProducer - SendJobs - jp.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (jp *JobProducer) Close() error {
	err := jp.Producer.Close()
	if err != nil {
		return fmt.Errorf("JobProducer - Close: %w", err)
	}

	return nil
}
