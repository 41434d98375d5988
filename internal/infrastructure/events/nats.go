package events

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/natsbus"
)

type jsonPublisher interface {
	PublishJSON(subject string, v any) error
}

// NATSPublisher publishes events to {subject}.{queue}.{stage}.
type NATSPublisher struct {
	bus     jsonPublisher
	subject string
}

var _ infrastructure.EventPublisher = (*NATSPublisher)(nil)

func NewNATSPublisher(bus *natsbus.Client, subject string) *NATSPublisher {
	return &NATSPublisher{bus: bus, subject: subject}
}

func (p *NATSPublisher) Publish(_ context.Context, e entity.DerivationEvent) error {
	subject := fmt.Sprintf("%s.%s.%s", p.subject, e.Queue, e.Stage)

	if err := p.bus.PublishJSON(subject, e); err != nil {
		return fmt.Errorf("NATSPublisher - Publish - p.bus.PublishJSON: %w", err)
	}

	return nil
}
