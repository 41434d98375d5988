package events

import (
	"context"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
)

// LogPublisher writes derivation events to the service log.
type LogPublisher struct {
	logger logger.Interface
}

var _ infrastructure.EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(l logger.Interface) *LogPublisher {
	return &LogPublisher{logger: l}
}

func (p *LogPublisher) Publish(_ context.Context, e entity.DerivationEvent) error {
	switch e.Stage {
	case entity.StageFailed:
		p.logger.Error("derivation %s failed for %s: %s", e.Queue, e.Source, e.Error)
	case entity.StageCompleted:
		p.logger.Info("derivation %s completed for %s, %d outputs", e.Queue, e.Source, len(e.Outputs))
	case entity.StageProgress:
		p.logger.Debug("derivation %s for %s at %dms", e.Queue, e.Source, e.ProgressMS)
	default:
		p.logger.Info("derivation %s %s for %s", e.Queue, e.Stage, e.Source)
	}

	return nil
}
