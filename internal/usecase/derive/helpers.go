package derive

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/google/uuid"
)

// tempPath names a sibling of target that is unique per attempt and hidden from listings.
func tempPath(target string) string {
	return filepath.Join(filepath.Dir(target), fmt.Sprintf(".%s.%s.tmp", filepath.Base(target), uuid.NewString()))
}

type emitter struct {
	events infrastructure.EventPublisher
	logger logger.Interface
	queue  string
	source string
}

func (e emitter) emit(ctx context.Context, ev entity.DerivationEvent) {
	if e.events == nil {
		return
	}

	ev.Queue = e.queue
	ev.Source = e.source
	ev.HappenedAt = time.Now()

	if err := e.events.Publish(ctx, ev); err != nil {
		e.logger.Warn("derive - emit - %s %s: %v", ev.Queue, ev.Stage, err)
	}
}

func (e emitter) failed(ctx context.Context, err error) {
	e.emit(ctx, entity.DerivationEvent{Stage: entity.StageFailed, Error: err.Error()})
}
