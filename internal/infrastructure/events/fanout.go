package events

import (
	"context"
	"errors"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure"
)

type Fanout []infrastructure.EventPublisher

func (f Fanout) Publish(ctx context.Context, e entity.DerivationEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
