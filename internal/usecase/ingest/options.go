package ingest

import (
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/internal/repo"
)

type Option func(*IngestUseCase)

// Catalog records stored assets; with a transactor the record and the job enqueue commit together.
func Catalog(assets repo.AssetRepo, transactor repo.Transactor) Option {
	return func(uc *IngestUseCase) {
		uc.assets = assets
		if transactor != nil {
			uc.transactor = transactor
		}
	}
}

func Delay(d time.Duration) Option {
	return func(uc *IngestUseCase) {
		uc.delay = d
	}
}

func Names(gen IDGenerator) Option {
	return func(uc *IngestUseCase) {
		uc.newID = gen
	}
}

func Clock(now func() time.Time) Option {
	return func(uc *IngestUseCase) {
		uc.now = now
	}
}
