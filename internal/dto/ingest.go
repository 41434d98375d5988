package dto

import "github.com/andreyxaxa/Asset-Pipeline/internal/entity"

// IngestResult is one entry of a batch ingestion; exactly one of Asset and Err is set.
type IngestResult struct {
	OriginalName string
	Asset        *entity.StoredAsset
	Err          error
}
