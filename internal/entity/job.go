package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
	"github.com/google/uuid"
)

const (
	AudioConversionQueue = "audioConversionQueue"
	ImageProcessingQueue = "imageProcessingQueue"
)

type DerivationJob interface {
	Queue() string
	Source() string
}

type AudioConversion struct {
	OriginalFilePath string `json:"originalFilePath"`
	YearMonth        string `json:"yearMonth"`
	NewFileName      string `json:"newFileName"`
}

func (AudioConversion) Queue() string { return AudioConversionQueue }

func (j AudioConversion) Source() string { return j.OriginalFilePath }

type ImageProcessing struct {
	OriginalFilePath string `json:"originalFilePath"`
	YearMonth        string `json:"yearMonth"`
	NewFileName      string `json:"newFileName"`
	Extension        string `json:"extension"`
}

func (ImageProcessing) Queue() string { return ImageProcessingQueue }

func (j ImageProcessing) Source() string { return j.OriginalFilePath }

// DecodeJob restores a job from the payload it was enqueued with.
func DecodeJob(queue string, payload []byte) (DerivationJob, error) {
	switch queue {
	case AudioConversionQueue:
		var job AudioConversion
		if err := json.Unmarshal(payload, &job); err != nil {
			return nil, fmt.Errorf("entity - DecodeJob - json.Unmarshal: %w", err)
		}
		return job, nil
	case ImageProcessingQueue:
		var job ImageProcessing
		if err := json.Unmarshal(payload, &job); err != nil {
			return nil, fmt.Errorf("entity - DecodeJob - json.Unmarshal: %w", err)
		}
		return job, nil
	default:
		return nil, fmt.Errorf("entity - DecodeJob - %q: %w", queue, errs.ErrUnknownQueue)
	}
}

type JobHandle struct {
	ID        uuid.UUID
	Queue     string
	VisibleAt time.Time
}
