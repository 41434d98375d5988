package entity

import (
	"fmt"
	"time"
)

type DerivedKind string

const (
	KindMP3Copy DerivedKind = "mp3-copy"
	KindPNGCopy DerivedKind = "png-copy"
	KindCDNJPEG DerivedKind = "cdn-jpeg"
)

func ThumbnailKind(size int) DerivedKind {
	return DerivedKind(fmt.Sprintf("thumbnail-%d", size))
}

type DerivedAsset struct {
	Kind DerivedKind `json:"kind"`
	Path string      `json:"path"`
}

type Stage string

const (
	StageStarted   Stage = "started"
	StageProgress  Stage = "progress"
	StageCompleted Stage = "completed"
	StageFailed    Stage = "failed"
)

type DerivationEvent struct {
	Queue      string         `json:"queue"`
	Source     string         `json:"source"`
	Stage      Stage          `json:"stage"`
	Outputs    []DerivedAsset `json:"outputs,omitempty"`
	ProgressMS int64          `json:"progressMs,omitempty"`
	Error      string         `json:"error,omitempty"`
	HappenedAt time.Time      `json:"happenedAt"`
}
