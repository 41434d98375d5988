package entity

import "time"

// UploadedFile is a file staged by the intake layer and not yet placed into storage.
type UploadedFile struct {
	OriginalName string
	TempPath     string
	Size         int64
}

type StoredAsset struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	StoredName   string    `json:"storedName"`
	Category     Category  `json:"type"`
	Extension    string    `json:"extension"`
	Bucket       string    `json:"yearMonth"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"createdAt"`
}
