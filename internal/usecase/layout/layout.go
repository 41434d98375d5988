// Package layout computes the canonical on-disk location of stored and derived assets.
package layout

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
)

const bucketLayout = "2006-01"

var thumbnailSuffix = regexp.MustCompile(`\.(\d+)x(\d+)\.jpg$`)

type Resolver struct {
	root string
}

func New(root string) *Resolver {
	return &Resolver{root: filepath.Clean(root)}
}

func (r *Resolver) Root() string {
	return r.root
}

// Bucket returns the calendar bucket (YYYY-MM) for t.
func Bucket(t time.Time) string {
	return t.Format(bucketLayout)
}

// StoredName joins identifier and extension; an empty extension leaves the identifier bare.
func StoredName(id, ext string) string {
	if ext == "" {
		return id
	}

	return id + "." + ext
}

// BaseName strips the last extension from a file name.
func BaseName(fileName string) string {
	name := filepath.Base(fileName)
	if ext := filepath.Ext(name); ext != "" && ext != name {
		return strings.TrimSuffix(name, ext)
	}

	return name
}

func (r *Resolver) PrimaryDir(category entity.Category, ext, bucket string) string {
	if ext == "" {
		return filepath.Join(r.root, string(entity.CategoryOther), bucket)
	}

	return filepath.Join(r.root, string(category), ext, bucket)
}

func (r *Resolver) Primary(category entity.Category, ext, bucket, id string) string {
	return filepath.Join(r.PrimaryDir(category, ext, bucket), StoredName(id, ext))
}

func (r *Resolver) MP3Dir(bucket string) string {
	return filepath.Join(r.root, "audio", "mp3", bucket)
}

func (r *Resolver) MP3Copy(bucket, fileName string) string {
	return filepath.Join(r.MP3Dir(bucket), BaseName(fileName)+".conv.mp3")
}

func (r *Resolver) CDNDir(bucket string) string {
	return filepath.Join(r.root, "image", "cdn", bucket)
}

func (r *Resolver) CDNCopy(bucket, fileName string) string {
	return filepath.Join(r.CDNDir(bucket), BaseName(fileName)+".cdn.jpg")
}

func (r *Resolver) PNGDir(bucket string) string {
	return filepath.Join(r.root, "image", "png", bucket)
}

func (r *Resolver) PNGCopy(bucket, fileName string) string {
	return filepath.Join(r.PNGDir(bucket), BaseName(fileName)+".conv.png")
}

func (r *Resolver) ThumbnailDir(bucket string) string {
	return filepath.Join(r.root, "image", "thumbnails", bucket)
}

func (r *Resolver) Thumbnail(bucket, fileName string, size int) string {
	return filepath.Join(r.ThumbnailDir(bucket), fmt.Sprintf("%s.%dx%d.jpg", BaseName(fileName), size, size))
}

// Rel returns the slash-separated path of p relative to the root.
func (r *Resolver) Rel(p string) (string, error) {
	rel, err := filepath.Rel(r.root, p)
	if err != nil {
		return "", fmt.Errorf("Resolver - Rel - filepath.Rel: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("Resolver - Rel: %s is outside %s", p, r.root)
	}

	return filepath.ToSlash(rel), nil
}

// IsDerivedName reports whether a file name belongs to a derived asset:
// an mp3 or png copy, a CDN copy or a square thumbnail.
func IsDerivedName(name string) bool {
	if strings.Contains(name, ".conv.") || strings.Contains(name, ".cdn.") {
		return true
	}

	m := thumbnailSuffix.FindStringSubmatch(name)

	return m != nil && m[1] == m[2]
}
