// Package classifier maps file extensions to coarse media categories.
package classifier

import (
	"path/filepath"
	"strings"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
)

type Rule struct {
	Category   entity.Category
	Extensions []string
}

// Classifier evaluates rules in order; the first rule listing the extension wins.
type Classifier struct {
	rules []rule
}

type rule struct {
	category entity.Category
	exts     map[string]struct{}
}

func New(rules ...Rule) *Classifier {
	c := &Classifier{rules: make([]rule, 0, len(rules))}

	for _, r := range rules {
		exts := make(map[string]struct{}, len(r.Extensions))
		for _, e := range r.Extensions {
			exts[normalize(e)] = struct{}{}
		}
		c.rules = append(c.rules, rule{category: r.Category, exts: exts})
	}

	return c
}

func Default() *Classifier {
	return New(
		Rule{Category: entity.CategoryAudio, Extensions: []string{"mp3", "ogg", "wav", "flac"}},
		Rule{Category: entity.CategoryImage, Extensions: []string{"jpeg", "jpg", "png", "gif", "webp"}},
		Rule{Category: entity.CategoryVideo, Extensions: []string{"mp4", "avi", "mov", "webm"}},
		Rule{Category: entity.CategoryDocument, Extensions: []string{"pdf", "docx", "txt"}},
	)
}

func (c *Classifier) Classify(extension string) entity.Category {
	ext := normalize(extension)
	if ext == "" {
		return entity.CategoryOther
	}

	for _, r := range c.rules {
		if _, ok := r.exts[ext]; ok {
			return r.category
		}
	}

	return entity.CategoryOther
}

// ExtensionOf returns the lower-cased text after the last dot of the base name.
func ExtensionOf(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	idx := strings.LastIndexByte(base, '.')
	if idx < 0 || idx == len(base)-1 {
		return ""
	}

	return strings.ToLower(base[idx+1:])
}

func normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
