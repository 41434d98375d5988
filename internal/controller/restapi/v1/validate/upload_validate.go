package validate

import (
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
)

// Limits bounds what the intake layer accepts. Rejections wrap errs.ErrValidationFailure.
type Limits struct {
	MaxUploadSize    int64
	MaxBatchFiles    int
	AllowedMIMETypes []string
}

// Size reports whether the part fits into MaxUploadSize.
func (l Limits) Size(fh *multipart.FileHeader) error {
	if l.MaxUploadSize > 0 && fh.Size > l.MaxUploadSize {
		return fmt.Errorf("%w: file %q is larger than %d bytes", errs.ErrValidationFailure, fh.Filename, l.MaxUploadSize)
	}

	return nil
}

// MIMEType checks the declared content type; an empty allow-list admits everything.
func (l Limits) MIMEType(fh *multipart.FileHeader) error {
	if len(l.AllowedMIMETypes) == 0 {
		return nil
	}

	contentType := strings.ToLower(strings.TrimSpace(fh.Header.Get("Content-Type")))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	for _, allowed := range l.AllowedMIMETypes {
		if strings.EqualFold(strings.TrimSpace(allowed), contentType) {
			return nil
		}
	}

	return fmt.Errorf("%w: file %q has unsupported type %q", errs.ErrValidationFailure, fh.Filename, contentType)
}

func (l Limits) BatchCount(n int) error {
	if l.MaxBatchFiles > 0 && n > l.MaxBatchFiles {
		return fmt.Errorf("%w: too many files: %d, max %d", errs.ErrValidationFailure, n, l.MaxBatchFiles)
	}

	return nil
}
