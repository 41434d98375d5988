package validate

import (
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
	"github.com/stretchr/testify/assert"
)

func header(name, contentType string, size int64) *multipart.FileHeader {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType)

	return &multipart.FileHeader{Filename: name, Header: h, Size: size}
}

func TestSize(t *testing.T) {
	l := Limits{MaxUploadSize: 10}

	assert.NoError(t, l.Size(header("a.png", "image/png", 10)))
	assert.ErrorIs(t, l.Size(header("a.png", "image/png", 11)), errs.ErrValidationFailure)
}

func TestMIMEType(t *testing.T) {
	open := Limits{}
	assert.NoError(t, open.MIMEType(header("a.bin", "application/octet-stream", 1)))

	l := Limits{AllowedMIMETypes: []string{"image/png", " audio/mpeg"}}
	assert.NoError(t, l.MIMEType(header("a.png", "IMAGE/PNG", 1)))
	assert.NoError(t, l.MIMEType(header("a.mp3", "audio/mpeg; charset=binary", 1)))
	assert.ErrorIs(t, l.MIMEType(header("a.exe", "application/x-msdownload", 1)), errs.ErrValidationFailure)
}

func TestBatchCount(t *testing.T) {
	l := Limits{MaxBatchFiles: 2}

	assert.NoError(t, l.BatchCount(2))
	assert.ErrorIs(t, l.BatchCount(3), errs.ErrValidationFailure)
}
