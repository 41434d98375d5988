package restapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/andreyxaxa/Asset-Pipeline/config"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/layout"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticHidesDotFiles(t *testing.T) {
	r := layout.New(t.TempDir())

	dir := r.CDNDir("2024-04")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "i1.cdn.jpg"), []byte("jpeg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".i2.cdn.jpg.3f9c.tmp"), []byte("partial"), 0o644))

	cfg := &config.Config{}
	cfg.Storage.PublicPrefix = "/uploads"

	app := fiber.New()
	NewRouter(app, cfg, nil, r, logger.NewWithWriter("error", io.Discard))

	tests := []struct {
		path string
		code int
	}{
		{"/uploads/image/cdn/2024-04/i1.cdn.jpg", http.StatusOK},
		{"/uploads/image/cdn/2024-04/.i2.cdn.jpg.3f9c.tmp", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tc.code, resp.StatusCode)
		})
	}
}

func TestHiddenPath(t *testing.T) {
	assert.True(t, hiddenPath("/uploads/image/png/2024-04/.a.png.0f1e.tmp"))
	assert.True(t, hiddenPath("/uploads/.git/config"))
	assert.False(t, hiddenPath("/uploads/image/png/2024-04/a.png"))
	assert.False(t, hiddenPath("/uploads/audio/mp3/2024-03/a.conv.mp3"))
}
