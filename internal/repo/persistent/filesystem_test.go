package persistent

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreEnsureDirConcurrent(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	dir := filepath.Join(s.Root(), "image", "cdn", "2024-03")

	var wg sync.WaitGroup
	errCh := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- s.EnsureDir(context.Background(), dir)
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		assert.NoError(t, err)
	}
	assert.DirExists(t, dir)
}

func TestFileStoreMove(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	src := filepath.Join(s.Root(), "incoming")
	require.NoError(t, os.WriteFile(src, []byte("RIFF"), 0o644))

	dst := filepath.Join(s.Root(), "audio", "wav", "2024-03", "a.wav")
	require.NoError(t, s.EnsureDir(ctx, filepath.Dir(dst)))
	require.NoError(t, s.Move(ctx, src, dst))

	assert.NoFileExists(t, src)
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(b))
}

func TestFileStoreMoveMissingSource(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = s.Move(context.Background(), filepath.Join(s.Root(), "nope"), filepath.Join(s.Root(), "dst"))
	assert.Error(t, err)
}

func TestFileStoreRemoveMissingIsNoop(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, s.Remove(context.Background(), filepath.Join(s.Root(), "ghost.tmp")))
}

func TestNewFileStoreRequiresRoot(t *testing.T) {
	_, err := NewFileStore("  ")
	assert.Error(t, err)
}
