package derive

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure/processor"
	"github.com/andreyxaxa/Asset-Pipeline/internal/repo/persistent"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/layout"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bucket = "2024-03"

var quiet = logger.NewWithWriter("error", io.Discard)

type recorder struct {
	mu     sync.Mutex
	events []entity.DerivationEvent
}

func (r *recorder) Publish(_ context.Context, e entity.DerivationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) stages() []entity.Stage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entity.Stage, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Stage)
	}
	return out
}

func newStore(t *testing.T) (*layout.Resolver, *persistent.FileStore) {
	t.Helper()

	root := t.TempDir()
	store, err := persistent.NewFileStore(root)
	require.NoError(t, err)

	return layout.New(root), store
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 7 {
		for x := 0; x < w; x += 7 {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()

	var files []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, p)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(files)

	return files
}

func dims(t *testing.T, path string) (int, int) {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)

	return cfg.Width, cfg.Height
}

// Audio

type fakeTranscoder struct {
	calls int
	fail  bool
}

func (f *fakeTranscoder) Transcode(_ context.Context, src, dst, format string, progress infrastructure.ProgressFunc) error {
	f.calls++

	if err := os.WriteFile(dst, []byte("ID3 "+format+" of "+filepath.Base(src)), 0o644); err != nil {
		return err
	}
	if progress != nil {
		progress(500)
	}
	if f.fail {
		return errors.New("ffmpeg exited with status 1")
	}

	return nil
}

func TestAudioDeriverIdempotent(t *testing.T) {
	r, store := newStore(t)
	events := &recorder{}
	tr := &fakeTranscoder{}
	d := NewAudioDeriver(r, store, tr, events, 0, quiet)

	src := r.Primary(entity.CategoryAudio, "wav", bucket, "abc")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("RIFF"), 0o644))

	job := entity.AudioConversion{OriginalFilePath: src, YearMonth: bucket, NewFileName: "abc.wav"}

	first, err := d.Run(context.Background(), job)
	require.NoError(t, err)
	second, err := d.Run(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, r.MP3Copy(bucket, "abc.wav"), first.Path)
	assert.Equal(t, entity.KindMP3Copy, first.Kind)
	assert.Equal(t, 2, tr.calls)

	assert.Equal(t, []string{
		"audio/mp3/2024-03/abc.conv.mp3",
		"audio/wav/2024-03/abc.wav",
	}, listFiles(t, r.Root()))

	assert.Equal(t, []entity.Stage{
		entity.StageStarted, entity.StageProgress, entity.StageCompleted,
		entity.StageStarted, entity.StageProgress, entity.StageCompleted,
	}, events.stages())
}

func TestAudioDeriverFailureLeavesNoOutput(t *testing.T) {
	r, store := newStore(t)
	events := &recorder{}
	d := NewAudioDeriver(r, store, &fakeTranscoder{fail: true}, events, 0, quiet)

	job := entity.AudioConversion{OriginalFilePath: "/nowhere/x.ogg", YearMonth: bucket, NewFileName: "x.ogg"}

	_, err := d.Run(context.Background(), job)
	require.ErrorIs(t, err, errs.ErrConversionFailure)

	assert.Empty(t, listFiles(t, r.Root()))
	assert.Equal(t, entity.StageFailed, events.stages()[len(events.stages())-1])
}

func TestAudioDeriverHandleRejectsOtherJobs(t *testing.T) {
	r, store := newStore(t)
	d := NewAudioDeriver(r, store, &fakeTranscoder{}, nil, 0, quiet)

	err := d.Handle(context.Background(), entity.ImageProcessing{})
	assert.ErrorIs(t, err, errs.ErrUnknownQueue)
}

// Image

type fakeCDN struct {
	keys []string
}

func (c *fakeCDN) Publish(_ context.Context, localPath, key string) error {
	if _, err := os.Stat(localPath); err != nil {
		return err
	}
	c.keys = append(c.keys, key)
	return nil
}

func TestImageDeriverProducesFourOutputs(t *testing.T) {
	r, store := newStore(t)
	cdn := &fakeCDN{}
	d := NewImageDeriver(r, store, processor.New(), nil, cdn, DefaultImageOptions(), quiet)

	src := r.Primary(entity.CategoryImage, "png", bucket, "pic")
	writePNG(t, src, 2000, 1000)

	derived, err := d.Run(context.Background(), entity.ImageProcessing{
		OriginalFilePath: src, YearMonth: bucket, NewFileName: "pic.png", Extension: "png",
	})
	require.NoError(t, err)
	require.Len(t, derived, 4)

	assert.Equal(t, []string{
		"image/cdn/2024-03/pic.cdn.jpg",
		"image/png/2024-03/pic.png",
		"image/thumbnails/2024-03/pic.256x256.jpg",
		"image/thumbnails/2024-03/pic.512x512.jpg",
		"image/thumbnails/2024-03/pic.64x64.jpg",
	}, listFiles(t, r.Root()))

	w, h := dims(t, r.CDNCopy(bucket, "pic.png"))
	assert.LessOrEqual(t, w, 1200)
	assert.Equal(t, 600, h)

	for _, size := range []int{64, 256, 512} {
		w, h := dims(t, r.Thumbnail(bucket, "pic.png", size))
		assert.Equal(t, size, w)
		assert.Equal(t, size, h)
	}

	assert.Equal(t, []string{"image/cdn/2024-03/pic.cdn.jpg"}, cdn.keys)
}

func TestImageDeriverPNGCopyOnlyForLossless(t *testing.T) {
	r, store := newStore(t)
	d := NewImageDeriver(r, store, processor.New(), nil, nil, DefaultImageOptions(), quiet)

	webp := r.Primary(entity.CategoryImage, "webp", bucket, "w")
	writePNG(t, webp, 300, 200)
	jpg := r.Primary(entity.CategoryImage, "jpg", bucket, "j")
	writePNG(t, jpg, 300, 200)

	derived, err := d.Run(context.Background(), entity.ImageProcessing{
		OriginalFilePath: webp, YearMonth: bucket, NewFileName: "w.webp", Extension: "webp",
	})
	require.NoError(t, err)
	assert.Len(t, derived, 5)
	assert.FileExists(t, r.PNGCopy(bucket, "w.webp"))

	derived, err = d.Run(context.Background(), entity.ImageProcessing{
		OriginalFilePath: jpg, YearMonth: bucket, NewFileName: "j.jpg", Extension: "jpg",
	})
	require.NoError(t, err)
	assert.Len(t, derived, 4)
	assert.NoFileExists(t, r.PNGCopy(bucket, "j.jpg"))

	// small sources are not upscaled for the CDN
	w, _ := dims(t, r.CDNCopy(bucket, "j.jpg"))
	assert.Equal(t, 300, w)
}

type flakyEngine struct {
	*processor.ImageProcessor
	failSize int
}

func (e flakyEngine) Save(img image.Image, path string, format infrastructure.ImageFormat, quality int) error {
	if img.Bounds().Dx() == e.failSize {
		return errors.New("encoder exploded")
	}
	return e.ImageProcessor.Save(img, path, format, quality)
}

func TestImageDeriverFailsWholeJob(t *testing.T) {
	r, store := newStore(t)
	events := &recorder{}
	opts := DefaultImageOptions()
	opts.Concurrency = 1
	d := NewImageDeriver(r, store, flakyEngine{processor.New(), 256}, events, nil, opts, quiet)

	src := r.Primary(entity.CategoryImage, "png", bucket, "p")
	writePNG(t, src, 800, 600)

	_, err := d.Run(context.Background(), entity.ImageProcessing{
		OriginalFilePath: src, YearMonth: bucket, NewFileName: "p.png", Extension: "png",
	})
	require.ErrorIs(t, err, errs.ErrConversionFailure)

	for _, f := range listFiles(t, r.Root()) {
		assert.NotContains(t, f, ".tmp")
	}
	assert.NoFileExists(t, r.Thumbnail(bucket, "p.png", 256))
	assert.Contains(t, events.stages(), entity.StageFailed)
}

func TestImageDeriverUnreadableSource(t *testing.T) {
	r, store := newStore(t)
	d := NewImageDeriver(r, store, processor.New(), nil, nil, DefaultImageOptions(), quiet)

	_, err := d.Run(context.Background(), entity.ImageProcessing{
		OriginalFilePath: filepath.Join(r.Root(), "missing.png"), YearMonth: bucket, NewFileName: "missing.png", Extension: "png",
	})
	assert.ErrorIs(t, err, errs.ErrConversionFailure)
}
