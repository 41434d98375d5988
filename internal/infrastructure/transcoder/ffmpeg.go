package transcoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure"
)

const (
	_defaultBinary  = "ffmpeg"
	_defaultQuality = 2
)

var codecs = map[string]string{
	"mp3": "libmp3lame",
	"ogg": "libvorbis",
}

// FFmpeg transcodes audio by running the ffmpeg binary.
type FFmpeg struct {
	binary  string
	quality int
}

var _ infrastructure.Transcoder = (*FFmpeg)(nil)

func New(opts ...Option) *FFmpeg {
	f := &FFmpeg{
		binary:  _defaultBinary,
		quality: _defaultQuality,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

func (f *FFmpeg) Transcode(ctx context.Context, src, dst, format string, progress infrastructure.ProgressFunc) error {
	if _, err := exec.LookPath(f.binary); err != nil {
		return fmt.Errorf("FFmpeg - Transcode - exec.LookPath: %w", err)
	}

	cmd := exec.CommandContext(ctx, f.binary, f.args(src, dst, format)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("FFmpeg - Transcode - cmd.StdoutPipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		return fmt.Errorf("FFmpeg - Transcode - cmd.Start: %w", err)
	}

	readProgress(stdout, progress)

	if err = cmd.Wait(); err != nil {
		return fmt.Errorf("FFmpeg - Transcode - cmd.Wait: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return nil
}

func (f *FFmpeg) args(src, dst, format string) []string {
	codec, ok := codecs[format]
	if !ok {
		codec = format
	}

	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-nostats",
		"-i", src,
		"-vn",
		"-codec:a", codec,
		"-q:a", strconv.Itoa(f.quality),
		"-f", format,
		"-progress", "pipe:1",
		dst,
	}
}

// readProgress drains ffmpeg's key=value progress stream.
func readProgress(r io.Reader, progress infrastructure.ProgressFunc) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if progress == nil {
			continue
		}

		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok || key != "out_time_ms" {
			continue
		}

		// out_time_ms is reported in microseconds
		us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || us < 0 {
			continue
		}

		progress(us / 1000)
	}
}
