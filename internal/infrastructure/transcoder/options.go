package transcoder

type Option func(*FFmpeg)

func Binary(path string) Option {
	return func(f *FFmpeg) {
		if path != "" {
			f.binary = path
		}
	}
}

// Quality is the VBR quality passed to -q:a, 0 is best.
func Quality(q int) Option {
	return func(f *FFmpeg) {
		f.quality = q
	}
}
