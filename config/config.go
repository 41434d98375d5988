package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	QueueDriverKafka  = "kafka"
	QueueDriverMemory = "memory"

	NameStrategyUUID   = "uuid"
	NameStrategyUpload = "upload"
)

type (
	Config struct {
		App             App
		HTTP            HTTP
		Log             Log
		Storage         Storage
		Classifier      Classifier
		Derivation      Derivation
		Queue           Queue
		PG              PG
		S3              S3
		NATS            NATS
		OutboxRelay     OutboxRelay
		Kafka           Kafka
		KafkaController KafkaController
		Swagger         Swagger
	}

	App struct {
		Name    string `env:"APP_NAME" envDefault:"asset-pipeline"`
		Version string `env:"APP_VERSION" envDefault:"1.0.0"`
	}

	HTTP struct {
		Port           string        `env:"HTTP_PORT,required"`
		UsePreforkMode bool          `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
		ReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"60s"`
		WriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	Storage struct {
		Root             string   `env:"STORAGE_ROOT" envDefault:"./data/uploads"`
		IncomingDir      string   `env:"STORAGE_INCOMING_DIR" envDefault:"./data/incoming"`
		PublicPrefix     string   `env:"STORAGE_PUBLIC_PREFIX" envDefault:"/uploads"`
		MaxUploadSize    int64    `env:"STORAGE_MAX_UPLOAD_SIZE" envDefault:"104857600"`
		MaxBatchFiles    int      `env:"STORAGE_MAX_BATCH_FILES" envDefault:"10"`
		AllowedMIMETypes []string `env:"STORAGE_ALLOWED_MIME_TYPES" envSeparator:","`
		NameStrategy     string   `env:"STORAGE_NAME_STRATEGY" envDefault:"uuid"`
	}

	Classifier struct {
		Audio    []string `env:"AUDIO_EXTENSIONS" envSeparator:"," envDefault:"mp3,ogg,wav,flac"`
		Image    []string `env:"IMAGE_EXTENSIONS" envSeparator:"," envDefault:"jpeg,jpg,png,gif,webp"`
		Video    []string `env:"VIDEO_EXTENSIONS" envSeparator:"," envDefault:"mp4,avi,mov,webm"`
		Document []string `env:"DOCUMENT_EXTENSIONS" envSeparator:"," envDefault:"pdf,docx,txt"`
	}

	Derivation struct {
		FFmpegPath         string        `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
		AudioQuality       int           `env:"DERIVE_AUDIO_QUALITY" envDefault:"2"`
		CDNWidth           int           `env:"DERIVE_CDN_WIDTH" envDefault:"1200"`
		CDNQuality         int           `env:"DERIVE_CDN_QUALITY" envDefault:"90"`
		ThumbnailSizes     []int         `env:"DERIVE_THUMBNAIL_SIZES" envSeparator:"," envDefault:"64,256,512"`
		ThumbnailQuality   int           `env:"DERIVE_THUMBNAIL_QUALITY" envDefault:"80"`
		LosslessExtensions []string      `env:"DERIVE_LOSSLESS_EXTENSIONS" envSeparator:"," envDefault:"webp"`
		ImageConcurrency   int           `env:"DERIVE_IMAGE_CONCURRENCY"`
		ConversionTimeout  time.Duration `env:"DERIVE_CONVERSION_TIMEOUT" envDefault:"10m"`
	}

	Queue struct {
		Driver  string        `env:"QUEUE_DRIVER" envDefault:"kafka"`
		Delay   time.Duration `env:"QUEUE_DELAY" envDefault:"1s"`
		Workers int           `env:"QUEUE_WORKERS"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX" envDefault:"4"`
		URL     string `env:"PG_URL"`
	}

	S3 struct {
		Enabled        bool          `env:"S3_ENABLED" envDefault:"false"`
		Endpoint       string        `env:"S3_ENDPOINT"`
		AccessKey      string        `env:"S3_ACCESS_KEY"`
		SecretKey      string        `env:"S3_SECRET_KEY"`
		Bucket         string        `env:"S3_BUCKET" envDefault:"cdn"`
		Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
		MaxAttempts    int           `env:"S3_MAX_ATTEMPTS" envDefault:"3"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	NATS struct {
		URL           string `env:"NATS_URL"`
		EventsSubject string `env:"NATS_EVENTS_SUBJECT" envDefault:"assets.derivation"`
	}

	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
		GroupID string   `env:"KAFKA_GROUP_ID" envDefault:"asset-derivation-workers"`
		Topic   string   `env:"KAFKA_TOPIC" envDefault:"asset-derivation-jobs"`
	}

	OutboxRelay struct {
		PollInterval        time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"500ms"`
		MarkFailedInterval  time.Duration `env:"OUTBOX_RELAY_MARK_FAILED_INTERVAL" envDefault:"2m"`
		CleanupInterval     time.Duration `env:"OUTBOX_RELAY_CLEANUP_INTERVAL" envDefault:"1h"`
		ReclaimInterval     time.Duration `env:"OUTBOX_RELAY_RECLAIM_INTERVAL" envDefault:"1m"`
		Lease               time.Duration `env:"OUTBOX_RELAY_LEASE" envDefault:"30m"`
		Retention           time.Duration `env:"OUTBOX_RELAY_RETENTION" envDefault:"168h"`
		ProcessBatchTimeout time.Duration `env:"OUTBOX_RELAY_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout     time.Duration `env:"OUTBOX_RELAY_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
		MaxRetries          int           `env:"OUTBOX_RELAY_MAX_RETRIES" envDefault:"3"`
	}

	KafkaController struct {
		CommitTimeout   time.Duration `env:"KAFKA_CONTROLLER_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"KAFKA_CONTROLLER_PROCESS_TIMEOUT" envDefault:"15m"`
		ShutdownTimeout time.Duration `env:"KAFKA_CONTROLLER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if cfg.Queue.Workers <= 0 {
		cfg.Queue.Workers = runtime.NumCPU()
	}
	if cfg.Derivation.ImageConcurrency <= 0 {
		cfg.Derivation.ImageConcurrency = runtime.NumCPU()
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}

// NewOffline loads the sections used by the operator tooling. Settings of the
// HTTP server are not read, so the tooling runs without HTTP_PORT and LOG_LEVEL.
func NewOffline() (*Config, error) {
	cfg := &Config{Log: Log{Level: "info"}}

	for _, section := range []any{&cfg.App, &cfg.Storage, &cfg.Classifier, &cfg.Derivation, &cfg.Queue, &cfg.PG} {
		if err := env.Parse(section); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	if cfg.Derivation.ImageConcurrency <= 0 {
		cfg.Derivation.ImageConcurrency = runtime.NumCPU()
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.Queue.Driver {
	case QueueDriverMemory:
	case QueueDriverKafka:
		if c.PG.URL == "" {
			errs = append(errs, errors.New("PG_URL is required for the kafka queue driver"))
		}
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required for the kafka queue driver"))
		}
		if c.OutboxRelay.Lease <= c.KafkaController.ProcessTimeout {
			errs = append(errs, fmt.Errorf("OUTBOX_RELAY_LEASE must exceed KAFKA_CONTROLLER_PROCESS_TIMEOUT (%s), got %s",
				c.KafkaController.ProcessTimeout, c.OutboxRelay.Lease))
		}
	default:
		errs = append(errs, fmt.Errorf("QUEUE_DRIVER must be %q or %q, got %q", QueueDriverKafka, QueueDriverMemory, c.Queue.Driver))
	}

	switch c.Storage.NameStrategy {
	case NameStrategyUUID, NameStrategyUpload:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_NAME_STRATEGY must be %q or %q, got %q", NameStrategyUUID, NameStrategyUpload, c.Storage.NameStrategy))
	}

	if c.Storage.MaxUploadSize <= 0 {
		errs = append(errs, errors.New("STORAGE_MAX_UPLOAD_SIZE must be positive"))
	}
	if c.Storage.MaxBatchFiles <= 0 {
		errs = append(errs, errors.New("STORAGE_MAX_BATCH_FILES must be positive"))
	}
	if c.Queue.Delay < 0 {
		errs = append(errs, errors.New("QUEUE_DELAY must not be negative"))
	}
	if c.Derivation.CDNWidth <= 0 {
		errs = append(errs, errors.New("DERIVE_CDN_WIDTH must be positive"))
	}

	for _, q := range []struct {
		name string
		v    int
	}{
		{"DERIVE_CDN_QUALITY", c.Derivation.CDNQuality},
		{"DERIVE_THUMBNAIL_QUALITY", c.Derivation.ThumbnailQuality},
	} {
		if q.v < 1 || q.v > 100 {
			errs = append(errs, fmt.Errorf("%s must be within 1..100, got %d", q.name, q.v))
		}
	}

	for _, size := range c.Derivation.ThumbnailSizes {
		if size <= 0 {
			errs = append(errs, fmt.Errorf("DERIVE_THUMBNAIL_SIZES must be positive, got %d", size))
		}
	}

	if c.S3.Enabled && c.S3.Endpoint == "" {
		errs = append(errs, errors.New("S3_ENDPOINT is required when S3_ENABLED is set"))
	}

	return errors.Join(errs...)
}
