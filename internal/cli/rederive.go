package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/internal/app"
	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure/events"
	"github.com/andreyxaxa/Asset-Pipeline/internal/repo/persistent"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/classifier"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/ingest"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/jobs"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/layout"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/postgres"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	rederiveLocal    bool
	rederiveDryRun   bool
	rederiveCategory string
)

var rederiveCmd = &cobra.Command{
	Use:   "rederive",
	Short: "Schedule derived assets for stored originals",
	Long: `Walk the audio and image originals under STORAGE_ROOT and schedule their
derivation jobs again. Existing derived files are overwritten in place.

By default jobs are written to the Postgres outbox (PG_URL) and picked up by
the running server. With --local the derivation runs in this process.

Examples:
  assetctl rederive --dry-run
  assetctl rederive --category image
  assetctl rederive --local`,
	Args: cobra.NoArgs,
	RunE: runRederive,
}

func init() {
	rederiveCmd.Flags().BoolVar(&rederiveLocal, "local", false, "run derivation in this process instead of enqueueing")
	rederiveCmd.Flags().BoolVarP(&rederiveDryRun, "dry-run", "n", false, "only list the originals that would be scheduled")
	rederiveCmd.Flags().StringVarP(&rederiveCategory, "category", "c", "", "limit to one category (audio or image)")
}

func runRederive(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := logger.New(cfg.Log.Level)

	files, err := persistent.NewFileStore(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	c := app.Classifier(cfg.Classifier)
	resolver := layout.New(files.Root())

	originals, err := findOriginals(resolver, c, entity.Category(rederiveCategory))
	if err != nil {
		return fmt.Errorf("find originals: %w", err)
	}

	out := cmd.OutOrStdout()

	if rederiveDryRun {
		for _, asset := range originals {
			fmt.Fprintf(out, "%s\t%s\n", asset.Category, asset.Path)
		}
		fmt.Fprintf(out, "%d originals\n", len(originals))

		return nil
	}

	var q usecase.JobQueue
	if rederiveLocal {
		q = inlineQueue(app.Handlers(cfg, resolver, files, events.NewLogPublisher(l), nil, l))
	} else {
		if cfg.PG.URL == "" {
			return errors.New("PG_URL is required to enqueue jobs, use --local to derive in process")
		}

		pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pg.Close()

		q = jobs.New(persistent.NewJobOutboxRepo(pg), pg, l)
	}

	uc := ingest.New(c, resolver, files, q, l)

	return requeueAll(ctx, out, uc, originals)
}

type requeuer interface {
	Requeue(ctx context.Context, asset *entity.StoredAsset) (bool, error)
}

func requeueAll(ctx context.Context, out io.Writer, uc requeuer, originals []*entity.StoredAsset) error {
	var scheduled, failed int

	for _, asset := range originals {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("interrupted after %d of %d: %w", scheduled+failed, len(originals), err)
		}

		ok, err := uc.Requeue(ctx, asset)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL\t%s\t%v\n", asset.Path, err)
			continue
		}
		if ok {
			scheduled++
			if verbose {
				fmt.Fprintf(out, "OK\t%s\n", asset.Path)
			}
		}
	}

	fmt.Fprintf(out, "%d scheduled, %d failed\n", scheduled, failed)

	if failed > 0 {
		return fmt.Errorf("%d originals failed", failed)
	}

	return nil
}

// findOriginals lists uploaded audio and image files; derived outputs and
// in-flight temporary files are skipped.
func findOriginals(r *layout.Resolver, c *classifier.Classifier, only entity.Category) ([]*entity.StoredAsset, error) {
	var originals []*entity.StoredAsset

	for _, category := range []entity.Category{entity.CategoryAudio, entity.CategoryImage} {
		if only != "" && only != category {
			continue
		}

		base := filepath.Join(r.Root(), string(category))

		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) && path == base {
					return filepath.SkipDir
				}
				return err
			}

			name := d.Name()

			if d.IsDir() {
				if path == r.CDNDir("") || path == r.ThumbnailDir("") {
					return filepath.SkipDir
				}
				return nil
			}

			if strings.HasPrefix(name, ".") || layout.IsDerivedName(name) {
				return nil
			}

			ext := classifier.ExtensionOf(name)
			if c.Classify(ext) != category {
				return nil
			}

			id := layout.BaseName(name)
			originals = append(originals, &entity.StoredAsset{
				ID:         id,
				StoredName: name,
				Category:   category,
				Extension:  ext,
				Bucket:     filepath.Base(filepath.Dir(path)),
				Path:       path,
			})

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", base, err)
		}
	}

	return originals, nil
}

// inlineQueue runs each job as soon as it is enqueued.
type inlineQueue map[string]usecase.JobHandler

func (q inlineQueue) Enqueue(ctx context.Context, job entity.DerivationJob, _ time.Duration) (entity.JobHandle, error) {
	h, ok := q[job.Queue()]
	if !ok {
		return entity.JobHandle{}, fmt.Errorf("no handler for %s", job.Queue())
	}

	if err := h(ctx, job); err != nil {
		return entity.JobHandle{}, err
	}

	return entity.JobHandle{ID: uuid.New(), Queue: job.Queue(), VisibleAt: time.Now()}, nil
}
