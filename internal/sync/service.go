package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/castaway-media/castaway/internal/catalog"
	"github.com/castaway-media/castaway/internal/media"
	"github.com/castaway-media/castaway/pkg/logger"
	"github.com/castaway-media/castaway/pkg/worker"
	"github.com/google/uuid"
)

var log = logger.Get("SyncServ")

type (
	scraper interface {
		ScrapeFileForAudioInfo(path string) (*media.FileAudioMetadata, error)
	}

	contentStore interface {
		Add(ctx context.Context, name string, source io.Reader) (string, error)
		Version(ctx context.Context) error
	}

	catalogStore interface {
		Load() catalog.Catalog
		Save(catalog.Catalog) error
	}

	// Result summarises a single sync run: how many candidate files
	// the walker found, and how many of them were newly pushed to
	// the block store during this run.
	Result struct {
		RunID    uuid.UUID
		Total    int
		Added    int
		Duration time.Duration
	}

	// syncService mirrors a media directory into a content-addressed
	// block store. Each run:
	// - Walks the media root for candidate audio files
	// - Filters out files whose catalog entry is already up to date
	// - Ingests the remainder under a bounded worker pool
	// - Persists the updated catalog exactly once, atomically
	//
	// Per-file failure never fails the run; only total inability to
	// reach the block store does. Two concurrent runs are not
	// coordinated here - callers must serialise Sync invocations.
	syncService struct {
		scraper      scraper
		contentStore contentStore
		catalogStore catalogStore
		config       Config
	}
)

// New creates a new sync service for subsequent calls to 'Sync'.
//
// The configs 'MediaPath' is validated to be an existing directory.
// If the directory is missing it will be created, if the path
// provided points to an existing FILE, an error is returned.
func New(config Config, scraper scraper, contentStore contentStore, catalogStore catalogStore) (*syncService, error) {
	if info, err := os.Stat(config.MediaPath); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("media path '%s' is not a directory", config.MediaPath)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(config.MediaPath, os.ModeDir|os.ModePerm); err != nil {
			return nil, fmt.Errorf("media path '%s' could not be created: %w", config.MediaPath, err)
		}
	} else {
		return nil, fmt.Errorf("media path '%s' could not be accessed: %w", config.MediaPath, err)
	}

	return &syncService{
		scraper:      scraper,
		contentStore: contentStore,
		catalogStore: catalogStore,
		config:       config,
	}, nil
}

// Sync performs one full synchronisation run. All change-detection
// decisions are made against the single catalog snapshot loaded at
// the start of the run; external mutation of the persisted catalog
// during a run is not supported.
//
// Sync does not return until every dispatched ingestion has finished
// or failed, at which point the merged catalog - the snapshot plus
// every successful ingestion, including those that preceded any
// failures - is persisted.
func (service *syncService) Sync(ctx context.Context) (*Result, error) {
	runID := uuid.New()
	startedAt := time.Now()
	log.Emit(logger.NEW, "Starting sync run %s over %s\n", runID, service.config.MediaPath)

	// A store that cannot even report its version will fail every
	// single push; abort the run before doing any work.
	if err := service.contentStore.Version(ctx); err != nil {
		return nil, fmt.Errorf("sync run aborted, content store unreachable: %w", err)
	}

	snapshot := service.catalogStore.Load()
	candidates, err := discoverAudioFiles(service.config.MediaPath)
	if err != nil {
		return nil, err
	}

	pending := make([]string, 0, len(candidates))
	for relPath, size := range candidates {
		if needsIngest(snapshot[relPath], size) {
			pending = append(pending, relPath)
		}
	}
	log.Emit(logger.INFO, "Sync run %s found %d candidate files, %d require ingestion\n", runID, len(candidates), len(pending))

	working := snapshot.Clone()
	mutex := gosync.Mutex{}
	added := 0

	pool := worker.NewPool(service.config.parallelism())
	if err := pool.Start(); err != nil {
		return nil, fmt.Errorf("sync run %s failed to start worker pool: %w", runID, err)
	}
	for _, relPath := range pending {
		relPath := relPath
		err := pool.Queue(func() {
			entry, err := service.ingestFile(ctx, relPath)
			if err != nil {
				// Isolated failure: the file is skipped for this run and
				// its previous catalog entry (if any) is left untouched.
				log.Emit(logger.ERROR, "Ingestion of %s failed: %s\n", relPath, err.Error())
				return
			}

			mutex.Lock()
			working[relPath] = entry
			added++
			mutex.Unlock()

			log.Emit(logger.SUCCESS, "Ingested %s as %s\n", relPath, entry.ContentID)
		})
		if err != nil {
			log.Emit(logger.ERROR, "Failed to dispatch ingestion of %s: %s\n", relPath, err.Error())
		}
	}
	pool.Close()

	// Persist whatever succeeded, even if some (or all) ingestions
	// failed above.
	if err := service.catalogStore.Save(working); err != nil {
		return nil, fmt.Errorf("sync run %s completed but catalog could not be persisted: %w", runID, err)
	}

	result := &Result{RunID: runID, Total: len(candidates), Added: added, Duration: time.Since(startedAt)}
	log.Emit(logger.SUCCESS, "Sync run %s complete: %d/%d files newly ingested in %s\n", runID, result.Added, result.Total, result.Duration)
	return result, nil
}

// ingestFile performs the per-file work: stat, best-effort tag
// scrape, and a streaming push to the block store. The returned entry
// records the file's size as observed by the stat performed here, not
// the size seen during the walk.
func (service *syncService) ingestFile(ctx context.Context, relPath string) (*catalog.Entry, error) {
	absPath := filepath.Join(service.config.MediaPath, relPath)
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", absPath, err)
	}

	// Tag scraping is best-effort: files with no (or mangled) tags
	// are ingested all the same, with the metadata fields left empty.
	metadata, err := service.scraper.ScrapeFileForAudioInfo(absPath)
	if err != nil {
		log.Emit(logger.WARNING, "No metadata recovered from %s: %s\n", relPath, err.Error())
		metadata = &media.FileAudioMetadata{}
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", absPath, err)
	}
	defer file.Close()

	cid, err := service.contentStore.Add(ctx, filepath.Base(relPath), file)
	if err != nil {
		return nil, fmt.Errorf("failed to push %s to block store: %w", relPath, err)
	}

	return &catalog.Entry{
		RelativePath:    relPath,
		ContentID:       cid,
		Size:            info.Size(),
		Title:           metadata.Title,
		Artist:          metadata.Artist,
		Album:           metadata.Album,
		DurationSeconds: metadata.DurationSeconds,
		MimeType:        media.MimeTypeFor(relPath),
	}, nil
}
