// service_test exercises the sync pipeline end to end against a real
// on-disk catalog store and media directory, with the block store and
// tag scraper replaced by instrumented test doubles.
package sync_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	gosync "sync"
	"testing"
	"time"

	"github.com/castaway-media/castaway/internal/catalog"
	"github.com/castaway-media/castaway/internal/media"
	"github.com/castaway-media/castaway/internal/sync"
	"github.com/castaway-media/castaway/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errExpected = errors.New("test: expected error")

type Service interface {
	Sync(ctx context.Context) (*sync.Result, error)
}

func init() {
	logger.SetMinLoggingLevel(logger.ERROR.Level())
}

type fakeScraper struct {
	metadata *media.FileAudioMetadata
	err      error
}

func (scraper *fakeScraper) ScrapeFileForAudioInfo(_ string) (*media.FileAudioMetadata, error) {
	if scraper.err != nil {
		return nil, scraper.err
	}
	if scraper.metadata != nil {
		return scraper.metadata, nil
	}

	return &media.FileAudioMetadata{Title: "Fake Title", Artist: "Fake Artist", Album: "Fake Album"}, nil
}

// fakeContentStore counts pushes and tracks how many are in flight
// simultaneously, so tests can assert on the pipeline's concurrency
// bound. Pushes for file names present in failFor return that error.
type fakeContentStore struct {
	mutex       gosync.Mutex
	delay       time.Duration
	failFor     map[string]error
	versionErr  error
	pushes      []string
	inFlight    int
	maxInFlight int
}

func (store *fakeContentStore) Add(_ context.Context, name string, source io.Reader) (string, error) {
	store.mutex.Lock()
	store.inFlight++
	if store.inFlight > store.maxInFlight {
		store.maxInFlight = store.inFlight
	}
	store.mutex.Unlock()

	defer func() {
		store.mutex.Lock()
		store.inFlight--
		store.mutex.Unlock()
	}()

	if _, err := io.Copy(io.Discard, source); err != nil {
		return "", err
	}
	if store.delay > 0 {
		time.Sleep(store.delay)
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()
	if err, ok := store.failFor[name]; ok {
		return "", err
	}

	store.pushes = append(store.pushes, name)
	return "cid-" + name, nil
}

func (store *fakeContentStore) Version(_ context.Context) error {
	return store.versionErr
}

func (store *fakeContentStore) pushCount() int {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return len(store.pushes)
}

func newService(t *testing.T, mediaDir string, parallelism int, scraper *fakeScraper, store *fakeContentStore) (Service, *catalog.FileStore) {
	catalogStore := catalog.NewFileStore(filepath.Join(t.TempDir(), "catalog.json"))
	service, err := sync.New(sync.Config{MediaPath: mediaDir, Parallelism: parallelism}, scraper, store, catalogStore)
	require.Nil(t, err)

	return service, catalogStore
}

func Test_Sync_SecondRunIsIdempotent(t *testing.T) {
	t.Parallel()

	mediaDir := t.TempDir()
	writeMediaFile(t, mediaDir, "a.mp3", "aaaa")
	writeMediaFile(t, mediaDir, "albums/b.flac", "bbbbbb")

	store := &fakeContentStore{}
	service, catalogStore := newService(t, mediaDir, 1, &fakeScraper{}, store)

	first, err := service.Sync(context.Background())
	require.Nil(t, err)
	assert.Equal(t, 2, first.Total)
	assert.Equal(t, 2, first.Added)
	assert.Equal(t, 2, store.pushCount())

	second, err := service.Sync(context.Background())
	require.Nil(t, err)
	assert.Equal(t, 2, second.Total)
	assert.Equal(t, 0, second.Added, "unchanged files must not be re-ingested")
	assert.Equal(t, 2, store.pushCount(), "second run must be side-effect free with respect to the store")

	persisted := catalogStore.Load()
	require.Len(t, persisted, 2)
	assert.Equal(t, "cid-a.mp3", persisted["a.mp3"].ContentID)
	assert.Equal(t, "audio/mpeg", persisted["a.mp3"].MimeType)
	assert.Equal(t, "Fake Artist", persisted["a.mp3"].Artist)
}

func Test_Sync_SymlinkedMediaIsNotRepeatedlyIngested(t *testing.T) {
	t.Parallel()

	mediaDir := t.TempDir()
	writeMediaFile(t, mediaDir, "real.mp3", "aaaa")
	require.Nil(t, os.Symlink(filepath.Join(mediaDir, "real.mp3"), filepath.Join(mediaDir, "linked.mp3")))

	store := &fakeContentStore{}
	service, catalogStore := newService(t, mediaDir, 1, &fakeScraper{}, store)

	first, err := service.Sync(context.Background())
	require.Nil(t, err)
	assert.Equal(t, 1, first.Total, "symlinks must not be sync candidates")
	assert.Equal(t, 1, first.Added)

	second, err := service.Sync(context.Background())
	require.Nil(t, err)
	assert.Equal(t, 1, second.Total)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 1, store.pushCount(), "the linked file's bytes must be pushed exactly once")

	persisted := catalogStore.Load()
	require.Len(t, persisted, 1)
	assert.Nil(t, persisted["linked.mp3"])
}

func Test_Sync_ChangedSizeTriggersReingest(t *testing.T) {
	t.Parallel()

	mediaDir := t.TempDir()
	writeMediaFile(t, mediaDir, "a.mp3", "aaaa")

	store := &fakeContentStore{}
	service, catalogStore := newService(t, mediaDir, 1, &fakeScraper{}, store)

	_, err := service.Sync(context.Background())
	require.Nil(t, err)

	// Rewrite to a different size; the entry becomes stale.
	writeMediaFile(t, mediaDir, "a.mp3", "aaaaaaaa")

	result, err := service.Sync(context.Background())
	require.Nil(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 2, store.pushCount())
	assert.EqualValues(t, 8, catalogStore.Load()["a.mp3"].Size)
}

func Test_Sync_PartialFailureIsIsolated(t *testing.T) {
	t.Parallel()

	mediaDir := t.TempDir()
	writeMediaFile(t, mediaDir, "good-1.mp3", "1111")
	writeMediaFile(t, mediaDir, "good-2.mp3", "2222")
	writeMediaFile(t, mediaDir, "bad.mp3", "3333")

	store := &fakeContentStore{failFor: map[string]error{"bad.mp3": errExpected}}
	service, catalogStore := newService(t, mediaDir, 2, &fakeScraper{}, store)

	// Seed a stale prior entry for the failing file; the run must
	// leave it untouched.
	require.Nil(t, catalogStore.Save(catalog.Catalog{
		"bad.mp3": {RelativePath: "bad.mp3", ContentID: "QmPrior", Size: 999, MimeType: "audio/mpeg"},
	}))

	result, err := service.Sync(context.Background())
	require.Nil(t, err, "per-file failures must not fail the run")
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Added)

	persisted := catalogStore.Load()
	require.Len(t, persisted, 3)
	assert.Equal(t, "cid-good-1.mp3", persisted["good-1.mp3"].ContentID)
	assert.Equal(t, "cid-good-2.mp3", persisted["good-2.mp3"].ContentID)
	assert.Equal(t, "QmPrior", persisted["bad.mp3"].ContentID, "failed file must retain its prior entry")
	assert.EqualValues(t, 999, persisted["bad.mp3"].Size)
}

func Test_Sync_MetadataFailureDoesNotBlockIngestion(t *testing.T) {
	t.Parallel()

	mediaDir := t.TempDir()
	writeMediaFile(t, mediaDir, "untagged.ogg", "oggbytes")

	store := &fakeContentStore{}
	service, catalogStore := newService(t, mediaDir, 1, &fakeScraper{err: errExpected}, store)

	result, err := service.Sync(context.Background())
	require.Nil(t, err)
	assert.Equal(t, 1, result.Added)

	entry := catalogStore.Load()["untagged.ogg"]
	require.NotNil(t, entry)
	assert.Equal(t, "cid-untagged.ogg", entry.ContentID)
	assert.EqualValues(t, 8, entry.Size)
	assert.Equal(t, "audio/ogg", entry.MimeType)
	assert.Empty(t, entry.Title)
	assert.Empty(t, entry.Artist)
	assert.Empty(t, entry.Album)
	assert.Nil(t, entry.DurationSeconds)
}

func Test_Sync_ConcurrencyBoundIsRespected(t *testing.T) {
	t.Parallel()

	mediaDir := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		writeMediaFile(t, mediaDir, name+".mp3", "content-"+name)
	}

	store := &fakeContentStore{delay: 25 * time.Millisecond}
	service, _ := newService(t, mediaDir, 2, &fakeScraper{}, store)

	result, err := service.Sync(context.Background())
	require.Nil(t, err)
	assert.Equal(t, 10, result.Added)
	assert.Equal(t, 10, store.pushCount())
	assert.LessOrEqual(t, store.maxInFlight, 2, "no more than two pushes may be in flight at once")
}

func Test_Sync_UnreachableStoreAbortsRun(t *testing.T) {
	t.Parallel()

	mediaDir := t.TempDir()
	writeMediaFile(t, mediaDir, "a.mp3", "aaaa")

	store := &fakeContentStore{versionErr: errExpected}
	service, catalogStore := newService(t, mediaDir, 1, &fakeScraper{}, store)

	result, err := service.Sync(context.Background())
	assert.Nil(t, result)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, errExpected)
	assert.Equal(t, 0, store.pushCount())
	assert.Empty(t, catalogStore.Load(), "aborted run must not touch the catalog")
}

func Test_New_MediaPathMustNotBeAFile(t *testing.T) {
	t.Parallel()

	filePath := filepath.Join(t.TempDir(), "not-a-dir")
	require.Nil(t, os.WriteFile(filePath, []byte("x"), os.ModePerm))

	catalogStore := catalog.NewFileStore(filepath.Join(t.TempDir(), "catalog.json"))
	_, err := sync.New(sync.Config{MediaPath: filePath}, &fakeScraper{}, &fakeContentStore{}, catalogStore)
	assert.NotNil(t, err)
}

func writeMediaFile(t *testing.T, root string, relPath string, content string) {
	t.Helper()
	path := filepath.Join(root, relPath)
	require.Nil(t, os.MkdirAll(filepath.Dir(path), os.ModePerm))
	require.Nil(t, os.WriteFile(path, []byte(content), os.ModePerm))
}
