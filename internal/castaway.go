package internal

import (
	"context"
	"fmt"
	"io"
	gosync "sync"

	"github.com/castaway-media/castaway/internal/api"
	"github.com/castaway-media/castaway/internal/catalog"
	"github.com/castaway-media/castaway/internal/http/blockstore"
	"github.com/castaway-media/castaway/internal/media"
	"github.com/castaway-media/castaway/internal/stream"
	"github.com/castaway-media/castaway/internal/sync"
	"github.com/castaway-media/castaway/pkg/logger"
)

var log = logger.Get("Core")

type (
	RunnableService interface {
		Run(context.Context) error
	}

	SyncService interface {
		Sync(context.Context) (*sync.Result, error)
	}

	StreamService interface {
		Stream(context.Context, string) (string, io.ReadCloser, error)
	}
)

// castawayImpl represents the top-level object for the server, and is
// responsible for initialising the stores, services and the REST
// gateway that make up Castaway.
type castawayImpl struct {
	config CastawayConfig

	catalogStore *catalog.FileStore
	blockStore   *blockstore.Client

	syncService   SyncService
	streamService StreamService
	restGateway   RunnableService
}

const CASTAWAY_USER_DIR_SUFFIX = "/castaway/"

func New(config CastawayConfig) *castawayImpl {
	log.Emit(logger.DEBUG, "Bootstrapping Castaway services using config: %#v\n", config)
	castaway := &castawayImpl{config: config}

	castaway.catalogStore = catalog.NewFileStore(config.getCatalogPath())
	castaway.blockStore = blockstore.NewClient(blockstore.Config{NodeURL: config.BlockStoreURL})

	syncConfig := sync.Config{MediaPath: config.MediaDirPath, Parallelism: config.SyncParallelism}
	if serv, err := sync.New(syncConfig, &media.Scraper{}, castaway.blockStore, castaway.catalogStore); err == nil {
		castaway.syncService = serv
	} else {
		panic(fmt.Sprintf("failed to construct sync service due to error: %s", err.Error()))
	}

	castaway.streamService = stream.New(castaway.blockStore, castaway.catalogStore)
	castaway.restGateway = api.NewRestGateway(
		&castaway.config.RestConfig,
		castaway.syncService,
		castaway.streamService,
		castaway.catalogStore,
		castaway.blockStore,
	)

	return castaway
}

// Run will start Castaway by bringing up the REST gateway, through
// which sync runs are triggered and catalogued content is streamed.
//
// This function will not return until Castaway is stopped. To stop
// Castaway, the provided context must be cancelled. Errors from which
// Castaway cannot recover will also cause it to stop.
func (castaway *castawayImpl) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	crashHandler := func(label string, err error) {
		log.Emit(logger.FATAL, "Service crash (%s)! %s\n", label, err.Error())
		cancel()
	}

	wg := &gosync.WaitGroup{}
	castaway.spawnAsyncService(ctx, wg, castaway.restGateway, "rest-gateway", crashHandler)
	log.Emit(logger.SUCCESS, "Castaway services spawned!\n")

	wg.Wait()
	return nil
}

// spawnAsyncService will run the provided function/service as it's own
// go-routine, ensuring that the Castaway service waitgroup is updated correctly
func (castaway *castawayImpl) spawnAsyncService(context context.Context, wg *gosync.WaitGroup, service RunnableService, serviceLabel string, crashHandler func(string, error)) {
	log.Emit(logger.NEW, "Spawning %s\n", serviceLabel)
	wg.Add(1)

	go func(wg *gosync.WaitGroup, label string, crash func(string, error)) {
		defer func() {
			if r := recover(); r != nil {
				crash(label, fmt.Errorf("panic %v", r))
			}
		}()

		defer wg.Done()
		if err := service.Run(context); err != nil {
			crash(label, err)
		}
	}(wg, serviceLabel, crashHandler)
}
