package api

import (
	"context"
	"net/http"
	gosync "sync"

	"github.com/castaway-media/castaway/internal/api/catalogs"
	"github.com/castaway-media/castaway/internal/api/streams"
	"github.com/castaway-media/castaway/internal/api/syncs"
	"github.com/castaway-media/castaway/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var log = logger.Get("API")

type (
	RestConfig struct {
		HostAddr string `yaml:"host_address" env:"API_HOST_ADDR" env-default:"0.0.0.0:8080"`
	}

	controller interface {
		SetRoutes(*echo.Group)
	}

	healthChecker interface {
		Version(context.Context) error
	}

	// The RestGateway is a thin wrapper around the Echo HTTP router.
	// Its sole responsibility is to create the routes Castaway
	// exposes and to hand requests to the controllers.
	RestGateway struct {
		config            *RestConfig
		ec                *echo.Echo
		healthChecker     healthChecker
		syncController    controller
		catalogController controller
		streamController  controller
	}
)

// NewRestGateway constructs the Echo router and populates it with all
// the routes defined by the various controllers.
func NewRestGateway(
	config *RestConfig,
	syncService syncs.SyncService,
	streamService streams.StreamService,
	catalogStore catalogs.CatalogStore,
	healthChecker healthChecker,
) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true

	gateway := &RestGateway{
		config:            config,
		ec:                ec,
		healthChecker:     healthChecker,
		syncController:    syncs.New(syncService),
		catalogController: catalogs.New(catalogStore),
		streamController:  streams.New(streamService),
	}

	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())
	ec.Pre(middleware.AddTrailingSlash())

	ec.GET("/api/castaway/v1/health/", gateway.health)

	syncGroup := ec.Group("/api/castaway/v1/sync")
	gateway.syncController.SetRoutes(syncGroup)

	catalogGroup := ec.Group("/api/castaway/v1/catalog")
	gateway.catalogController.SetRoutes(catalogGroup)

	streamGroup := ec.Group("/api/castaway/v1/stream")
	gateway.streamController.SetRoutes(streamGroup)

	return gateway
}

func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	wg := &gosync.WaitGroup{}

	// Start echo router
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gateway.ec.Start(gateway.config.HostAddr); err != nil {
			ctxCancel(err)
		}
	}()

	// Start thread to listen for context cancellation
	go func(ec *echo.Echo) {
		<-ctx.Done()
		ec.Close()
	}(gateway.ec)

	wg.Wait()

	// Return cancellation cause if any, otherwise nil as parent context
	// cancellation is not an error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}

// health reports liveness of the gateway and of the block store
// capability behind it.
func (gateway *RestGateway) health(ec echo.Context) error {
	if err := gateway.healthChecker.Version(ec.Request().Context()); err != nil {
		return ec.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "block_store": err.Error()})
	}

	return ec.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
