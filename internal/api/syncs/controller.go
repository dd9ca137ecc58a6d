package syncs

import (
	"context"
	"net/http"
	gosync "sync"

	"github.com/castaway-media/castaway/internal/sync"
	"github.com/castaway-media/castaway/pkg/logger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var controllerLogger = logger.Get("SyncsController")

type (
	// SyncDto is the response returned after a completed sync run.
	SyncDto struct {
		RunID      uuid.UUID `json:"run_id"`
		Total      int       `json:"total"`
		Added      int       `json:"added"`
		DurationMs int64     `json:"duration_ms"`
	}

	SyncService interface {
		Sync(context.Context) (*sync.Result, error)
	}

	// Controller triggers sync runs. The pipeline itself does not
	// coordinate concurrent runs, so the controller single-flights
	// them: a request arriving while a run is in progress is rejected
	// rather than queued.
	Controller struct {
		service SyncService
		running gosync.Mutex
	}
)

func New(service SyncService) *Controller {
	return &Controller{service: service}
}

// SetRoutes accepts the Echo group for the sync endpoints
// and sets the routes on them.
func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.POST("/", controller.performSync)
}

// performSync runs one full synchronisation and reports its result.
// The request blocks until the run completes.
func (controller *Controller) performSync(ec echo.Context) error {
	if !controller.running.TryLock() {
		return echo.NewHTTPError(http.StatusConflict, "a sync run is already in progress")
	}
	defer controller.running.Unlock()

	result, err := controller.service.Sync(ec.Request().Context())
	if err != nil {
		controllerLogger.Emit(logger.ERROR, "Sync run failed: %s\n", err.Error())
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	return ec.JSON(http.StatusOK, NewDto(result))
}

// NewDto creates a SyncDto from a pipeline run result.
func NewDto(result *sync.Result) *SyncDto {
	return &SyncDto{
		RunID:      result.RunID,
		Total:      result.Total,
		Added:      result.Added,
		DurationMs: result.Duration.Milliseconds(),
	}
}
