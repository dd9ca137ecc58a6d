package streams

import (
	"context"
	"io"
	"net/http"

	"github.com/castaway-media/castaway/pkg/logger"
	"github.com/labstack/echo/v4"
)

var controllerLogger = logger.Get("StreamsController")

type (
	StreamService interface {
		Stream(ctx context.Context, cid string) (string, io.ReadCloser, error)
	}

	Controller struct {
		service StreamService
	}
)

func New(service StreamService) *Controller {
	return &Controller{service: service}
}

// SetRoutes accepts the Echo group for the stream endpoints
// and sets the routes on them.
func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/:cid/", controller.get)
}

// get pipes the object identified by the 'cid' path param to the
// response. Content is immutable by construction (the path is a
// content identifier) so the response carries long-lived cache
// directives. Range requests are not supported; the object is always
// streamed whole.
func (controller *Controller) get(ec echo.Context) error {
	cid := ec.Param("cid")
	if cid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content identifier missing from path")
	}

	mimeType, source, err := controller.service.Stream(ec.Request().Context(), cid)
	if err != nil {
		controllerLogger.Emit(logger.ERROR, "Retrieval of %s failed: %s\n", cid, err.Error())
		return echo.NewHTTPError(http.StatusNotFound, "content could not be retrieved")
	}
	defer source.Close()

	ec.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	return ec.Stream(http.StatusOK, mimeType, source)
}
