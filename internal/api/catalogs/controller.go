package catalogs

import (
	"net/http"
	"sort"

	"github.com/castaway-media/castaway/internal/catalog"
	"github.com/labstack/echo/v4"
)

type (
	// EntryDto is the representation of a single catalog entry
	// returned by the listing endpoint.
	EntryDto struct {
		RelativePath    string   `json:"relative_path"`
		ContentID       string   `json:"content_id"`
		Size            int64    `json:"size"`
		Title           string   `json:"title,omitempty"`
		Artist          string   `json:"artist,omitempty"`
		Album           string   `json:"album,omitempty"`
		DurationSeconds *float64 `json:"duration_seconds,omitempty"`
		MimeType        string   `json:"mime_type"`
	}

	CatalogStore interface {
		Load() catalog.Catalog
	}

	Controller struct {
		store CatalogStore
	}
)

func New(store CatalogStore) *Controller {
	return &Controller{store: store}
}

// SetRoutes accepts the Echo group for the catalog endpoints
// and sets the routes on them.
func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/", controller.list)
}

// list returns every entry of the last-persisted catalog, ordered by
// relative path for stable output.
func (controller *Controller) list(ec echo.Context) error {
	entries := controller.store.Load()
	dtos := make([]*EntryDto, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, NewDto(entry))
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].RelativePath < dtos[j].RelativePath })

	return ec.JSON(http.StatusOK, dtos)
}

// NewDto creates an EntryDto from a catalog entry model.
func NewDto(entry *catalog.Entry) *EntryDto {
	return &EntryDto{
		RelativePath:    entry.RelativePath,
		ContentID:       entry.ContentID,
		Size:            entry.Size,
		Title:           entry.Title,
		Artist:          entry.Artist,
		Album:           entry.Album,
		DurationSeconds: entry.DurationSeconds,
		MimeType:        entry.MimeType,
	}
}
