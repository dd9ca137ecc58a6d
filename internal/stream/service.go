package stream

import (
	"context"
	"io"

	"github.com/castaway-media/castaway/internal/catalog"
	"github.com/castaway-media/castaway/internal/media"
	"github.com/castaway-media/castaway/pkg/logger"
)

var log = logger.Get("StreamServ")

type (
	contentStore interface {
		Cat(ctx context.Context, cid string) (io.ReadCloser, error)
	}

	catalogStore interface {
		Load() catalog.Catalog
	}

	// streamService serves object bytes for a content ID. The catalog
	// is only consulted for the mime type; byte delivery is delegated
	// to the block store so objects are piped through rather than
	// buffered. Each request reads the last-persisted catalog, never
	// the working copy of any in-progress sync run.
	streamService struct {
		contentStore contentStore
		catalogStore catalogStore
	}
)

func New(contentStore contentStore, catalogStore catalogStore) *streamService {
	return &streamService{contentStore: contentStore, catalogStore: catalogStore}
}

// Stream resolves the content ID to a mime type via the persisted
// catalog (first matching entry wins; unmatched IDs fall back to the
// default audio mime type) and opens the object's byte stream from
// the block store. Retrieval failures - including unknown content
// IDs - propagate to the caller. The caller owns the returned stream.
func (service *streamService) Stream(ctx context.Context, cid string) (string, io.ReadCloser, error) {
	mimeType := media.DefaultMimeType
	if entry := service.catalogStore.Load().FindByContentID(cid); entry != nil && entry.MimeType != "" {
		mimeType = entry.MimeType
	} else {
		log.Emit(logger.DEBUG, "Content ID %s has no catalog entry, assuming %s\n", cid, mimeType)
	}

	source, err := service.contentStore.Cat(ctx, cid)
	if err != nil {
		return "", nil, err
	}

	return mimeType, source, nil
}
