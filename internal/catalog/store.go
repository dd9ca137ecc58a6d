package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/castaway-media/castaway/pkg/logger"
)

var log = logger.Get("Catalog")

// FileStore persists a Catalog as a single JSON document on disk.
// Saves go through a temporary file in the same directory followed by
// a rename, so a reader never observes a partially written catalog; a
// crash mid-save leaves the previous catalog intact.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted catalog. A missing, unreadable or corrupt
// file is treated as "no prior state" and yields an empty catalog
// rather than an error; the durable file (if any) is left alone until
// the next Save.
func (store *FileStore) Load() Catalog {
	raw, err := os.ReadFile(store.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Emit(logger.WARNING, "Catalog file %s could not be read (%s), starting from an empty catalog\n", store.path, err.Error())
		}

		return make(Catalog)
	}

	catalog := make(Catalog)
	if err := json.Unmarshal(raw, &catalog); err != nil {
		log.Emit(logger.WARNING, "Catalog file %s is corrupt (%s), starting from an empty catalog\n", store.path, err.Error())
		return make(Catalog)
	}

	return catalog
}

// Save atomically replaces the durable catalog with the one provided.
// The new content is written to a temporary file which is fsync'd and
// then renamed over the destination.
func (store *FileStore) Save(catalog Catalog) error {
	dir := filepath.Dir(store.path)
	if err := os.MkdirAll(dir, os.ModeDir|os.ModePerm); err != nil {
		return fmt.Errorf("failed to create catalog directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary catalog file: %w", err)
	}

	if err := store.writeAndRename(tmp, catalog); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	log.Emit(logger.DEBUG, "Persisted catalog with %d entries to %s\n", len(catalog), store.path)
	return nil
}

func (store *FileStore) writeAndRename(tmp *os.File, catalog Catalog) error {
	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(catalog); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync catalog file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary catalog file: %w", err)
	}

	if err := os.Rename(tmp.Name(), store.path); err != nil {
		return fmt.Errorf("failed to replace catalog file: %w", err)
	}

	return nil
}
