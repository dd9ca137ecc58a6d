package sync

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/castaway-media/castaway/internal/media"
	"github.com/castaway-media/castaway/pkg/logger"
)

// discoverAudioFiles walks the file system starting at the media root
// and returns every regular file carrying a known audio extension,
// keyed by its root-relative path with its size as the value.
// Problems with individual entries (permission errors, dangling
// symlinks) are logged and the entry skipped; only a failure on the
// root itself aborts the walk.
func discoverAudioFiles(rootDirPath string) (map[string]int64, error) {
	foundItems := make(map[string]int64)
	err := filepath.WalkDir(rootDirPath, func(path string, dir fs.DirEntry, err error) error {
		if err != nil {
			if path == rootDirPath {
				return err
			}

			log.Emit(logger.WARNING, "Skipping %s during media walk: %s\n", path, err.Error())
			if dir != nil && dir.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if dir.IsDir() || !media.IsAudioFile(path) {
			return nil
		}

		// Symlinks and other non-regular entries are not candidates:
		// a symlink's recorded (lstat) size never matches its target's,
		// which would force a fresh ingestion on every single run.
		if !dir.Type().IsRegular() {
			log.Emit(logger.WARNING, "Skipping %s during media walk, not a regular file\n", path)
			return nil
		}

		fileInfo, err := dir.Info()
		if err != nil {
			log.Emit(logger.WARNING, "Skipping %s during media walk, could not stat: %s\n", path, err.Error())
			return nil
		}

		relPath, err := filepath.Rel(rootDirPath, path)
		if err != nil {
			log.Emit(logger.WARNING, "Skipping %s during media walk, not relative to root: %s\n", path, err.Error())
			return nil
		}

		foundItems[relPath] = fileInfo.Size()
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk media directory: %w", err)
	}

	return foundItems, nil
}
