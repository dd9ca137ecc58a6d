package media

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// FileAudioMetadata is the best-effort information recovered from a
// media file's embedded tags. Any (or all) of the fields may be
// missing; absence is a normal outcome, not an error.
type FileAudioMetadata struct {
	Title           string
	Artist          string
	Album           string
	DurationSeconds *float64
}

type Scraper struct{}

// ScrapeFileForAudioInfo opens the file at the given path and reads
// whatever embedded tags it can find (ID3v1/v2, MP4, FLAC, OGG).
// Callers treat failure as "no metadata" and proceed with ingestion
// regardless.
func (scraper *Scraper) ScrapeFileForAudioInfo(path string) (*FileAudioMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for tag scraping: %w", path, err)
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags from %s: %w", path, err)
	}

	return &FileAudioMetadata{
		Title:  metadata.Title(),
		Artist: metadata.Artist(),
		Album:  metadata.Album(),
	}, nil
}
