package sync

// Config contains the options that control how the sync service
// discovers and ingests media files.
type Config struct {
	// The root directory that is walked for candidate media files.
	// Entries in the catalog are keyed by their path relative to
	// this root.
	MediaPath string

	// Controls the number of files that may be ingested concurrently
	// within a single run. Caution should be taken to not increase
	// this value too high, as every in-flight ingestion holds an open
	// upload against the block store, which may impose rate limits.
	Parallelism int
}

// DefaultParallelism is used when the configured bound is zero
// or negative.
const DefaultParallelism = 2

func (config *Config) parallelism() int {
	if config.Parallelism < 1 {
		return DefaultParallelism
	}

	return config.Parallelism
}
