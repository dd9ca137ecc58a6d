package sync

import "github.com/castaway-media/castaway/internal/catalog"

// needsIngest decides whether a file must be (re)pushed to the block
// store. A file is skipped only when a previous catalog entry exists,
// that entry records a completed push (non-empty content ID), and its
// recorded size exactly matches the file's current size. Everything
// else - no entry, an entry without a content ID, a size mismatch -
// requires ingestion.
//
// Size is the only change signal: a file rewritten to the exact same
// byte count with different content is not detected.
func needsIngest(previous *catalog.Entry, currentSize int64) bool {
	if previous == nil {
		return true
	}

	if previous.ContentID == "" {
		return true
	}

	return previous.Size != currentSize
}
