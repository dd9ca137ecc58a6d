package catalog

// Entry records the ingestion result for a single media file. The
// relative path is the entry's identity within the catalog and never
// changes once assigned; the content ID is only present once the
// file's bytes have been successfully pushed to the block store, and
// Size is the file's byte count at the time of that push.
type Entry struct {
	RelativePath    string   `json:"relative_path"`
	ContentID       string   `json:"content_id,omitempty"`
	Size            int64    `json:"size"`
	Title           string   `json:"title,omitempty"`
	Artist          string   `json:"artist,omitempty"`
	Album           string   `json:"album,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	MimeType        string   `json:"mime_type"`
}

// Catalog maps a file's media-root-relative path to its entry. Keys
// are unique; iteration order is irrelevant.
type Catalog map[string]*Entry

// Clone returns a shallow copy of the catalog map. Entries themselves
// are shared; callers replace entries wholesale rather than mutating
// them in place.
func (c Catalog) Clone() Catalog {
	clone := make(Catalog, len(c))
	for path, entry := range c {
		clone[path] = entry
	}

	return clone
}

// FindByContentID scans the catalog for the first entry recorded
// against the given content ID. Content IDs are expected (but not
// enforced) to be unique across entries; when they are not, the first
// match wins. Returns nil if no entry matches.
func (c Catalog) FindByContentID(cid string) *Entry {
	if cid == "" {
		return nil
	}

	for _, entry := range c {
		if entry.ContentID == cid {
			return entry
		}
	}

	return nil
}
