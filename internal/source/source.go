package source

import "context"

// Item is one media entry as reported by the external catalog. Timestamps
// are milliseconds since epoch.
type Item struct {
	ExternalID   int64
	Path         string
	Name         string
	MimeType     string
	IsImage      bool
	SizeBytes    int64
	DateAdded    int64
	DateModified int64
	DateTaken    int64
}

// Enumerator lists the volatile external source of truth. Implementations
// must treat every error as transient; the sync engine retries the whole
// pass on its next trigger.
type Enumerator interface {
	// ListModifiedSince yields every item with DateModified >= watermark.
	// Implementations unable to filter may return the complete listing;
	// correctness is unaffected, only efficiency.
	ListModifiedSince(ctx context.Context, watermark int64) ([]Item, error)

	// ListIDs yields the external ids of the complete current listing.
	ListIDs(ctx context.Context) ([]int64, error)
}
