package database

import (
	"time"

	"media-index/internal/packed"
)

// Kind classifies a media record for rendering purposes.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// NoExternalID marks a record that exists only in the local cache and is not
// subject to enumerator reconciliation.
const NoExternalID int64 = -1

// Absent is the sentinel for numeric scalar metadata that does not apply.
const Absent int64 = -1

// MediaRecord is one row of the media index. All timestamps are milliseconds
// since epoch (UTC). Packed attribute groups are decoded only through the
// packed package.
type MediaRecord struct {
	ID          int64  `json:"id"`
	ExternalID  int64  `json:"externalId"`
	Path        string `json:"path"`
	ParentPath  string `json:"parentPath"`
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	MimeType    string `json:"mimeType,omitempty"`
	SizeBytes   int64  `json:"sizeBytes"`
	Bitrate     int64  `json:"bitrate"`
	Year        int64  `json:"year"`
	Description string `json:"description,omitempty"`

	DateAdded    int64 `json:"dateAdded"`
	DateModified int64 `json:"dateModified"`
	DateTaken    int64 `json:"dateTaken"`
	// DateExpires is meaningful only while the record is trashed.
	DateExpires int64 `json:"dateExpires,omitempty"`

	Extras     packed.Extras     `json:"-"`
	Timeline   packed.Timeline   `json:"-"`
	Resolution packed.Resolution `json:"-"`
	Location   packed.GeoPoint   `json:"-"`
}

// SnapshotRow is the read-only projection served to list/grid consumers.
// Never persisted; Order and Header are filled in by the snapshot engine.
type SnapshotRow struct {
	ID           int64
	ThumbnailRef string
	// Order is the intra-group ordinal, -1 before grouping is applied.
	Order int
	// Header is the group label; empty on every row except a group head.
	Header       string
	IsImage      bool
	DateModified int64
	Extras       packed.Extras
	Timeline     packed.Timeline
	Resolution   packed.Resolution
}

// FolderSummary aggregates the visible items sharing one parent path.
type FolderSummary struct {
	Path        string `json:"path"`
	ItemCount   int    `json:"itemCount"`
	LatestMedia int64  `json:"latestMedia"`
	CoverRef    string `json:"coverRef,omitempty"`
}

// IndexStats is the cached statistics snapshot exposed by the stats endpoint.
type IndexStats struct {
	TotalItems    int       `json:"totalItems"`
	TotalImages   int       `json:"totalImages"`
	TotalVideos   int       `json:"totalVideos"`
	TotalLiked    int       `json:"totalLiked"`
	TotalTrashed  int       `json:"totalTrashed"`
	TotalArchived int       `json:"totalArchived"`
	TotalPrivate  int       `json:"totalPrivate"`
	LastSynced    time.Time `json:"lastSynced"`
	SyncDuration  string    `json:"syncDuration"`
}
