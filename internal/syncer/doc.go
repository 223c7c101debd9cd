// Package syncer reconciles the external media catalog against the index
// store: watermark-bounded enumeration, batched upserts that never clobber
// user-set attribute bits, and mark-and-sweep removal of vanished items.
package syncer
