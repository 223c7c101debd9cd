// Package database implements the durable media index store on SQLite:
// canonical records keyed uniquely by path, watermark and reconciliation
// support for the sync engine, view-filtered snapshot queries, and the
// lifecycle flag updates behind trash/archive/private/liked.
package database
