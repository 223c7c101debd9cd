// Package source defines the external enumerator collaborator the sync
// engine reconciles against, and a filesystem-backed implementation that
// walks a media directory.
package source
