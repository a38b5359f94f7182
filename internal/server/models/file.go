// Package models defines server-side data models persisted in the database.
package models

import "time"

// File describes metadata for an uploaded object. The bytes themselves live
// in object storage; the record only carries the reference.
//
// UserID and the storage reference are immutable after creation. IsShared and
// ShareToken are mutated only through the share flow: a file has at most one
// live share token, and writing a new one supersedes the previous link.
type File struct {
	ID string
	// UserID is the owner of the file.
	UserID string
	// OriginalName is the client-supplied file name, kept for display and
	// download headers.
	OriginalName string
	// StorageKey is the object-storage key (path) of the blob.
	StorageKey string
	// StorageURL is the canonical object URL recorded at upload time.
	StorageURL string
	Size       int64
	MimeType   string

	IsShared   bool
	ShareToken string

	CreatedAt time.Time
}
