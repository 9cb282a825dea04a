// Package storage is the blob-storage collaborator: it takes a staged
// local file, puts it on an S3-compatible host, and hands back a public
// URL plus the object key needed to delete it later.
package storage

import "context"

// Upload is the result of pushing one file to blob storage.
type Upload struct {
	URL string // public URL clients can fetch
	Key string // object key, kept for later deletion
}

// BlobStorage is what the user service depends on. The S3 client
// implements it; tests substitute an in-memory fake.
type BlobStorage interface {
	// Upload pushes the file at localPath and returns its public location.
	Upload(ctx context.Context, localPath string) (*Upload, error)
	// Delete removes a previously uploaded object by key.
	Delete(ctx context.Context, key string) error
}
