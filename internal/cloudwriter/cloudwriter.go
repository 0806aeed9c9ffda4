// Package cloudwriter uploads activity exports to object storage.
package cloudwriter

import "path"

// CloudWriter accumulates one object. Nothing is uploaded until Close.
type CloudWriter interface {
	Write(data []byte) (int, error)
	Close() error
}

// CloudWriterFactory opens a writer for one object in bucket.
type CloudWriterFactory interface {
	NewWriter(bucket, objectPath string) (CloudWriter, error)
}

// ObjectKey joins key segments with "/" regardless of the host OS. Empty segments are
// skipped.
func ObjectKey(parts ...string) string {
	return path.Join(parts...)
}
