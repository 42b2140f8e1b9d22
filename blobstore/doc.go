// Package blobstore provides storage abstraction for published example corpora.
//
// BlobStore is the interface for reading and writing corpus blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with atomic writes
//   - MemoryStore: in-memory store for tests and ephemeral corpora
//   - s3.Store: Amazon S3 with range reads and managed uploads
//   - minio.Store: MinIO and other S3-compatible object stores
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)   // Open for reading
//	    Put(ctx, name, data) error      // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Blobs that can produce their full contents in one request should also
// implement Mappable; corpus loading uses it to avoid chunked range reads:
//
//	type Mappable interface {
//	    Bytes() ([]byte, error)
//	}
package blobstore
