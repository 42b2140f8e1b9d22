// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("corpora/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	eng, err := sqlgo.Open(ctx, sqlgo.Remote(store), sqlgo.WithCorpusKey("examples.json.zst"))
//
// # Features
//
//   - Range reads plus a single-request fast path for corpus loading
//   - Managed uploads for publishing corpus blobs
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
